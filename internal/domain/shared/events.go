package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events are published only after the change that
// produced them has been persisted.
const (
	// Profile events
	EventStudentRegistered EventType = "student.registered"
	EventProfileUpdated    EventType = "student.profile_updated"

	// Progress events
	EventPointsChanged  EventType = "progress.points_changed"
	EventLevelUp        EventType = "progress.level_up"
	EventBadgeUnlocked  EventType = "progress.badge_unlocked"
	EventStreakUpdated  EventType = "progress.streak_updated"
	EventStreakBroken   EventType = "progress.streak_broken"
	EventActivityLogged EventType = "progress.activity_logged"

	// Verification events
	EventSubmissionSettled EventType = "verification.submission_settled"
	EventQuestSettled      EventType = "verification.quest_settled"

	// Quest events
	EventQuestAssigned  EventType = "quest.assigned"
	EventQuestSubmitted EventType = "quest.submitted"
	EventQuestArchived  EventType = "quest.archived"

	// School events
	EventAppealResolved EventType = "school.appeal_resolved"
	EventCatalogChanged EventType = "school.catalog_changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped with the given time.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a profile is created.
type StudentRegisteredEvent struct {
	BaseEvent
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"name":       e.Name,
		"email":      e.Email,
	}
}

func NewStudentRegisteredEvent(studentID, name, email string, at time.Time) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent: NewBaseEvent(EventStudentRegistered, studentID, at),
		Name:      name,
		Email:     email,
	}
}

// ProfileUpdatedEvent is emitted after a profile edit.
type ProfileUpdatedEvent struct {
	BaseEvent
	Fields []string `json:"fields"`
}

func (e ProfileUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"fields":     e.Fields,
	}
}

func NewProfileUpdatedEvent(studentID string, fields []string, at time.Time) ProfileUpdatedEvent {
	return ProfileUpdatedEvent{
		BaseEvent: NewBaseEvent(EventProfileUpdated, studentID, at),
		Fields:    fields,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsChangedEvent is emitted whenever a profile's point total moves.
type PointsChangedEvent struct {
	BaseEvent
	OldPoints int    `json:"old_points"`
	NewPoints int    `json:"new_points"`
	Reason    string `json:"reason"`
}

func (e PointsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"old_points": e.OldPoints,
		"new_points": e.NewPoints,
		"delta":      e.Delta(),
		"reason":     e.Reason,
	}
}

// Delta returns NewPoints - OldPoints.
func (e PointsChangedEvent) Delta() int {
	return e.NewPoints - e.OldPoints
}

func NewPointsChangedEvent(studentID string, oldPoints, newPoints int, reason string, at time.Time) PointsChangedEvent {
	return PointsChangedEvent{
		BaseEvent: NewBaseEvent(EventPointsChanged, studentID, at),
		OldPoints: oldPoints,
		NewPoints: newPoints,
		Reason:    reason,
	}
}

// LevelUpEvent is emitted when the derived level increases.
type LevelUpEvent struct {
	BaseEvent
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	LevelName string `json:"level_name"`
}

func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"level_name": e.LevelName,
	}
}

func NewLevelUpEvent(studentID string, oldLevel, newLevel int, name string, at time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, studentID, at),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		LevelName: name,
	}
}

// BadgeUnlockedEvent is emitted when points cross a badge threshold.
type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
}

func (e BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
	}
}

func NewBadgeUnlockedEvent(studentID, badgeID, badgeName string, at time.Time) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{
		BaseEvent: NewBaseEvent(EventBadgeUnlocked, studentID, at),
		BadgeID:   badgeID,
		BadgeName: badgeName,
	}
}

// StreakUpdatedEvent is emitted on the first login of a calendar day.
// Broken is set when the streak restarted at 1.
type StreakUpdatedEvent struct {
	BaseEvent
	PreviousStreak int  `json:"previous_streak"`
	Streak         int  `json:"streak"`
	Broken         bool `json:"broken"`
}

func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.AggregateId,
		"previous_streak": e.PreviousStreak,
		"streak":          e.Streak,
		"broken":          e.Broken,
	}
}

func NewStreakUpdatedEvent(studentID string, previous, streak int, broken bool, at time.Time) StreakUpdatedEvent {
	eventType := EventStreakUpdated
	if broken {
		eventType = EventStreakBroken
	}
	return StreakUpdatedEvent{
		BaseEvent:      NewBaseEvent(eventType, studentID, at),
		PreviousStreak: previous,
		Streak:         streak,
		Broken:         broken,
	}
}

// ActivityLoggedEvent is emitted when an activity is appended to the ledger.
type ActivityLoggedEvent struct {
	BaseEvent
	ActivityID string `json:"activity_id"`
	Kind       string `json:"kind"`
	Points     int    `json:"points"`
	Pending    bool   `json:"pending"`
}

func (e ActivityLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.AggregateId,
		"activity_id": e.ActivityID,
		"kind":        e.Kind,
		"points":      e.Points,
		"pending":     e.Pending,
	}
}

func NewActivityLoggedEvent(studentID, activityID, kind string, points int, pending bool, at time.Time) ActivityLoggedEvent {
	return ActivityLoggedEvent{
		BaseEvent:  NewBaseEvent(EventActivityLogged, studentID, at),
		ActivityID: activityID,
		Kind:       kind,
		Points:     points,
		Pending:    pending,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Verification Events
// ═══════════════════════════════════════════════════════════════════════════

// SubmissionSettledEvent is emitted when staff approve or reject an activity.
type SubmissionSettledEvent struct {
	BaseEvent
	ActivityID string `json:"activity_id"`
	Decision   string `json:"decision"`
	Delta      int    `json:"delta"`
}

func (e SubmissionSettledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.AggregateId,
		"activity_id": e.ActivityID,
		"decision":    e.Decision,
		"delta":       e.Delta,
	}
}

func NewSubmissionSettledEvent(studentID, activityID, decision string, delta int, at time.Time) SubmissionSettledEvent {
	return SubmissionSettledEvent{
		BaseEvent:  NewBaseEvent(EventSubmissionSettled, studentID, at),
		ActivityID: activityID,
		Decision:   decision,
		Delta:      delta,
	}
}

// QuestSettledEvent is emitted when staff resolve a pending daily quest.
type QuestSettledEvent struct {
	BaseEvent
	QuestID  string `json:"quest_id"`
	Decision string `json:"decision"`
	Reward   int    `json:"reward"`
}

func (e QuestSettledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"quest_id":   e.QuestID,
		"decision":   e.Decision,
		"reward":     e.Reward,
	}
}

func NewQuestSettledEvent(studentID, questID, decision string, reward int, at time.Time) QuestSettledEvent {
	return QuestSettledEvent{
		BaseEvent: NewBaseEvent(EventQuestSettled, studentID, at),
		QuestID:   questID,
		Decision:  decision,
		Reward:    reward,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quest Events
// ═══════════════════════════════════════════════════════════════════════════

// QuestEvent covers assignment, submission and archival of a daily quest.
type QuestEvent struct {
	BaseEvent
	QuestID string `json:"quest_id"`
	Status  string `json:"status"`
	Reward  int    `json:"reward"`
}

func (e QuestEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.AggregateId,
		"quest_id":   e.QuestID,
		"status":     e.Status,
		"reward":     e.Reward,
	}
}

func NewQuestEvent(eventType EventType, studentID, questID, status string, reward int, at time.Time) QuestEvent {
	return QuestEvent{
		BaseEvent: NewBaseEvent(eventType, studentID, at),
		QuestID:   questID,
		Status:    status,
		Reward:    reward,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// School Events
// ═══════════════════════════════════════════════════════════════════════════

// AppealResolvedEvent is emitted when the principal decides an appeal.
type AppealResolvedEvent struct {
	BaseEvent
	StudentID     string   `json:"student_id"`
	Decision      string   `json:"decision"`
	NewPercentage *float64 `json:"new_percentage,omitempty"`
}

func (e AppealResolvedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"appeal_id":  e.AggregateId,
		"student_id": e.StudentID,
		"decision":   e.Decision,
	}
	if e.NewPercentage != nil {
		p["new_percentage"] = *e.NewPercentage
	}
	return p
}

func NewAppealResolvedEvent(appealID, studentID, decision string, newPercentage *float64, at time.Time) AppealResolvedEvent {
	return AppealResolvedEvent{
		BaseEvent:     NewBaseEvent(EventAppealResolved, appealID, at),
		StudentID:     studentID,
		Decision:      decision,
		NewPercentage: newPercentage,
	}
}

// CatalogChangedEvent is emitted when a shared collection document is rewritten.
type CatalogChangedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
}

func (e CatalogChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"collection": e.Collection,
		"item_id":    e.AggregateId,
	}
}

func NewCatalogChangedEvent(collection, itemID string, at time.Time) CatalogChangedEvent {
	return CatalogChangedEvent{
		BaseEvent:  NewBaseEvent(EventCatalogChanged, itemID, at),
		Collection: collection,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
