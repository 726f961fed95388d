// Package school содержит общие для школы коллекции: шаблоны заданий,
// проекты, события, тесты, учебные материалы, апелляции и сообщения.
// Каждая коллекция хранится одним документом-массивом.
package school

import (
	"net/url"
	"strings"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/moderation"
	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Collection - имя документа коллекции в хранилище.
type Collection string

const (
	CollectionQuests    Collection = "quests"
	CollectionProjects  Collection = "projects"
	CollectionEvents    Collection = "events"
	CollectionQuizzes   Collection = "quizzes"
	CollectionResources Collection = "resources"
	CollectionAppeals   Collection = "appeals"
	CollectionMessages  Collection = "messages"
)

// Item - элемент коллекции с идентификатором.
type Item interface {
	GetID() string
}

// ══════════════════════════════════════════════════════════════════════════════
// QUEST TEMPLATE
// ══════════════════════════════════════════════════════════════════════════════

// QuestTemplate - шаблон ежедневного задания.
type QuestTemplate struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Reward int    `json:"reward"`
}

func (q QuestTemplate) GetID() string { return q.ID }

// Validate проверяет шаблон.
func (q QuestTemplate) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return shared.NewDomainError("school", "ValidateQuest", shared.ErrEmptyValue, "quest text is required")
	}
	if q.Reward <= 0 {
		return shared.NewDomainError("school", "ValidateQuest", shared.ErrValueOutOfRange, "quest reward must be positive")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECT
// ══════════════════════════════════════════════════════════════════════════════

// Project - школьный проект, за сдачу которого начисляются очки.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Points      int      `json:"points"`
	Mentors     []string `json:"mentors"`
	Members     []string `json:"members"`
}

func (p Project) GetID() string { return p.ID }

// Validate проверяет проект.
func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return shared.NewDomainError("school", "ValidateProject", shared.ErrEmptyValue, "project title is required")
	}
	if p.Points < 0 {
		return shared.NewDomainError("school", "ValidateProject", shared.ErrValueOutOfRange, "project points cannot be negative")
	}
	return nil
}

// HasMember проверяет участие ученика.
func (p Project) HasMember(studentID string) bool {
	for _, m := range p.Members {
		if m == studentID {
			return true
		}
	}
	return false
}

// Join добавляет участника. Повторное вступление ничего не меняет.
func (p *Project) Join(studentID string) bool {
	if p.HasMember(studentID) {
		return false
	}
	p.Members = append(p.Members, studentID)
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT
// ══════════════════════════════════════════════════════════════════════════════

// Event - школьное мероприятие. Date хранится строкой, как её ввёл сотрудник.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (e Event) GetID() string { return e.ID }

// Validate проверяет событие.
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Date) == "" {
		return shared.NewDomainError("school", "ValidateEvent", shared.ErrEmptyValue, "event title and date are required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNING RESOURCE
// ══════════════════════════════════════════════════════════════════════════════

// ResourceType - формат материала.
type ResourceType string

const (
	ResourceVideo   ResourceType = "video"
	ResourceArticle ResourceType = "article"
	ResourcePDF     ResourceType = "pdf"
)

// LearningResource - учебный материал.
type LearningResource struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        ResourceType `json:"type"`
	URL         string       `json:"url"`
	Tags        []string     `json:"tags"`
}

func (r LearningResource) GetID() string { return r.ID }

// MatchesAny возвращает true, если хотя бы один тег совпадает с интересом.
func (r LearningResource) MatchesAny(interests []string) bool {
	for _, tag := range r.Tags {
		for _, in := range interests {
			if strings.EqualFold(tag, in) {
				return true
			}
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// APPEAL
// ══════════════════════════════════════════════════════════════════════════════

// AppealStatus - состояние апелляции.
type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

// Appeal - запрос ученика на пересмотр успеваемости.
type Appeal struct {
	ID                string       `json:"id"`
	StudentID         string       `json:"studentId"`
	StudentName       string       `json:"studentName"`
	ClaimedPercentage float64      `json:"claimedPercentage"`
	Reason            string       `json:"reason"`
	Status            AppealStatus `json:"status"`
	Timestamp         time.Time    `json:"timestamp"`
	AnswerSheetURL    string       `json:"answerSheetUrl,omitempty"`
	ResolvedAt        *time.Time   `json:"resolvedAt,omitempty"`
	// GrantedPercentage - итоговый процент одобренной апелляции.
	GrantedPercentage *float64 `json:"grantedPercentage,omitempty"`
}

func (a Appeal) GetID() string { return a.ID }

// NewAppeal создаёт апелляцию в статусе pending.
func NewAppeal(id, studentID, studentName string, claimed float64, reason, answerSheetURL string, now time.Time) (Appeal, error) {
	reason = strings.TrimSpace(reason)
	if claimed < 0 || claimed > 100 {
		return Appeal{}, shared.NewDomainError("school", "NewAppeal", shared.ErrValueOutOfRange, "claimed percentage must be between 0 and 100")
	}
	if reason == "" {
		return Appeal{}, shared.NewDomainError("school", "NewAppeal", shared.ErrEmptyValue, "reason is required")
	}
	if err := moderation.CheckText(reason, "reason"); err != nil {
		return Appeal{}, err
	}
	if answerSheetURL != "" {
		if err := ValidateURL(answerSheetURL); err != nil {
			return Appeal{}, err
		}
	}
	return Appeal{
		ID:                id,
		StudentID:         studentID,
		StudentName:       studentName,
		ClaimedPercentage: claimed,
		Reason:            reason,
		Status:            AppealPending,
		Timestamp:         now,
		AnswerSheetURL:    answerSheetURL,
	}, nil
}

// Resolve фиксирует решение. Повторно решить апелляцию нельзя.
func (a *Appeal) Resolve(approve bool, granted float64, now time.Time) error {
	if a.Status != AppealPending {
		return shared.ErrAppealResolved
	}
	if approve {
		if granted < 0 || granted > 100 {
			return shared.NewDomainError("school", "ResolveAppeal", shared.ErrValueOutOfRange, "percentage must be between 0 and 100")
		}
		a.Status = AppealApproved
		a.GrantedPercentage = &granted
	} else {
		a.Status = AppealRejected
	}
	a.ResolvedAt = &now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE
// ══════════════════════════════════════════════════════════════════════════════

// Message - личное сообщение между профилями.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

func (m Message) GetID() string { return m.ID }

const maxMessageLength = 2000

// NewMessage создаёт сообщение после модерации.
func NewMessage(id, senderID, receiverID, text string, now time.Time) (Message, error) {
	text = strings.TrimSpace(text)
	switch {
	case senderID == receiverID:
		return Message{}, shared.NewDomainError("school", "NewMessage", shared.ErrInvalidInput, "cannot message yourself")
	case text == "":
		return Message{}, shared.NewDomainError("school", "NewMessage", shared.ErrEmptyValue, "message text is required")
	case len([]rune(text)) > maxMessageLength:
		return Message{}, shared.Validationf("school", "NewMessage", "message must be at most %d characters", maxMessageLength)
	}
	if err := moderation.CheckText(text, "message"); err != nil {
		return Message{}, err
	}
	return Message{ID: id, SenderID: senderID, ReceiverID: receiverID, Text: text, Timestamp: now}, nil
}

// Between возвращает true, если сообщение относится к диалогу a и b.
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// ValidateURL проверяет, что строка - абсолютный http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return shared.Validationf("school", "ValidateURL", "invalid URL %q", raw)
	}
	return nil
}
