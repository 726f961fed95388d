// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/retry"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE EXECUTOR
// Every profile mutation runs through Executor.Mutate:
//   1. load a fresh copy, apply the domain change, verify the point sum;
//   2. save with compare-and-swap, retrying the whole cycle on conflict.
// Events are published only after the save succeeded.
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator produces identifiers for new records.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string { return uuid.NewString() }

// Change describes what a mutation did to the loaded profile.
type Change struct {
	// Reason is attached to the derived points_changed event.
	Reason string

	// Events are published after a successful save, before derived ones.
	Events []shared.Event

	// NoOp skips the save: the mutation found nothing to change.
	NoOp bool
}

// Mutation applies a domain change to a freshly loaded profile.
type Mutation func(s *student.Student, now time.Time) (Change, error)

// Outcome is the persisted result of a mutation.
type Outcome struct {
	Student        *student.Student
	Change         Change
	PreviousPoints int
	Published      []shared.Event
}

// PointsDelta returns how many points the mutation added or removed.
func (o *Outcome) PointsDelta() int {
	return o.Student.Points - o.PreviousPoints
}

// Executor serializes profile mutations through optimistic concurrency.
type Executor struct {
	students  student.Repository
	locker    student.Locker
	publisher shared.EventPublisher
	clock     timeutil.Clock
	retrier   *retry.Retrier
	strict    bool
	log       *logger.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLocker sets a cross-instance profile lock.
func WithLocker(l student.Locker) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithStrictInvariant toggles the point-sum check before every save.
func WithStrictInvariant(strict bool) ExecutorOption {
	return func(e *Executor) { e.strict = strict }
}

// WithRetrier overrides the conflict retry policy.
func WithRetrier(r *retry.Retrier) ExecutorOption {
	return func(e *Executor) {
		if r != nil {
			e.retrier = r
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(l *logger.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExecutor creates an Executor.
func NewExecutor(students student.Repository, publisher shared.EventPublisher, clock timeutil.Clock, opts ...ExecutorOption) *Executor {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	e := &Executor{
		students:  students,
		locker:    student.NoopLocker{},
		publisher: publisher,
		clock:     clock,
		strict:    true,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.retrier == nil {
		e.retrier = retry.ConflictRetrier(shared.IsConflict).With(
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				e.log.Debug("profile save conflict, retrying",
					logger.Attempt(attempt), logger.Duration("delay", delay), logger.Err(err))
			}),
		)
	}
	return e
}

// Clock returns the executor clock.
func (e *Executor) Clock() timeutil.Clock { return e.clock }

// Retrier returns the conflict retry policy, shared with collection updates.
func (e *Executor) Retrier() *retry.Retrier { return e.retrier }

// Publisher returns the event publisher.
func (e *Executor) Publisher() shared.EventPublisher { return e.publisher }

// Mutate loads the profile, applies fn and saves it. fn may run several times
// when the save races with another writer, so it must only touch s.
func (e *Executor) Mutate(ctx context.Context, studentID string, fn Mutation) (*Outcome, error) {
	unlock, err := e.locker.Lock(ctx, studentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *Outcome
	err = e.retrier.Do(ctx, func(ctx context.Context) error {
		s, err := e.students.GetByID(ctx, studentID)
		if err != nil {
			return err
		}
		before := s.Points

		now := e.clock.Now()
		change, err := fn(s, now)
		if err != nil {
			return err
		}
		if !change.NoOp {
			if e.strict {
				if err := s.CheckPoints(); err != nil {
					e.log.Error("refusing to save profile with drifted points",
						logger.StudentID(studentID), logger.Points(s.Points),
						logger.Int("expected", s.ExpectedPoints()))
					return err
				}
			}
			if err := e.students.Save(ctx, s); err != nil {
				return err
			}
		}

		out = &Outcome{Student: s, Change: change, PreviousPoints: before}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Published = e.publish(studentID, out)
	return out, nil
}

// publish sends the mutation's own events followed by derived progress events.
func (e *Executor) publish(studentID string, out *Outcome) []shared.Event {
	if out.Change.NoOp {
		return nil
	}
	events := append([]shared.Event(nil), out.Change.Events...)
	events = append(events, ProgressEvents(studentID, out.PreviousPoints, out.Student.Points, out.Change.Reason, e.clock.Now())...)
	e.Dispatch(events...)
	return events
}

// Dispatch publishes events, logging failures. A failed publish never undoes
// a persisted change.
func (e *Executor) Dispatch(events ...shared.Event) {
	for _, ev := range events {
		if err := e.publisher.Publish(ev); err != nil {
			e.log.Warn("event publish failed",
				logger.String("event_type", string(ev.EventType())),
				logger.String("aggregate_id", ev.AggregateID()),
				logger.Err(err))
		}
	}
}

// ProgressEvents derives points, level and badge events from a point change.
func ProgressEvents(studentID string, from, to int, reason string, at time.Time) []shared.Event {
	if from == to {
		return nil
	}
	events := []shared.Event{shared.NewPointsChangedEvent(studentID, from, to, reason, at)}

	oldLevel, newLevel := progression.LevelFor(from), progression.LevelFor(to)
	if newLevel.Level > oldLevel.Level {
		events = append(events, shared.NewLevelUpEvent(studentID, oldLevel.Level, newLevel.Level, newLevel.Name, at))
	}
	for _, b := range progression.NewlyUnlocked(from, to) {
		events = append(events, shared.NewBadgeUnlockedEvent(studentID, b.ID, b.Name, at))
	}
	return events
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTION UPDATES
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCollection rewrites a collection document with the same CAS retry
// cycle as profiles. fn receives a private copy of the items.
func UpdateCollection[T school.Item](ctx context.Context, r *retry.Retrier, repo school.Repository[T], fn func(items []T) ([]T, error)) ([]T, error) {
	return retry.DoWithData(ctx, r, func(ctx context.Context) ([]T, error) {
		items, version, err := repo.Load(ctx)
		if err != nil {
			return nil, err
		}
		updated, err := fn(append([]T(nil), items...))
		if err != nil {
			return nil, err
		}
		if _, err := repo.Store(ctx, updated, version); err != nil {
			return nil, err
		}
		return updated, nil
	})
}
