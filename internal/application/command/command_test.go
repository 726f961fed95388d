package command

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
	"github.com/skillera/skillera-hub/pkg/retry"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

var t0 = time.Date(2024, 7, 21, 9, 0, 0, 0, time.UTC)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []shared.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// firstRand always picks index 0.
type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

type fixture struct {
	ctx      context.Context
	store    *docstore.MemoryStore
	students *docstore.StudentRepository
	catalog  *school.Catalog
	clock    *timeutil.FixedClock
	cal      timeutil.Calendar
	events   *recorder
	exec     *Executor
	seq      int
}

func newFixture(t *testing.T, opts ...ExecutorOption) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		store:  docstore.NewMemoryStore(),
		clock:  timeutil.NewFixedClock(t0),
		cal:    timeutil.NewCalendar(time.UTC),
		events: &recorder{},
	}
	f.students = docstore.NewStudentRepository(f.store)
	f.catalog = docstore.NewCatalog(f.store)

	fast := retry.New(
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Millisecond),
		retry.WithMaxDelay(2*time.Millisecond),
		retry.WithRetryIf(shared.IsConflict),
	)
	f.exec = NewExecutor(f.students, f.events, f.clock, append([]ExecutorOption{WithRetrier(fast)}, opts...)...)

	_, err := f.catalog.Quests.Store(f.ctx, []school.QuestTemplate{
		{ID: "q1", Text: "Read a chapter", Reward: 15},
		{ID: "q2", Text: "Help a classmate", Reward: 10},
	}, 0)
	require.NoError(t, err)
	return f
}

func (f *fixture) ids() string {
	f.seq++
	return fmt.Sprintf("id-%d", f.seq)
}

func (f *fixture) register(t *testing.T, name, admission string) *student.Student {
	t.Helper()
	h := NewRegisterStudentHandler(f.students, f.catalog.Quests, f.exec, f.cal, firstRand{}, "school.edu", f.ids)
	res, err := h.Handle(f.ctx, RegisterStudentCommand{Name: name, Class: "10", Section: "A", AdmissionNumber: admission})
	require.NoError(t, err)
	return res.Student
}

func (f *fixture) load(t *testing.T, id string) *student.Student {
	t.Helper()
	s, err := f.students.GetByID(f.ctx, id)
	require.NoError(t, err)
	return s
}
