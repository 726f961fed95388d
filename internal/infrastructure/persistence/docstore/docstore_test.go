package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

func newStudent(t *testing.T, id, admission string) *student.Student {
	t.Helper()
	s, err := student.NewStudent(student.NewStudentParams{
		ID:              id,
		Name:            "Student " + id,
		Class:           "10",
		Section:         "B",
		AdmissionNumber: admission,
		EmailDomain:     "school.test",
		Now:             time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return s
}

func TestMemoryStore_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	v1, err := m.Put(ctx, "k", []byte(`1`), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v1)

	_, err = m.Put(ctx, "k", []byte(`x`), 0)
	assert.ErrorIs(t, err, shared.ErrVersionConflict)
	assert.True(t, shared.IsConflict(err))

	v2, err := m.Put(ctx, "k", []byte(`2`), v1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v2)

	_, err = m.Put(ctx, "k", []byte(`3`), v1)
	assert.True(t, shared.IsConflict(err))

	doc, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `2`, string(doc.Data))

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.True(t, shared.IsNotFound(err))
}

func TestMemoryStore_ListPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for _, k := range []string{"students/b", "students/a", "quests"} {
		_, err := m.Put(ctx, k, []byte(`{}`), 0)
		require.NoError(t, err)
	}

	keys, err := m.List(ctx, StudentPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"students/a", "students/b"}, keys)
}

func TestMemoryStore_ConcurrentWritersOneWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, err := m.Put(ctx, "k", []byte(`0`), 0)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Put(ctx, "k", []byte(`1`), 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	c, err := NewCachedStore(backend, 8, nil)
	require.NoError(t, err)

	v, err := c.Put(ctx, "k", []byte(`a`), 0)
	require.NoError(t, err)

	// A second writer bypasses the cache.
	_, err = backend.Put(ctx, "k", []byte(`b`), v)
	require.NoError(t, err)

	doc, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `a`, string(doc.Data), "served from cache")

	_, err = c.Put(ctx, "k", []byte(`c`), v)
	assert.True(t, shared.IsConflict(err))

	doc, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `b`, string(doc.Data), "conflict evicts the stale entry")
	assert.EqualValues(t, 2, doc.Version)
	assert.Equal(t, "memory+lru", c.Name())
}

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStudentRepository(NewMemoryStore())

	s := newStudent(t, "s1", "1001")
	require.NoError(t, repo.Create(ctx, s))
	assert.EqualValues(t, 1, s.Version)

	err := repo.Create(ctx, newStudent(t, "s1", "1002"))
	assert.ErrorIs(t, err, shared.ErrStudentAlreadyExists)

	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, s.Email, got.Email)
	assert.EqualValues(t, 1, got.Version)

	stale := got.Clone()
	got.Points = 10
	got.Activities = append(got.Activities, student.Activity{ID: "g1", Kind: student.KindGoal, Completed: true, Points: 10})
	require.NoError(t, repo.Save(ctx, got))
	assert.EqualValues(t, 2, got.Version)

	stale.Bio = "lost update"
	assert.True(t, shared.IsConflict(repo.Save(ctx, stale)))

	byEmail, err := repo.GetByEmail(ctx, "1001@SCHOOL.test")
	require.NoError(t, err)
	assert.Equal(t, 10, byEmail.Points)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	require.NoError(t, repo.Create(ctx, newStudent(t, "s0", "1000")))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s0", all[0].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStudentRepository_EmailIsUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	repo := NewStudentRepository(m)

	require.NoError(t, repo.Create(ctx, newStudent(t, "s1", "1001")))

	err := repo.Create(ctx, newStudent(t, "s2", "1001"))
	assert.ErrorIs(t, err, shared.ErrStudentAlreadyExists)
	_, err = repo.GetByID(ctx, "s2")
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	// A failed create on a taken id releases the e-mail it reserved.
	err = repo.Create(ctx, newStudent(t, "s1", "1002"))
	assert.ErrorIs(t, err, shared.ErrStudentAlreadyExists)
	require.NoError(t, repo.Create(ctx, newStudent(t, "s3", "1002")))

	keys, err := m.List(ctx, EmailPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"emails/1001@school.test", "emails/1002@school.test"}, keys)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStudentRepository_NormalizesLegacyDocuments(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, err := m.Put(ctx, StudentKey("old"), []byte(`{"id":"old","name":"Old","points":0}`), 0)
	require.NoError(t, err)

	s, err := NewStudentRepository(m).GetByID(ctx, "old")
	require.NoError(t, err)
	assert.NotNil(t, s.Activities)
	assert.Equal(t, 1, s.LoginStreak)
	assert.Equal(t, student.RoleStudent, s.Role)
}

func TestStudentRepository_WrapsBackendFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	repo := NewStudentRepository(m)
	s := newStudent(t, "s1", "1001")
	require.NoError(t, repo.Create(ctx, s))

	m.FailPuts = errors.New("disk on fire")
	err := repo.Save(ctx, s)
	assert.ErrorIs(t, err, shared.ErrPersistence)
	assert.EqualValues(t, 1, s.Version)
}

func TestCollectionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCollectionRepository[school.Event](NewMemoryStore(), school.CollectionEvents)

	items, version, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, version)

	version, err = repo.Store(ctx, []school.Event{{ID: "e1", Title: "Sports Day"}}, version)
	require.NoError(t, err)

	_, err = repo.Store(ctx, nil, 0)
	assert.True(t, shared.IsConflict(err))

	items, v2, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, version, v2)
	require.Len(t, items, 1)
	assert.Equal(t, "Sports Day", items[0].Title)
}

func TestNewCatalog(t *testing.T) {
	cat := NewCatalog(NewMemoryStore())
	assert.NotNil(t, cat.Quests)
	assert.NotNil(t, cat.Messages)
}

func TestProtectedStore_OpensOnBackendFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	p := NewProtectedStore(m, nil)

	_, err := p.Put(ctx, "k", []byte(`1`), 0)
	require.NoError(t, err)

	// Conflicts are answers, not failures.
	for i := 0; i < 5; i++ {
		_, err = p.Put(ctx, "k", []byte(`x`), 0)
		require.True(t, shared.IsConflict(err))
	}

	m.FailPuts = errors.New("connection reset")
	for i := 0; i < 3; i++ {
		_, err = p.Put(ctx, "k", []byte(`x`), 1)
		require.Error(t, err)
	}

	_, err = p.Put(ctx, "k", []byte(`x`), 1)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, "open", p.State().String())
	assert.Equal(t, 3, p.Counts().TotalFailures)
}
