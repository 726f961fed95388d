package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

var now = time.Date(2024, 7, 21, 9, 0, 0, 0, time.UTC)

func TestEmbeddedCatalog(t *testing.T) {
	f, err := Embedded()
	require.NoError(t, err)

	assert.Len(t, f.Quests, 4)
	assert.Equal(t, 15, f.Quests[0].Reward)
	require.NotEmpty(t, f.QuizItems())
	for _, q := range f.QuizItems() {
		require.NotEmpty(t, q.Questions, q.ID)
		for _, question := range q.Questions {
			assert.Contains(t, question.Options, question.CorrectAnswer, question.ID)
		}
	}
	for _, p := range f.ProjectItems() {
		assert.NotNil(t, p.Members)
		assert.NoError(t, p.Validate())
	}
}

func TestStudentProfiles_SatisfyPointsInvariant(t *testing.T) {
	f, err := Embedded()
	require.NoError(t, err)

	profiles, err := f.StudentProfiles("school.edu", now)
	require.NoError(t, err)

	byID := map[string]*student.Student{}
	for _, p := range profiles {
		require.NoError(t, p.CheckPoints(), p.ID)
		byID[p.ID] = p
	}

	assert.Equal(t, 40, byID["student-1"].Points)
	assert.Equal(t, 65, byID["student-2"].Points, "completed quest reward counts")
	assert.Equal(t, 120, byID["student-3"].Points)
	assert.Equal(t, 250, byID["student-4"].Points)
	assert.Equal(t, "12345@school.edu", byID["student-1"].Email)
	assert.Len(t, byID["student-1"].PendingActivities(), 2)

	admin := byID["admin-1"]
	assert.Equal(t, student.RoleAdmin, admin.Role)
	assert.Zero(t, admin.AcademicPercentage)
	assert.True(t, admin.IsMentor)
	assert.Equal(t, student.RolePrincipal, byID["principal-1"].Role)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("[[quests]\nid ="))
	require.Error(t, err)

	f, err := Parse([]byte(`
[[students]]
id = "s1"
name = "Kim"
admission = "1"
quest = "missing"
`))
	require.NoError(t, err)
	_, err = f.StudentProfiles("school.edu", now)
	require.Error(t, err)
}

func TestSeeder_Run(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	students := docstore.NewStudentRepository(store)
	catalog := docstore.NewCatalog(store)
	f, err := Embedded()
	require.NoError(t, err)

	s := NewSeeder(students, catalog, timeutil.NewFixedClock(now), "school.edu", nil)

	res, err := s.Run(ctx, f)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, len(f.Students), res.Students)
	assert.Len(t, res.Collections, 5)

	quests, version, err := catalog.Quests.Load(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
	assert.Len(t, quests, 4)

	loaded, err := students.GetByID(ctx, "student-4")
	require.NoError(t, err)
	assert.Equal(t, 250, loaded.Points)

	res, err = s.Run(ctx, f)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}
