package school

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

var now = time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)

func TestAppealLifecycle(t *testing.T) {
	a, err := NewAppeal("ap1", "student-1", "Alex", 91.5, "Question 4 was marked wrong", "https://files.example.com/sheet.pdf", now)
	require.NoError(t, err)
	assert.Equal(t, AppealPending, a.Status)

	rejected := a
	assert.Error(t, rejected.Resolve(true, 101, now))
	require.NoError(t, rejected.Resolve(false, 0, now))
	assert.Nil(t, rejected.GrantedPercentage)

	require.NoError(t, a.Resolve(true, 93, now))
	assert.Equal(t, AppealApproved, a.Status)
	require.NotNil(t, a.GrantedPercentage)
	assert.Equal(t, 93.0, *a.GrantedPercentage)
	assert.ErrorIs(t, a.Resolve(false, 0, now), shared.ErrAppealResolved)

	_, err = NewAppeal("ap2", "s", "S", 120, "reason", "", now)
	assert.True(t, shared.IsValidation(err))

	_, err = NewAppeal("ap3", "s", "S", 80, "my father says so", "", now)
	assert.True(t, shared.IsValidation(err))

	_, err = NewAppeal("ap4", "s", "S", 80, "remark", "not a url", now)
	assert.True(t, shared.IsValidation(err))
}

func TestQuizGrade(t *testing.T) {
	q := Quiz{
		ID: "quiz-en-1", Subject: "English", Chapter: "Nouns", PointsPerQuestion: 1,
		Questions: []Question{
			{ID: "1", Options: []string{"City", "Amazon"}, CorrectAnswer: "Amazon"},
			{ID: "2", Options: []string{"Mice", "Mouses"}, CorrectAnswer: "Mice"},
			{ID: "3", Options: []string{"Pride", "Herd"}, CorrectAnswer: "Pride"},
		},
	}

	score, total, err := q.Grade(map[string]string{"1": "Amazon", "2": "Mouses", "3": " Pride ", "x": "y"})
	require.NoError(t, err)
	assert.Equal(t, 2, score)
	assert.Equal(t, 3, total)

	pub := q.Public()
	for _, question := range pub.Questions {
		assert.Empty(t, question.CorrectAnswer)
	}
	assert.Equal(t, "Amazon", q.Questions[0].CorrectAnswer)
	assert.Equal(t, "English: Nouns", q.Name())

	_, _, err = Quiz{}.Grade(nil)
	assert.True(t, shared.IsStateTransition(err))
}

func TestCollectionHelpers(t *testing.T) {
	items := []Event{{ID: "e1", Title: "Sports Day"}, {ID: "e2", Title: "Exhibition"}}

	items = Upsert(items, Event{ID: "e2", Title: "Innovision"})
	require.Len(t, items, 2)
	assert.Equal(t, "Innovision", items[1].Title)

	items = Upsert(items, Event{ID: "e3", Title: "PTM"})
	assert.Len(t, items, 3)

	items, ok := Remove(items, "e1")
	assert.True(t, ok)
	assert.Len(t, items, 2)

	_, ok = Remove(items, "missing")
	assert.False(t, ok)
}

func TestProjectJoin(t *testing.T) {
	p := Project{ID: "proj3", Title: "Magazine", Points: 100}
	assert.True(t, p.Join("student-1"))
	assert.False(t, p.Join("student-1"))
	assert.Equal(t, []string{"student-1"}, p.Members)
}

func TestMessage(t *testing.T) {
	m, err := NewMessage("m1", "a", "b", "Can you help with chemistry?", now)
	require.NoError(t, err)
	assert.True(t, m.Between("b", "a"))

	_, err = NewMessage("m2", "a", "a", "hi", now)
	assert.True(t, shared.IsValidation(err))

	_, err = NewMessage("m3", "a", "b", "my number is 555-123-4567", now)
	assert.True(t, shared.IsValidation(err))
}

func TestResourceMatches(t *testing.T) {
	r := LearningResource{Tags: []string{"Coding", "React"}}
	assert.True(t, r.MatchesAny([]string{"react"}))
	assert.False(t, r.MatchesAny([]string{"Art"}))
}

func TestQuestTemplateValidate(t *testing.T) {
	assert.NoError(t, QuestTemplate{ID: "q1", Text: "Do it", Reward: 15}.Validate())
	assert.Error(t, QuestTemplate{ID: "q1", Text: "", Reward: 15}.Validate())
	assert.Error(t, QuestTemplate{ID: "q1", Text: "x", Reward: 0}.Validate())
}
