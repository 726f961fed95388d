package student

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

var t0 = time.Date(2024, 7, 21, 9, 0, 0, 0, time.UTC)

func newTestStudent(t *testing.T) *Student {
	t.Helper()
	s, err := NewStudent(NewStudentParams{
		ID:              "student-1",
		Name:            "Alex Johnson",
		Class:           "11",
		Section:         "A",
		AdmissionNumber: "12345",
		EmailDomain:     "apsjodhpur.com",
		Now:             t0,
	})
	require.NoError(t, err)
	return s
}

func mustCompetition(t *testing.T, s *Student, id string, level CompetitionLevel, result CompetitionResult) Activity {
	t.Helper()
	a, err := NewCompetition(id, "Debate", level, result, "https://example.com/cert.png", t0)
	require.NoError(t, err)
	_, err = s.LogActivity(a)
	require.NoError(t, err)
	return a
}

func TestNewStudent(t *testing.T) {
	s := newTestStudent(t)
	assert.Equal(t, "12345@apsjodhpur.com", s.Email)
	assert.Equal(t, RoleStudent, s.Role)
	assert.EqualValues(t, DefaultAcademicPercentage, s.AcademicPercentage)
	assert.Zero(t, s.Points)
	assert.NotNil(t, s.Activities)

	_, err := NewStudent(NewStudentParams{ID: "x", Name: "A", AdmissionNumber: "bad one"})
	assert.True(t, shared.IsValidation(err))
}

func TestCompetitionPoints_Table(t *testing.T) {
	tests := []struct {
		level  CompetitionLevel
		result CompetitionResult
		want   int
	}{
		{LevelInterhouse, ResultParticipated, 5},
		{LevelInterhouse, ResultWon, 10},
		{LevelCluster, ResultWon, 30},
		{LevelDistrict, ResultParticipated, 25},
		{LevelState, ResultWon, 70},
		{LevelNational, ResultParticipated, 45},
		{LevelInternational, ResultWon, 120},
	}
	for _, tt := range tests {
		got, err := CompetitionPoints(tt.level, tt.result)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s/%s", tt.level, tt.result)
	}

	_, err := CompetitionPoints("galactic", ResultWon)
	assert.True(t, shared.IsValidation(err))
}

func TestGoalLifecycle(t *testing.T) {
	s := newTestStudent(t)
	g, err := NewGoal("g1", "Learn basic Python syntax", t0)
	require.NoError(t, err)

	awarded, err := s.LogActivity(g)
	require.NoError(t, err)
	assert.Zero(t, awarded)
	assert.Zero(t, s.Points)

	awarded, err = s.CompleteGoal("g1")
	require.NoError(t, err)
	assert.Equal(t, GoalPoints, awarded)

	// Second completion must not double-award.
	awarded, err = s.CompleteGoal("g1")
	require.NoError(t, err)
	assert.Zero(t, awarded)
	assert.Equal(t, GoalPoints, s.Points)
	require.NoError(t, s.CheckPoints())

	_, err = s.CompleteGoal("missing")
	assert.True(t, shared.IsNotFound(err))

	mustCompetition(t, s, "c1", LevelCluster, ResultWon)
	_, err = s.CompleteGoal("c1")
	assert.ErrorIs(t, err, shared.ErrNotAGoal)
}

func TestSettleActivity_ApproveIsIdempotent(t *testing.T) {
	s := newTestStudent(t)
	mustCompetition(t, s, "c1", LevelState, ResultWon)

	res, err := s.SettleActivity("c1", DecisionApproved, t0)
	require.NoError(t, err)
	assert.Equal(t, 70, res.Delta)
	assert.Equal(t, StatusPending, res.PreviousStatus)

	res, err = s.SettleActivity("c1", DecisionApproved, t0)
	require.NoError(t, err)
	assert.Zero(t, res.Delta)
	assert.False(t, res.Changed())

	assert.Equal(t, 70, s.Points)
	a, _ := s.Activity("c1")
	assert.True(t, a.Completed)
	assert.Equal(t, StatusApproved, a.Status)
}

func TestSettleActivity_ReversalSymmetry(t *testing.T) {
	s := newTestStudent(t)
	mustCompetition(t, s, "c1", LevelNational, ResultParticipated)

	_, err := s.SettleActivity("c1", DecisionApproved, t0)
	require.NoError(t, err)
	res, err := s.SettleActivity("c1", DecisionRejected, t0)
	require.NoError(t, err)

	assert.Equal(t, -45, res.Delta)
	assert.Zero(t, s.Points)
	a, _ := s.Activity("c1")
	assert.False(t, a.Completed)
	assert.Equal(t, StatusRejected, a.Status)
}

func TestSettleActivity_RejectPendingIsNoop(t *testing.T) {
	s := newTestStudent(t)
	s.Points = 0
	p, err := NewProjectSubmission("p1", ProjectRef{ID: "proj1", Title: "Website", Points: 120}, "https://example.com/work.pdf", t0)
	require.NoError(t, err)
	_, err = s.LogActivity(p)
	require.NoError(t, err)

	res, err := s.SettleActivity("p1", DecisionRejected, t0)
	require.NoError(t, err)
	assert.Zero(t, res.Delta)
	assert.Zero(t, s.Points)

	a, _ := s.Activity("p1")
	assert.Equal(t, StatusRejected, a.Status)
	assert.False(t, a.Completed)
	assert.Equal(t, "Submitted work for project: Website", a.Text)
}

func TestSettleActivity_Errors(t *testing.T) {
	s := newTestStudent(t)
	_, err := s.SettleActivity("nope", DecisionApproved, t0)
	assert.True(t, shared.IsNotFound(err))

	g, _ := NewGoal("g1", "Read", t0)
	_, _ = s.LogActivity(g)
	_, err = s.SettleActivity("g1", DecisionApproved, t0)
	assert.True(t, shared.IsStateTransition(err))

	mustCompetition(t, s, "c1", LevelCluster, ResultWon)
	_, err = s.SettleActivity("c1", Decision("maybe"), t0)
	assert.True(t, shared.IsValidation(err))
}

func TestLogActivity_PendingProjectGuard(t *testing.T) {
	s := newTestStudent(t)
	ref := ProjectRef{ID: "proj2", Title: "Eco", Points: 120}

	first, _ := NewProjectSubmission("p1", ref, "https://example.com/a", t0)
	_, err := s.LogActivity(first)
	require.NoError(t, err)

	second, _ := NewProjectSubmission("p2", ref, "https://example.com/b", t0)
	_, err = s.LogActivity(second)
	assert.ErrorIs(t, err, shared.ErrPendingSubmission)

	// After rejection a resubmission is a new activity.
	_, err = s.SettleActivity("p1", DecisionRejected, t0)
	require.NoError(t, err)
	_, err = s.LogActivity(second)
	require.NoError(t, err)
	assert.Len(t, s.Activities, 2)

	_, err = s.LogActivity(second)
	assert.True(t, shared.IsAlreadyExists(err))
}

func TestQuizResult(t *testing.T) {
	s := newTestStudent(t)
	q, err := NewQuizResult("qz1", QuizResult{
		QuizID: "quiz-en-1", Subject: "English", Chapter: "Class 6 - Grammar (Nouns)",
		Score: 8, TotalQuestions: 10, PointsPerQuestion: 1,
	}, t0)
	require.NoError(t, err)
	assert.Equal(t, "Completed Quiz: English: Class 6 - Grammar (Nouns)", q.Text)

	awarded, err := s.LogActivity(q)
	require.NoError(t, err)
	assert.Equal(t, 8, awarded)
	assert.Equal(t, 8, s.Points)
	require.NoError(t, s.CheckPoints())

	_, err = NewQuizResult("qz2", QuizResult{Score: 11, TotalQuestions: 10}, t0)
	assert.True(t, shared.IsValidation(err))
}

func TestQuestGuard(t *testing.T) {
	s := newTestStudent(t)
	cal := timeutil.NewCalendar(time.UTC)
	s.RecordLogin(cal, t0, &QuestOffer{ID: "q4", Text: "Connect with a mentor or a peer", Reward: 20})

	// Unclaimed quest cannot be settled.
	applied, delta := s.SettleQuest(DecisionApproved, t0)
	assert.False(t, applied)
	assert.Zero(t, delta)
	assert.Equal(t, QuestUnclaimed, s.DailyQuest.Status)

	require.NoError(t, s.SubmitQuest("Talked to Priya about biology", t0))
	assert.ErrorIs(t, s.SubmitQuest("again", t0), shared.ErrQuestNotClaimable)

	applied, delta = s.SettleQuest(DecisionApproved, t0)
	assert.True(t, applied)
	assert.Equal(t, 20, delta)
	assert.Equal(t, 20, s.Points)

	// Completed quest is terminal.
	applied, _ = s.SettleQuest(DecisionRejected, t0)
	assert.False(t, applied)
	assert.Equal(t, QuestCompleted, s.DailyQuest.Status)
	require.NoError(t, s.CheckPoints())
}

func TestRecordLogin_StreakAndArchive(t *testing.T) {
	s := newTestStudent(t)
	cal := timeutil.NewCalendar(time.UTC)
	offer := &QuestOffer{ID: "q1", Text: "Complete one personal goal today", Reward: 15}

	res := s.RecordLogin(cal, t0, offer)
	assert.Equal(t, 1, s.LoginStreak)
	require.NotNil(t, res.Assigned)

	// Same day: nothing changes except the login time.
	later := t0.Add(3 * time.Hour)
	res = s.RecordLogin(cal, later, &QuestOffer{ID: "q2"})
	assert.Nil(t, res.Assigned)
	assert.Equal(t, "q1", s.DailyQuest.ID)
	assert.Equal(t, later, *s.LastLoginDate)

	require.NoError(t, s.SubmitQuest("done", later))

	// Next day: pending quest is archived, not lost.
	next := t0.Add(24 * time.Hour)
	res = s.RecordLogin(cal, next, &QuestOffer{ID: "q3", Text: "Review", Reward: 5})
	assert.Equal(t, 2, s.LoginStreak)
	require.NotNil(t, res.Archived)
	assert.Equal(t, QuestPending, res.Archived.Status)
	require.Len(t, s.QuestHistory, 1)
	assert.Equal(t, "q3", s.DailyQuest.ID)

	// Gap: streak resets; unclaimed quest is discarded; empty pool leaves no quest.
	res = s.RecordLogin(cal, next.Add(72*time.Hour), nil)
	assert.Equal(t, 1, s.LoginStreak)
	assert.True(t, res.Outcome.Broken)
	assert.Nil(t, res.Archived)
	assert.Nil(t, s.DailyQuest)
	assert.Len(t, s.QuestHistory, 1)
}

func TestSettleQuestByID_Archived(t *testing.T) {
	s := newTestStudent(t)
	cal := timeutil.NewCalendar(time.UTC)
	s.RecordLogin(cal, t0, &QuestOffer{ID: "qi-1", TemplateID: "q1", Text: "Goal", Reward: 15})
	require.NoError(t, s.SubmitQuest("done", t0))
	s.RecordLogin(cal, t0.Add(24*time.Hour), &QuestOffer{ID: "qi-2", TemplateID: "q1", Text: "Goal", Reward: 15})
	require.NoError(t, s.SubmitQuest("done again", t0.Add(25*time.Hour)))

	pending := s.PendingQuests()
	require.Len(t, pending, 2)
	assert.Equal(t, "qi-1", pending[0].ID)
	assert.Equal(t, "qi-2", pending[1].ID)

	applied, delta, err := s.SettleQuestByID("qi-1", DecisionApproved, t0)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 15, delta)
	assert.Equal(t, QuestCompleted, s.QuestHistory[0].Status)
	assert.Equal(t, QuestPending, s.DailyQuest.Status, "only the named instance is settled")

	applied, _, err = s.SettleQuestByID("qi-1", DecisionRejected, t0)
	require.NoError(t, err)
	assert.False(t, applied)

	_, _, err = s.SettleQuestByID("nope", DecisionApproved, t0)
	assert.ErrorIs(t, err, shared.ErrQuestNotFound)

	assert.Equal(t, 15, s.Points)
	assert.NoError(t, s.CheckPoints())
}

func TestCompletedQuestRewardSurvivesReplacement(t *testing.T) {
	s := newTestStudent(t)
	cal := timeutil.NewCalendar(time.UTC)
	s.RecordLogin(cal, t0, &QuestOffer{ID: "q2", Reward: 10, Text: "Explore"})
	require.NoError(t, s.SubmitQuest("read an article", t0))
	s.SettleQuest(DecisionApproved, t0)

	s.RecordLogin(cal, t0.Add(24*time.Hour), &QuestOffer{ID: "q1", Reward: 15, Text: "Goal"})
	assert.Equal(t, 10, s.Points)
	assert.NoError(t, s.CheckPoints())
}

func TestScenario_ApprovalLevelsUp(t *testing.T) {
	s := newTestStudent(t)
	g, _ := NewGoal("g1", "Read", t0)
	_, _ = s.LogActivity(g)
	_, _ = s.CompleteGoal("g1")
	c, _ := NewCompetition("c1", "Sci fair", LevelInterhouse, ResultWon, "", t0)
	_, _ = s.LogActivity(c)
	_, _ = s.SettleActivity("c1", DecisionApproved, t0)
	q, _ := NewQuizResult("z1", QuizResult{Subject: "Maths", Chapter: "Numbers", Score: 10, TotalQuestions: 10, PointsPerQuestion: 1}, t0)
	_, _ = s.LogActivity(q)
	require.Equal(t, 30, s.Points)
	assert.Equal(t, 1, progression.LevelFor(s.Points).Level)

	p, _ := NewCompetition("c2", "District quiz", LevelDistrict, ResultParticipated, "", t0)
	_, _ = s.LogActivity(p)
	res, err := s.SettleActivity("c2", DecisionApproved, t0)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Delta)
	assert.Equal(t, 55, s.Points)
	assert.Equal(t, 2, progression.LevelFor(s.Points).Level)
}

// Random sequences of ledger operations must always keep the point sum.
func TestPointSumInvariant_RandomSequences(t *testing.T) {
	cal := timeutil.NewCalendar(time.UTC)
	levels := []CompetitionLevel{LevelInterhouse, LevelCluster, LevelDistrict, LevelState, LevelNational, LevelInternational}
	results := []CompetitionResult{ResultParticipated, ResultWon}
	decisions := []Decision{DecisionApproved, DecisionRejected}

	for seed := int64(1); seed <= 25; seed++ {
		rnd := rand.New(rand.NewSource(seed))
		s := newTestStudent(t)
		now := t0
		ids := []string{}

		for step := 0; step < 200; step++ {
			id := fmt.Sprintf("a%d", step)
			switch rnd.Intn(8) {
			case 0:
				g, _ := NewGoal(id, "goal", now)
				_, _ = s.LogActivity(g)
				ids = append(ids, id)
			case 1:
				c, _ := NewCompetition(id, "comp", levels[rnd.Intn(len(levels))], results[rnd.Intn(2)], "", now)
				_, _ = s.LogActivity(c)
				ids = append(ids, id)
			case 2:
				p, _ := NewProjectSubmission(id, ProjectRef{ID: fmt.Sprintf("proj%d", rnd.Intn(3)), Title: "P", Points: 100}, "", now)
				_, _ = s.LogActivity(p)
				ids = append(ids, id)
			case 3:
				q, _ := NewQuizResult(id, QuizResult{Subject: "S", Chapter: "C", Score: rnd.Intn(11), TotalQuestions: 10, PointsPerQuestion: 1}, now)
				_, _ = s.LogActivity(q)
			case 4:
				if len(ids) > 0 {
					_, _ = s.CompleteGoal(ids[rnd.Intn(len(ids))])
				}
			case 5:
				if len(ids) > 0 {
					_, _ = s.SettleActivity(ids[rnd.Intn(len(ids))], decisions[rnd.Intn(2)], now)
				}
			case 6:
				now = now.Add(time.Duration(rnd.Intn(40)) * time.Hour)
				s.RecordLogin(cal, now, &QuestOffer{ID: "q", Text: "quest", Reward: 5 + rnd.Intn(20)})
				_ = s.SubmitQuest("did it", now)
			case 7:
				s.SettleQuest(decisions[rnd.Intn(2)], now)
			}
			require.NoError(t, s.CheckPoints(), "seed=%d step=%d", seed, step)
			require.GreaterOrEqual(t, s.Points, 0)
		}
	}
}

func TestCheckPointsAndReconcile(t *testing.T) {
	s := newTestStudent(t)
	mustCompetition(t, s, "c1", LevelCluster, ResultWon)
	_, _ = s.SettleActivity("c1", DecisionApproved, t0)

	s.Points = 120
	err := s.CheckPoints()
	assert.ErrorIs(t, err, shared.ErrInvariantViolation)
	assert.ErrorIs(t, err, shared.ErrPointsDrift)

	assert.Equal(t, -90, s.ReconcilePoints())
	assert.NoError(t, s.CheckPoints())
}

func TestProfileEdits(t *testing.T) {
	s := newTestStudent(t)

	require.NoError(t, s.ChangeName("Alex J.", t0))
	assert.Equal(t, "Alex J.", s.Name)

	err := s.ChangeName("Alexander", t0.Add(10*24*time.Hour))
	assert.ErrorIs(t, err, shared.ErrNameChangeTooSoon)
	assert.Contains(t, err.Error(), "20 day")

	require.NoError(t, s.ChangeName("Alexander", t0.Add(31*24*time.Hour)))

	assert.True(t, shared.IsValidation(s.UpdateBio("call me 555-123-4567")))
	require.NoError(t, s.UpdateBio("Aspiring astrophysicist"))

	require.NoError(t, s.SetInterests([]string{"Science", "science", " Debate ", ""}))
	assert.Equal(t, []string{"Science", "Debate"}, s.Interests)

	assert.Error(t, s.SetMentorship(true, ""))
	require.NoError(t, s.SetMentorship(true, "Happy to help with physics"))
	assert.True(t, s.IsMentor)

	assert.Error(t, s.SetAcademicPercentage(101))
}

func TestClone_IsDeep(t *testing.T) {
	s := newTestStudent(t)
	mustCompetition(t, s, "c1", LevelCluster, ResultWon)
	s.RecordLogin(timeutil.NewCalendar(time.UTC), t0, &QuestOffer{ID: "q1", Reward: 15})

	c := s.Clone()
	_, _ = c.SettleActivity("c1", DecisionApproved, t0)
	c.DailyQuest.Status = QuestPending

	a, _ := s.Activity("c1")
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, QuestUnclaimed, s.DailyQuest.Status)
	assert.Zero(t, s.Points)
}
