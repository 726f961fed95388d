// Package seed loads the embedded demo catalog into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

//go:embed catalog.toml
var catalogTOML []byte

// ══════════════════════════════════════════════════════════════════════════════
// FILE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// File mirrors catalog.toml.
type File struct {
	Quests    []school.QuestTemplate `toml:"quests"`
	Events    []eventRow             `toml:"events"`
	Projects  []projectRow           `toml:"projects"`
	Resources []resourceRow          `toml:"resources"`
	Quizzes   []quizRow              `toml:"quizzes"`
	Students  []studentRow           `toml:"students"`
}

type eventRow struct {
	ID          string `toml:"id"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Date        string `toml:"date"`
}

type projectRow struct {
	ID          string   `toml:"id"`
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Skills      []string `toml:"skills"`
	Points      int      `toml:"points"`
	Mentors     []string `toml:"mentors"`
	Members     []string `toml:"members"`
}

type resourceRow struct {
	ID          string   `toml:"id"`
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Type        string   `toml:"type"`
	URL         string   `toml:"url"`
	Tags        []string `toml:"tags"`
}

type quizRow struct {
	ID                string        `toml:"id"`
	Subject           string        `toml:"subject"`
	Chapter           string        `toml:"chapter"`
	PointsPerQuestion int           `toml:"points_per_question"`
	Questions         []questionRow `toml:"questions"`
}

type questionRow struct {
	ID      string   `toml:"id"`
	Text    string   `toml:"text"`
	Options []string `toml:"options"`
	Answer  string   `toml:"answer"`
}

type studentRow struct {
	ID            string        `toml:"id"`
	Name          string        `toml:"name"`
	Admission     string        `toml:"admission"`
	Role          string        `toml:"role"`
	Class         string        `toml:"class"`
	Section       string        `toml:"section"`
	Academic      *float64      `toml:"academic"`
	Bio           string        `toml:"bio"`
	Interests     []string      `toml:"interests"`
	Mentor        bool          `toml:"mentor"`
	MentorshipBio string        `toml:"mentorship_bio"`
	Quest         string        `toml:"quest"`
	QuestStatus   string        `toml:"quest_status"`
	Streak        int           `toml:"streak"`
	Activities    []activityRow `toml:"activities"`
}

type activityRow struct {
	ID          string `toml:"id"`
	Type        string `toml:"type"`
	Text        string `toml:"text"`
	Level       string `toml:"level"`
	Result      string `toml:"result"`
	Certificate string `toml:"certificate"`
	Status      string `toml:"status"`
	Completed   bool   `toml:"completed"`
	Project     string `toml:"project"`
	Submission  string `toml:"submission"`
	DaysAgo     int    `toml:"days_ago"`
}

// Parse decodes a catalog file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parse catalog: %w", err)
	}
	return &f, nil
}

// Embedded returns the built-in demo catalog.
func Embedded() (*File, error) {
	return Parse(catalogTOML)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// EventItems returns the school events.
func (f *File) EventItems() []school.Event {
	out := make([]school.Event, 0, len(f.Events))
	for _, e := range f.Events {
		out = append(out, school.Event{ID: e.ID, Title: e.Title, Description: e.Description, Date: e.Date})
	}
	return out
}

// ProjectItems returns the projects with empty slices instead of nil.
func (f *File) ProjectItems() []school.Project {
	out := make([]school.Project, 0, len(f.Projects))
	for _, p := range f.Projects {
		out = append(out, school.Project{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Skills:      orEmpty(p.Skills),
			Points:      p.Points,
			Mentors:     orEmpty(p.Mentors),
			Members:     orEmpty(p.Members),
		})
	}
	return out
}

// ResourceItems returns the learning resources.
func (f *File) ResourceItems() []school.LearningResource {
	out := make([]school.LearningResource, 0, len(f.Resources))
	for _, r := range f.Resources {
		out = append(out, school.LearningResource{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Type:        school.ResourceType(r.Type),
			URL:         r.URL,
			Tags:        orEmpty(r.Tags),
		})
	}
	return out
}

// QuizItems returns the quizzes including correct answers.
func (f *File) QuizItems() []school.Quiz {
	out := make([]school.Quiz, 0, len(f.Quizzes))
	for _, q := range f.Quizzes {
		quiz := school.Quiz{
			ID:                q.ID,
			Subject:           q.Subject,
			Chapter:           q.Chapter,
			PointsPerQuestion: q.PointsPerQuestion,
			Questions:         make([]school.Question, 0, len(q.Questions)),
		}
		for _, question := range q.Questions {
			quiz.Questions = append(quiz.Questions, school.Question{
				ID:            question.ID,
				Text:          question.Text,
				Options:       orEmpty(question.Options),
				CorrectAnswer: question.Answer,
			})
		}
		out = append(out, quiz)
	}
	return out
}

// StudentProfiles builds the demo profiles. Activities go through the domain
// constructors and points are recomputed from the ledger, so every profile
// satisfies the points invariant.
func (f *File) StudentProfiles(emailDomain string, now time.Time) ([]*student.Student, error) {
	quests := make(map[string]school.QuestTemplate, len(f.Quests))
	for _, q := range f.Quests {
		quests[q.ID] = q
	}
	projects := make(map[string]projectRow, len(f.Projects))
	for _, p := range f.Projects {
		projects[p.ID] = p
	}

	out := make([]*student.Student, 0, len(f.Students))
	for _, row := range f.Students {
		s, err := student.NewStudent(student.NewStudentParams{
			ID:              row.ID,
			Name:            row.Name,
			Class:           row.Class,
			Section:         row.Section,
			AdmissionNumber: row.Admission,
			EmailDomain:     emailDomain,
			Now:             now,
		})
		if err != nil {
			return nil, fmt.Errorf("seed: student %s: %w", row.ID, err)
		}

		if row.Role != "" {
			s.Role = student.Role(row.Role)
			if !s.Role.IsValid() {
				return nil, fmt.Errorf("seed: student %s: unknown role %q", row.ID, row.Role)
			}
		}
		switch {
		case row.Academic != nil:
			s.AcademicPercentage = *row.Academic
		case s.Role.IsStaff():
			s.AcademicPercentage = 0
		}
		s.Bio = row.Bio
		s.Interests = orEmpty(row.Interests)
		s.IsMentor = row.Mentor
		s.MentorshipBio = row.MentorshipBio
		if row.Streak > 0 {
			s.LoginStreak = row.Streak
		}

		for _, a := range row.Activities {
			act, err := buildActivity(a, projects, now)
			if err != nil {
				return nil, fmt.Errorf("seed: student %s activity %s: %w", row.ID, a.ID, err)
			}
			s.Activities = append(s.Activities, act)
		}

		if row.Quest != "" {
			tpl, ok := quests[row.Quest]
			if !ok {
				return nil, fmt.Errorf("seed: student %s: unknown quest %q", row.ID, row.Quest)
			}
			status := student.QuestStatus(row.QuestStatus)
			if status == "" {
				status = student.QuestUnclaimed
			}
			s.DailyQuest = &student.DailyQuest{
				ID:         row.ID + "-" + tpl.ID,
				TemplateID: tpl.ID,
				Text:       tpl.Text,
				Reward:     tpl.Reward,
				Status:     status,
				AssignedAt: now,
			}
		}

		s.ReconcilePoints()
		out = append(out, s)
	}
	return out, nil
}

func buildActivity(a activityRow, projects map[string]projectRow, now time.Time) (student.Activity, error) {
	at := now.AddDate(0, 0, -a.DaysAgo)

	var (
		act student.Activity
		err error
	)
	switch student.ActivityKind(a.Type) {
	case student.KindGoal:
		act, err = student.NewGoal(a.ID, a.Text, at)
		act.Completed = a.Completed
	case student.KindCompetition:
		act, err = student.NewCompetition(a.ID, a.Text,
			student.CompetitionLevel(a.Level), student.CompetitionResult(a.Result), a.Certificate, at)
	case student.KindProject:
		p, ok := projects[a.Project]
		if !ok {
			return student.Activity{}, fmt.Errorf("unknown project %q", a.Project)
		}
		act, err = student.NewProjectSubmission(a.ID, student.ProjectRef{ID: p.ID, Title: p.Title, Points: p.Points}, a.Submission, at)
	default:
		return student.Activity{}, fmt.Errorf("unsupported activity type %q", a.Type)
	}
	if err != nil {
		return student.Activity{}, err
	}

	if act.Kind.RequiresVerification() && a.Status != "" {
		act.Status = student.Status(a.Status)
		act.Completed = act.Status == student.StatusApproved
		if act.Status != student.StatusPending {
			settled := at.Add(24 * time.Hour)
			act.SettledAt = &settled
		}
	}
	return act, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// ══════════════════════════════════════════════════════════════════════════════
// SEEDER
// ══════════════════════════════════════════════════════════════════════════════

// Seeder writes the catalog into repositories.
type Seeder struct {
	students    student.Repository
	catalog     *school.Catalog
	clock       timeutil.Clock
	emailDomain string
	log         *logger.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(students student.Repository, catalog *school.Catalog, clock timeutil.Clock, emailDomain string, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{
		students:    students,
		catalog:     catalog,
		clock:       clock,
		emailDomain: emailDomain,
		log:         log.Named("seed"),
	}
}

// Result reports what was written.
type Result struct {
	Skipped     bool
	Students    int
	Collections []string
}

// Run seeds an empty store. A store that already has profiles is left alone.
// Collections that already exist are skipped individually.
func (s *Seeder) Run(ctx context.Context, f *File) (Result, error) {
	count, err := s.students.Count(ctx)
	if err != nil {
		return Result{}, err
	}
	if count > 0 {
		s.log.Info("store already has profiles, skipping seed", logger.Int("profiles", count))
		return Result{Skipped: true}, nil
	}

	var res Result
	collections := []struct {
		name  school.Collection
		write func() error
	}{
		{school.CollectionQuests, func() error { return storeNew(ctx, s.catalog.Quests, f.Quests) }},
		{school.CollectionEvents, func() error { return storeNew(ctx, s.catalog.Events, f.EventItems()) }},
		{school.CollectionProjects, func() error { return storeNew(ctx, s.catalog.Projects, f.ProjectItems()) }},
		{school.CollectionResources, func() error { return storeNew(ctx, s.catalog.Resources, f.ResourceItems()) }},
		{school.CollectionQuizzes, func() error { return storeNew(ctx, s.catalog.Quizzes, f.QuizItems()) }},
	}
	for _, c := range collections {
		err := c.write()
		switch {
		case err == nil:
			res.Collections = append(res.Collections, string(c.name))
		case shared.IsConflict(err):
			s.log.Info("collection exists, skipping", logger.String("collection", string(c.name)))
		default:
			return res, fmt.Errorf("seed %s: %w", c.name, err)
		}
	}

	profiles, err := f.StudentProfiles(s.emailDomain, s.clock.Now())
	if err != nil {
		return res, err
	}
	for _, p := range profiles {
		if err := s.students.Create(ctx, p); err != nil {
			if shared.IsAlreadyExists(err) {
				continue
			}
			return res, fmt.Errorf("seed student %s: %w", p.ID, err)
		}
		res.Students++
	}

	s.log.Info("seeded demo data",
		logger.Int("students", res.Students),
		logger.Strings("collections", res.Collections),
	)
	return res, nil
}

func storeNew[T school.Item](ctx context.Context, repo school.Repository[T], items []T) error {
	_, err := repo.Store(ctx, items, 0)
	return err
}
