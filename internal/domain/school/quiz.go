package school

import (
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// Question - вопрос с вариантами ответа.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// Quiz - тест по главе предмета.
type Quiz struct {
	ID                string     `json:"id"`
	Subject           string     `json:"subject"`
	Chapter           string     `json:"chapter"`
	PointsPerQuestion int        `json:"pointsPerQuestion"`
	Questions         []Question `json:"questions"`
}

func (q Quiz) GetID() string { return q.ID }

// Name - отображаемое название теста.
func (q Quiz) Name() string {
	return q.Subject + ": " + q.Chapter
}

// Public возвращает копию теста без правильных ответов.
func (q Quiz) Public() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = ""
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}

// Grade считает правильные ответы. answers: ID вопроса -> выбранный вариант.
// Неизвестные ID вопросов игнорируются.
func (q Quiz) Grade(answers map[string]string) (score int, total int, err error) {
	if len(q.Questions) == 0 {
		return 0, 0, shared.NewDomainError("school", "GradeQuiz", shared.ErrInvalidState, "quiz has no questions")
	}
	for _, question := range q.Questions {
		if given, ok := answers[question.ID]; ok && strings.TrimSpace(given) == question.CorrectAnswer {
			score++
		}
	}
	return score, len(q.Questions), nil
}
