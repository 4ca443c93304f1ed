package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/onlineexam/backend/internal/model"
)

func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  "q",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: i % 4,
		}
	}
	return qs
}

func TestScore_Grading(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		score   int
		grade   string
		status  model.ResultStatus
	}{
		{name: "all wrong", correct: 0, total: 10, score: 0, grade: "F", status: model.ResultStatusFailed},
		{name: "just below pass", correct: 5, total: 10, score: 50, grade: "F", status: model.ResultStatusFailed},
		{name: "pass boundary", correct: 6, total: 10, score: 60, grade: "D", status: model.ResultStatusPassed},
		{name: "c grade", correct: 7, total: 10, score: 70, grade: "C", status: model.ResultStatusPassed},
		{name: "b grade", correct: 8, total: 10, score: 80, grade: "B", status: model.ResultStatusPassed},
		{name: "a grade", correct: 9, total: 10, score: 90, grade: "A", status: model.ResultStatusPassed},
		{name: "perfect", correct: 10, total: 10, score: 100, grade: "A", status: model.ResultStatusPassed},
		{name: "round half up", correct: 1, total: 8, score: 13, grade: "F", status: model.ResultStatusFailed},
		{name: "two thirds", correct: 2, total: 3, score: 67, grade: "D", status: model.ResultStatusPassed},
		{name: "empty snapshot", correct: 0, total: 0, score: 0, grade: "F", status: model.ResultStatusFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.correct, tc.total)
			if got.Score != tc.score {
				t.Errorf("score = %d, want %d", got.Score, tc.score)
			}
			if got.Grade != tc.grade {
				t.Errorf("grade = %q, want %q", got.Grade, tc.grade)
			}
			if got.Status != tc.status {
				t.Errorf("status = %q, want %q", got.Status, tc.status)
			}
		})
	}
}

func TestScore_BoundsAndMonotonicity(t *testing.T) {
	for total := 1; total <= 20; total++ {
		prev := -1
		for correct := 0; correct <= total; correct++ {
			score := Percentage(correct, total)
			if score < 0 || score > 100 {
				t.Fatalf("score(%d, %d) = %d out of bounds", correct, total, score)
			}
			if score < prev {
				t.Fatalf("score(%d, %d) = %d decreased from %d", correct, total, score, prev)
			}
			prev = score
		}
	}
}

func TestScore_UnansweredCountAsWrong(t *testing.T) {
	qs := makeQuestions(10)

	// Answer only three questions, all correctly.
	answers := map[uuid.UUID]int{
		qs[0].ID: qs[0].CorrectOption,
		qs[4].ID: qs[4].CorrectOption,
		qs[7].ID: qs[7].CorrectOption,
	}

	got := Score(qs, answers)
	if got.Correct != 3 {
		t.Errorf("correct = %d, want 3", got.Correct)
	}
	if got.Total != 10 {
		t.Errorf("total = %d, want 10", got.Total)
	}
	if got.Score != 30 {
		t.Errorf("score = %d, want 30", got.Score)
	}
	if got.Status != model.ResultStatusFailed {
		t.Errorf("status = %q, want FAILED", got.Status)
	}
}

func TestScore_WrongSelectionsDoNotCount(t *testing.T) {
	qs := makeQuestions(4)

	answers := make(map[uuid.UUID]int, len(qs))
	for i := range qs {
		answers[qs[i].ID] = (qs[i].CorrectOption + 1) % len(qs[i].Options)
	}

	got := Score(qs, answers)
	if got.Correct != 0 {
		t.Errorf("correct = %d, want 0", got.Correct)
	}
}

func TestScore_UnknownQuestionIDsIgnored(t *testing.T) {
	qs := makeQuestions(5)

	answers := map[uuid.UUID]int{
		qs[0].ID:   qs[0].CorrectOption,
		uuid.New(): 0, // Not part of the snapshot.
	}

	got := Score(qs, answers)
	if got.Correct != 1 {
		t.Errorf("correct = %d, want 1", got.Correct)
	}
	if got.Total != 5 {
		t.Errorf("total = %d, want 5", got.Total)
	}
}
