// Package scoring grades a completed set of answers against a question
// snapshot. All functions are pure; thresholds are fixed business rules.
package scoring

import (
	"math"

	"github.com/google/uuid"
	"github.com/onlineexam/backend/internal/model"
)

// PassingScore is the minimum percentage required to pass.
const PassingScore = 60

// Summary is the graded outcome of one attempt.
type Summary struct {
	Correct int
	Total   int
	Score   int
	Grade   string
	Status  model.ResultStatus
}

// Score grades the answer map against the question snapshot.
// Total is always the snapshot size — unanswered questions count as
// wrong, never excluded. An answer only counts when its question id is
// in the snapshot and the selected option index matches the recorded
// correct option.
func Score(questions []model.Question, answers map[uuid.UUID]int) Summary {
	correct := 0
	for i := range questions {
		selected, ok := answers[questions[i].ID]
		if ok && selected == questions[i].CorrectOption {
			correct++
		}
	}
	return Summarize(correct, len(questions))
}

// Summarize computes percentage, grade, and status from raw counts.
func Summarize(correct, total int) Summary {
	score := Percentage(correct, total)
	return Summary{
		Correct: correct,
		Total:   total,
		Score:   score,
		Grade:   Grade(score),
		Status:  Status(score),
	}
}

// Percentage returns round-half-up(correct * 100 / total), or 0 when
// total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}

// Grade maps a percentage to a letter using fixed inclusive lower bounds.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= PassingScore:
		return "D"
	default:
		return "F"
	}
}

// Status classifies a percentage as PASSED or FAILED.
func Status(score int) model.ResultStatus {
	if score >= PassingScore {
		return model.ResultStatusPassed
	}
	return model.ResultStatusFailed
}
