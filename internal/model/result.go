package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus enumerates the pass/fail classification of a result.
type ResultStatus string

const (
	ResultStatusPassed ResultStatus = "PASSED"
	ResultStatusFailed ResultStatus = "FAILED"
)

// Result is the immutable record of one completed exam attempt.
// Score is an integer percentage in [0, 100]; CorrectAnswers never
// exceeds TotalQuestions.
type Result struct {
	ID               uuid.UUID    `json:"id"`
	ExamID           uuid.UUID    `json:"exam_id"`
	StudentID        int          `json:"student_id"`
	StudentName      string       `json:"student_name"`
	AttemptNo        int          `json:"attempt_no"`
	TotalQuestions   int          `json:"total_questions"`
	CorrectAnswers   int          `json:"correct_answers"`
	Score            int          `json:"score"`
	Grade            string       `json:"grade"`
	Status           ResultStatus `json:"status"`
	TimeTakenMinutes int          `json:"time_taken_minutes"`
	SubmittedAt      time.Time    `json:"submitted_at"`
}

// ExamStatistics aggregates results for dashboards.
type ExamStatistics struct {
	TotalResults int      `json:"total_results"`
	PassedCount  int      `json:"passed_count"`
	FailedCount  int      `json:"failed_count"`
	AverageScore *float64 `json:"average_score"`
	HighestScore *int     `json:"highest_score"`
	LowestScore  *int     `json:"lowest_score"`
}
