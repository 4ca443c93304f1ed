package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents an exam definition. Questions are drawn at attempt
// start from the question bank matching Category.
//
// AllowRetake controls the submission policy: when false a student may
// produce exactly one Result for this exam; when true unlimited retakes
// are permitted and each submission records a new attempt number.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	AuthorID        int        `json:"author_id"`
	DurationMinutes int        `json:"duration_minutes"`
	QuestionCount   int        `json:"question_count"`
	AllowRetake     bool       `json:"allow_retake"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Category        string `json:"category" binding:"required,min=1,max=100"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	QuestionCount   int    `json:"question_count" binding:"omitempty,min=1,max=200"`
	AllowRetake     *bool  `json:"allow_retake" binding:"omitempty"`
}

// UpdateExamRequest is the payload for updating an existing draft exam.
type UpdateExamRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Category        string `json:"category" binding:"omitempty,min=1,max=100"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	QuestionCount   int    `json:"question_count" binding:"omitempty,min=1,max=200"`
	AllowRetake     *bool  `json:"allow_retake" binding:"omitempty"`
}

// ExamPaper is the Redis-cached, student-facing view of a published exam.
type ExamPaper struct {
	ExamID          uuid.UUID `json:"exam_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
}
