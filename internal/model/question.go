package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty is an ordinal question difficulty on a 1–5 scale.
type Difficulty int

const (
	DifficultyVeryEasy Difficulty = 1
	DifficultyEasy     Difficulty = 2
	DifficultyMedium   Difficulty = 3
	DifficultyHard     Difficulty = 4
	DifficultyVeryHard Difficulty = 5
)

// Label returns the descriptive name for a difficulty level.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyVeryEasy:
		return "Very Easy"
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	case DifficultyVeryHard:
		return "Very Hard"
	default:
		return "Unknown"
	}
}

// Question represents a single multiple-choice question.
// CorrectOption is an index into Options; the options list holds at
// least two entries and has no fixed upper bound.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	QuestionText  string     `json:"question_text"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correct_option,omitempty"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	AuthorID      int        `json:"author_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	Options      []string  `json:"options"`
}

// ForStudent strips the correct answer from a question.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
	}
}

// CreateQuestionRequest is the payload for creating a question.
type CreateQuestionRequest struct {
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,dive,required,max=500"`
	CorrectOption *int     `json:"correct_option" binding:"required,min=0"`
	Category      string   `json:"category" binding:"required,min=1,max=100"`
	Difficulty    int      `json:"difficulty" binding:"required,min=1,max=5"`
}

// UpdateQuestionRequest is the payload for updating an existing question.
type UpdateQuestionRequest struct {
	QuestionText  string   `json:"question_text" binding:"omitempty,min=1,max=2000"`
	Options       []string `json:"options" binding:"omitempty,min=2,dive,required,max=500"`
	CorrectOption *int     `json:"correct_option" binding:"omitempty,min=0"`
	Category      string   `json:"category" binding:"omitempty,min=1,max=100"`
	Difficulty    int      `json:"difficulty" binding:"omitempty,min=1,max=5"`
}
