package model

import "github.com/google/uuid"

// SelectAnswerRequest records or changes the answer for one question.
type SelectAnswerRequest struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption *int      `json:"selected_option" binding:"required,min=0"`
}

// MoveToRequest changes the current question position.
type MoveToRequest struct {
	Index *int `json:"index" binding:"required"`
}

// SubmitAnswer is one entry of a final submission payload.
type SubmitAnswer struct {
	QuestionID     uuid.UUID `json:"question_id" binding:"required"`
	SelectedOption *int      `json:"selected_option" binding:"required,min=0"`
}

// SubmitExamRequest is the body of POST /exams/:exam_id/submit. The
// answers list is optional — answers already recorded on the attempt
// are kept, entries here overwrite them before grading.
type SubmitExamRequest struct {
	Answers []SubmitAnswer `json:"answers" binding:"omitempty,dive"`
}

// SubmitExamResponse is the graded outcome returned to the student.
type SubmitExamResponse struct {
	Score          int          `json:"score"`
	TotalQuestions int          `json:"total_questions"`
	CorrectAnswers int          `json:"correct_answers"`
	Grade          string       `json:"grade"`
	Status         ResultStatus `json:"status"`
}

// AttemptView is the idempotent read of an in-progress attempt. Reading
// it never changes attempt state.
type AttemptView struct {
	AttemptID        uuid.UUID            `json:"attempt_id"`
	ExamID           uuid.UUID            `json:"exam_id"`
	Questions        []QuestionForStudent `json:"questions"`
	Position         int                  `json:"position"`
	Answers          map[uuid.UUID]int    `json:"answers"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	LowTime          bool                 `json:"low_time"`
}

// AutosavePayload is one queued answer selection, persisted
// asynchronously by the autosave worker.
type AutosavePayload struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	ExamID         uuid.UUID `json:"exam_id"`
	StudentID      int       `json:"student_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption int       `json:"selected_option"`
}
