package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/onlineexam/backend/internal/middleware"
	"github.com/onlineexam/backend/internal/model"
	"github.com/onlineexam/backend/internal/response"
	"github.com/onlineexam/backend/internal/service"
	"github.com/onlineexam/backend/internal/session"
	"github.com/onlineexam/backend/internal/validator"
)

// StudentHandler handles the student-facing exam surface: listing
// published exams, the attempt lifecycle, and result reads.
type StudentHandler struct {
	examService    *service.ExamService
	attemptService *service.AttemptService
	resultService  *service.ResultService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(examService *service.ExamService, attemptService *service.AttemptService, resultService *service.ResultService) *StudentHandler {
	return &StudentHandler{
		examService:    examService,
		attemptService: attemptService,
		resultService:  resultService,
	}
}

// ListAvailableExams godoc
// GET /api/v1/student/exams
func (h *StudentHandler) ListAvailableExams(c *gin.Context) {
	exams, err := h.examService.ListAvailable(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:exam_id/attempts
// Draws a fresh random question set and starts the countdown.
func (h *StudentHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.attemptService.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": view})
}

// GetActiveAttempt godoc
// GET /api/v1/student/attempts/active
// Lets a reconnecting client rediscover its running attempt.
func (h *StudentHandler) GetActiveAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.attemptService.Active(c.Request.Context(), claims.UserID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": view})
}

// GetAttempt godoc
// GET /api/v1/student/attempts/:attempt_id
// Idempotent read of attempt state; never mutates the attempt.
func (h *StudentHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.attemptService.Get(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": view})
}

// SelectAnswer godoc
// PUT /api/v1/student/attempts/:attempt_id/answer
// Records or overwrites the answer to one question.
func (h *StudentHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.SelectAnswer(c.Request.Context(), claims.UserID, attemptID, &req); err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// MoveTo godoc
// PUT /api/v1/student/attempts/:attempt_id/position
// Moves the current question pointer. Recorded answers are kept.
func (h *StudentHandler) MoveTo(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.MoveToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.MoveTo(c.Request.Context(), claims.UserID, attemptID, *req.Index); err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AbandonAttempt godoc
// DELETE /api/v1/student/attempts/:attempt_id
// Discards the attempt without producing a result.
func (h *StudentHandler) AbandonAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.attemptService.Abandon(c.Request.Context(), claims.UserID, attemptID); err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SubmitExam godoc
// POST /api/v1/student/exams/:exam_id/submit
// Finalizes the active attempt for the exam and returns the graded
// outcome. Exactly one submission per attempt wins.
func (h *StudentHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), claims.UserID, examID, &req)
	if err != nil {
		h.failAttempt(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListMyResults godoc
// GET /api/v1/student/results
func (h *StudentHandler) ListMyResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.resultService.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetResult godoc
// GET /api/v1/student/results/:result_id
func (h *StudentHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.Get(c.Request.Context(), resultID, claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResultNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotResultOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// failAttempt maps attempt lifecycle errors to HTTP responses.
func (h *StudentHandler) failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotAvailable):
		response.Fail(c, http.StatusConflict, response.ErrExamNotAvailable)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrSubmissionFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
	case errors.Is(err, session.ErrAttemptActive):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, session.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, session.ErrTerminated):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminated)
	case errors.Is(err, session.ErrInvalidQuestion):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidQuestionRef)
	case errors.Is(err, session.ErrIndexOutOfRange):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrIndexOutOfRange)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
