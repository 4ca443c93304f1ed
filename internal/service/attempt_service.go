package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlineexam/backend/internal/config"
	"github.com/onlineexam/backend/internal/model"
	"github.com/onlineexam/backend/internal/repository"
	"github.com/onlineexam/backend/internal/scoring"
	"github.com/onlineexam/backend/internal/session"
)

// Attempt service errors.
var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrNotAttemptOwner  = errors.New("attempt belongs to another student")
	ErrExamNotAvailable = errors.New("exam is not open for attempts")
	ErrAlreadySubmitted = errors.New("result already recorded for this exam")
	ErrSubmissionFailed = errors.New("result could not be persisted")
)

// ExamSource loads exam definitions for attempt start and submission.
type ExamSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// QuestionSource draws the frozen snapshot an attempt starts from.
type QuestionSource interface {
	DrawRandom(ctx context.Context, category string, count int) ([]model.Question, error)
}

// ResultStore persists graded outcomes under the submission guard.
type ResultStore interface {
	CreateSingleAttempt(ctx context.Context, res *model.Result) error
	CreateRetake(ctx context.Context, res *model.Result) error
	HasResult(ctx context.Context, examID uuid.UUID, studentID int) (bool, error)
}

// AttemptService orchestrates exam attempts: starting a session from a
// random draw, recording answers, and submitting through the session's
// single finalize path. Grading and persistence happen exactly once per
// attempt whether submission is manual or timer-driven.
type AttemptService struct {
	cfg       *config.Config
	rdb       *redis.Client
	manager   *session.Manager
	exams     ExamSource
	questions QuestionSource
	results   ResultStore
	log       zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(cfg *config.Config, rdb *redis.Client, manager *session.Manager, exams ExamSource, questions QuestionSource, results ResultStore, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		cfg:       cfg,
		rdb:       rdb,
		manager:   manager,
		exams:     exams,
		questions: questions,
		results:   results,
		log:       log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start begins a new attempt: draws a random question set, freezes it
// into a session, and registers the session with the timer loop. A
// student holds at most one active attempt at a time.
func (s *AttemptService) Start(ctx context.Context, studentID int, examID uuid.UUID) (*model.AttemptView, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotAvailable
	}

	if !exam.AllowRetake {
		has, err := s.results.HasResult(ctx, examID, studentID)
		if err != nil {
			return nil, fmt.Errorf("check prior result: %w", err)
		}
		if has {
			return nil, ErrAlreadySubmitted
		}
	}

	questions, err := s.questions.DrawRandom(ctx, exam.Category, exam.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}

	duration := time.Duration(exam.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = s.cfg.DefaultExamDuration
	}

	sess, err := session.New(examID, studentID, questions, duration, s.finalizer(exam, studentID))
	if err != nil {
		return nil, err
	}

	if err := s.manager.Register(sess); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("attempt_id", sess.ID.String()).
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Int("questions", len(questions)).
		Msg("Attempt started")

	return s.view(sess), nil
}

// Get returns the idempotent read of a student's attempt.
func (s *AttemptService) Get(ctx context.Context, studentID int, attemptID uuid.UUID) (*model.AttemptView, error) {
	sess, err := s.ownedSession(studentID, attemptID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Active returns the student's current attempt, if one is running.
func (s *AttemptService) Active(ctx context.Context, studentID int) (*model.AttemptView, error) {
	sess, ok := s.manager.ActiveByStudent(studentID)
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return s.view(sess), nil
}

// SelectAnswer records or overwrites one answer and queues it for
// asynchronous persistence.
func (s *AttemptService) SelectAnswer(ctx context.Context, studentID int, attemptID uuid.UUID, req *model.SelectAnswerRequest) error {
	sess, err := s.ownedSession(studentID, attemptID)
	if err != nil {
		return err
	}
	if err := sess.SelectAnswer(req.QuestionID, *req.SelectedOption); err != nil {
		return err
	}
	s.queueAutosave(ctx, sess, req.QuestionID, *req.SelectedOption)
	return nil
}

// MoveTo changes the current question position.
func (s *AttemptService) MoveTo(ctx context.Context, studentID int, attemptID uuid.UUID, index int) error {
	sess, err := s.ownedSession(studentID, attemptID)
	if err != nil {
		return err
	}
	return sess.MoveTo(index)
}

// Abandon discards the student's attempt without producing a result.
func (s *AttemptService) Abandon(ctx context.Context, studentID int, attemptID uuid.UUID) error {
	sess, err := s.ownedSession(studentID, attemptID)
	if err != nil {
		return err
	}
	if err := sess.Abandon(); err != nil {
		return err
	}
	s.manager.Remove(sess.ID)
	return nil
}

// Submit finalizes the student's active attempt for the given exam.
// Entries in req overwrite answers already recorded on the session, then
// the session's finalize path grades and persists the outcome. Exactly
// one submission wins; duplicates get ErrAlreadySubmitted.
func (s *AttemptService) Submit(ctx context.Context, studentID int, examID uuid.UUID, req *model.SubmitExamRequest) (*model.SubmitExamResponse, error) {
	sess, ok := s.manager.ActiveByStudent(studentID)
	if !ok || sess.ExamID != examID {
		// The timer loop sweeps an expired attempt out of the registry
		// after finalizing it; a recorded result tells that case apart
		// from a student who never started.
		if has, herr := s.results.HasResult(ctx, examID, studentID); herr == nil && has {
			return nil, ErrAlreadySubmitted
		}
		return nil, ErrAttemptNotFound
	}

	for _, a := range req.Answers {
		if err := sess.SelectAnswer(a.QuestionID, *a.SelectedOption); err != nil {
			if errors.Is(err, session.ErrTerminated) {
				return nil, ErrAlreadySubmitted
			}
			return nil, err
		}
	}

	err := sess.Submit()
	switch {
	case err == nil:
		// The session is terminal: the answer map can no longer change,
		// so re-reading it reproduces the persisted outcome.
		summary := scoring.Score(sess.Questions(), sess.Answers())
		return &model.SubmitExamResponse{
			Score:          summary.Score,
			TotalQuestions: summary.Total,
			CorrectAnswers: summary.Correct,
			Grade:          summary.Grade,
			Status:         summary.Status,
		}, nil
	case errors.Is(err, session.ErrTerminated):
		return nil, ErrAlreadySubmitted
	case errors.Is(err, repository.ErrDuplicateResult):
		return nil, ErrAlreadySubmitted
	default:
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
}

// finalizer builds the single finalize path for one attempt: score the
// frozen snapshot and persist the result under the exam's retake
// policy. Runs at most once, from either a manual submission or the
// timer expiry.
func (s *AttemptService) finalizer(exam *model.Exam, studentID int) session.Finalizer {
	examID := exam.ID
	allowRetake := exam.AllowRetake

	return func(snapshot []model.Question, answers map[uuid.UUID]int, elapsed time.Duration) error {
		ctx := context.Background()
		summary := scoring.Score(snapshot, answers)

		res := &model.Result{
			ExamID:           examID,
			StudentID:        studentID,
			TotalQuestions:   summary.Total,
			CorrectAnswers:   summary.Correct,
			Score:            summary.Score,
			Grade:            summary.Grade,
			Status:           summary.Status,
			TimeTakenMinutes: int(elapsed.Round(time.Minute) / time.Minute),
		}

		var err error
		if allowRetake {
			err = s.results.CreateRetake(ctx, res)
		} else {
			err = s.results.CreateSingleAttempt(ctx, res)
		}
		if err != nil {
			return err
		}

		s.log.Info().
			Str("exam_id", examID.String()).
			Int("student_id", studentID).
			Int("score", res.Score).
			Str("grade", res.Grade).
			Msg("Attempt graded and persisted")
		return nil
	}
}

// ownedSession resolves an attempt id and enforces ownership.
func (s *AttemptService) ownedSession(studentID int, attemptID uuid.UUID) (*session.Session, error) {
	sess, ok := s.manager.Get(attemptID)
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if sess.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	return sess, nil
}

func (s *AttemptService) view(sess *session.Session) *model.AttemptView {
	questions := sess.Questions()
	forStudent := make([]model.QuestionForStudent, len(questions))
	for i := range questions {
		forStudent[i] = questions[i].ForStudent()
	}
	return &model.AttemptView{
		AttemptID:        sess.ID,
		ExamID:           sess.ExamID,
		Questions:        forStudent,
		Position:         sess.Position(),
		Answers:          sess.Answers(),
		RemainingSeconds: sess.Remaining(),
		LowTime:          sess.LowTime(),
	}
}

// queueAutosave pushes one answer onto the worker queue for asynchronous
// persistence. Best effort: the session already holds the answer, so a
// queue outage only costs the audit trail.
func (s *AttemptService) queueAutosave(ctx context.Context, sess *session.Session, questionID uuid.UUID, option int) {
	payload := model.AutosavePayload{
		AttemptID:      sess.ID,
		ExamID:         sess.ExamID,
		StudentID:      sess.StudentID,
		QuestionID:     questionID,
		SelectedOption: option,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("attempt_id", sess.ID.String()).Msg("Failed to marshal autosave payload")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, data).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", sess.ID.String()).Msg("Failed to queue answer autosave")
	}
}
