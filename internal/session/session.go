// Package session implements the in-memory state machine for one exam
// attempt: the frozen question snapshot, the answer map, navigation,
// and the countdown. The tick is the single source of truth for expiry;
// HTTP and WebSocket layers only observe remaining time.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/onlineexam/backend/internal/model"
)

// LowTimeThreshold is the remaining time below which the attempt is
// flagged as urgent. Observation only — no state change.
const LowTimeThreshold = 5 * time.Minute

// Status enumerates attempt states.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusSubmitting Status = "SUBMITTING"
	StatusCompleted  Status = "COMPLETED"
	StatusAborted    Status = "ABORTED"
)

// Terminal reports whether no further mutation is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Domain errors surfaced by attempt operations.
var (
	ErrNoQuestions     = errors.New("no questions available")
	ErrTerminated      = errors.New("attempt already terminated")
	ErrInvalidQuestion = errors.New("question does not belong to this attempt")
	ErrIndexOutOfRange = errors.New("question index out of range")
)

// Finalizer persists the graded outcome of an attempt. It receives the
// frozen snapshot, the answers recorded up to the submission instant,
// and the elapsed time. A non-nil error aborts the attempt; the same
// snapshot is never re-submitted.
type Finalizer func(snapshot []model.Question, answers map[uuid.UUID]int, elapsed time.Duration) error

// Session owns the state of one in-progress attempt. All exported
// methods are safe for concurrent use; the timer tick and user-driven
// operations contend on a single mutex so exactly one finalize path wins.
type Session struct {
	ID        uuid.UUID
	ExamID    uuid.UUID
	StudentID int

	mu          sync.Mutex
	status      Status
	questions   []model.Question
	answers     map[uuid.UUID]int
	position    int
	duration    time.Duration
	remaining   int // seconds
	startedAt   time.Time
	expiryFired bool
	finalize    Finalizer
}

// New creates a session with a frozen snapshot of the drawn questions.
// The slice is copied — later mutation or deletion of bank questions
// cannot corrupt a running attempt. An empty draw yields a session that
// is immediately ABORTED with no timer, and ErrNoQuestions.
func New(examID uuid.UUID, studentID int, questions []model.Question, duration time.Duration, finalize Finalizer) (*Session, error) {
	s := &Session{
		ID:        uuid.New(),
		ExamID:    examID,
		StudentID: studentID,
		answers:   make(map[uuid.UUID]int),
		duration:  duration,
		startedAt: time.Now(),
		finalize:  finalize,
	}

	if len(questions) == 0 {
		s.status = StatusAborted
		return s, ErrNoQuestions
	}

	s.questions = make([]model.Question, len(questions))
	copy(s.questions, questions)
	s.status = StatusActive
	s.remaining = int(duration / time.Second)
	return s, nil
}

// Status returns the current attempt state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Questions returns the frozen snapshot.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Answers returns a copy of the current answer map.
func (s *Session) Answers() map[uuid.UUID]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAnswersLocked()
}

// Position returns the current question index.
func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Remaining returns the remaining time in whole seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// LowTime reports whether the attempt is active with at most
// LowTimeThreshold remaining.
func (s *Session) LowTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusActive && time.Duration(s.remaining)*time.Second <= LowTimeThreshold
}

// StartedAt returns the wall-clock start time.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Duration returns the configured attempt duration.
func (s *Session) Duration() time.Duration {
	return s.duration
}

// SelectAnswer records or overwrites the answer for a question in the
// snapshot. The only validation is snapshot membership; the scorer
// treats any non-matching selection as wrong.
func (s *Session) SelectAnswer(questionID uuid.UUID, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrTerminated
	}
	if !s.hasQuestionLocked(questionID) {
		return ErrInvalidQuestion
	}
	s.answers[questionID] = option
	return nil
}

// MoveTo changes the current question index. Out-of-range indexes leave
// both the position and the answer map untouched. Moving away never
// discards previously recorded answers.
func (s *Session) MoveTo(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrTerminated
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.position = index
	return nil
}

// Tick decrements the countdown by one second. It returns true exactly
// once: when the counter reaches zero while the attempt is still
// ACTIVE. The caller is then responsible for invoking Submit, which is
// the same path a manual submission takes.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 || s.expiryFired {
		return false
	}
	s.expiryFired = true
	return true
}

// Submit freezes the answer map and runs the finalizer. Exactly one
// caller wins the ACTIVE → SUBMITTING transition; every later call —
// manual resubmit or a racing timer expiry — gets ErrTerminated and
// nothing is re-scored or re-persisted. A finalizer failure leaves the
// attempt ABORTED: the student must start a fresh attempt.
func (s *Session) Submit() error {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return ErrTerminated
	}
	s.status = StatusSubmitting
	snapshot := s.questions
	answers := s.copyAnswersLocked()
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	err := s.finalize(snapshot, answers, elapsed)

	s.mu.Lock()
	if err != nil {
		s.status = StatusAborted
	} else {
		s.status = StatusCompleted
	}
	s.mu.Unlock()
	return err
}

// Abandon discards an active attempt. No Result is produced.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return ErrTerminated
	}
	s.status = StatusAborted
	return nil
}

func (s *Session) hasQuestionLocked(questionID uuid.UUID) bool {
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			return true
		}
	}
	return false
}

func (s *Session) copyAnswersLocked() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}
