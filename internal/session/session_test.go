package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onlineexam/backend/internal/model"
)

func testQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  "q",
			Options:       []string{"a", "b", "c"},
			CorrectOption: i % 3,
		}
	}
	return qs
}

func noopFinalizer(_ []model.Question, _ map[uuid.UUID]int, _ time.Duration) error {
	return nil
}

func TestNew_EmptyDrawAborts(t *testing.T) {
	s, err := New(uuid.New(), 1, nil, 30*time.Minute, noopFinalizer)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
	if s.Status() != StatusAborted {
		t.Errorf("status = %q, want ABORTED", s.Status())
	}
	if len(s.Questions()) != 0 {
		t.Errorf("questions = %d, want 0", len(s.Questions()))
	}
	if s.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0 (no timer started)", s.Remaining())
	}
}

func TestNew_SnapshotIsCopied(t *testing.T) {
	qs := testQuestions(3)
	s, err := New(uuid.New(), 1, qs, 30*time.Minute, noopFinalizer)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's slice must not affect the snapshot.
	original := qs[0].QuestionText
	qs[0].QuestionText = "mutated"
	if got := s.Questions()[0].QuestionText; got != original {
		t.Errorf("snapshot text = %q, want %q", got, original)
	}
}

func TestSelectAnswer(t *testing.T) {
	qs := testQuestions(3)
	s, _ := New(uuid.New(), 1, qs, 30*time.Minute, noopFinalizer)

	if err := s.SelectAnswer(qs[0].ID, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	// Overwrite is allowed.
	if err := s.SelectAnswer(qs[0].ID, 1); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := s.Answers()[qs[0].ID]; got != 1 {
		t.Errorf("answer = %d, want 1", got)
	}

	// Unknown question id is rejected.
	if err := s.SelectAnswer(uuid.New(), 0); !errors.Is(err, ErrInvalidQuestion) {
		t.Errorf("err = %v, want ErrInvalidQuestion", err)
	}
}

func TestMoveTo_OutOfRangeLeavesStateUnchanged(t *testing.T) {
	qs := testQuestions(5)
	s, _ := New(uuid.New(), 1, qs, 30*time.Minute, noopFinalizer)

	_ = s.SelectAnswer(qs[0].ID, 1)
	_ = s.MoveTo(2)

	for _, idx := range []int{-1, 5, 100} {
		if err := s.MoveTo(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("MoveTo(%d) = %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	if s.Position() != 2 {
		t.Errorf("position = %d, want 2", s.Position())
	}
	if len(s.Answers()) != 1 {
		t.Errorf("answers = %d, want 1", len(s.Answers()))
	}
}

func TestSubmit_FreezesAnswersAndCompletes(t *testing.T) {
	qs := testQuestions(3)
	var gotAnswers map[uuid.UUID]int
	finalize := func(snapshot []model.Question, answers map[uuid.UUID]int, _ time.Duration) error {
		if len(snapshot) != 3 {
			t.Errorf("snapshot = %d, want 3", len(snapshot))
		}
		gotAnswers = answers
		return nil
	}

	s, _ := New(uuid.New(), 1, qs, 30*time.Minute, finalize)
	_ = s.SelectAnswer(qs[1].ID, 1)

	if err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Status() != StatusCompleted {
		t.Errorf("status = %q, want COMPLETED", s.Status())
	}
	if gotAnswers[qs[1].ID] != 1 {
		t.Errorf("finalizer answers = %v, want {%s: 1}", gotAnswers, qs[1].ID)
	}

	// No mutation after terminal state.
	if err := s.SelectAnswer(qs[0].ID, 0); !errors.Is(err, ErrTerminated) {
		t.Errorf("select after submit = %v, want ErrTerminated", err)
	}
	if err := s.MoveTo(0); !errors.Is(err, ErrTerminated) {
		t.Errorf("move after submit = %v, want ErrTerminated", err)
	}
}

func TestSubmit_ReentrantFails(t *testing.T) {
	var calls int32
	finalize := func(_ []model.Question, _ map[uuid.UUID]int, _ time.Duration) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	s, _ := New(uuid.New(), 1, testQuestions(2), 30*time.Minute, finalize)

	if err := s.Submit(); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := s.Submit(); !errors.Is(err, ErrTerminated) {
		t.Errorf("second submit = %v, want ErrTerminated", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("finalizer ran %d times, want 1", n)
	}
}

func TestSubmit_PersistenceFailureAborts(t *testing.T) {
	finalize := func(_ []model.Question, _ map[uuid.UUID]int, _ time.Duration) error {
		return errors.New("store unavailable")
	}

	s, _ := New(uuid.New(), 1, testQuestions(2), 30*time.Minute, finalize)

	if err := s.Submit(); err == nil {
		t.Fatal("submit should propagate the persistence error")
	}
	if s.Status() != StatusAborted {
		t.Errorf("status = %q, want ABORTED", s.Status())
	}
	// The same snapshot cannot be resubmitted.
	if err := s.Submit(); !errors.Is(err, ErrTerminated) {
		t.Errorf("resubmit = %v, want ErrTerminated", err)
	}
}

func TestTick_ExpiryTriggersOnce(t *testing.T) {
	s, _ := New(uuid.New(), 1, testQuestions(2), 3*time.Second, noopFinalizer)

	if s.Tick() {
		t.Error("tick at 2s remaining should not expire")
	}
	if s.Tick() {
		t.Error("tick at 1s remaining should not expire")
	}
	if !s.Tick() {
		t.Error("tick reaching 0 must report expiry")
	}
	if s.Tick() {
		t.Error("expiry must fire exactly once")
	}
	if s.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", s.Remaining())
	}
}

func TestTick_ExpiryUsesPartialAnswers(t *testing.T) {
	qs := testQuestions(10)
	var summary map[uuid.UUID]int
	finalize := func(snapshot []model.Question, answers map[uuid.UUID]int, _ time.Duration) error {
		if len(snapshot) != 10 {
			t.Errorf("snapshot = %d, want 10", len(snapshot))
		}
		summary = answers
		return nil
	}

	s, _ := New(uuid.New(), 1, qs, 2*time.Second, finalize)

	// Answer 3 of 10: two correct, one wrong.
	_ = s.SelectAnswer(qs[0].ID, qs[0].CorrectOption)
	_ = s.SelectAnswer(qs[1].ID, qs[1].CorrectOption)
	_ = s.SelectAnswer(qs[2].ID, (qs[2].CorrectOption+1)%3)

	s.Tick()
	if !s.Tick() {
		t.Fatal("timer should have expired")
	}
	if err := s.Submit(); err != nil {
		t.Fatalf("expiry submit: %v", err)
	}

	if len(summary) != 3 {
		t.Fatalf("answers at expiry = %d, want 3", len(summary))
	}
	if s.Status() != StatusCompleted {
		t.Errorf("status = %q, want COMPLETED", s.Status())
	}
}

func TestSubmit_ConcurrentWithExpiry_OneWinner(t *testing.T) {
	var calls int32
	finalize := func(_ []model.Question, _ map[uuid.UUID]int, _ time.Duration) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	s, _ := New(uuid.New(), 1, testQuestions(5), time.Second, finalize)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Submit()
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrTerminated) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("finalizer ran %d times, want 1", n)
	}
}

func TestAbandon(t *testing.T) {
	s, _ := New(uuid.New(), 1, testQuestions(2), 30*time.Minute, noopFinalizer)

	if err := s.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if s.Status() != StatusAborted {
		t.Errorf("status = %q, want ABORTED", s.Status())
	}
	if err := s.Submit(); !errors.Is(err, ErrTerminated) {
		t.Errorf("submit after abandon = %v, want ErrTerminated", err)
	}
}

func TestLowTime(t *testing.T) {
	s, _ := New(uuid.New(), 1, testQuestions(2), 30*time.Minute, noopFinalizer)
	if s.LowTime() {
		t.Error("30 minutes remaining should not be low time")
	}

	short, _ := New(uuid.New(), 1, testQuestions(2), 4*time.Minute, noopFinalizer)
	if !short.LowTime() {
		t.Error("4 minutes remaining should be low time")
	}
}
