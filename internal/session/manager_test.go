package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onlineexam/backend/internal/model"
	"github.com/rs/zerolog"
)

func TestManager_RegisterAndLookup(t *testing.T) {
	m := NewManager(zerolog.Nop())

	s, _ := New(uuid.New(), 7, testQuestions(2), 30*time.Minute, noopFinalizer)
	if err := m.Register(s); err != nil {
		t.Fatalf("register: %v", err)
	}

	if got, ok := m.Get(s.ID); !ok || got != s {
		t.Error("Get should return the registered session")
	}
	if got, ok := m.ActiveByStudent(7); !ok || got != s {
		t.Error("ActiveByStudent should return the registered session")
	}

	m.Remove(s.ID)
	if _, ok := m.Get(s.ID); ok {
		t.Error("session should be gone after Remove")
	}
	if _, ok := m.ActiveByStudent(7); ok {
		t.Error("student index should be cleared after Remove")
	}
}

func TestManager_RejectsSecondActiveAttempt(t *testing.T) {
	m := NewManager(zerolog.Nop())

	first, _ := New(uuid.New(), 7, testQuestions(2), 30*time.Minute, noopFinalizer)
	if err := m.Register(first); err != nil {
		t.Fatalf("register first: %v", err)
	}

	second, _ := New(uuid.New(), 7, testQuestions(2), 30*time.Minute, noopFinalizer)
	if err := m.Register(second); !errors.Is(err, ErrAttemptActive) {
		t.Errorf("register second = %v, want ErrAttemptActive", err)
	}

	// A terminated attempt no longer blocks a new one.
	_ = first.Abandon()
	if err := m.Register(second); err != nil {
		t.Errorf("register after abandon = %v, want nil", err)
	}
}

func TestManager_TickAllExpires(t *testing.T) {
	m := NewManager(zerolog.Nop())

	done := make(chan struct{})
	finalize := func(_ []model.Question, _ map[uuid.UUID]int, _ time.Duration) error {
		close(done)
		return nil
	}

	s, _ := New(uuid.New(), 7, testQuestions(2), time.Second, finalize)
	if err := m.Register(s); err != nil {
		t.Fatal(err)
	}

	m.tickAll() // 1 → 0, expiry fires, submit runs in background

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry did not trigger the submission path")
	}
}

func TestManager_SweepsTerminatedSessions(t *testing.T) {
	m := NewManager(zerolog.Nop())

	s, _ := New(uuid.New(), 7, testQuestions(2), 30*time.Minute, noopFinalizer)
	if err := m.Register(s); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(); err != nil {
		t.Fatal(err)
	}

	m.tickAll()
	if _, ok := m.Get(s.ID); ok {
		t.Error("completed session should be swept from the registry")
	}
}
