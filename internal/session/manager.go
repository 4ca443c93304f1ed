package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAttemptActive is returned when a student already has a running attempt.
var ErrAttemptActive = errors.New("student already has an active attempt")

// Manager is the registry of in-flight attempts. Its Run loop is the
// authoritative one-second timer: every tick decrements each active
// session and auto-submits the ones that expired.
type Manager struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*Session
	byStudent map[int]uuid.UUID
	log       zerolog.Logger
}

// NewManager creates an empty session registry.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		byID:      make(map[uuid.UUID]*Session),
		byStudent: make(map[int]uuid.UUID),
		log:       log.With().Str("component", "session_manager").Logger(),
	}
}

// Register adds a session to the registry. A student may hold at most
// one active attempt at a time.
func (m *Manager) Register(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byStudent[s.StudentID]; ok {
		if existing, found := m.byID[id]; found && existing.Status() == StatusActive {
			return ErrAttemptActive
		}
		delete(m.byID, id)
	}

	m.byID[s.ID] = s
	m.byStudent[s.StudentID] = s.ID
	return nil
}

// Get returns the session with the given attempt id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	return s, ok
}

// ActiveByStudent returns the student's current attempt, if any.
func (m *Manager) ActiveByStudent(studentID int) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byStudent[studentID]
	if !ok {
		return nil, false
	}
	s, ok := m.byID[id]
	return s, ok
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[id]; ok {
		delete(m.byID, id)
		if m.byStudent[s.StudentID] == id {
			delete(m.byStudent, s.StudentID)
		}
	}
}

// Run begins the one-second tick loop. Call in a goroutine; returns
// when ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info().Msg("Session manager started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Session manager stopped")
			return
		case <-ticker.C:
			m.tickAll()
		}
	}
}

// tickAll advances every registered session by one second, submits the
// ones whose timer expired, and sweeps terminated sessions out of the
// registry.
func (m *Manager) tickAll() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.byID))
	for _, s := range m.byID {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if s.Tick() {
			go m.expire(s)
			continue
		}
		if s.Status().Terminal() {
			m.Remove(s.ID)
		}
	}
}

// expire auto-submits an attempt whose timer ran out. The session's own
// terminated guard makes this a no-op if a manual submit won the race.
func (m *Manager) expire(s *Session) {
	err := s.Submit()
	switch {
	case err == nil:
		m.log.Info().
			Str("attempt_id", s.ID.String()).
			Int("student_id", s.StudentID).
			Msg("Attempt auto-submitted on timer expiry")
	case errors.Is(err, ErrTerminated):
		// Manual submit finished first.
	default:
		m.log.Error().Err(err).
			Str("attempt_id", s.ID.String()).
			Int("student_id", s.StudentID).
			Msg("Auto-submit failed, attempt aborted")
	}
	m.Remove(s.ID)
}
