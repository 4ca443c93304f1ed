package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/onlineexam/backend/internal/model"
	"github.com/onlineexam/backend/internal/repository"
)

// Result service errors.
var (
	ErrResultNotFound = errors.New("result not found")
	ErrNotResultOwner = errors.New("result belongs to another student")
)

// ResultService exposes read access to immutable exam results.
type ResultService struct {
	results *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(results *repository.ResultRepository) *ResultService {
	return &ResultService{results: results}
}

// Get retrieves one result. Students may only read their own; staff may
// read any.
func (s *ResultService) Get(ctx context.Context, id uuid.UUID, userID int, role model.Role) (*model.Result, error) {
	res, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	if !role.IsStaff() && res.StudentID != userID {
		return nil, ErrNotResultOwner
	}
	return res, nil
}

// ListMine returns the authenticated student's results, newest first.
func (s *ResultService) ListMine(ctx context.Context, studentID int) ([]model.Result, error) {
	return s.results.ListByStudent(ctx, studentID)
}

// ListByExam returns every result for an exam. Staff only.
func (s *ResultService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Result, error) {
	return s.results.ListByExam(ctx, examID)
}
