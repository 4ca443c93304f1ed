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

// Question service errors.
var (
	ErrQuestionNotFound  = errors.New("question not found")
	ErrCorrectOutOfRange = errors.New("correct option index is out of range for the options list")
	ErrNotQuestionOwner  = errors.New("question belongs to another author")
)

// QuestionService manages the question bank.
type QuestionService struct {
	questions *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questions: questions}
}

// Create validates and stores a new question. The correct option is a
// typed index into the options list and must fall inside it.
func (s *QuestionService) Create(ctx context.Context, authorID int, req *model.CreateQuestionRequest) (*model.Question, error) {
	if *req.CorrectOption >= len(req.Options) {
		return nil, ErrCorrectOutOfRange
	}

	q := &model.Question{
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: *req.CorrectOption,
		Category:      req.Category,
		Difficulty:    model.Difficulty(req.Difficulty),
		AuthorID:      authorID,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Get retrieves a question including its correct answer. Staff only.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// Update applies the non-empty fields of req to an existing question.
// Teachers may only edit their own questions; admins may edit any.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, userID int, role model.Role, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && q.AuthorID != userID {
		return nil, ErrNotQuestionOwner
	}

	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if len(req.Options) > 0 {
		q.Options = req.Options
	}
	if req.CorrectOption != nil {
		q.CorrectOption = *req.CorrectOption
	}
	if req.Category != "" {
		q.Category = req.Category
	}
	if req.Difficulty != 0 {
		q.Difficulty = model.Difficulty(req.Difficulty)
	}

	if q.CorrectOption >= len(q.Options) {
		return nil, ErrCorrectOutOfRange
	}

	if err := s.questions.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes a question from the bank. Running attempts keep their
// drawn copies and are unaffected.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID, userID int, role model.Role) error {
	q, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin && q.AuthorID != userID {
		return ErrNotQuestionOwner
	}
	if err := s.questions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// List returns a filtered, paginated page of the question bank.
func (s *QuestionService) List(ctx context.Context, category *string, difficulty *int, page, perPage int) ([]model.Question, int64, error) {
	return s.questions.List(ctx, category, difficulty, page, perPage)
}

// Categories returns the distinct categories present in the bank.
func (s *QuestionService) Categories(ctx context.Context) ([]string, error) {
	return s.questions.ListCategories(ctx)
}
