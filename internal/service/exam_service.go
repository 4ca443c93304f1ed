package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onlineexam/backend/internal/config"
	"github.com/onlineexam/backend/internal/model"
	"github.com/onlineexam/backend/internal/repository"
)

// Exam service errors.
var (
	ErrExamNotFound   = errors.New("exam not found")
	ErrExamNotDraft   = errors.New("exam is not in draft status")
	ErrNotExamOwner   = errors.New("exam belongs to another author")
	ErrEmptyCategory  = errors.New("no questions exist for the exam category")
	ErrExamHasResults = errors.New("exam has recorded results")
)

// ExamService manages exam definitions and their lifecycle.
type ExamService struct {
	cfg       *config.Config
	rdb       *redis.Client
	exams     *repository.ExamRepository
	questions *repository.QuestionRepository
	results   *repository.ResultRepository
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(cfg *config.Config, rdb *redis.Client, exams *repository.ExamRepository, questions *repository.QuestionRepository, results *repository.ResultRepository, log zerolog.Logger) *ExamService {
	return &ExamService{
		cfg:       cfg,
		rdb:       rdb,
		exams:     exams,
		questions: questions,
		results:   results,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Create stores a new exam in DRAFT status. Duration and question count
// fall back to the configured defaults when omitted.
func (s *ExamService) Create(ctx context.Context, authorID int, req *model.CreateExamRequest) (*model.Exam, error) {
	e := &model.Exam{
		Title:           req.Title,
		Category:        req.Category,
		AuthorID:        authorID,
		DurationMinutes: req.DurationMinutes,
		QuestionCount:   req.QuestionCount,
		Status:          model.ExamStatusDraft,
	}
	if e.DurationMinutes == 0 {
		e.DurationMinutes = int(s.cfg.DefaultExamDuration.Minutes())
	}
	if e.QuestionCount == 0 {
		e.QuestionCount = s.cfg.DefaultQuestionCount
	}
	if req.AllowRetake != nil {
		e.AllowRetake = *req.AllowRetake
	}

	if err := s.exams.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return e, nil
}

// Get retrieves a single exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return e, nil
}

// Update applies the non-empty fields of req to a draft exam. Published
// and archived exams are immutable.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, userID int, role model.Role, req *model.UpdateExamRequest) (*model.Exam, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && e.AuthorID != userID {
		return nil, ErrNotExamOwner
	}
	if e.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	if req.Title != "" {
		e.Title = req.Title
	}
	if req.Category != "" {
		e.Category = req.Category
	}
	if req.DurationMinutes != 0 {
		e.DurationMinutes = req.DurationMinutes
	}
	if req.QuestionCount != 0 {
		e.QuestionCount = req.QuestionCount
	}
	if req.AllowRetake != nil {
		e.AllowRetake = *req.AllowRetake
	}

	if err := s.exams.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return e, nil
}

// Publish moves a draft exam to PUBLISHED and warms the Redis paper
// cache students read when listing available exams. Publishing requires
// at least one question in the exam's category.
func (s *ExamService) Publish(ctx context.Context, id uuid.UUID, userID int, role model.Role) (*model.Exam, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && e.AuthorID != userID {
		return nil, ErrNotExamOwner
	}
	if e.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	n, err := s.questions.CountByCategory(ctx, e.Category)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyCategory
	}

	if err := s.exams.UpdateStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return nil, fmt.Errorf("publish exam: %w", err)
	}
	e.Status = model.ExamStatusPublished

	s.warmPaperCache(ctx, e)
	return e, nil
}

// Archive moves a published exam out of the student listing. Recorded
// results are kept.
func (s *ExamService) Archive(ctx context.Context, id uuid.UUID, userID int, role model.Role) (*model.Exam, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && e.AuthorID != userID {
		return nil, ErrNotExamOwner
	}

	if err := s.exams.UpdateStatus(ctx, id, model.ExamStatusArchived); err != nil {
		return nil, fmt.Errorf("archive exam: %w", err)
	}
	e.Status = model.ExamStatusArchived

	if err := s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(id.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to evict paper cache")
	}
	return e, nil
}

// Delete removes a draft exam. Exams with recorded results must be
// archived instead.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID, userID int, role model.Role) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if role != model.RoleAdmin && e.AuthorID != userID {
		return ErrNotExamOwner
	}

	stats, err := s.results.GetStatistics(ctx, id)
	if err != nil {
		return fmt.Errorf("check results: %w", err)
	}
	if stats.TotalResults > 0 {
		return ErrExamHasResults
	}

	if err := s.exams.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	_ = s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(id.String())).Err()
	return nil
}

// List returns a paginated page of exams for staff.
func (s *ExamService) List(ctx context.Context, status *model.ExamStatus, page, perPage int) ([]model.Exam, int64, error) {
	return s.exams.List(ctx, status, page, perPage)
}

// ListAvailable returns the exams students may currently start.
func (s *ExamService) ListAvailable(ctx context.Context) ([]model.Exam, error) {
	return s.exams.ListPublished(ctx)
}

// Statistics aggregates the recorded results of an exam.
func (s *ExamService) Statistics(ctx context.Context, id uuid.UUID) (*model.ExamStatistics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.results.GetStatistics(ctx, id)
}

func (s *ExamService) warmPaperCache(ctx context.Context, e *model.Exam) {
	paper := model.ExamPaper{
		ExamID:          e.ID,
		Title:           e.Title,
		Category:        e.Category,
		DurationMinutes: e.DurationMinutes,
		QuestionCount:   e.QuestionCount,
	}
	raw, err := json.Marshal(paper)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal paper")
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamPaperKey(e.ID.String()), raw, 0).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", e.ID.String()).Msg("Failed to warm paper cache")
	}
}
