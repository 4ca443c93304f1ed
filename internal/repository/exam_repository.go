package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/onlineexam/backend/internal/model"
)

// ExamRepository handles exam definition data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam in DRAFT status.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, category, author_id, duration_minutes, question_count, allow_retake, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Category, e.AuthorID, e.DurationMinutes, e.QuestionCount, e.AllowRetake, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves a single exam.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, category, author_id, duration_minutes, question_count, allow_retake, status, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Category, &e.AuthorID, &e.DurationMinutes, &e.QuestionCount, &e.AllowRetake, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces an exam's editable fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, category = $2, duration_minutes = $3, question_count = $4, allow_retake = $5, updated_at = NOW()
		 WHERE id = $6`,
		e.Title, e.Category, e.DurationMinutes, e.QuestionCount, e.AllowRetake, e.ID,
	)
	return err
}

// UpdateStatus moves an exam between lifecycle states.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`, status, id,
	)
	return err
}

// Delete removes an exam. Results reference exams with ON DELETE RESTRICT,
// so exams with recorded results cannot be deleted.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

// List retrieves exams with pagination, optionally filtered by status.
func (r *ExamRepository) List(ctx context.Context, status *model.ExamStatus, page, perPage int) ([]model.Exam, int64, error) {
	offset := (page - 1) * perPage

	baseQuery := ` FROM exams WHERE 1=1`
	args := []any{}

	if status != nil {
		args = append(args, *status)
		baseQuery += " AND status = $1"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, title, category, author_id, duration_minutes, question_count, allow_retake, status, created_at, updated_at` + baseQuery
	if len(args) == 1 {
		query += " ORDER BY created_at DESC LIMIT $2 OFFSET $3"
	} else {
		query += " ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	}
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Category, &e.AuthorID, &e.DurationMinutes, &e.QuestionCount, &e.AllowRetake, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// ListPublished returns every exam students may currently start.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, category, author_id, duration_minutes, question_count, allow_retake, status, created_at, updated_at
		 FROM exams WHERE status = $1 ORDER BY title`, model.ExamStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Category, &e.AuthorID, &e.DurationMinutes, &e.QuestionCount, &e.AllowRetake, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
