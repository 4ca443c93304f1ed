package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/onlineexam/backend/internal/model"
)

// QuestionRepository handles question bank data access. It is also the
// question source for attempts: DrawRandom produces the frozen snapshot
// a session starts from.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, options, correct_option, category, difficulty, author_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.QuestionText, q.Options, q.CorrectOption, q.Category, q.Difficulty, q.AuthorID,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, question_text, options, correct_option, category, difficulty, author_id, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.Category, &q.Difficulty, &q.AuthorID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Update replaces a question's content.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, options = $2, correct_option = $3, category = $4, difficulty = $5, updated_at = NOW()
		 WHERE id = $6`,
		q.QuestionText, q.Options, q.CorrectOption, q.Category, q.Difficulty, q.ID,
	)
	return err
}

// Delete removes a question from the bank. Running attempts are not
// affected — they hold copies drawn at session start.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

// List retrieves questions with optional category/difficulty filters and pagination.
func (r *QuestionRepository) List(ctx context.Context, category *string, difficulty *int, page, perPage int) ([]model.Question, int64, error) {
	offset := (page - 1) * perPage

	baseQuery := ` FROM questions WHERE 1=1`
	args := []any{}

	if category != nil && *category != "" {
		args = append(args, *category)
		baseQuery += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if difficulty != nil {
		args = append(args, *difficulty)
		baseQuery += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, question_text, options, correct_option, category, difficulty, author_id, created_at, updated_at` +
		baseQuery +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.Category, &q.Difficulty, &q.AuthorID, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// DrawRandom returns a uniformly-random, duplicate-free subset of the
// category's pool, at most count questions. Called once per attempt at
// session creation; the result is frozen into the session snapshot.
func (r *QuestionRepository) DrawRandom(ctx context.Context, category string, count int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, options, correct_option, category, difficulty, author_id, created_at, updated_at
		 FROM questions WHERE category = $1
		 ORDER BY RANDOM() LIMIT $2`, category, count,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.Category, &q.Difficulty, &q.AuthorID, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountByCategory returns the pool size for a category.
func (r *QuestionRepository) CountByCategory(ctx context.Context, category string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE category = $1`, category).Scan(&n)
	return n, err
}

// ListCategories returns the distinct categories present in the bank.
func (r *QuestionRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM questions ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
