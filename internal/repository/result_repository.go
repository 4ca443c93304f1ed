package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/onlineexam/backend/internal/model"
)

// ErrDuplicateResult is returned when a submission would violate the
// one-result-per-attempt guarantee.
var ErrDuplicateResult = errors.New("result already recorded for this attempt")

// ResultRepository handles immutable exam result records. The table's
// UNIQUE (exam_id, student_id, attempt_no) constraint is the submission
// guard: concurrent duplicate submissions lose the insert race instead
// of producing a second row.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// CreateSingleAttempt records the result of a no-retake exam. The row is
// always attempt_no 1, so a duplicate submission hits the unique
// constraint and returns ErrDuplicateResult without writing anything.
func (r *ResultRepository) CreateSingleAttempt(ctx context.Context, res *model.Result) error {
	res.AttemptNo = 1
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (exam_id, student_id, attempt_no, total_questions, correct_answers, score, grade, status, time_taken_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (exam_id, student_id, attempt_no) DO NOTHING
		 RETURNING id, submitted_at`,
		res.ExamID, res.StudentID, res.AttemptNo, res.TotalQuestions, res.CorrectAnswers,
		res.Score, res.Grade, res.Status, res.TimeTakenMinutes,
	).Scan(&res.ID, &res.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateResult
	}
	return err
}

// CreateRetake records a result for a retake-enabled exam. The attempt
// number is computed from the student's existing rows; losing the insert
// race to a concurrent submission of the same attempt retries with the
// next number.
func (r *ResultRepository) CreateRetake(ctx context.Context, res *model.Result) error {
	for attempt := 0; attempt < 3; attempt++ {
		err := r.pool.QueryRow(ctx,
			`INSERT INTO results (exam_id, student_id, attempt_no, total_questions, correct_answers, score, grade, status, time_taken_minutes)
			 SELECT $1, $2, COALESCE(MAX(attempt_no), 0) + 1, $3, $4, $5, $6, $7, $8
			 FROM results WHERE exam_id = $1 AND student_id = $2
			 RETURNING id, attempt_no, submitted_at`,
			res.ExamID, res.StudentID, res.TotalQuestions, res.CorrectAnswers,
			res.Score, res.Grade, res.Status, res.TimeTakenMinutes,
		).Scan(&res.ID, &res.AttemptNo, &res.SubmittedAt)
		if isUniqueViolation(err) {
			continue
		}
		return err
	}
	return ErrDuplicateResult
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetByID retrieves a single result with the student's name attached.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT r.id, r.exam_id, r.student_id, u.name, r.attempt_no, r.total_questions, r.correct_answers,
		        r.score, r.grade, r.status, r.time_taken_minutes, r.submitted_at
		 FROM results r JOIN users u ON u.id = r.student_id
		 WHERE r.id = $1`, id,
	).Scan(&res.ID, &res.ExamID, &res.StudentID, &res.StudentName, &res.AttemptNo, &res.TotalQuestions,
		&res.CorrectAnswers, &res.Score, &res.Grade, &res.Status, &res.TimeTakenMinutes, &res.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// HasResult reports whether the student already recorded any result for
// the exam.
func (r *ResultRepository) HasResult(ctx context.Context, examID uuid.UUID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM results WHERE exam_id = $1 AND student_id = $2)`,
		examID, studentID,
	).Scan(&exists)
	return exists, err
}

// ListByStudent returns a student's results, newest first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, r.student_id, u.name, r.attempt_no, r.total_questions, r.correct_answers,
		        r.score, r.grade, r.status, r.time_taken_minutes, r.submitted_at
		 FROM results r JOIN users u ON u.id = r.student_id
		 WHERE r.student_id = $1
		 ORDER BY r.submitted_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

// ListByExam returns every result recorded for an exam, newest first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.exam_id, r.student_id, u.name, r.attempt_no, r.total_questions, r.correct_answers,
		        r.score, r.grade, r.status, r.time_taken_minutes, r.submitted_at
		 FROM results r JOIN users u ON u.id = r.student_id
		 WHERE r.exam_id = $1
		 ORDER BY r.submitted_at DESC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]model.Result, error) {
	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.ExamID, &res.StudentID, &res.StudentName, &res.AttemptNo,
			&res.TotalQuestions, &res.CorrectAnswers, &res.Score, &res.Grade, &res.Status,
			&res.TimeTakenMinutes, &res.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// GetStatistics aggregates the recorded results of an exam.
func (r *ResultRepository) GetStatistics(ctx context.Context, examID uuid.UUID) (*model.ExamStatistics, error) {
	stats := &model.ExamStatistics{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'PASSED'),
		        COUNT(*) FILTER (WHERE status = 'FAILED'),
		        AVG(score), MAX(score), MIN(score)
		 FROM results WHERE exam_id = $1`, examID,
	).Scan(&stats.TotalResults, &stats.PassedCount, &stats.FailedCount,
		&stats.AverageScore, &stats.HighestScore, &stats.LowestScore)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
