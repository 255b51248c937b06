package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// TestRepository handles mock test data access.
// The ordered question ID list is stored as a JSONB column so the paper
// order survives round trips unchanged.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetByID retrieves a mock test by ID.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MockTest, error) {
	t := &model.MockTest{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, title, description, duration_minutes, total_marks, total_questions, passing_percentage, question_ids, status, created_at, updated_at
		 FROM mock_tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.SubjectID, &t.Title, &t.Description, &t.DurationMinutes, &t.TotalMarks, &t.TotalQuestions, &t.PassingPercentage, &t.QuestionIDs, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListBySubject retrieves tests for a subject, optionally filtered by status.
func (r *TestRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID, status model.TestStatus) ([]model.MockTest, error) {
	query := `SELECT id, subject_id, title, description, duration_minutes, total_marks, total_questions, passing_percentage, question_ids, status, created_at, updated_at
	          FROM mock_tests WHERE subject_id = $1`
	args := []interface{}{subjectID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTests(rows)
}

// ListAll retrieves every mock test, newest first. Used by the admin console.
func (r *TestRepository) ListAll(ctx context.Context) ([]model.MockTest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, title, description, duration_minutes, total_marks, total_questions, passing_percentage, question_ids, status, created_at, updated_at
		 FROM mock_tests ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTests(rows)
}

// Create inserts a new mock test in DRAFT status.
func (r *TestRepository) Create(ctx context.Context, t *model.MockTest) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO mock_tests (subject_id, title, description, duration_minutes, total_marks, total_questions, passing_percentage, question_ids, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		t.SubjectID, t.Title, t.Description, t.DurationMinutes, t.TotalMarks, t.TotalQuestions, t.PassingPercentage, t.QuestionIDs, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Update modifies a mock test's content and derived totals.
func (r *TestRepository) Update(ctx context.Context, t *model.MockTest) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE mock_tests SET title = $1, description = $2, duration_minutes = $3, total_marks = $4, total_questions = $5, passing_percentage = $6, question_ids = $7, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $8`,
		t.Title, t.Description, t.DurationMinutes, t.TotalMarks, t.TotalQuestions, t.PassingPercentage, t.QuestionIDs, t.ID,
	)
	return err
}

// UpdateStatus transitions a test between DRAFT, PUBLISHED, and ARCHIVED.
func (r *TestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TestStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE mock_tests SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id,
	)
	return err
}

// Delete removes a mock test by ID.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM mock_tests WHERE id = $1`, id)
	return err
}

func scanTests(rows pgx.Rows) ([]model.MockTest, error) {
	var tests []model.MockTest
	for rows.Next() {
		var t model.MockTest
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Title, &t.Description, &t.DurationMinutes, &t.TotalMarks, &t.TotalQuestions, &t.PassingPercentage, &t.QuestionIDs, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}
