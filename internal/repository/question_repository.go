package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// QuestionRepository handles question data access.
// Options are stored as a JSONB column and scanned directly.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, chapter_id, question_text, question_type, marks, options, reference_answer, pyq_exam, pyq_year, published, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.ChapterID, &q.QuestionText, &q.QuestionType, &q.Marks, &q.Options, &q.ReferenceAnswer, &q.PYQExam, &q.PYQYear, &q.Published, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListByChapter retrieves questions for a chapter.
func (r *QuestionRepository) ListByChapter(ctx context.Context, chapterID uuid.UUID, publishedOnly bool) ([]model.Question, error) {
	query := `SELECT id, chapter_id, question_text, question_type, marks, options, reference_answer, pyq_exam, pyq_year, published, created_at, updated_at
	          FROM questions WHERE chapter_id = $1`
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// GetByIDs retrieves a batch of questions by ID. The result order is
// unspecified; callers reorder by their own ID list.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, chapter_id, question_text, question_type, marks, options, reference_answer, pyq_exam, pyq_year, published, created_at, updated_at
		 FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (chapter_id, question_text, question_type, marks, options, reference_answer, pyq_exam, pyq_year, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		q.ChapterID, q.QuestionText, q.QuestionType, q.Marks, q.Options, q.ReferenceAnswer, q.PYQExam, q.PYQYear, q.Published,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update modifies a question.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET question_text = $1, marks = $2, options = $3, reference_answer = $4, pyq_exam = $5, pyq_year = $6, published = $7, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $8`,
		q.QuestionText, q.Marks, q.Options, q.ReferenceAnswer, q.PYQExam, q.PYQYear, q.Published, q.ID,
	)
	return err
}

// Delete removes a question by ID.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

func scanQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ChapterID, &q.QuestionText, &q.QuestionType, &q.Marks, &q.Options, &q.ReferenceAnswer, &q.PYQExam, &q.PYQYear, &q.Published, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
