package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// AttemptRepository handles test attempt data access. The final answer
// snapshot is stored as a JSONB column alongside the score breakdown.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new IN_PROGRESS attempt. The unique (test_id, student_id)
// constraint makes starting idempotent: on conflict no row is inserted and
// pgx.ErrNoRows is returned, so callers fall back to the existing attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.TestAttempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO test_attempts (test_id, student_id, status, max_score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (test_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		a.TestID, a.StudentID, model.AttemptStatusInProgress, a.MaxScore,
	).Scan(&a.ID, &a.StartedAt)
}

// GetByTestAndStudent retrieves the attempt for a test-student pair.
func (r *AttemptRepository) GetByTestAndStudent(ctx context.Context, testID uuid.UUID, studentID int) (*model.TestAttempt, error) {
	a := &model.TestAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, student_id, answers, correct_count, wrong_count, skipped_count, needs_review_count,
		        total_score, max_score, percentage, passed, time_taken_seconds, status, started_at, finished_at
		 FROM test_attempts
		 WHERE test_id = $1 AND student_id = $2`, testID, studentID,
	).Scan(&a.ID, &a.TestID, &a.StudentID, &a.Answers, &a.CorrectCount, &a.WrongCount, &a.SkippedCount, &a.NeedsReviewCount,
		&a.TotalScore, &a.MaxScore, &a.Percentage, &a.Passed, &a.TimeTakenSeconds, &a.Status, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt by its own ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestAttempt, error) {
	a := &model.TestAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, student_id, answers, correct_count, wrong_count, skipped_count, needs_review_count,
		        total_score, max_score, percentage, passed, time_taken_seconds, status, started_at, finished_at
		 FROM test_attempts
		 WHERE id = $1`, id,
	).Scan(&a.ID, &a.TestID, &a.StudentID, &a.Answers, &a.CorrectCount, &a.WrongCount, &a.SkippedCount, &a.NeedsReviewCount,
		&a.TotalScore, &a.MaxScore, &a.Percentage, &a.Passed, &a.TimeTakenSeconds, &a.Status, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Finalize writes the full score breakdown for a finished attempt.
// Only IN_PROGRESS rows are touched, so a duplicate finalize is a no-op.
func (r *AttemptRepository) Finalize(ctx context.Context, a *model.TestAttempt) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE test_attempts
		 SET answers = $1, correct_count = $2, wrong_count = $3, skipped_count = $4, needs_review_count = $5,
		     total_score = $6, max_score = $7, percentage = $8, passed = $9, time_taken_seconds = $10,
		     status = $11, finished_at = $12
		 WHERE test_id = $13 AND student_id = $14 AND status = 'IN_PROGRESS'`,
		a.Answers, a.CorrectCount, a.WrongCount, a.SkippedCount, a.NeedsReviewCount,
		a.TotalScore, a.MaxScore, a.Percentage, a.Passed, a.TimeTakenSeconds,
		a.Status, a.FinishedAt, a.TestID, a.StudentID,
	)
	return err
}

// BulkFinalize writes a batch of finished attempts in one statement
// using UNNEST. The answers snapshot is matched by position.
func (r *AttemptRepository) BulkFinalize(ctx context.Context, batch []*model.TestAttempt) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	testIDs := make([]uuid.UUID, 0, n)
	studentIDs := make([]int, 0, n)
	answers := make([]string, 0, n)
	corrects := make([]int, 0, n)
	wrongs := make([]int, 0, n)
	skippeds := make([]int, 0, n)
	reviews := make([]int, 0, n)
	totals := make([]int, 0, n)
	maxes := make([]int, 0, n)
	percentages := make([]float64, 0, n)
	passeds := make([]bool, 0, n)
	timeTakens := make([]int, 0, n)
	statuses := make([]string, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, a := range batch {
		raw, err := marshalAnswers(a.Answers)
		if err != nil {
			return err
		}
		finished := time.Now()
		if a.FinishedAt != nil {
			finished = *a.FinishedAt
		}
		testIDs = append(testIDs, a.TestID)
		studentIDs = append(studentIDs, a.StudentID)
		answers = append(answers, raw)
		corrects = append(corrects, a.CorrectCount)
		wrongs = append(wrongs, a.WrongCount)
		skippeds = append(skippeds, a.SkippedCount)
		reviews = append(reviews, a.NeedsReviewCount)
		totals = append(totals, a.TotalScore)
		maxes = append(maxes, a.MaxScore)
		percentages = append(percentages, a.Percentage)
		passeds = append(passeds, a.Passed)
		timeTakens = append(timeTakens, a.TimeTakenSeconds)
		statuses = append(statuses, string(a.Status))
		finishedAts = append(finishedAts, finished)
	}

	query := `
		UPDATE test_attempts AS a
		SET answers = t.answers::jsonb,
		    correct_count = t.correct_count,
		    wrong_count = t.wrong_count,
		    skipped_count = t.skipped_count,
		    needs_review_count = t.needs_review_count,
		    total_score = t.total_score,
		    max_score = t.max_score,
		    percentage = t.percentage,
		    passed = t.passed,
		    time_taken_seconds = t.time_taken_seconds,
		    status = t.status,
		    finished_at = t.finished_at
		FROM (
			SELECT *
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::text[],
				$4::int[],
				$5::int[],
				$6::int[],
				$7::int[],
				$8::int[],
				$9::int[],
				$10::float8[],
				$11::bool[],
				$12::int[],
				$13::text[],
				$14::timestamptz[]
			) AS u (test_id, student_id, answers, correct_count, wrong_count, skipped_count, needs_review_count,
			        total_score, max_score, percentage, passed, time_taken_seconds, status, finished_at)
		) AS t
		WHERE a.test_id = t.test_id
		  AND a.student_id = t.student_id
		  AND a.status = 'IN_PROGRESS'
	`

	_, err := r.pool.Exec(ctx, query,
		testIDs, studentIDs, answers, corrects, wrongs, skippeds, reviews,
		totals, maxes, percentages, passeds, timeTakens, statuses, finishedAts)
	return err
}

// ListByStudent retrieves a student's attempt history, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.AttemptSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.test_id, t.title, a.student_id, a.total_score, a.max_score, a.percentage, a.passed,
		        a.status, a.started_at, a.finished_at, a.time_taken_seconds
		 FROM test_attempts a
		 JOIN mock_tests t ON a.test_id = t.id
		 WHERE a.student_id = $1
		 ORDER BY a.started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.AttemptSummary
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.ID, &s.TestID, &s.TestTitle, &s.StudentID, &s.TotalScore, &s.MaxScore, &s.Percentage, &s.Passed,
			&s.Status, &s.StartedAt, &s.FinishedAt, &s.TimeTakenSeconds); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListByTest retrieves all student results for a test, with pagination.
func (r *AttemptRepository) ListByTest(ctx context.Context, testID uuid.UUID, page, perPage int) ([]model.AttemptSummary, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_attempts WHERE test_id = $1`, testID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.test_id, t.title, a.student_id, s.name, a.total_score, a.max_score, a.percentage, a.passed,
		        a.status, a.started_at, a.finished_at, a.time_taken_seconds
		 FROM test_attempts a
		 JOIN mock_tests t ON a.test_id = t.id
		 JOIN students s ON a.student_id = s.id
		 WHERE a.test_id = $1
		 ORDER BY a.percentage DESC, s.name ASC
		 LIMIT $2 OFFSET $3`, testID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []model.AttemptSummary
	for rows.Next() {
		var s model.AttemptSummary
		if err := rows.Scan(&s.ID, &s.TestID, &s.TestTitle, &s.StudentID, &s.StudentName, &s.TotalScore, &s.MaxScore, &s.Percentage, &s.Passed,
			&s.Status, &s.StartedAt, &s.FinishedAt, &s.TimeTakenSeconds); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

// ListOverdue finds IN_PROGRESS attempts whose deadline has passed by at
// least the given grace period. Used by the expiry sweep to finish
// attempts orphaned by a server restart.
func (r *AttemptRepository) ListOverdue(ctx context.Context, grace time.Duration) ([]model.TestAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.test_id, a.student_id, a.answers, a.correct_count, a.wrong_count, a.skipped_count, a.needs_review_count,
		        a.total_score, a.max_score, a.percentage, a.passed, a.time_taken_seconds, a.status, a.started_at, a.finished_at
		 FROM test_attempts a
		 JOIN mock_tests t ON a.test_id = t.id
		 WHERE a.status = 'IN_PROGRESS'
		   AND a.started_at + (t.duration_minutes * INTERVAL '1 minute') + ($1 * INTERVAL '1 second') < NOW()`,
		int(grace.Seconds()),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.TestAttempt
	for rows.Next() {
		var a model.TestAttempt
		if err := rows.Scan(&a.ID, &a.TestID, &a.StudentID, &a.Answers, &a.CorrectCount, &a.WrongCount, &a.SkippedCount, &a.NeedsReviewCount,
			&a.TotalScore, &a.MaxScore, &a.Percentage, &a.Passed, &a.TimeTakenSeconds, &a.Status, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func marshalAnswers(answers []model.AnswerRecord) (string, error) {
	if answers == nil {
		answers = []model.AnswerRecord{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
