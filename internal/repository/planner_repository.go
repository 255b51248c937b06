package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// PlannerRepository handles study planner data access.
type PlannerRepository struct {
	pool *pgxpool.Pool
}

// NewPlannerRepository creates a new PlannerRepository.
func NewPlannerRepository(pool *pgxpool.Pool) *PlannerRepository {
	return &PlannerRepository{pool: pool}
}

// GetByID retrieves a planner entry by ID.
func (r *PlannerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PlannerEntry, error) {
	e := &model.PlannerEntry{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, subject_id, chapter_id, test_id, title, notes, scheduled_on, done, created_at, updated_at
		 FROM planner_entries WHERE id = $1`, id,
	).Scan(&e.ID, &e.StudentID, &e.SubjectID, &e.ChapterID, &e.TestID, &e.Title, &e.Notes, &e.ScheduledOn, &e.Done, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByStudent retrieves a student's planner entries within a date range.
func (r *PlannerRepository) ListByStudent(ctx context.Context, studentID int, from, to time.Time) ([]model.PlannerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, subject_id, chapter_id, test_id, title, notes, scheduled_on, done, created_at, updated_at
		 FROM planner_entries
		 WHERE student_id = $1 AND scheduled_on >= $2 AND scheduled_on <= $3
		 ORDER BY scheduled_on, created_at`, studentID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.PlannerEntry
	for rows.Next() {
		var e model.PlannerEntry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.SubjectID, &e.ChapterID, &e.TestID, &e.Title, &e.Notes, &e.ScheduledOn, &e.Done, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Create inserts a new planner entry.
func (r *PlannerRepository) Create(ctx context.Context, e *model.PlannerEntry) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO planner_entries (student_id, subject_id, chapter_id, test_id, title, notes, scheduled_on, done)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.StudentID, e.SubjectID, e.ChapterID, e.TestID, e.Title, e.Notes, e.ScheduledOn, e.Done,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update modifies a planner entry.
func (r *PlannerRepository) Update(ctx context.Context, e *model.PlannerEntry) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE planner_entries SET title = $1, notes = $2, scheduled_on = $3, done = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5 AND student_id = $6`,
		e.Title, e.Notes, e.ScheduledOn, e.Done, e.ID, e.StudentID,
	)
	return err
}

// Delete removes a planner entry owned by the given student.
func (r *PlannerRepository) Delete(ctx context.Context, id uuid.UUID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM planner_entries WHERE id = $1 AND student_id = $2`, id, studentID)
	return err
}
