package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// ResourceRepository handles PDF resource metadata access.
type ResourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

// GetByID retrieves a resource by ID.
func (r *ResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	res := &model.Resource{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, chapter_id, title, file_url, published, created_at, updated_at
		 FROM resources WHERE id = $1`, id,
	).Scan(&res.ID, &res.SubjectID, &res.ChapterID, &res.Title, &res.FileURL, &res.Published, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListBySubject retrieves resources for a subject, optionally filtered
// by chapter and publish state.
func (r *ResourceRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID, chapterID *uuid.UUID, publishedOnly bool) ([]model.Resource, error) {
	query := `SELECT id, subject_id, chapter_id, title, file_url, published, created_at, updated_at
	          FROM resources WHERE subject_id = $1`
	args := []interface{}{subjectID}
	if chapterID != nil {
		query += ` AND chapter_id = $2`
		args = append(args, *chapterID)
	}
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	query += ` ORDER BY title`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResources(rows)
}

// Create inserts a new resource entry.
func (r *ResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO resources (subject_id, chapter_id, title, file_url, published)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		res.SubjectID, res.ChapterID, res.Title, res.FileURL, res.Published,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

// Update modifies a resource entry.
func (r *ResourceRepository) Update(ctx context.Context, res *model.Resource) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE resources SET chapter_id = $1, title = $2, file_url = $3, published = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		res.ChapterID, res.Title, res.FileURL, res.Published, res.ID,
	)
	return err
}

// Delete removes a resource entry by ID.
func (r *ResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, id)
	return err
}

func scanResources(rows pgx.Rows) ([]model.Resource, error) {
	var resources []model.Resource
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.SubjectID, &res.ChapterID, &res.Title, &res.FileURL, &res.Published, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}
