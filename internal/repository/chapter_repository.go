package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prostuti-app/prostuti-backend/internal/model"
)

// ChapterRepository handles chapter data access.
type ChapterRepository struct {
	pool *pgxpool.Pool
}

// NewChapterRepository creates a new ChapterRepository.
func NewChapterRepository(pool *pgxpool.Pool) *ChapterRepository {
	return &ChapterRepository{pool: pool}
}

// GetByID retrieves a chapter by ID.
func (r *ChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	c := &model.Chapter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, title, order_num, published, created_at, updated_at
		 FROM chapters WHERE id = $1`, id,
	).Scan(&c.ID, &c.SubjectID, &c.Title, &c.OrderNum, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListBySubject retrieves chapters for a subject, ordered by order_num.
func (r *ChapterRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID, publishedOnly bool) ([]model.Chapter, error) {
	query := `SELECT id, subject_id, title, order_num, published, created_at, updated_at
	          FROM chapters WHERE subject_id = $1`
	if publishedOnly {
		query += ` AND published = TRUE`
	}
	query += ` ORDER BY order_num, title`

	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []model.Chapter
	for rows.Next() {
		var c model.Chapter
		if err := rows.Scan(&c.ID, &c.SubjectID, &c.Title, &c.OrderNum, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

// Create inserts a new chapter.
func (r *ChapterRepository) Create(ctx context.Context, c *model.Chapter) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO chapters (subject_id, title, order_num, published)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		c.SubjectID, c.Title, c.OrderNum, c.Published,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update modifies a chapter.
func (r *ChapterRepository) Update(ctx context.Context, c *model.Chapter) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chapters SET title = $1, order_num = $2, published = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		c.Title, c.OrderNum, c.Published, c.ID,
	)
	return err
}

// Delete removes a chapter by ID.
func (r *ChapterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	return err
}
