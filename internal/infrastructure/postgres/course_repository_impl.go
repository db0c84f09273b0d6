package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
	"github.com/sandeepkrmehta/lms-backend/internal/domain/repository"
)

const courseColumns = `id, title, description, category, thumbnail_public_id, thumbnail_url,
		created_by, number_of_lectures, created_at, updated_at`

type CourseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func scanCourse(row pgx.Row) (*entity.Course, error) {
	c := &entity.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category,
		&c.ThumbnailPublicID, &c.ThumbnailURL, &c.CreatedBy, &c.NumberOfLectures,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *CourseRepository) Create(ctx context.Context, c *entity.Course) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO courses (title, description, category, thumbnail_public_id, thumbnail_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, c.Title, c.Description, c.Category, c.ThumbnailPublicID, c.ThumbnailURL, c.CreatedBy)
	return row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*entity.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE id = $1
	`, id))
}

func (r *CourseRepository) GetWithLectures(ctx context.Context, id string) (*entity.Course, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, title, description, media_public_id, media_url, position, created_at
		FROM lectures
		WHERE course_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.Lecture
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description,
			&l.MediaPublicID, &l.MediaURL, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		c.Lectures = append(c.Lectures, l)
	}
	return c, rows.Err()
}

func (r *CourseRepository) List(ctx context.Context) ([]entity.Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CourseRepository) Update(ctx context.Context, c *entity.Course) error {
	c.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE courses
		SET title = $1, description = $2, category = $3,
		    thumbnail_public_id = $4, thumbnail_url = $5, updated_at = $6
		WHERE id = $7
	`, c.Title, c.Description, c.Category, c.ThumbnailPublicID, c.ThumbnailURL, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddLecture inserts the lecture and bumps the denormalized count in one
// transaction so the two never drift.
func (r *CourseRepository) AddLecture(ctx context.Context, l *entity.Lecture) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO lectures (course_id, title, description, media_public_id, media_url, position)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM lectures WHERE course_id = $1))
		RETURNING id, position, created_at
	`, l.CourseID, l.Title, l.Description, l.MediaPublicID, l.MediaURL)
	if err := row.Scan(&l.ID, &l.Position, &l.CreatedAt); err != nil {
		return err
	}

	res, err := tx.Exec(ctx, `
		UPDATE courses
		SET number_of_lectures = number_of_lectures + 1, updated_at = now()
		WHERE id = $1
	`, l.CourseID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *CourseRepository) RemoveLecture(ctx context.Context, courseID, lectureID string) (*entity.Lecture, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l := &entity.Lecture{}
	row := tx.QueryRow(ctx, `
		DELETE FROM lectures
		WHERE id = $1 AND course_id = $2
		RETURNING id, course_id, title, description, media_public_id, media_url, position, created_at
	`, lectureID, courseID)
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description,
		&l.MediaPublicID, &l.MediaURL, &l.Position, &l.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE courses
		SET number_of_lectures = number_of_lectures - 1, updated_at = now()
		WHERE id = $1
	`, courseID); err != nil {
		return nil, err
	}
	return l, tx.Commit(ctx)
}

var _ repository.CourseRepository = (*CourseRepository)(nil)
