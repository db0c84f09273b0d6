package repository

import (
	"context"

	"github.com/sandeepkrmehta/lms-backend/internal/domain/entity"
)

// CourseRepository defines catalog persistence.
type CourseRepository interface {
	Create(ctx context.Context, c *entity.Course) error
	GetByID(ctx context.Context, id string) (*entity.Course, error)
	GetWithLectures(ctx context.Context, id string) (*entity.Course, error)
	List(ctx context.Context) ([]entity.Course, error)
	Update(ctx context.Context, c *entity.Course) error
	Delete(ctx context.Context, id string) error

	AddLecture(ctx context.Context, l *entity.Lecture) error
	RemoveLecture(ctx context.Context, courseID, lectureID string) (*entity.Lecture, error)
}
