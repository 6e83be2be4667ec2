package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/models"
)

// LectureRepository defines data operations for lectures.
type LectureRepository interface {
	// ListByCourse returns the visible lectures of a course ordered by
	// lecture number. When previewOnly is true only free-preview lectures
	// are returned.
	ListByCourse(ctx context.Context, courseID uint, previewOnly bool) ([]models.Lecture, error)
	GetByID(ctx context.Context, id uint) (models.Lecture, error)
	Create(ctx context.Context, lecture *models.Lecture) error
	Update(ctx context.Context, lecture *models.Lecture) error
}

type lectureRepository struct {
	db *gorm.DB
}

// NewLectureRepository instantiates the repository.
func NewLectureRepository(db *gorm.DB) LectureRepository {
	return &lectureRepository{db: db}
}

func (r *lectureRepository) ListByCourse(ctx context.Context, courseID uint, previewOnly bool) ([]models.Lecture, error) {
	query := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("status = ?", models.LectureStatusActive).
		Where("is_deleted = ?", false)

	if previewOnly {
		query = query.Where("is_free_preview = ?", true)
	}

	var lectures []models.Lecture
	if err := query.Order("lecture_number ASC").Find(&lectures).Error; err != nil {
		return nil, err
	}

	return lectures, nil
}

func (r *lectureRepository) GetByID(ctx context.Context, id uint) (models.Lecture, error) {
	var lecture models.Lecture
	if err := r.db.WithContext(ctx).First(&lecture, id).Error; err != nil {
		return models.Lecture{}, err
	}

	return lecture, nil
}

func (r *lectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	return r.db.WithContext(ctx).Create(lecture).Error
}

func (r *lectureRepository) Update(ctx context.Context, lecture *models.Lecture) error {
	return r.db.WithContext(ctx).Save(lecture).Error
}
