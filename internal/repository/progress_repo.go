package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skilldesk/lms-api/internal/models"
)

// ProgressRepository defines data operations for lecture progress.
type ProgressRepository interface {
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Progress, error)
	Create(ctx context.Context, progress *models.Progress) error
	// AddLecture records a completed lecture; repeats are no-ops.
	AddLecture(ctx context.Context, entry *models.ProgressLecture) error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository instantiates the repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Progress, error) {
	var progress models.Progress
	if err := r.db.WithContext(ctx).
		Preload("CompletedLectures").
		Where("student_id = ?", studentID).
		Where("course_id = ?", courseID).
		First(&progress).Error; err != nil {
		return models.Progress{}, err
	}

	return progress, nil
}

func (r *progressRepository) Create(ctx context.Context, progress *models.Progress) error {
	return r.db.WithContext(ctx).Create(progress).Error
}

func (r *progressRepository) AddLecture(ctx context.Context, entry *models.ProgressLecture) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}
