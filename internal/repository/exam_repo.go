package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/models"
)

// ExamRepository defines data operations for exams and their questions.
type ExamRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	ListQuestions(ctx context.Context, examID uint) ([]models.Question, error)
	Create(ctx context.Context, exam *models.Exam) error
	CreateQuestion(ctx context.Context, question *models.Question) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) ListQuestions(ctx context.Context, examID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}
