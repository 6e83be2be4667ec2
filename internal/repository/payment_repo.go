package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/models"
)

// PaymentRepository defines data operations for payment records.
type PaymentRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (models.Payment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Payment, error)
	List(ctx context.Context) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error

	// ApplyCompleted saves the activated enrollment and inserts the
	// payment row in one transaction: either both land or neither does.
	ApplyCompleted(ctx context.Context, enrollment *models.Enrollment, payment *models.Payment) error
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository instantiates the repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Preload("Student").
		Preload("Course")
}

func (r *paymentRepository) GetByExternalID(ctx context.Context, externalID string) (models.Payment, error) {
	var payment models.Payment
	if err := r.baseQuery(ctx).
		Where("external_id = ?", externalID).
		First(&payment).Error; err != nil {
		return models.Payment{}, err
	}

	return payment, nil
}

func (r *paymentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.baseQuery(ctx).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) ApplyCompleted(ctx context.Context, enrollment *models.Enrollment, payment *models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(enrollment).Error; err != nil {
			return err
		}
		return tx.Create(payment).Error
	})
}
