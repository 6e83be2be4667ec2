package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skilldesk/lms-api/internal/models"
)

// AttemptRepository defines data operations for exam attempts. Attempts
// are append-only; there is intentionally no update or delete.
type AttemptRepository interface {
	// ListByUserAndExam returns the attempt history newest-first.
	ListByUserAndExam(ctx context.Context, userID, examID uint) ([]models.Attempt, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Attempt, error)

	// CreateGuarded inserts an attempt inside one transaction. The prior
	// attempts for the pair are re-read under a row lock and handed to
	// guard; when guard returns an error nothing is written. The attempt's
	// number is assigned from the locked count so two concurrent
	// submissions cannot share one, and the unique index on
	// (user, exam, attempt_number) rejects whichever transaction loses the
	// race on stores without row locks.
	CreateGuarded(ctx context.Context, attempt *models.Attempt, guard func(prior []models.Attempt) error) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) ListByUserAndExam(ctx context.Context, userID, examID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("exam_id = ?", examID).
		Order("created_at DESC").
		Order("attempt_number DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) ListByUser(ctx context.Context, userID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := r.db.WithContext(ctx).
		Preload("Exam").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) ListByExam(ctx context.Context, examID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("exam_id = ?", examID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) CreateGuarded(ctx context.Context, attempt *models.Attempt, guard func(prior []models.Attempt) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Secondary key keeps "most recent" deterministic when two rows
		// share a created_at tick.
		query := tx.
			Where("user_id = ?", attempt.UserID).
			Where("exam_id = ?", attempt.ExamID).
			Order("created_at DESC").
			Order("attempt_number DESC")

		// SELECT ... FOR UPDATE is unavailable on sqlite; there the unique
		// attempt-number index alone arbitrates concurrent inserts.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var prior []models.Attempt
		if err := query.Find(&prior).Error; err != nil {
			return err
		}

		if guard != nil {
			if err := guard(prior); err != nil {
				return err
			}
		}

		attempt.AttemptNumber = len(prior) + 1

		return tx.Create(attempt).Error
	})
}
