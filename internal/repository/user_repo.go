package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skilldesk/lms-api/internal/models"
)

// UserRepository defines data operations for user accounts and the
// denormalized student course set.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error

	// AddCourse adds a course to the student's denormalized course set.
	// Adding an already present course is a no-op.
	AddCourse(ctx context.Context, userID, courseID uint) error
	RemoveCourse(ctx context.Context, userID, courseID uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) AddCourse(ctx context.Context, userID, courseID uint) error {
	entry := models.UserCourse{UserID: userID, CourseID: courseID}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
}

func (r *userRepository) RemoveCourse(ctx context.Context, userID, courseID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Delete(&models.UserCourse{}).Error
}
