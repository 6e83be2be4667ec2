package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/models"
)

func setupAttemptDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Exam{}, &models.Question{}, &models.Attempt{}))
	return db
}

func TestCreateGuardedAssignsMonotonicNumbers(t *testing.T) {
	db := setupAttemptDB(t)
	repo := NewAttemptRepository(db)

	base := time.Now().Add(-3 * time.Hour)
	for i := 0; i < 3; i++ {
		attempt := models.Attempt{
			UserID:      7,
			ExamID:      1,
			Score:       i,
			SubmittedAt: base.Add(time.Duration(i) * time.Hour),
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.CreateGuarded(context.Background(), &attempt, nil))
		require.Equal(t, i+1, attempt.AttemptNumber)
	}

	history, err := repo.ListByUserAndExam(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, 3, history[0].AttemptNumber, "expected newest attempt first")
	require.Equal(t, 1, history[2].AttemptNumber)
}

func TestCreateGuardedSeparatesPairs(t *testing.T) {
	db := setupAttemptDB(t)
	repo := NewAttemptRepository(db)

	first := models.Attempt{UserID: 7, ExamID: 1, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateGuarded(context.Background(), &first, nil))

	otherUser := models.Attempt{UserID: 8, ExamID: 1, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateGuarded(context.Background(), &otherUser, nil))
	require.Equal(t, 1, otherUser.AttemptNumber, "numbering is per (user, exam)")

	otherExam := models.Attempt{UserID: 7, ExamID: 2, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateGuarded(context.Background(), &otherExam, nil))
	require.Equal(t, 1, otherExam.AttemptNumber)
}

func TestCreateGuardedRejectionWritesNothing(t *testing.T) {
	db := setupAttemptDB(t)
	repo := NewAttemptRepository(db)

	rejected := errors.New("not eligible")
	attempt := models.Attempt{UserID: 7, ExamID: 1, SubmittedAt: time.Now()}

	err := repo.CreateGuarded(context.Background(), &attempt, func(prior []models.Attempt) error {
		require.Empty(t, prior)
		return rejected
	})
	require.ErrorIs(t, err, rejected)

	history, err := repo.ListByUserAndExam(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestCreateGuardedGuardSeesPriorHistory(t *testing.T) {
	db := setupAttemptDB(t)
	repo := NewAttemptRepository(db)

	first := models.Attempt{UserID: 7, ExamID: 1, Score: 2, SubmittedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.CreateGuarded(context.Background(), &first, nil))

	var seen int
	second := models.Attempt{UserID: 7, ExamID: 1, Score: 5, SubmittedAt: time.Now()}
	require.NoError(t, repo.CreateGuarded(context.Background(), &second, func(prior []models.Attempt) error {
		seen = len(prior)
		return nil
	}))

	require.Equal(t, 1, seen)
	require.Equal(t, 2, second.AttemptNumber)
}

func TestListByUserAndExamBreaksTimestampTies(t *testing.T) {
	db := setupAttemptDB(t)
	repo := NewAttemptRepository(db)

	tick := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		attempt := models.Attempt{
			UserID:      7,
			ExamID:      1,
			SubmittedAt: tick,
			CreatedAt:   tick,
		}
		require.NoError(t, repo.CreateGuarded(context.Background(), &attempt, nil))
	}

	history, err := repo.ListByUserAndExam(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 2, history[0].AttemptNumber, "ties on created_at fall back to attempt_number")
	require.Equal(t, 1, history[1].AttemptNumber)
}

func TestAttemptNumberUniqueIndexBackstop(t *testing.T) {
	db := setupAttemptDB(t)

	first := models.Attempt{UserID: 7, ExamID: 1, AttemptNumber: 1, SubmittedAt: time.Now()}
	require.NoError(t, db.Create(&first).Error)

	duplicate := models.Attempt{UserID: 7, ExamID: 1, AttemptNumber: 1, SubmittedAt: time.Now()}
	err := db.Create(&duplicate).Error
	require.Error(t, err, "duplicate (user, exam, attempt_number) must be rejected by the index")
}
