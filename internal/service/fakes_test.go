package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/models"
)

// In-memory repository fakes shared by the service tests.

type fakeCourseRepo struct {
	courses map[uint]models.Course
}

func (r *fakeCourseRepo) List(_ context.Context) ([]models.Course, error) {
	out := make([]models.Course, 0, len(r.courses))
	for _, course := range r.courses {
		out = append(out, course)
	}
	return out, nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (r *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	if r.courses == nil {
		r.courses = map[uint]models.Course{}
	}
	r.courses[course.ID] = *course
	return nil
}

func (r *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	r.courses[course.ID] = *course
	return nil
}

type fakeLectureRepo struct {
	lectures []models.Lecture
}

func (r *fakeLectureRepo) ListByCourse(_ context.Context, courseID uint, previewOnly bool) ([]models.Lecture, error) {
	var out []models.Lecture
	for _, lecture := range r.lectures {
		if lecture.CourseID != courseID || !lecture.IsVisible() {
			continue
		}
		if previewOnly && !lecture.IsFreePreview {
			continue
		}
		out = append(out, lecture)
	}
	return out, nil
}

func (r *fakeLectureRepo) GetByID(_ context.Context, id uint) (models.Lecture, error) {
	for _, lecture := range r.lectures {
		if lecture.ID == id {
			return lecture, nil
		}
	}
	return models.Lecture{}, gorm.ErrRecordNotFound
}

func (r *fakeLectureRepo) Create(_ context.Context, lecture *models.Lecture) error {
	r.lectures = append(r.lectures, *lecture)
	return nil
}

func (r *fakeLectureRepo) Update(_ context.Context, lecture *models.Lecture) error {
	for i := range r.lectures {
		if r.lectures[i].ID == lecture.ID {
			r.lectures[i] = *lecture
		}
	}
	return nil
}

type fakeEnrollmentRepo struct {
	enrollments map[uint]models.Enrollment
	nextID      uint
}

func (r *fakeEnrollmentRepo) GetActive(_ context.Context, studentID, courseID uint) (models.Enrollment, error) {
	for _, enrollment := range r.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID && !enrollment.IsDeleted {
			return enrollment, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (r *fakeEnrollmentRepo) GetByID(_ context.Context, id uint) (models.Enrollment, error) {
	enrollment, ok := r.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (r *fakeEnrollmentRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, enrollment := range r.enrollments {
		if enrollment.StudentID == studentID && !enrollment.IsDeleted {
			out = append(out, enrollment)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	if r.enrollments == nil {
		r.enrollments = map[uint]models.Enrollment{}
	}
	r.nextID++
	enrollment.ID = r.nextID
	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *fakeEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	r.enrollments[enrollment.ID] = *enrollment
	return nil
}

type fakeUserRepo struct {
	users       map[uint]models.User
	courseLinks map[uint]map[uint]bool
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if r.users == nil {
		r.users = map[uint]models.User{}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) AddCourse(_ context.Context, userID, courseID uint) error {
	if r.courseLinks == nil {
		r.courseLinks = map[uint]map[uint]bool{}
	}
	if r.courseLinks[userID] == nil {
		r.courseLinks[userID] = map[uint]bool{}
	}
	r.courseLinks[userID][courseID] = true
	return nil
}

func (r *fakeUserRepo) RemoveCourse(_ context.Context, userID, courseID uint) error {
	if r.courseLinks[userID] != nil {
		delete(r.courseLinks[userID], courseID)
	}
	return nil
}

type fakePaymentRepo struct {
	payments    []models.Payment
	nextID      uint
	enrollments *fakeEnrollmentRepo
	applyErr    error
}

func (r *fakePaymentRepo) GetByExternalID(_ context.Context, externalID string) (models.Payment, error) {
	for _, payment := range r.payments {
		if payment.ExternalID == externalID {
			return payment, nil
		}
	}
	return models.Payment{}, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range r.payments {
		if payment.StudentID == studentID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) List(_ context.Context) ([]models.Payment, error) {
	return r.payments, nil
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.nextID++
	payment.ID = r.nextID
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *fakePaymentRepo) Update(_ context.Context, payment *models.Payment) error {
	for i := range r.payments {
		if r.payments[i].ID == payment.ID {
			r.payments[i] = *payment
		}
	}
	return nil
}

// ApplyCompleted mirrors the transactional write: on any failure neither
// the payment nor the enrollment is touched.
func (r *fakePaymentRepo) ApplyCompleted(ctx context.Context, enrollment *models.Enrollment, payment *models.Payment) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	for _, existing := range r.payments {
		if existing.ExternalID == payment.ExternalID {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := r.Create(ctx, payment); err != nil {
		return err
	}
	if r.enrollments != nil {
		return r.enrollments.Update(ctx, enrollment)
	}
	return nil
}

type fakeProgressRepo struct {
	records map[uint]models.Progress
	nextID  uint
}

func (r *fakeProgressRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID uint) (models.Progress, error) {
	for _, record := range r.records {
		if record.StudentID == studentID && record.CourseID == courseID {
			return record, nil
		}
	}
	return models.Progress{}, gorm.ErrRecordNotFound
}

func (r *fakeProgressRepo) Create(_ context.Context, progress *models.Progress) error {
	if r.records == nil {
		r.records = map[uint]models.Progress{}
	}
	r.nextID++
	progress.ID = r.nextID
	r.records[progress.ID] = *progress
	return nil
}

func (r *fakeProgressRepo) AddLecture(_ context.Context, entry *models.ProgressLecture) error {
	record := r.records[entry.ProgressID]
	for _, existing := range record.CompletedLectures {
		if existing.LectureID == entry.LectureID {
			return nil
		}
	}
	record.CompletedLectures = append(record.CompletedLectures, *entry)
	r.records[entry.ProgressID] = record
	return nil
}

// newTestCache backs an AccessCache with an in-process redis server.
func newTestCache(t *testing.T) *AccessCache {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewAccessCache(client, time.Minute, zerolog.Nop())
}
