package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/repository"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

// fakeEnrollmentStore mirrors the repository rules: one row per (student, course),
// capacity counted over active rows.
type fakeEnrollmentStore struct {
	courses     map[string]*models.Course
	enrollments map[[2]string]*models.Enrollment
	auditLogs   []*models.AuditLog
}

func newFakeEnrollmentStore(courses ...models.Course) *fakeEnrollmentStore {
	store := &fakeEnrollmentStore{courses: map[string]*models.Course{}, enrollments: map[[2]string]*models.Enrollment{}}
	for i := range courses {
		c := courses[i]
		store.courses[c.ID] = &c
	}
	return store
}

func (f *fakeEnrollmentStore) enrolledCount(courseID string) int {
	count := 0
	for key, e := range f.enrollments {
		if key[1] == courseID && e.IsActive {
			count++
		}
	}
	return count
}

func (f *fakeEnrollmentStore) Enroll(ctx context.Context, studentID, courseID string, now time.Time) (*models.Enrollment, error) {
	course, ok := f.courses[courseID]
	if !ok || !course.Active() {
		return nil, sql.ErrNoRows
	}
	key := [2]string{studentID, courseID}
	existing, hasRow := f.enrollments[key]
	if hasRow && existing.IsActive {
		return nil, repository.ErrEnrollmentActive
	}
	if f.enrolledCount(courseID) >= course.MaxStudents {
		return nil, repository.ErrCourseAtCapacity
	}
	if hasRow {
		return nil, repository.ErrEnrollmentDropped
	}
	e := &models.Enrollment{ID: studentID + ":" + courseID, StudentID: studentID, CourseID: courseID, EnrollmentDate: now, Status: models.EnrollmentStatusEnrolled, IsActive: true}
	f.enrollments[key] = e
	return e, nil
}

func (f *fakeEnrollmentStore) Drop(ctx context.Context, studentID, courseID string) error {
	e, ok := f.enrollments[[2]string{studentID, courseID}]
	if !ok || !e.IsActive {
		return sql.ErrNoRows
	}
	e.IsActive = false
	e.Status = models.EnrollmentStatusDropped
	return nil
}

func (f *fakeEnrollmentStore) ListActiveByStudent(ctx context.Context, studentID string) ([]models.MyCourse, error) {
	var out []models.MyCourse
	for key, e := range f.enrollments {
		if key[0] == studentID && e.IsActive {
			out = append(out, models.MyCourse{Enrollment: *e, CourseName: f.courses[key[1]].Name})
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

type fakeProfiles map[string]*models.StudentProfile

func (f fakeProfiles) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	p, ok := f[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

type recordingCacheRepo struct {
	deleted []string
}

func (r *recordingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (r *recordingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.deleted = append(r.deleted, pattern)
	return nil
}

func studentProfiles(userIDs ...string) fakeProfiles {
	profiles := fakeProfiles{}
	for _, id := range userIDs {
		profiles[id] = &models.StudentProfile{ID: "sp-" + id, UserID: id, Status: models.ProfileStatusActive}
	}
	return profiles
}

func newTestEnrollmentService(store *fakeEnrollmentStore, profiles fakeProfiles, cache *CacheService) *EnrollmentService {
	clk := clock.NewFixed(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	return NewEnrollmentService(store, profiles, store, cache, NewMetricsService(), clk, zap.NewNop())
}

func smallCourse(capacity int) models.Course {
	return models.Course{ID: "c1", Name: "Algorithms", Code: "CS201", MaxStudents: capacity, Status: models.CourseStatusActive}
}

func TestEnrollmentServiceEnrollSuccess(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(2))
	cacheRepo := &recordingCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := newTestEnrollmentService(store, studentProfiles("u1"), cache)

	enrollment, err := svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.True(t, enrollment.IsActive)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), enrollment.EnrollmentDate)
	assert.Equal(t, 1, store.enrolledCount("c1"))
	assert.ElementsMatch(t, []string{cachePrefixCatalog + "*", cachePrefixHome + "*"}, cacheRepo.deleted)
	require.Len(t, store.auditLogs, 1)
	assert.Equal(t, models.AuditActionEnroll, store.auditLogs[0].Action)
}

func TestEnrollmentServiceCourseFullNeverCreatesRow(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(2))
	svc := newTestEnrollmentService(store, studentProfiles("u1", "u2", "u3"), nil)

	_, err := svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), "u2", "c1", models.RequestMeta{})
	require.NoError(t, err)

	course := *store.courses["c1"]
	course.EnrolledCount = store.enrolledCount("c1")
	assert.True(t, course.IsFull())

	_, err = svc.Enroll(context.Background(), "u3", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 2, store.enrolledCount("c1"))
	assert.Len(t, store.enrollments, 2)
}

func TestEnrollmentServiceEnrollTwice(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(5))
	svc := newTestEnrollmentService(store, studentProfiles("u1"), nil)

	_, err := svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDropThenReenrollBlocked(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(5))
	svc := newTestEnrollmentService(store, studentProfiles("u1"), nil)

	_, err := svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, svc.Unenroll(context.Background(), "u1", "c1", models.RequestMeta{}))

	row := store.enrollments[[2]string{"sp-u1", "c1"}]
	assert.Equal(t, models.EnrollmentStatusDropped, row.Status)
	assert.False(t, row.IsActive)
	assert.Equal(t, 0, store.enrolledCount("c1"))

	_, err = svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReenrollmentBlocked.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDroppedStudentSeesCourseFull(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(1))
	svc := newTestEnrollmentService(store, studentProfiles("u1", "u2"), nil)

	_, err := svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, svc.Unenroll(context.Background(), "u1", "c1", models.RequestMeta{}))
	_, err = svc.Enroll(context.Background(), "u2", "c1", models.RequestMeta{})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceRejectsNonStudents(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(5))
	svc := newTestEnrollmentService(store, fakeProfiles{}, nil)

	_, err := svc.Enroll(context.Background(), "faculty-user", "c1", models.RequestMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "only students can enroll in courses", appErr.Message)

	err = svc.Unenroll(context.Background(), "faculty-user", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceInactiveProfileIsNotAStudent(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(5))
	profiles := studentProfiles("u1")
	profiles["u1"].Status = models.ProfileStatusInactive
	svc := newTestEnrollmentService(store, profiles, nil)

	_, err := svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceUnknownOrInactiveCourse(t *testing.T) {
	inactive := smallCourse(5)
	inactive.ID = "c2"
	inactive.Status = models.CourseStatusInactive
	store := newFakeEnrollmentStore(inactive)
	svc := newTestEnrollmentService(store, studentProfiles("u1"), nil)

	for _, id := range []string{"missing", "c2"} {
		_, err := svc.Enroll(context.Background(), "u1", id, models.RequestMeta{})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}
}

func TestEnrollmentServiceUnenrollWithoutEnrollment(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(5))
	svc := newTestEnrollmentService(store, studentProfiles("u1"), nil)

	err := svc.Unenroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceMyCourses(t *testing.T) {
	store := newFakeEnrollmentStore(smallCourse(5))
	svc := newTestEnrollmentService(store, studentProfiles("u1"), nil)

	courses, err := svc.MyCourses(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.NotNil(t, courses)

	_, err = svc.Enroll(context.Background(), "u1", "c1", models.RequestMeta{})
	require.NoError(t, err)
	courses, err = svc.MyCourses(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Algorithms", courses[0].CourseName)

	courses, err = svc.MyCourses(context.Background(), "not-a-student")
	require.NoError(t, err)
	assert.Empty(t, courses)
}
