package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/repository"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, studentID, courseID string, now time.Time) (*models.Enrollment, error)
	Drop(ctx context.Context, studentID, courseID string) error
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.MyCourse, error)
}

type studentProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

const outcomeOK = "ok"

// EnrollmentService enrolls students in courses and drops them again.
type EnrollmentService struct {
	repo     enrollmentRepository
	profiles studentProfileReader
	audit    auditWriter
	cache    *CacheService
	metrics  *MetricsService
	clock    clock.Clock
	logger   *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, profiles studentProfileReader, audit auditWriter, cache *CacheService, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &EnrollmentService{repo: repo, profiles: profiles, audit: audit, cache: cache, metrics: metrics, clock: clk, logger: logger}
}

// Enroll enrolls the student identified by userID in the course.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, courseID string, meta models.RequestMeta) (*models.Enrollment, error) {
	profile, err := s.studentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		s.metrics.RecordEnrollment("enroll", appErrors.ErrForbidden.Code)
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can enroll in courses")
	}

	enrollment, err := s.repo.Enroll(ctx, profile.ID, courseID, s.clock.Now())
	if err != nil {
		mapped := mapEnrollError(err)
		s.metrics.RecordEnrollment("enroll", mapped.Code)
		return nil, mapped
	}

	s.metrics.RecordEnrollment("enroll", outcomeOK)
	s.invalidateListings(ctx)
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionEnroll, "enrollment", enrollment.ID, map[string]string{"course_id": courseID}, meta)
	s.logger.Info("student enrolled", zap.String("student_id", profile.ID), zap.String("course_id", courseID))
	return enrollment, nil
}

// Unenroll drops the student's active enrollment in the course.
func (s *EnrollmentService) Unenroll(ctx context.Context, userID, courseID string, meta models.RequestMeta) error {
	profile, err := s.studentProfile(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}

	if err := s.repo.Drop(ctx, profile.ID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordEnrollment("unenroll", appErrors.ErrNotEnrolled.Code)
			return appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		s.metrics.RecordEnrollment("unenroll", appErrors.ErrInternal.Code)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}

	s.metrics.RecordEnrollment("unenroll", outcomeOK)
	s.invalidateListings(ctx)
	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionUnenroll, "enrollment", courseID, map[string]string{"course_id": courseID}, meta)
	return nil
}

// MyCourses lists the caller's active enrollments. Users without a student
// profile get an empty list.
func (s *EnrollmentService) MyCourses(ctx context.Context, userID string) ([]models.MyCourse, error) {
	profile, err := s.studentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []models.MyCourse{}, nil
	}
	courses, err := s.repo.ListActiveByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if courses == nil {
		courses = []models.MyCourse{}
	}
	return courses, nil
}

// studentProfile returns the active profile for userID or nil when there is none.
func (s *EnrollmentService) studentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if profile == nil || !profile.Active() {
		return nil, nil
	}
	return profile, nil
}

// invalidateListings drops cached pages that show enrollment counts.
func (s *EnrollmentService) invalidateListings(ctx context.Context) {
	s.cache.Invalidate(ctx, cachePrefixCatalog)
	s.cache.Invalidate(ctx, cachePrefixHome)
}

func mapEnrollError(err error) *appErrors.Error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	case errors.Is(err, repository.ErrEnrollmentActive):
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	case errors.Is(err, repository.ErrCourseAtCapacity):
		return appErrors.Clone(appErrors.ErrCourseFull, "")
	case errors.Is(err, repository.ErrEnrollmentDropped):
		return appErrors.Clone(appErrors.ErrReenrollmentBlocked, "")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
}
