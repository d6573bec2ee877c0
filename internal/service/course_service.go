package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/export"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListPrerequisites(ctx context.Context, courseID string) ([]models.CourseSummary, error)
	ListPublishedMaterials(ctx context.Context, courseID string) ([]models.Material, error)
	ListPublishedAssignments(ctx context.Context, courseID string) ([]models.Assignment, error)
}

type enrollmentReader interface {
	IsActive(ctx context.Context, studentID, courseID string) (bool, error)
	Roster(ctx context.Context, courseID string) ([]models.RosterEntry, error)
}

type facultyByUser interface {
	FindByUserID(ctx context.Context, userID string) (*models.Faculty, error)
}

type fileSigner interface {
	Generate(owner, relPath string) (string, time.Time, error)
}

// Roster export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// CourseList is one page of the public catalog.
type CourseList struct {
	Items      []models.CourseListItem `json:"items"`
	Pagination models.Pagination       `json:"pagination"`
	FromCache  bool                    `json:"-"`
}

// SignedLink is a time-limited download link.
type SignedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RosterFile is a rendered roster export.
type RosterFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CourseServiceConfig carries catalog tunables.
type CourseServiceConfig struct {
	PageSize int
	CacheTTL time.Duration
	// FilePrefix is prepended to signed tokens to build download URLs.
	FilePrefix string
}

// CourseService serves the course catalog and course-scoped exports.
type CourseService struct {
	courses     courseRepository
	enrollments enrollmentReader
	profiles    studentProfileReader
	faculty     facultyByUser
	signer      fileSigner
	audit       auditWriter
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         CourseServiceConfig
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepository, enrollments enrollmentReader, profiles studentProfileReader, faculty facultyByUser, signer fileSigner, audit auditWriter, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg CourseServiceConfig) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 12
	}
	return &CourseService{
		courses:     courses,
		enrollments: enrollments,
		profiles:    profiles,
		faculty:     faculty,
		signer:      signer,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// ListCourses returns a filtered page of active courses.
func (s *CourseService) ListCourses(ctx context.Context, filter models.CourseFilter) (*CourseList, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	filter.PageSize = s.cfg.PageSize
	filter.Search = strings.TrimSpace(filter.Search)

	key := cacheKey(cachePrefixCatalog+"courses:", filter)
	var cached CourseList
	if s.cache.Get(ctx, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	items := make([]models.CourseListItem, 0, len(courses))
	for _, c := range courses {
		items = append(items, models.NewCourseListItem(c))
	}
	result := &CourseList{Items: items, Pagination: models.NewPagination(filter.Page, filter.PageSize, total)}
	s.cache.Set(ctx, key, result, s.cfg.CacheTTL)
	return result, nil
}

// GetCourse returns an active course with viewer-specific enrollment state.
func (s *CourseService) GetCourse(ctx context.Context, id string, viewer models.Viewer) (*models.CourseDetail, error) {
	course, err := s.activeCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.CourseDetail{
		CourseListItem: models.NewCourseListItem(*course),
		HasSyllabus:    course.Syllabus != nil && *course.Syllabus != "",
	}
	if detail.IsEnrolled, err = s.isEnrolled(ctx, viewer, course.ID); err != nil {
		return nil, err
	}
	if detail.Prerequisites, err = s.courses.ListPrerequisites(ctx, course.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	if detail.Materials, err = s.courses.ListPublishedMaterials(ctx, course.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load materials")
	}
	if detail.Assignments, err = s.courses.ListPublishedAssignments(ctx, course.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	if detail.Prerequisites == nil {
		detail.Prerequisites = []models.CourseSummary{}
	}
	if detail.Materials == nil {
		detail.Materials = []models.Material{}
	}
	if detail.Assignments == nil {
		detail.Assignments = []models.Assignment{}
	}
	return detail, nil
}

// SyllabusLink returns a signed download link for the course syllabus.
func (s *CourseService) SyllabusLink(ctx context.Context, id string, viewer models.Viewer) (*SignedLink, error) {
	course, err := s.activeCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Syllabus == nil || *course.Syllabus == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course has no syllabus")
	}
	token, expires, err := s.signer.Generate(viewer.UserID, *course.Syllabus)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign syllabus link")
	}
	return &SignedLink{URL: s.cfg.FilePrefix + token, ExpiresAt: expires}, nil
}

// ExportRoster renders the active roster of a course. Only the course
// instructor and administrators may export it.
func (s *CourseService) ExportRoster(ctx context.Context, id, format string, viewer models.Viewer, meta models.RequestMeta) (*RosterFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	course, err := s.activeCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRoster(ctx, course, viewer); err != nil {
		return nil, err
	}

	entries, err := s.enrollments.Roster(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	table := rosterTable(course, entries)

	file := &RosterFile{Filename: fmt.Sprintf("roster-%s.%s", strings.ToLower(course.Code), format)}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Content, err = export.RenderPDF(table)
	default:
		file.ContentType = "text/csv"
		file.Content, err = export.RenderCSV(table)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	s.metrics.RecordExport(format)
	recordAudit(ctx, s.audit, s.logger, viewer.UserID, models.AuditActionRosterExport, "course", course.ID, map[string]interface{}{"format": format, "rows": len(entries)}, meta)
	return file, nil
}

func (s *CourseService) authorizeRoster(ctx context.Context, course *models.Course, viewer models.Viewer) error {
	if viewer.Role.IsAdmin() {
		return nil
	}
	if viewer.Role != models.RoleFaculty || course.InstructorID == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "only the course instructor can export the roster")
	}
	member, err := s.faculty.FindByUserID(ctx, viewer.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the course instructor can export the roster")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty profile")
	}
	if member.ID != *course.InstructorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the course instructor can export the roster")
	}
	return nil
}

func (s *CourseService) activeCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

func (s *CourseService) isEnrolled(ctx context.Context, viewer models.Viewer, courseID string) (bool, error) {
	if !viewer.Authenticated() {
		return false, nil
	}
	profile, err := s.profiles.FindByUserID(ctx, viewer.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	enrolled, err := s.enrollments.IsActive(ctx, profile.ID, courseID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	return enrolled, nil
}

func rosterTable(course *models.Course, entries []models.RosterEntry) export.Table {
	table := export.Table{
		Title:    fmt.Sprintf("%s %s", course.Code, course.Name),
		Subtitle: fmt.Sprintf("%s %d, %d of %d seats filled", semesterLabel(course.Semester), course.Year, len(entries), course.MaxStudents),
		Columns:  []string{"Student ID", "Last Name", "First Name", "Email", "Year", "Status", "Enrolled On"},
		Rows:     make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{
			e.StudentNumber,
			e.LastName,
			e.FirstName,
			e.Email,
			string(e.Year),
			string(e.Status),
			e.EnrollmentDate.Format("2006-01-02"),
		})
	}
	return table
}

func semesterLabel(s models.Semester) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
