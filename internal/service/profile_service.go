package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/internal/repository"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type profileUpdater interface {
	Update(ctx context.Context, userID string, user models.UserUpdate, profileID string, profile *models.StudentProfileUpdate, now time.Time) error
}

type pictureUpdater interface {
	UpdatePicture(ctx context.Context, id, path string) error
}

type imageStore interface {
	StoreImage(folder, filename string, data []byte) (*StoredFile, error)
	WriteThumbnail(key string) (string, error)
}

// PictureUpload reports where an uploaded picture and its thumbnail were stored.
type PictureUpload struct {
	Picture   string `json:"picture"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// ProfileService reads and edits the caller's own profile.
type ProfileService struct {
	users           userReader
	students        studentProfileReader
	faculty         facultyByUser
	departments     authDepartmentLookup
	updater         profileUpdater
	studentPictures pictureUpdater
	facultyPictures pictureUpdater
	images          imageStore
	audit           auditWriter
	validator       *validator.Validate
	clock           clock.Clock
	logger          *zap.Logger
}

// ProfileDeps groups the collaborators of ProfileService.
type ProfileDeps struct {
	Users           userReader
	Students        studentProfileReader
	Faculty         facultyByUser
	Departments     authDepartmentLookup
	Updater         profileUpdater
	StudentPictures pictureUpdater
	FacultyPictures pictureUpdater
	Images          imageStore
	Audit           auditWriter
}

// NewProfileService constructs ProfileService.
func NewProfileService(deps ProfileDeps, validate *validator.Validate, clk clock.Clock, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &ProfileService{
		users:           deps.Users,
		students:        deps.Students,
		faculty:         deps.Faculty,
		departments:     deps.Departments,
		updater:         deps.Updater,
		studentPictures: deps.StudentPictures,
		facultyPictures: deps.FacultyPictures,
		images:          deps.Images,
		audit:           deps.Audit,
		validator:       ensureValidator(validate),
		clock:           clk,
		logger:          logger,
	}
}

// GetProfile returns the user with whichever role profiles exist.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	profile := &models.Profile{User: *user}
	if profile.Student, err = s.studentProfile(ctx, userID); err != nil {
		return nil, err
	}
	if profile.Faculty, err = s.facultyProfile(ctx, userID); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile validates both parts of the payload before persisting either.
// The student part is required when the user has a student profile and
// ignored otherwise.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest, meta models.RequestMeta) (*models.Profile, error) {
	req.User.Email = strings.ToLower(strings.TrimSpace(req.User.Email))
	if err := s.validator.Struct(req.User); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user details")
	}

	student, err := s.studentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var profileID string
	var profileUpdate *models.StudentProfileUpdate
	if student != nil {
		if req.Student == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student profile details are required")
		}
		if err := s.validator.Struct(req.Student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student profile")
		}
		if req.Student.DepartmentID != student.DepartmentID {
			known, err := s.departments.Exists(ctx, req.Student.DepartmentID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
			}
			if !known {
				return nil, appErrors.Clone(appErrors.ErrValidation, "department does not exist")
			}
		}
		profileID, profileUpdate = student.ID, req.Student
	}

	if err := s.updater.Update(ctx, userID, req.User, profileID, profileUpdate, s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	recordAudit(ctx, s.audit, s.logger, userID, models.AuditActionProfileUpdate, "user", userID, map[string]bool{"student_profile": profileUpdate != nil}, meta)
	return s.GetProfile(ctx, userID)
}

// UploadPicture stores a profile picture with its thumbnail and attaches it
// to the caller's student or faculty profile.
func (s *ProfileService) UploadPicture(ctx context.Context, userID, filename string, data []byte) (*PictureUpload, error) {
	student, err := s.studentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	var member *models.Faculty
	if student == nil {
		if member, err = s.facultyProfile(ctx, userID); err != nil {
			return nil, err
		}
		if member == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student or faculty profile to attach a picture to")
		}
	}

	stored, err := s.images.StoreImage("profiles", filename, data)
	if err != nil {
		return nil, err
	}
	upload := &PictureUpload{Picture: stored.Key}
	if upload.Thumbnail, err = s.images.WriteThumbnail(stored.Key); err != nil {
		s.logger.Warn("profile thumbnail failed", zap.String("key", stored.Key), zap.Error(err))
		upload.Thumbnail = ""
	}

	if student != nil {
		err = s.studentPictures.UpdatePicture(ctx, student.ID, stored.Key)
	} else {
		err = s.facultyPictures.UpdatePicture(ctx, member.ID, stored.Key)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile picture")
	}
	return upload, nil
}

func (s *ProfileService) studentProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile, nil
}

func (s *ProfileService) facultyProfile(ctx context.Context, userID string) (*models.Faculty, error) {
	member, err := s.faculty.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty profile")
	}
	return member, nil
}
