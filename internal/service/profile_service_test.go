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

type mockUserReader map[string]*models.User

func (m mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type mockProfileUpdater struct {
	calls     int
	profileID string
	profile   *models.StudentProfileUpdate
	user      models.UserUpdate
	err       error
}

func (m *mockProfileUpdater) Update(ctx context.Context, userID string, user models.UserUpdate, profileID string, profile *models.StudentProfileUpdate, now time.Time) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.user, m.profileID, m.profile = user, profileID, profile
	return nil
}

type mockPictureUpdater map[string]string

func (m mockPictureUpdater) UpdatePicture(ctx context.Context, id, path string) error {
	m[id] = path
	return nil
}

type stubImageStore struct{}

func (stubImageStore) StoreImage(folder, filename string, data []byte) (*StoredFile, error) {
	return &StoredFile{Key: folder + "/" + filename, MIME: "image/png", Size: int64(len(data))}, nil
}

func (stubImageStore) WriteThumbnail(key string) (string, error) {
	return key + ".thumb.jpg", nil
}

const testDepartmentID = "5a0f3b8e-3c1e-4f7a-9d8b-2f6c1e0a9b11"

type profileFixture struct {
	svc             *ProfileService
	updater         *mockProfileUpdater
	studentPictures mockPictureUpdater
	facultyPictures mockPictureUpdater
}

func newProfileFixture() profileFixture {
	users := mockUserReader{
		"student": {ID: "student", FirstName: "Jane", LastName: "Doe", Email: "jane@example.edu", Role: models.RoleStudent},
		"faculty": {ID: "faculty", FirstName: "Alan", LastName: "Turing", Email: "alan@example.edu", Role: models.RoleFaculty},
		"admin":   {ID: "admin", Email: "admin@example.edu", Role: models.RoleAdmin},
	}
	students := fakeProfiles{"student": {ID: "sp-1", UserID: "student", DepartmentID: testDepartmentID, Status: models.ProfileStatusActive}}
	faculty := mockFacultyByUser{"faculty": {ID: "f1", UserID: "faculty"}}
	f := profileFixture{updater: &mockProfileUpdater{}, studentPictures: mockPictureUpdater{}, facultyPictures: mockPictureUpdater{}}
	f.svc = NewProfileService(ProfileDeps{
		Users:           users,
		Students:        students,
		Faculty:         faculty,
		Departments:     stubDepartmentLookup{known: true},
		Updater:         f.updater,
		StudentPictures: f.studentPictures,
		FacultyPictures: f.facultyPictures,
		Images:          stubImageStore{},
	}, nil, clock.NewFixed(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)), zap.NewNop())
	return f
}

func validProfileUpdate() models.UpdateProfileRequest {
	return models.UpdateProfileRequest{
		User:    models.UserUpdate{FirstName: "Janet", LastName: "Doe", Email: " Janet@Example.edu "},
		Student: &models.StudentProfileUpdate{DepartmentID: testDepartmentID, Year: models.StudentYearThird, Phone: "555-0100"},
	}
}

func TestProfileServiceGetProfile(t *testing.T) {
	f := newProfileFixture()

	profile, err := f.svc.GetProfile(context.Background(), "student")
	require.NoError(t, err)
	assert.NotNil(t, profile.Student)
	assert.Nil(t, profile.Faculty)

	profile, err = f.svc.GetProfile(context.Background(), "faculty")
	require.NoError(t, err)
	assert.Nil(t, profile.Student)
	assert.NotNil(t, profile.Faculty)

	_, err = f.svc.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProfileServiceUpdateBothParts(t *testing.T) {
	f := newProfileFixture()

	_, err := f.svc.UpdateProfile(context.Background(), "student", validProfileUpdate(), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.updater.calls)
	assert.Equal(t, "sp-1", f.updater.profileID)
	assert.Equal(t, "janet@example.edu", f.updater.user.Email)
	require.NotNil(t, f.updater.profile)
	assert.Equal(t, models.StudentYearThird, f.updater.profile.Year)
}

func TestProfileServiceInvalidProfilePartPersistsNothing(t *testing.T) {
	f := newProfileFixture()
	req := validProfileUpdate()
	req.Student.Year = "sixth"

	_, err := f.svc.UpdateProfile(context.Background(), "student", req, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.updater.calls)

	req = validProfileUpdate()
	req.User.Email = "not-an-email"
	_, err = f.svc.UpdateProfile(context.Background(), "student", req, models.RequestMeta{})
	require.Error(t, err)
	assert.Zero(t, f.updater.calls)
}

func TestProfileServiceSkipsMissingStudentProfile(t *testing.T) {
	f := newProfileFixture()
	req := validProfileUpdate()
	req.Student.Year = "sixth"

	_, err := f.svc.UpdateProfile(context.Background(), "faculty", req, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.updater.calls)
	assert.Empty(t, f.updater.profileID)
	assert.Nil(t, f.updater.profile)
}

func TestProfileServiceRequiresStudentPartForStudents(t *testing.T) {
	f := newProfileFixture()
	req := validProfileUpdate()
	req.Student = nil

	profile, err := f.svc.UpdateProfile(context.Background(), "student", req, models.RequestMeta{})
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.updater.calls)
}

func TestProfileServiceEmailConflict(t *testing.T) {
	f := newProfileFixture()
	f.updater.err = repository.ErrEmailTaken

	_, err := f.svc.UpdateProfile(context.Background(), "student", validProfileUpdate(), models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProfileServiceUploadPicture(t *testing.T) {
	f := newProfileFixture()

	upload, err := f.svc.UploadPicture(context.Background(), "student", "me.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "profiles/me.png", upload.Picture)
	assert.Equal(t, "profiles/me.png.thumb.jpg", upload.Thumbnail)
	assert.Equal(t, "profiles/me.png", f.studentPictures["sp-1"])

	_, err = f.svc.UploadPicture(context.Background(), "faculty", "alan.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "profiles/alan.png", f.facultyPictures["f1"])

	_, err = f.svc.UploadPicture(context.Background(), "admin", "admin.png", []byte("png"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
