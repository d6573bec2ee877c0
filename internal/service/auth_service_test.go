package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	findByEmailErr   error
	accountTaken     bool
	refreshTokens    map[string]*models.RefreshToken
	createRefreshErr error
	createdUser      *models.User
	createdProfile   *models.StudentProfile
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return m.accountTaken, nil
}

func (m *mockAuthRepo) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	user.ID = "new-user"
	m.createdUser = user
	m.createdProfile = profile
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.TokenHash] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[tokenHash]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type stubStudentLookup struct{ taken bool }

func (s stubStudentLookup) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	return s.taken, nil
}

type stubDepartmentLookup struct{ known bool }

func (s stubDepartmentLookup) Exists(ctx context.Context, id string) (bool, error) {
	return s.known, nil
}

var testAuthConfig = AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, RefreshTokenExpiry: 24 * time.Hour, Issuer: "test"}

func newTestAuthService(repo *mockAuthRepo, clk clock.Clock) *AuthService {
	return NewAuthService(repo, stubStudentLookup{}, stubDepartmentLookup{known: true}, nil, zap.NewNop(), clk, testAuthConfig)
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "u1", Username: "jdoe", Email: "jdoe@example.edu", FirstName: "Jane", LastName: "Doe", PasswordHash: string(hash), Active: true, Role: models.RoleStudent}
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Username:     "jdoe",
		Email:        "JDoe@Example.edu",
		Password:     "password1",
		FirstName:    "Jane",
		LastName:     "Doe",
		StudentID:    "S-1001",
		DepartmentID: "5a0f3b8e-3c1e-4f7a-9d8b-2f6c1e0a9b11",
		Year:         "2",
	}
}

func TestAuthServiceRegisterCreatesStudent(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newTestAuthService(repo, clock.NewFixed(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))

	info, err := svc.Register(context.Background(), validRegistration(), models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "new-user", info.ID)
	assert.Equal(t, "Jane Doe", info.FullName)
	assert.Equal(t, models.RoleStudent, info.Role)
	require.NotNil(t, repo.createdProfile)
	assert.Equal(t, "jdoe@example.edu", repo.createdUser.Email)
	assert.Equal(t, models.StudentYearSecond, repo.createdProfile.Year)
	assert.Equal(t, models.ProfileStatusActive, repo.createdProfile.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdUser.PasswordHash), []byte("password1")))
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)
}

func TestAuthServiceRegisterRejectsInvalidYear(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{}, nil)
	req := validRegistration()
	req.Year = "5"

	_, err := svc.Register(context.Background(), req, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterConflicts(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{accountTaken: true}, nil)
	_, err := svc.Register(context.Background(), validRegistration(), models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	svc = NewAuthService(&mockAuthRepo{}, stubStudentLookup{taken: true}, stubDepartmentLookup{known: true}, nil, zap.NewNop(), nil, testAuthConfig)
	_, err = svc.Register(context.Background(), validRegistration(), models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterUnknownDepartment(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, stubStudentLookup{}, stubDepartmentLookup{}, nil, zap.NewNop(), nil, testAuthConfig)
	_, err := svc.Register(context.Background(), validRegistration(), models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t)}
	svc := newTestAuthService(repo, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "jdoe", res.User.Username)
	assert.True(t, repo.lastLoginUpdated)

	_, stored := repo.refreshTokens[res.RefreshToken]
	assert.False(t, stored, "raw refresh token must not be persisted")
	_, stored = repo.refreshTokens[hashToken(res.RefreshToken)]
	assert.True(t, stored)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "Jane Doe", claims.FullName)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	user := activeUser(t)
	svc := newTestAuthService(&mockAuthRepo{userByEmail: user}, nil)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	svc = newTestAuthService(&mockAuthRepo{}, nil)
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.edu", Password: "password1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	inactive := activeUser(t)
	inactive.Active = false
	svc = newTestAuthService(&mockAuthRepo{userByEmail: inactive}, nil)
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "password1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t)}
	clk := clock.NewFixed(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	svc := newTestAuthService(repo, clk)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "password1"})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t)}
	clk := clock.NewFixed(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	svc := newTestAuthService(repo, clk)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "password1"})
	require.NoError(t, err)

	clk.Advance(25 * time.Hour)
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t)}
	svc := newTestAuthService(repo, nil)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "password1"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else", models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "u1", models.RequestMeta{}))
	assert.NotNil(t, repo.refreshTokens[hashToken(login.RefreshToken)].RevokedAt)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[len(repo.auditLogs)-1].Action)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t)}
	clk := clock.NewFixed(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC))
	svc := newTestAuthService(repo, clk)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "jdoe@example.edu", Password: "password1"})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = svc.ValidateToken(login.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
