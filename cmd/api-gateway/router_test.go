package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/handler"
	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/config"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

type staticTokens map[string]models.UserRole

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := s[token]
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return &models.JWTClaims{UserID: token, Role: role}, nil
}

// guardedRouter builds the router with nil-backed handlers. Only requests that
// are rejected by middleware are safe to send through it.
func guardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1", Reports: config.ReportsConfig{Enabled: true}}
	tokens := staticTokens{"student": models.RoleStudent, "faculty": models.RoleFaculty}
	return newRouter(routerDeps{cfg: cfg, logger: zap.NewNop(), tokens: tokens}, handlers{
		auth:          handler.NewAuthHandler(nil),
		site:          handler.NewSiteHandler(nil, 0),
		directory:     handler.NewDirectoryHandler(nil),
		courses:       handler.NewCourseHandler(nil),
		enrollments:   handler.NewEnrollmentHandler(nil),
		events:        handler.NewEventHandler(nil),
		announcements: handler.NewAnnouncementHandler(nil),
		profile:       handler.NewProfileHandler(nil, 0),
		files:         handler.NewFileHandler(nil),
		metrics:       handler.NewMetricsHandler(nil, nil),
	})
}

func TestRouterHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	guardedRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterGuards(t *testing.T) {
	router := guardedRouter()
	cases := []struct {
		method string
		path   string
		token  string
		status int
	}{
		{http.MethodPost, "/api/v1/courses/c1/enroll", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/courses/my-courses", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/courses/c1/roster", "student", http.StatusForbidden},
		{http.MethodPost, "/api/v1/events", "student", http.StatusForbidden},
		{http.MethodPost, "/api/v1/announcements", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/gallery/images", "faculty", http.StatusForbidden},
		{http.MethodGet, "/api/v1/profile", "", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/events/e1/register", "forged", http.StatusUnauthorized},
		{http.MethodGet, "/docs/index.html", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterOmitsRosterWhenReportsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}
	router := newRouter(routerDeps{cfg: cfg, logger: zap.NewNop(), tokens: staticTokens{"faculty": models.RoleFaculty}}, handlers{
		auth:          handler.NewAuthHandler(nil),
		site:          handler.NewSiteHandler(nil, 0),
		directory:     handler.NewDirectoryHandler(nil),
		courses:       handler.NewCourseHandler(nil),
		enrollments:   handler.NewEnrollmentHandler(nil),
		events:        handler.NewEventHandler(nil),
		announcements: handler.NewAnnouncementHandler(nil),
		profile:       handler.NewProfileHandler(nil, 0),
		files:         handler.NewFileHandler(nil),
		metrics:       handler.NewMetricsHandler(nil, nil),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/c1/roster", nil)
	req.Header.Set("Authorization", "Bearer faculty")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
