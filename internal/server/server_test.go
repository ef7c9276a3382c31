package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"recruitment-portal/internal/models"
	"recruitment-portal/pkg/auth"
	"recruitment-portal/tests/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestServer(t *testing.T) (*Server, *testutils.TestContext) {
	testutils.SetupGinTestMode()
	ctx := testutils.SetupTestContext(t)
	t.Cleanup(func() { testutils.CleanupTestContext(ctx) })

	srv := New(ctx.Config, zap.NewNop(), ctx.DB)
	return srv, ctx
}

func TestNew(t *testing.T) {
	srv, ctx := createTestServer(t)

	assert.NotNil(t, srv)
	assert.NotNil(t, srv.Router)
	assert.Equal(t, ctx.Config, srv.config)
	assert.NotNil(t, srv.sessions)
}

func TestHealthCheck(t *testing.T) {
	srv, _ := createTestServer(t)
	client := testutils.NewTestHTTPClient(srv.Router)

	w := client.GET("/health")

	testutils.AssertJSONResponse(t, w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "recruitment-portal-api",
	})
}

func TestReadinessCheck(t *testing.T) {
	srv, _ := createTestServer(t)
	client := testutils.NewTestHTTPClient(srv.Router)

	w := client.GET("/ready")

	testutils.AssertJSONResponse(t, w, http.StatusOK, map[string]interface{}{
		"status": "ready",
	})
}

func TestPublicRoutes(t *testing.T) {
	srv, ctx := createTestServer(t)
	client := testutils.NewTestHTTPClient(srv.Router)

	testutils.CreateTestVacancy(t, ctx.DB, "Software Engineer", models.VacancyStatusActive)
	testutils.CreateTestVacancy(t, ctx.DB, "QA Engineer", models.VacancyStatusInactive)

	t.Run("public_vacancies_need_no_auth", func(t *testing.T) {
		w := client.GET("/api/v1/public/vacancies")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Software Engineer")
		assert.NotContains(t, w.Body.String(), "QA Engineer")
	})
}

func TestProtectedRoutes(t *testing.T) {
	srv, ctx := createTestServer(t)
	client := testutils.NewTestHTTPClient(srv.Router)

	vacancy := testutils.CreateTestVacancy(t, ctx.DB, "Software Engineer", models.VacancyStatusActive)
	testutils.CreateTestApplication(t, ctx.DB, "Software Engineer", &vacancy.ID)

	adminToken := testutils.IssueSessionToken(t, srv.sessions, "admin", auth.RoleAdmin)
	viewerToken := testutils.IssueSessionToken(t, srv.sessions, "viewer", auth.RoleViewer)

	t.Run("applications_rejected_without_session", func(t *testing.T) {
		w := client.GET("/api/v1/applications")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("applications_with_session_cookie", func(t *testing.T) {
		w := client.GET("/api/v1/applications", testutils.SessionCookie(adminToken))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("viewer_can_read", func(t *testing.T) {
		w := client.GET("/api/v1/vacancies", testutils.SessionCookie(viewerToken))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("viewer_cannot_mutate", func(t *testing.T) {
		w := client.POST("/api/v1/vacancies", `{"job_title":"Intern"}`,
			testutils.SessionCookie(viewerToken))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin_can_mutate", func(t *testing.T) {
		w := client.POST("/api/v1/vacancies", `{"job_title":"Intern"}`,
			testutils.SessionCookie(adminToken))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("stats_with_bearer_token", func(t *testing.T) {
		w := client.GET("/api/v1/admin/stats")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+ctx.Config.Auth.BearerToken)
		w2 := httptest.NewRecorder()
		srv.Router.ServeHTTP(w2, req)
		assert.Equal(t, http.StatusOK, w2.Code)
	})
}

func TestLegacyRoutes(t *testing.T) {
	srv, ctx := createTestServer(t)
	client := testutils.NewTestHTTPClient(srv.Router)

	testutils.CreateTestVacancy(t, ctx.DB, "Software Engineer", models.VacancyStatusActive)

	t.Run("legacy_read_rejected_without_secrets", func(t *testing.T) {
		w := client.GET("/api/legacy?action=vacancies")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("legacy_read_with_secrets", func(t *testing.T) {
		w := client.GET("/api/legacy?token=test-legacy-token&path=test-legacy-path&action=vacancies")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Job_Title")
	})

	t.Run("legacy_upload_rejected_without_key", func(t *testing.T) {
		w := client.POST("/api/upload/legacy?job_title=Software+Engineer", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthRoutes(t *testing.T) {
	srv, _ := createTestServer(t)
	client := testutils.NewTestHTTPClient(srv.Router)

	t.Run("login_logout_roundtrip", func(t *testing.T) {
		w := client.POST("/api/auth/admin", `{"username":"admin","password":"test-admin-password"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		token := cookies[0].Value

		status := client.GET("/api/auth/admin", testutils.SessionCookie(token))
		assert.Contains(t, status.Body.String(), `"authenticated":true`)

		logout := client.DELETE("/api/auth/admin", testutils.SessionCookie(token))
		require.Equal(t, http.StatusOK, logout.Code)

		afterLogout := client.GET("/api/v1/applications", testutils.SessionCookie(token))
		assert.Equal(t, http.StatusUnauthorized, afterLogout.Code)
	})

	t.Run("bad_credentials", func(t *testing.T) {
		w := client.POST("/api/auth/admin", `{"username":"admin","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
