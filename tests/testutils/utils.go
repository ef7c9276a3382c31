package testutils

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recruitment-portal/config"
	"recruitment-portal/internal/database"
	"recruitment-portal/internal/models"
	"recruitment-portal/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestContext bundles everything an HTTP-level test needs
type TestContext struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   *zap.Logger
	Sessions *auth.SessionService
	TempDir  string
}

// SetupTestContext creates a complete test context with database,
// logger and session service backed by a throwaway sqlite file
func SetupTestContext(t *testing.T) *TestContext {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: dbPath,
		},
		Log: config.LogConfig{
			Level:  "silent",
			Format: "json",
		},
		Server: config.ServerConfig{
			Env: "test",
		},
		Auth: config.AuthConfig{
			AdminUsername: "admin",
			AdminPassword: "test-admin-password",
			SessionSecret: "test-session-secret-key",
			SessionExpiry: time.Hour,
			BearerToken:   "test-bearer-token",
		},
		Legacy: config.LegacyConfig{
			Token:     "test-legacy-token",
			Path:      "test-legacy-path",
			UploadKey: "test-legacy-upload-key",
		},
		Blob: config.BlobConfig{
			BaseURL:   "https://files.test/cvs",
			LocalPath: filepath.Join(tempDir, "cvs"),
		},
		RateLimit: config.RateLimitConfig{
			Requests: 100,
			Window:   60,
		},
	}

	testLogger := zap.NewNop()

	err := database.Connect(cfg, testLogger)
	require.NoError(t, err)
	require.NotNil(t, database.DB)

	err = database.AutoMigrate()
	require.NoError(t, err)

	return &TestContext{
		DB:       database.DB,
		Config:   cfg,
		Logger:   testLogger,
		Sessions: auth.NewSessionService(cfg),
		TempDir:  tempDir,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(ctx *TestContext) {
	if ctx.DB != nil {
		database.Close()
		database.DB = nil
	}

	if ctx.Config.Database.SQLitePath != "" && ctx.Config.Database.SQLitePath != ":memory:" {
		os.Remove(ctx.Config.Database.SQLitePath)
	}
}

// CreateTestVacancy creates a vacancy in the database
func CreateTestVacancy(t *testing.T, db *gorm.DB, jobTitle string, status models.VacancyStatus) *models.Vacancy {
	vacancy := &models.Vacancy{
		JobTitle:    jobTitle,
		URL:         "https://jobs.example.com/" + strings.ToLower(strings.ReplaceAll(jobTitle, " ", "-")),
		Description: "Test vacancy for " + jobTitle,
		Status:      status,
	}
	require.NoError(t, db.Create(vacancy).Error)
	return vacancy
}

// CreateTestApplication creates an application in the database
func CreateTestApplication(t *testing.T, db *gorm.DB, jobTitle string, vacancyID *uint) *models.Application {
	phone := "0771234567"
	app := &models.Application{
		Email:     RandomEmail(),
		Phone:     &phone,
		JobTitle:  jobTitle,
		VacancyID: vacancyID,
		Source:    models.ApplicationSourceWeb,
	}
	require.NoError(t, db.Create(app).Error)
	return app
}

// CreateTestRanking ranks an application and flips its status
func CreateTestRanking(t *testing.T, db *gorm.DB, applicationID uuid.UUID) *models.CvRanking {
	education := 8
	total := 8
	now := time.Now()
	ranking := &models.CvRanking{
		ApplicationID:  applicationID,
		EducationScore: &education,
		TotalScore:     &total,
		RankedAt:       &now,
	}
	require.NoError(t, db.Create(ranking).Error)
	require.NoError(t, db.Model(&models.Application{}).
		Where("id = ?", applicationID).
		Update("status", models.ApplicationStatusRanked).Error)
	return ranking
}

// CreateTestReferral creates a referral row
func CreateTestReferral(t *testing.T, db *gorm.DB, jobTitle string) *models.Referral {
	referral := &models.Referral{
		Email:    RandomEmail(),
		JobTitle: jobTitle,
	}
	require.NoError(t, db.Create(referral).Error)
	return referral
}

// IssueSessionToken issues a signed session token for tests
func IssueSessionToken(t *testing.T, sessions *auth.SessionService, username string, role auth.Role) string {
	token, err := sessions.Issue(username, role)
	require.NoError(t, err)
	return token
}

// WithSessionCookie attaches the session cookie to a request
func WithSessionCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	return req
}

// ParseJSONResponse parses a JSON response into the target
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	err := json.Unmarshal(w.Body.Bytes(), target)
	require.NoError(t, err, "Failed to parse JSON response: %s", w.Body.String())
}

// AssertJSONResponse asserts status and selected top-level fields
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedFields map[string]interface{}) {
	require.Equal(t, expectedStatus, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)

	for key, expected := range expectedFields {
		require.Contains(t, response, key)
		require.Equal(t, expected, response[key])
	}
}

// AssertErrorResponse asserts an error payload
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMessage string) {
	require.Equal(t, expectedStatus, w.Code)

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)

	require.Contains(t, response, "error")
	if expectedErrorMessage != "" {
		require.Contains(t, response["error"].(string), expectedErrorMessage)
	}
}

// SetupGinTestMode sets up Gin in test mode
func SetupGinTestMode() {
	gin.SetMode(gin.TestMode)
}

// AssertRecordExists asserts a record matching the conditions exists
func AssertRecordExists(t *testing.T, db *gorm.DB, model interface{}, conditions ...interface{}) {
	var count int64
	require.NoError(t, db.Model(model).Where(conditions[0], conditions[1:]...).Count(&count).Error)
	require.Greater(t, count, int64(0), "Expected record to exist")
}

// AssertRecordCount asserts the number of records matching the conditions
func AssertRecordCount(t *testing.T, db *gorm.DB, model interface{}, expectedCount int64, conditions ...interface{}) {
	query := db.Model(model)
	if len(conditions) > 0 {
		query = query.Where(conditions[0], conditions[1:]...)
	}
	var count int64
	require.NoError(t, query.Count(&count).Error)
	require.Equal(t, expectedCount, count)
}

// TestHTTPClient wraps a router for request helpers
type TestHTTPClient struct {
	router *gin.Engine
}

// NewTestHTTPClient creates a test HTTP client
func NewTestHTTPClient(router *gin.Engine) *TestHTTPClient {
	return &TestHTTPClient{router: router}
}

// GET performs a GET request
func (c *TestHTTPClient) GET(url string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", url, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// POST performs a POST request with a JSON body
func (c *TestHTTPClient) POST(url string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// PUT performs a PUT request with a JSON body
func (c *TestHTTPClient) PUT(url string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("PUT", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// DELETE performs a DELETE request
func (c *TestHTTPClient) DELETE(url string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("DELETE", url, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// SessionCookie builds the admin session cookie
func SessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: auth.SessionCookieName, Value: token}
}

// RandomEmail generates a random email for testing
func RandomEmail() string {
	return fmt.Sprintf("test-%s@example.com", RandomString(8))
}

// RandomString generates a random lowercase string
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
