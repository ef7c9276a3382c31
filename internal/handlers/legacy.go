package handlers

import (
	"encoding/base64"
	"io"
	"net/http"

	"recruitment-portal/internal/models"
	"recruitment-portal/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LegacyHandler serves the spreadsheet-era compatibility surface. The
// payload shapes mirror the old Apps Script endpoints exactly, column
// names and all, so the remaining sheet automations keep working.
type LegacyHandler struct {
	db        *gorm.DB
	logger    *zap.Logger
	cvs       *storage.CVManager
	maxUpload int64
}

func NewLegacyHandler(db *gorm.DB, logger *zap.Logger, cvs *storage.CVManager, maxUpload int64) *LegacyHandler {
	return &LegacyHandler{
		db:        db,
		logger:    logger,
		cvs:       cvs,
		maxUpload: maxUpload,
	}
}

// Query handles GET /api/legacy with its action switch
// @Summary Legacy read endpoint
// @Description Spreadsheet-compatible reads: vacancies, applicants, emptyMail
// @Tags legacy
// @Produce json
// @Param token query string true "Legacy token"
// @Param path query string true "Legacy path"
// @Param action query string false "vacancies, applicants or emptyMail"
// @Param job query string false "Job title (required for applicants)"
// @Success 200 {array} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/legacy [get]
func (h *LegacyHandler) Query(c *gin.Context) {
	action := c.DefaultQuery("action", "applicants")

	switch action {
	case "vacancies":
		h.legacyVacancies(c)
	case "emptyMail":
		h.legacyEmptyMail(c)
	default:
		h.legacyApplicants(c)
	}
}

func (h *LegacyHandler) legacyVacancies(c *gin.Context) {
	var vacancies []models.Vacancy
	if err := h.db.Where("status = ?", models.VacancyStatusActive).
		Order("created_at DESC").Find(&vacancies).Error; err != nil {
		h.logger.Error("Legacy vacancies query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	rows := make([]gin.H, len(vacancies))
	for i, v := range vacancies {
		rows[i] = gin.H{
			"Job_Title": v.JobTitle,
			"URL":       v.URL,
		}
	}

	c.JSON(http.StatusOK, rows)
}

func (h *LegacyHandler) legacyEmptyMail(c *gin.Context) {
	var applications []models.Application
	if err := h.db.Where("email = ?", "").
		Order("created_at DESC").Find(&applications).Error; err != nil {
		h.logger.Error("Legacy emptyMail query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, legacyApplicationRows(applications))
}

func (h *LegacyHandler) legacyApplicants(c *gin.Context) {
	jobTitle := c.Query("job")
	if jobTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'job' parameter."})
		return
	}

	// The sheet only wants rows it has not ranked yet
	var applications []models.Application
	if err := h.db.
		Where("job_title = ?", jobTitle).
		Where("id NOT IN (?)", h.db.Model(&models.CvRanking{}).Select("application_id")).
		Order("created_at DESC").Find(&applications).Error; err != nil {
		h.logger.Error("Legacy applicants query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, legacyApplicationRows(applications))
}

// legacyApplicationRows maps applications into the Apps Script column
// layout. Rank is always empty, the sheet fills it in.
func legacyApplicationRows(applications []models.Application) []gin.H {
	rows := make([]gin.H, len(applications))
	for i, app := range applications {
		phone := ""
		if app.Phone != nil {
			phone = *app.Phone
		}
		cvURL := ""
		if app.CvFileURL != nil {
			cvURL = *app.CvFileURL
		}
		rows[i] = gin.H{
			"ID":          app.ID.String(),
			"Email":       app.Email,
			"Phone":       phone,
			"Job_Title":   app.JobTitle,
			"CV File URL": cvURL,
			"Rank":        "",
		}
	}
	return rows
}

// Upload handles POST /api/upload/legacy. The body is the file itself,
// base64-encoded by the old Apps Script client, raw bytes otherwise.
// @Summary Legacy upload endpoint
// @Description Spreadsheet-compatible CV upload creating an empty-contact application
// @Tags legacy
// @Accept plain
// @Produce json
// @Param api_key query string true "Legacy API key"
// @Param job_title query string true "Job title"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/upload/legacy [post]
func (h *LegacyHandler) Upload(c *gin.Context) {
	jobTitle := c.Query("job_title")
	if jobTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing Job_Title"})
		return
	}

	reader := io.Reader(c.Request.Body)
	if h.maxUpload > 0 {
		// Base64 inflates by a third, the margin covers a max-size file
		reader = io.LimitReader(reader, h.maxUpload*2)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Failed to read request body"})
		return
	}

	var fileBytes []byte
	if len(body) > 0 {
		if decoded, err := base64.StdEncoding.DecodeString(string(body)); err == nil {
			fileBytes = decoded
		} else {
			fileBytes = body
		}
	}
	if h.maxUpload > 0 && int64(len(fileBytes)) > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "File is too large"})
		return
	}

	// Contact details arrive later through the sheet, the row starts empty
	app := models.Application{
		Email:    "",
		JobTitle: jobTitle,
		Source:   models.ApplicationSourceWeb,
	}

	// The old clients rarely send a usable content type, pdf is the
	// historical default
	mimeType := c.ContentType()
	if !storage.AllowedMIME(mimeType) {
		mimeType = "application/pdf"
	}

	if err := h.cvs.CreateApplicationWithUpload(c.Request.Context(), &app, fileBytes, mimeType); err != nil {
		h.logger.Error("Legacy upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Upload failed"})
		return
	}

	fileName := ""
	fileURL := ""
	if app.CvFileURL != nil {
		fileURL = *app.CvFileURL
		fileName = storage.CanonicalFilename(app.ID, mimeType)
	}

	h.logger.Info("Legacy upload accepted",
		zap.String("application_id", app.ID.String()),
		zap.String("job_title", jobTitle))

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"fileId":   app.ID.String(),
		"fileName": fileName,
		"fileUrl":  fileURL,
		"jobTitle": jobTitle,
	})
}
