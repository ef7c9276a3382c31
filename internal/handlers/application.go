package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"recruitment-portal/internal/database"
	"recruitment-portal/internal/email"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ApplicationHandler struct {
	db        *gorm.DB
	logger    *zap.Logger
	cvs       *storage.CVManager
	mailer    *email.EmailService
	maxUpload int64
}

func NewApplicationHandler(db *gorm.DB, logger *zap.Logger, cvs *storage.CVManager, mailer *email.EmailService, maxUpload int64) *ApplicationHandler {
	return &ApplicationHandler{
		db:        db,
		logger:    logger,
		cvs:       cvs,
		mailer:    mailer,
		maxUpload: maxUpload,
	}
}

// ListApplications handles listing applications with filtering and pagination
// @Summary List applications
// @Description Get list of applications with filtering options
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param job_title query string false "Filter by exact job title"
// @Param status query string false "Filter by status"
// @Param email query string false "Case-insensitive email substring"
// @Param phone query string false "Phone substring"
// @Param submitted_from query string false "Submitted on or after (YYYY-MM-DD)"
// @Param submitted_to query string false "Submitted on or before (YYYY-MM-DD, inclusive)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := h.db.Model(&models.Application{})

	if jobTitle := c.Query("job_title"); jobTitle != "" {
		query = query.Where("job_title = ?", jobTitle)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if email := c.Query("email"); email != "" {
		query = query.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(email)+"%")
	}
	if phone := c.Query("phone"); phone != "" {
		query = query.Where("phone LIKE ?", "%"+phone+"%")
	}
	if from := c.Query("submitted_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.Query("submitted_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Include the entire day
			query = query.Where("created_at <= ?", t.Add(24*time.Hour-time.Millisecond))
		}
	}

	var total int64
	query.Count(&total)

	var applications []models.Application
	if err := query.Preload("Vacancy").Preload("Ranking").
		Offset(offset).Limit(limit).Order("created_at DESC").Find(&applications).Error; err != nil {
		h.logger.Error("Failed to fetch applications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applications"})
		return
	}

	responses := make([]models.ApplicationResponse, len(applications))
	for i := range applications {
		responses[i] = applications[i].ToResponse()
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": responses,
		"pagination":   database.CalculatePagination(page, limit, total),
	})
}

// CreateApplication handles a public application submission. The CV, if
// present, arrives as the cv_file multipart part; the row is created
// first so the blob can be stored under the application UUID, and is
// deleted again when the upload fails.
// @Summary Submit application
// @Description Submit a new application with an optional CV file
// @Tags applications
// @Accept multipart/form-data
// @Produce json
// @Param email formData string false "Applicant email"
// @Param phone formData string false "Applicant phone"
// @Param job_title formData string true "Job title applied for"
// @Param vacancy_id formData int false "Vacancy ID"
// @Param source formData string false "Submission source"
// @Param cv_file formData file false "CV file (pdf, doc, docx)"
// @Success 201 {object} models.ApplicationResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/applications [post]
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req models.CreateApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if req.JobTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job title is required", "code": "VALIDATION_ERROR"})
		return
	}

	app := models.Application{
		Email:     req.Email,
		JobTitle:  req.JobTitle,
		VacancyID: req.VacancyID,
		Source:    models.ApplicationSource(req.Source),
	}
	if req.Phone != "" {
		app.Phone = &req.Phone
	}

	// Attach the vacancy by title when the client did not send an ID
	if app.VacancyID == nil {
		if vacancy, err := database.ResolveVacancy(h.db, app.JobTitle); err == nil && vacancy != nil {
			app.VacancyID = &vacancy.ID
		}
	}

	var fileBytes []byte
	var mimeType string
	if fileHeader, err := c.FormFile("cv_file"); err == nil && fileHeader.Size > 0 {
		if h.maxUpload > 0 && fileHeader.Size > h.maxUpload {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large", "code": "FILE_TOO_LARGE"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer file.Close()

		fileBytes, err = io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		mimeType = fileHeader.Header.Get("Content-Type")

		// Multipart writers that don't know the type send a generic
		// one; derive it from the filename instead
		if t := strings.ToLower(strings.TrimSpace(mimeType)); t == "" || strings.HasPrefix(t, "application/octet-stream") {
			if derived, ok := storage.MIMEForExtension(filepath.Ext(fileHeader.Filename)); ok {
				mimeType = derived
			}
		}
	}

	if err := h.cvs.CreateApplicationWithUpload(c.Request.Context(), &app, fileBytes, mimeType); err != nil {
		if err == storage.ErrInvalidFileType {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid file type. Only PDF, DOC, and DOCX files are allowed.",
				"code":  "INVALID_FILE_TYPE",
			})
			return
		}
		h.logger.Error("Failed to create application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create application"})
		return
	}

	if err := h.mailer.SendNewApplicationNotification(&app); err != nil {
		// Notification failures never fail the submission
		h.logger.Warn("Failed to send application notification", zap.Error(err))
	}

	h.logger.Info("Application created",
		zap.String("application_id", app.ID.String()),
		zap.String("job_title", app.JobTitle))

	c.JSON(http.StatusCreated, app.ToResponse())
}

// GetApplication handles fetching a single application
// @Summary Get application
// @Description Get a single application by ID
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} models.ApplicationResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var app models.Application
	if err := h.db.Preload("Vacancy").Preload("Ranking").First(&app, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to fetch application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch application"})
		return
	}

	c.JSON(http.StatusOK, app.ToResponse())
}

// UpdateApplication handles updating an application
// @Summary Update application
// @Description Update an application's fields
// @Tags applications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body models.UpdateApplicationRequest true "Fields to update"
// @Success 200 {object} models.ApplicationResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/applications/{id} [put]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var req models.UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	var app models.Application
	if err := h.db.First(&app, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to fetch application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch application"})
		return
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.JobTitle != nil {
		updates["job_title"] = *req.JobTitle
	}
	if req.VacancyID != nil {
		updates["vacancy_id"] = *req.VacancyID
	}
	if req.CvFileURL != nil {
		updates["cv_file_url"] = *req.CvFileURL
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := h.db.Model(&app).Updates(updates).Error; err != nil {
			h.logger.Error("Failed to update application", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application"})
			return
		}
	}

	c.JSON(http.StatusOK, app.ToResponse())
}
