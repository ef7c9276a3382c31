package handlers

import (
	"net/http"
	"strconv"

	"recruitment-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type VacancyHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewVacancyHandler(db *gorm.DB, logger *zap.Logger) *VacancyHandler {
	return &VacancyHandler{
		db:     db,
		logger: logger,
	}
}

// ListVacancies handles the admin vacancy listing. Counts come from the
// live relation, not the materialized applications_count column.
// @Summary List vacancies
// @Description Get all vacancies with per-vacancy application counts
// @Tags vacancies
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/vacancies [get]
func (h *VacancyHandler) ListVacancies(c *gin.Context) {
	var vacancies []models.Vacancy
	if err := h.db.Order("created_at DESC").Find(&vacancies).Error; err != nil {
		h.logger.Error("Failed to fetch vacancies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vacancies"})
		return
	}

	responses := make([]models.VacancyResponse, len(vacancies))
	for i := range vacancies {
		responses[i] = vacancies[i].ToResponse()

		var total, pending int64
		h.db.Model(&models.Application{}).Where("vacancy_id = ?", vacancies[i].ID).Count(&total)
		h.db.Model(&models.Application{}).
			Where("vacancy_id = ? AND status = ?", vacancies[i].ID, models.ApplicationStatusPending).
			Count(&pending)

		responses[i].ApplicationCount = total
		responses[i].PendingCount = pending
	}

	c.JSON(http.StatusOK, gin.H{
		"vacancies": responses,
		"total":     len(responses),
	})
}

// CreateVacancy handles creating a new vacancy
// @Summary Create vacancy
// @Description Create a new vacancy
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.CreateVacancyRequest true "Vacancy data"
// @Success 201 {object} models.VacancyResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/vacancies [post]
func (h *VacancyHandler) CreateVacancy(c *gin.Context) {
	var req models.CreateVacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if req.JobTitle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job title is required", "code": "VALIDATION_ERROR"})
		return
	}

	status := models.VacancyStatusActive
	if req.Status != "" {
		status = models.VacancyStatus(req.Status)
	}

	vacancy := models.Vacancy{
		JobTitle:    req.JobTitle,
		URL:         req.URL,
		Description: req.Description,
		Status:      status,
		ClosingDate: req.ClosingDate,
	}

	if err := h.db.Create(&vacancy).Error; err != nil {
		h.logger.Error("Failed to create vacancy", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vacancy"})
		return
	}

	h.logger.Info("Vacancy created",
		zap.Uint("vacancy_id", vacancy.ID),
		zap.String("job_title", vacancy.JobTitle))

	c.JSON(http.StatusCreated, vacancy.ToResponse())
}

// UpdateVacancy handles updating a vacancy
// @Summary Update vacancy
// @Description Update a vacancy's fields
// @Tags vacancies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Vacancy ID"
// @Param request body models.UpdateVacancyRequest true "Fields to update"
// @Success 200 {object} models.VacancyResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/vacancies/{id} [put]
func (h *VacancyHandler) UpdateVacancy(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vacancy ID"})
		return
	}

	var req models.UpdateVacancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	var vacancy models.Vacancy
	if err := h.db.First(&vacancy, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vacancy not found"})
			return
		}
		h.logger.Error("Failed to fetch vacancy", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vacancy"})
		return
	}

	updates := map[string]interface{}{}
	if req.JobTitle != nil {
		updates["job_title"] = *req.JobTitle
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ClosingDate != nil {
		updates["closing_date"] = *req.ClosingDate
	}

	if len(updates) > 0 {
		if err := h.db.Model(&vacancy).Updates(updates).Error; err != nil {
			h.logger.Error("Failed to update vacancy", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vacancy"})
			return
		}
	}

	c.JSON(http.StatusOK, vacancy.ToResponse())
}

// ListPublicVacancies serves the unauthenticated job board listing
// @Summary List open positions
// @Description Get active vacancies without sensitive fields
// @Tags public
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/public/vacancies [get]
func (h *VacancyHandler) ListPublicVacancies(c *gin.Context) {
	var vacancies []models.Vacancy
	if err := h.db.Where("status = ?", models.VacancyStatusActive).
		Order("created_at DESC").Find(&vacancies).Error; err != nil {
		h.logger.Error("Failed to fetch public vacancies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job listings"})
		return
	}

	responses := make([]models.PublicVacancyResponse, len(vacancies))
	for i := range vacancies {
		responses[i] = vacancies[i].ToPublicResponse()
	}

	c.JSON(http.StatusOK, gin.H{
		"vacancies": responses,
		"total":     len(responses),
	})
}
