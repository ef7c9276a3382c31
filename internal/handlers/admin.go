package handlers

import (
	"net/http"
	"strconv"

	"recruitment-portal/internal/database"
	"recruitment-portal/internal/models"
	"recruitment-portal/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db     *gorm.DB
	logger *zap.Logger
	cvs    *storage.CVManager
}

func NewAdminHandler(db *gorm.DB, logger *zap.Logger, cvs *storage.CVManager) *AdminHandler {
	return &AdminHandler{
		db:     db,
		logger: logger,
		cvs:    cvs,
	}
}

// GetStats handles the admin dashboard counters
// @Summary Admin stats
// @Description Get headline counts for the admin dashboard
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	var totalApplications, cvFilesCount, rankingsCount, activeVacancies int64

	if err := h.db.Model(&models.Application{}).Count(&totalApplications).Error; err != nil {
		h.logger.Error("Failed to fetch stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	h.db.Model(&models.Application{}).Where("cv_file_url IS NOT NULL").Count(&cvFilesCount)
	h.db.Model(&models.CvRanking{}).Count(&rankingsCount)
	h.db.Model(&models.Vacancy{}).Where("status = ?", models.VacancyStatusActive).Count(&activeVacancies)

	c.JSON(http.StatusOK, gin.H{
		"totalApplications": totalApplications,
		"cvFilesCount":      cvFilesCount,
		"pendingRankings":   rankingsCount,
		"activeVacancies":   activeVacancies,
	})
}

// ListBlobs lists applications that carry a stored CV reference
// @Summary List CV files
// @Description Get applications with a stored CV, newest first
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/admin/blobs [get]
func (h *AdminHandler) ListBlobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	query := h.db.Model(&models.Application{}).Where("cv_file_url IS NOT NULL")

	var total int64
	query.Count(&total)

	var applications []models.Application
	if err := query.Preload("Vacancy").
		Offset((page - 1) * limit).Limit(limit).Order("created_at DESC").
		Find(&applications).Error; err != nil {
		h.logger.Error("Failed to fetch CV files", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch CV files"})
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

// DeleteBlob deletes a stored CV and clears the reference on whichever
// application points at it
// @Summary Delete CV file
// @Description Delete a CV blob and null out the matching cv_file_url
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param url query string true "Blob URL"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/admin/blobs [delete]
func (h *AdminHandler) DeleteBlob(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter", "code": "VALIDATION_ERROR"})
		return
	}

	if err := h.cvs.ReconcileBlobDeletion(c.Request.Context(), url); err != nil {
		h.logger.Error("Failed to delete blob", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete CV file"})
		return
	}

	h.logger.Info("Blob deleted", zap.String("url", url))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
