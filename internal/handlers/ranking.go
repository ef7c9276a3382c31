package handlers

import (
	"net/http"
	"time"

	"recruitment-portal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RankingHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRankingHandler(db *gorm.DB, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{
		db:     db,
		logger: logger,
	}
}

// GetRanking handles fetching the ranking for an application
// @Summary Get ranking
// @Description Get the CV ranking for an application
// @Tags rankings
// @Security BearerAuth
// @Produce json
// @Param applicationId path string true "Application ID"
// @Success 200 {object} models.RankingResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/rankings/{applicationId} [get]
func (h *RankingHandler) GetRanking(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var ranking models.CvRanking
	if err := h.db.First(&ranking, "application_id = ?", applicationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ranking not found"})
			return
		}
		h.logger.Error("Failed to fetch ranking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ranking"})
		return
	}

	c.JSON(http.StatusOK, ranking.ToResponse())
}

// CreateRanking handles creating a new ranking for an application. The
// total is computed from the six category scores when not supplied.
// @Summary Create ranking
// @Description Create a CV ranking for an application and mark it ranked
// @Tags rankings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.UpsertRankingRequest true "Ranking data"
// @Success 201 {object} models.RankingResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/rankings [post]
func (h *RankingHandler) CreateRanking(c *gin.Context) {
	var req models.UpsertRankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if req.ApplicationID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application_id is required", "code": "VALIDATION_ERROR"})
		return
	}

	var app models.Application
	if err := h.db.First(&app, "id = ?", req.ApplicationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.logger.Error("Failed to fetch application", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch application"})
		return
	}

	var existing int64
	h.db.Model(&models.CvRanking{}).Where("application_id = ?", req.ApplicationID).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Application is already ranked",
			"code":  "RANKING_EXISTS",
		})
		return
	}

	total := req.TotalScore
	if total == nil {
		sum := scoreOrZero(req.EducationScore) +
			scoreOrZero(req.WorkExperienceScore) +
			scoreOrZero(req.SkillMatchScore) +
			scoreOrZero(req.CertificationsScore) +
			scoreOrZero(req.DomainKnowledgeScore) +
			scoreOrZero(req.SoftSkillsScore)
		total = &sum
	}

	now := time.Now()
	ranking := models.CvRanking{
		ApplicationID:           req.ApplicationID,
		EducationScore:          req.EducationScore,
		EducationEvidence:       req.EducationEvidence,
		WorkExperienceScore:     req.WorkExperienceScore,
		WorkExperienceEvidence:  req.WorkExperienceEvidence,
		SkillMatchScore:         req.SkillMatchScore,
		SkillMatchEvidence:      req.SkillMatchEvidence,
		CertificationsScore:     req.CertificationsScore,
		CertificationsEvidence:  req.CertificationsEvidence,
		DomainKnowledgeScore:    req.DomainKnowledgeScore,
		DomainKnowledgeEvidence: req.DomainKnowledgeEvidence,
		SoftSkillsScore:         req.SoftSkillsScore,
		SoftSkillsEvidence:      req.SoftSkillsEvidence,
		TotalScore:              total,
		FinalScore:              req.FinalScore,
		Summary:                 req.Summary,
		RankedAt:                &now,
	}

	if err := h.db.Create(&ranking).Error; err != nil {
		h.logger.Error("Failed to create ranking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save ranking"})
		return
	}

	// Best effort, the ranking row is the source of truth
	if err := h.db.Model(&app).Update("status", models.ApplicationStatusRanked).Error; err != nil {
		h.logger.Warn("Failed to mark application ranked",
			zap.String("application_id", req.ApplicationID.String()),
			zap.Error(err))
	}

	h.logger.Info("Ranking created",
		zap.String("application_id", req.ApplicationID.String()),
		zap.Intp("total_score", ranking.TotalScore))

	c.JSON(http.StatusCreated, ranking.ToResponse())
}

// UpdateRanking handles a partial ranking update
// @Summary Update ranking
// @Description Update fields of an existing ranking
// @Tags rankings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param applicationId path string true "Application ID"
// @Param request body models.UpsertRankingRequest true "Fields to update"
// @Success 200 {object} models.RankingResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/rankings/{applicationId} [put]
func (h *RankingHandler) UpdateRanking(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application ID"})
		return
	}

	var req models.UpsertRankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	var ranking models.CvRanking
	if err := h.db.First(&ranking, "application_id = ?", applicationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ranking not found"})
			return
		}
		h.logger.Error("Failed to fetch ranking", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ranking"})
		return
	}

	updates := map[string]interface{}{}
	setScore(updates, "education_score", req.EducationScore)
	setScore(updates, "work_experience_score", req.WorkExperienceScore)
	setScore(updates, "skill_match_score", req.SkillMatchScore)
	setScore(updates, "certifications_score", req.CertificationsScore)
	setScore(updates, "domain_knowledge_score", req.DomainKnowledgeScore)
	setScore(updates, "soft_skills_score", req.SoftSkillsScore)
	setScore(updates, "total_score", req.TotalScore)
	setText(updates, "education_evidence", req.EducationEvidence)
	setText(updates, "work_experience_evidence", req.WorkExperienceEvidence)
	setText(updates, "skill_match_evidence", req.SkillMatchEvidence)
	setText(updates, "certifications_evidence", req.CertificationsEvidence)
	setText(updates, "domain_knowledge_evidence", req.DomainKnowledgeEvidence)
	setText(updates, "soft_skills_evidence", req.SoftSkillsEvidence)
	setText(updates, "summary", req.Summary)
	if req.FinalScore != nil {
		updates["final_score"] = *req.FinalScore
	}

	if len(updates) > 0 {
		if err := h.db.Model(&ranking).Updates(updates).Error; err != nil {
			h.logger.Error("Failed to update ranking", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ranking"})
			return
		}
	}

	c.JSON(http.StatusOK, ranking.ToResponse())
}

func scoreOrZero(s *int) int {
	if s == nil {
		return 0
	}
	return *s
}

func setScore(updates map[string]interface{}, column string, value *int) {
	if value != nil {
		updates[column] = *value
	}
}

func setText(updates map[string]interface{}, column, value string) {
	if value != "" {
		updates[column] = value
	}
}
