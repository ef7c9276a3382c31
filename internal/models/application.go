package models

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationSource tracks how an application entered the system
type ApplicationSource string

const (
	ApplicationSourceWeb      ApplicationSource = "web"
	ApplicationSourceReferral ApplicationSource = "referral"
	ApplicationSourceManual   ApplicationSource = "manual"
)

type ApplicationStatus string

const (
	ApplicationStatusPending ApplicationStatus = "pending"
	ApplicationStatusRanked  ApplicationStatus = "ranked"
)

// Application represents a single candidate submission against a vacancy.
// VacancyID is a weak reference: it may be null on creation and is
// back-filled later by matching JobTitle against vacancies.
type Application struct {
	ID    uuid.UUID `json:"id" gorm:"type:char(36);primary_key"`
	Email string    `json:"email" gorm:"not null;index" validate:"required,email"`
	Phone *string   `json:"phone" gorm:""`

	JobTitle  string `json:"job_title" gorm:"not null;index" validate:"required"`
	VacancyID *uint  `json:"vacancy_id" gorm:"index"`

	CvFileURL *string `json:"cv_file_url" gorm:""`

	Source ApplicationSource `json:"source" gorm:"not null;default:'web'"`
	Status ApplicationStatus `json:"status" gorm:"not null;default:'pending'"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	// Relationships
	Vacancy *Vacancy   `json:"vacancy,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Ranking *CvRanking `json:"ranking,omitempty" gorm:"foreignKey:ApplicationID"`
}

// CreateApplicationRequest represents the non-file fields of a submission.
// The CV itself arrives as a multipart part alongside these.
type CreateApplicationRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email"`
	Phone     string `json:"phone" form:"phone"`
	JobTitle  string `json:"job_title" form:"job_title" validate:"required"`
	VacancyID *uint  `json:"vacancy_id" form:"vacancy_id"`
	Source    string `json:"source" form:"source"`
}

// UpdateApplicationRequest represents the request body for updating an application
type UpdateApplicationRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	JobTitle  *string `json:"job_title"`
	VacancyID *uint   `json:"vacancy_id"`
	CvFileURL *string `json:"cv_file_url"`
	Status    *string `json:"status" validate:"omitempty,oneof=pending ranked"`
}

// ApplicationResponse represents the application data returned in API responses
type ApplicationResponse struct {
	ID        uuid.UUID         `json:"id"`
	Email     string            `json:"email"`
	Phone     *string           `json:"phone"`
	JobTitle  string            `json:"job_title"`
	VacancyID *uint             `json:"vacancy_id"`
	CvFileURL *string           `json:"cv_file_url"`
	Source    ApplicationSource `json:"source"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Vacancy   *VacancyResponse  `json:"vacancy,omitempty"`
	Ranking   *RankingResponse  `json:"ranking,omitempty"`
}

// BeforeCreate is a GORM hook that runs before creating an application
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Source == "" {
		a.Source = ApplicationSourceWeb
	}
	if a.Status == "" {
		a.Status = ApplicationStatusPending
	}
	return nil
}

// ToResponse converts an Application to ApplicationResponse
func (a *Application) ToResponse() ApplicationResponse {
	response := ApplicationResponse{
		ID:        a.ID,
		Email:     a.Email,
		Phone:     a.Phone,
		JobTitle:  a.JobTitle,
		VacancyID: a.VacancyID,
		CvFileURL: a.CvFileURL,
		Source:    a.Source,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	if a.Vacancy != nil && a.Vacancy.ID != 0 {
		vacancyResponse := a.Vacancy.ToResponse()
		response.Vacancy = &vacancyResponse
	}

	if a.Ranking != nil && a.Ranking.ID != 0 {
		rankingResponse := a.Ranking.ToResponse()
		response.Ranking = &rankingResponse
	}

	return response
}

// HasCV reports whether the application carries a stored CV reference
func (a *Application) HasCV() bool {
	return a.CvFileURL != nil && *a.CvFileURL != ""
}

// IsRanked checks if the application has been ranked
func (a *Application) IsRanked() bool {
	return a.Status == ApplicationStatusRanked
}

// CvExtension returns the file extension of the stored CV, without the
// dot, or an empty string when no CV reference exists.
func (a *Application) CvExtension() string {
	if !a.HasCV() {
		return ""
	}
	ext := path.Ext(*a.CvFileURL)
	return strings.TrimPrefix(strings.ToLower(ext), ".")
}
