package models

import (
	"time"
)

type VacancyStatus string

const (
	VacancyStatusActive   VacancyStatus = "active"
	VacancyStatusInactive VacancyStatus = "inactive"
)

// Vacancy represents an open (or closed) job posting. JobTitle is the
// natural key used to link applications that arrive without a vacancy
// id; it is indexed but deliberately not unique, duplicate postings
// with the same title are tolerated.
type Vacancy struct {
	ID          uint          `json:"id" gorm:"primary_key"`
	JobTitle    string        `json:"job_title" gorm:"not null;index" validate:"required"`
	URL         string        `json:"url" gorm:""`
	Description string        `json:"description" gorm:"type:text"`
	Status      VacancyStatus `json:"status" gorm:"not null;default:'active'"`
	ClosingDate *time.Time    `json:"closing_date" gorm:""`

	// Denormalized counter, null until a materialization pass has run.
	ApplicationsCount *int `json:"applications_count" gorm:""`

	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	// Relationships
	Applications []Application `json:"applications,omitempty" gorm:"foreignKey:VacancyID"`
}

// CreateVacancyRequest represents the request body for creating a vacancy
type CreateVacancyRequest struct {
	JobTitle    string     `json:"job_title" validate:"required"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=active inactive"`
	ClosingDate *time.Time `json:"closing_date"`
}

// UpdateVacancyRequest represents the request body for updating a vacancy
type UpdateVacancyRequest struct {
	JobTitle    *string    `json:"job_title"`
	URL         *string    `json:"url"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" validate:"omitempty,oneof=active inactive"`
	ClosingDate *time.Time `json:"closing_date"`
}

// VacancyResponse represents the vacancy data returned in API responses
type VacancyResponse struct {
	ID                uint          `json:"id"`
	JobTitle          string        `json:"job_title"`
	URL               string        `json:"url"`
	Description       string        `json:"description"`
	Status            VacancyStatus `json:"status"`
	ClosingDate       *time.Time    `json:"closing_date"`
	ApplicationsCount *int          `json:"applications_count,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// Computed per request by the admin listing, zero-valued elsewhere.
	ApplicationCount int64 `json:"application_count"`
	PendingCount     int64 `json:"pending_count"`
}

// PublicVacancyResponse is the trimmed view served without authentication
type PublicVacancyResponse struct {
	ID          uint       `json:"id"`
	JobTitle    string     `json:"job_title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	ClosingDate *time.Time `json:"closing_date"`
}

// ToResponse converts a Vacancy to VacancyResponse
func (v *Vacancy) ToResponse() VacancyResponse {
	return VacancyResponse{
		ID:                v.ID,
		JobTitle:          v.JobTitle,
		URL:               v.URL,
		Description:       v.Description,
		Status:            v.Status,
		ClosingDate:       v.ClosingDate,
		ApplicationsCount: v.ApplicationsCount,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

// ToPublicResponse converts a Vacancy to its unauthenticated view
func (v *Vacancy) ToPublicResponse() PublicVacancyResponse {
	return PublicVacancyResponse{
		ID:          v.ID,
		JobTitle:    v.JobTitle,
		URL:         v.URL,
		Description: v.Description,
		ClosingDate: v.ClosingDate,
	}
}

// IsActive checks if the vacancy is open for applications
func (v *Vacancy) IsActive() bool {
	return v.Status == VacancyStatusActive
}
