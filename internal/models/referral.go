package models

import (
	"time"
)

// Referral is an append-only staging record for candidates referred
// outside the web form. Deduplicated by (email, job_title); Copied
// flips once the row has been promoted into a real Application.
type Referral struct {
	ID       uint    `json:"id" gorm:"primary_key"`
	Email    string  `json:"email" gorm:"not null;uniqueIndex:idx_referral_email_job" validate:"required,email"`
	JobTitle string  `json:"job_title" gorm:"not null;uniqueIndex:idx_referral_email_job" validate:"required"`
	Phone    *string `json:"phone" gorm:""`

	CvFileURL *string `json:"cv_file_url" gorm:""`
	Copied    bool    `json:"copied" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

// CreateReferralRequest represents the request body for creating a referral
type CreateReferralRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	JobTitle  string  `json:"job_title" validate:"required"`
	Phone     string  `json:"phone"`
	CvFileURL *string `json:"cv_file_url"`
}

// ReferralResponse represents the referral data returned in API responses
type ReferralResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	JobTitle  string    `json:"job_title"`
	Phone     *string   `json:"phone"`
	CvFileURL *string   `json:"cv_file_url"`
	Copied    bool      `json:"copied"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts a Referral to ReferralResponse
func (r *Referral) ToResponse() ReferralResponse {
	return ReferralResponse{
		ID:        r.ID,
		Email:     r.Email,
		JobTitle:  r.JobTitle,
		Phone:     r.Phone,
		CvFileURL: r.CvFileURL,
		Copied:    r.Copied,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
