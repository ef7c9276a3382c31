package models

import (
	"time"

	"github.com/google/uuid"
)

// CvRanking holds the review scores for a single application. Exactly
// one ranking may exist per application, enforced by the unique index
// on ApplicationID.
//
// Score fields are pointers so that "never scored" (nil) stays
// distinguishable from a recorded zero; the reconciliation merge
// policy depends on that distinction.
type CvRanking struct {
	ID            uint      `json:"id" gorm:"primary_key"`
	ApplicationID uuid.UUID `json:"application_id" gorm:"type:char(36);not null;uniqueIndex"`

	EducationScore          *int   `json:"education_score" gorm:""`
	EducationEvidence       string `json:"education_evidence" gorm:"type:text"`
	WorkExperienceScore     *int   `json:"work_experience_score" gorm:""`
	WorkExperienceEvidence  string `json:"work_experience_evidence" gorm:"type:text"`
	SkillMatchScore         *int   `json:"skill_match_score" gorm:""`
	SkillMatchEvidence      string `json:"skill_match_evidence" gorm:"type:text"`
	CertificationsScore     *int   `json:"certifications_score" gorm:""`
	CertificationsEvidence  string `json:"certifications_evidence" gorm:"type:text"`
	DomainKnowledgeScore    *int   `json:"domain_knowledge_score" gorm:""`
	DomainKnowledgeEvidence string `json:"domain_knowledge_evidence" gorm:"type:text"`
	SoftSkillsScore         *int   `json:"soft_skills_score" gorm:""`
	SoftSkillsEvidence      string `json:"soft_skills_evidence" gorm:"type:text"`

	TotalScore *int     `json:"total_score" gorm:""`
	FinalScore *float64 `json:"final_score" gorm:""`
	Summary    string   `json:"summary" gorm:"type:text"`

	RankedAt *time.Time `json:"ranked_at" gorm:""`

	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	// Relationships
	Application Application `json:"application,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// UpsertRankingRequest represents the request body for creating or
// updating a ranking. Omitted scores stay nil and never touch stored
// values.
type UpsertRankingRequest struct {
	ApplicationID uuid.UUID `json:"application_id" validate:"required"`

	EducationScore          *int   `json:"education_score"`
	EducationEvidence       string `json:"education_evidence"`
	WorkExperienceScore     *int   `json:"work_experience_score"`
	WorkExperienceEvidence  string `json:"work_experience_evidence"`
	SkillMatchScore         *int   `json:"skill_match_score"`
	SkillMatchEvidence      string `json:"skill_match_evidence"`
	CertificationsScore     *int   `json:"certifications_score"`
	CertificationsEvidence  string `json:"certifications_evidence"`
	DomainKnowledgeScore    *int   `json:"domain_knowledge_score"`
	DomainKnowledgeEvidence string `json:"domain_knowledge_evidence"`
	SoftSkillsScore         *int   `json:"soft_skills_score"`
	SoftSkillsEvidence      string `json:"soft_skills_evidence"`

	TotalScore *int     `json:"total_score"`
	FinalScore *float64 `json:"final_score"`
	Summary    string   `json:"summary"`
}

// RankingResponse represents the ranking data returned in API responses
type RankingResponse struct {
	ID            uint      `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`

	EducationScore          *int   `json:"education_score"`
	EducationEvidence       string `json:"education_evidence"`
	WorkExperienceScore     *int   `json:"work_experience_score"`
	WorkExperienceEvidence  string `json:"work_experience_evidence"`
	SkillMatchScore         *int   `json:"skill_match_score"`
	SkillMatchEvidence      string `json:"skill_match_evidence"`
	CertificationsScore     *int   `json:"certifications_score"`
	CertificationsEvidence  string `json:"certifications_evidence"`
	DomainKnowledgeScore    *int   `json:"domain_knowledge_score"`
	DomainKnowledgeEvidence string `json:"domain_knowledge_evidence"`
	SoftSkillsScore         *int   `json:"soft_skills_score"`
	SoftSkillsEvidence      string `json:"soft_skills_evidence"`

	TotalScore *int     `json:"total_score"`
	FinalScore *float64 `json:"final_score"`
	Summary    string   `json:"summary"`

	RankedAt  *time.Time `json:"ranked_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Application *ApplicationResponse `json:"application,omitempty"`
}

// ToResponse converts a CvRanking to RankingResponse
func (r *CvRanking) ToResponse() RankingResponse {
	response := RankingResponse{
		ID:                      r.ID,
		ApplicationID:           r.ApplicationID,
		EducationScore:          r.EducationScore,
		EducationEvidence:       r.EducationEvidence,
		WorkExperienceScore:     r.WorkExperienceScore,
		WorkExperienceEvidence:  r.WorkExperienceEvidence,
		SkillMatchScore:         r.SkillMatchScore,
		SkillMatchEvidence:      r.SkillMatchEvidence,
		CertificationsScore:     r.CertificationsScore,
		CertificationsEvidence:  r.CertificationsEvidence,
		DomainKnowledgeScore:    r.DomainKnowledgeScore,
		DomainKnowledgeEvidence: r.DomainKnowledgeEvidence,
		SoftSkillsScore:         r.SoftSkillsScore,
		SoftSkillsEvidence:      r.SoftSkillsEvidence,
		TotalScore:              r.TotalScore,
		FinalScore:              r.FinalScore,
		Summary:                 r.Summary,
		RankedAt:                r.RankedAt,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}

	if r.Application.ID != uuid.Nil {
		appResponse := r.Application.ToResponse()
		response.Application = &appResponse
	}

	return response
}

// HasScores reports whether any score field has been recorded
func (r *CvRanking) HasScores() bool {
	scores := []*int{
		r.EducationScore,
		r.WorkExperienceScore,
		r.SkillMatchScore,
		r.CertificationsScore,
		r.DomainKnowledgeScore,
		r.SoftSkillsScore,
		r.TotalScore,
	}
	for _, s := range scores {
		if s != nil {
			return true
		}
	}
	return r.FinalScore != nil
}
