package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"recruitment-portal/internal/models"
)

// SeedDatabase seeds the database with development data
func SeedDatabase(db *gorm.DB) error {
	log.Println("Starting database seeding...")

	// Seed in order of dependencies
	if err := seedVacancies(db); err != nil {
		return fmt.Errorf("failed to seed vacancies: %w", err)
	}

	if err := seedApplications(db); err != nil {
		return fmt.Errorf("failed to seed applications: %w", err)
	}

	if err := seedRankings(db); err != nil {
		return fmt.Errorf("failed to seed rankings: %w", err)
	}

	if err := seedReferrals(db); err != nil {
		return fmt.Errorf("failed to seed referrals: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

func seedVacancies(db *gorm.DB) error {
	var count int64
	db.Model(&models.Vacancy{}).Count(&count)
	if count > 0 {
		log.Println("Vacancies already seeded, skipping")
		return nil
	}

	closing := time.Now().AddDate(0, 1, 0)
	vacancies := []models.Vacancy{
		{
			JobTitle:    "Software Engineer",
			URL:         "https://jobs.example.com/software-engineer",
			Description: "Build and maintain backend services.",
			Status:      models.VacancyStatusActive,
			ClosingDate: &closing,
		},
		{
			JobTitle:    "Data Analyst",
			URL:         "https://jobs.example.com/data-analyst",
			Description: "Reporting and dashboarding for the hiring team.",
			Status:      models.VacancyStatusActive,
			ClosingDate: &closing,
		},
		{
			JobTitle:    "QA Engineer",
			URL:         "https://jobs.example.com/qa-engineer",
			Description: "Manual and automated testing.",
			Status:      models.VacancyStatusInactive,
		},
	}

	for i := range vacancies {
		if err := db.Create(&vacancies[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d vacancies", len(vacancies))
	return nil
}

func seedApplications(db *gorm.DB) error {
	var count int64
	db.Model(&models.Application{}).Count(&count)
	if count > 0 {
		log.Println("Applications already seeded, skipping")
		return nil
	}

	var vacancy models.Vacancy
	if err := db.Where("job_title = ?", "Software Engineer").First(&vacancy).Error; err != nil {
		return err
	}

	phone := "+94771234567"
	applications := []models.Application{
		{
			Email:     "jane@example.com",
			Phone:     &phone,
			JobTitle:  vacancy.JobTitle,
			VacancyID: &vacancy.ID,
			Source:    models.ApplicationSourceWeb,
			Status:    models.ApplicationStatusPending,
		},
		{
			Email:    "legacy.candidate@example.com",
			JobTitle: "Data Analyst",
			Source:   models.ApplicationSourceManual,
			Status:   models.ApplicationStatusPending,
		},
	}

	for i := range applications {
		if err := db.Create(&applications[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d applications", len(applications))
	return nil
}

func seedRankings(db *gorm.DB) error {
	var count int64
	db.Model(&models.CvRanking{}).Count(&count)
	if count > 0 {
		log.Println("Rankings already seeded, skipping")
		return nil
	}

	var app models.Application
	err := db.Where("email = ?", "jane@example.com").First(&app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	education := 8
	workExp := 7
	total := 15
	final := 7.5
	now := time.Now()

	ranking := models.CvRanking{
		ApplicationID:          app.ID,
		EducationScore:         &education,
		EducationEvidence:      "BSc Computer Science",
		WorkExperienceScore:    &workExp,
		WorkExperienceEvidence: "4 years backend experience",
		TotalScore:             &total,
		FinalScore:             &final,
		Summary:                "Solid match for the role.",
		RankedAt:               &now,
	}

	if err := db.Create(&ranking).Error; err != nil {
		return err
	}

	if err := db.Model(&app).Update("status", models.ApplicationStatusRanked).Error; err != nil {
		return err
	}

	log.Println("Seeded 1 ranking")
	return nil
}

func seedReferrals(db *gorm.DB) error {
	var count int64
	db.Model(&models.Referral{}).Count(&count)
	if count > 0 {
		log.Println("Referrals already seeded, skipping")
		return nil
	}

	phone := "0772345678"
	referral := models.Referral{
		Email:    "referred@example.com",
		JobTitle: "QA Engineer",
		Phone:    &phone,
	}

	if err := db.Create(&referral).Error; err != nil {
		return err
	}

	log.Println("Seeded 1 referral")
	return nil
}
