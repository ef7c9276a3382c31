package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"recruitment-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEngineDB(t *testing.T) *gorm.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Vacancy{},
		&models.Application{},
		&models.CvRanking{},
		&models.Referral{},
	)
	require.NoError(t, err)

	return db
}

func intp(i int) *int           { return &i }
func strp(s string) *string     { return &s }
func floatp(f float64) *float64 { return &f }

func TestMergeApplication(t *testing.T) {
	t.Run("fills_empty_fields_only", func(t *testing.T) {
		existing := &models.Application{
			Email:    "a@example.com",
			Phone:    strp("0771111111"),
			JobTitle: "Engineer",
		}
		row := NormalizeRow(map[string]string{
			"phone":       "0772222222",
			"cv_file_url": "https://blobs.example.com/cvs/x.pdf",
		})

		patch := MergeApplication(existing, row, nil)

		assert.NotContains(t, patch, "phone")
		assert.Equal(t, "https://blobs.example.com/cvs/x.pdf", patch["cv_file_url"])
	})

	t.Run("vacancy_id_filled_once", func(t *testing.T) {
		vacancy := &models.Vacancy{ID: 9, JobTitle: "Engineer"}

		unlinked := &models.Application{JobTitle: "Engineer"}
		patch := MergeApplication(unlinked, Row{}, vacancy)
		assert.Equal(t, uint(9), patch["vacancy_id"])

		linkedID := uint(4)
		linked := &models.Application{JobTitle: "Engineer", VacancyID: &linkedID}
		patch = MergeApplication(linked, Row{}, vacancy)
		assert.NotContains(t, patch, "vacancy_id")
	})

	t.Run("error_marker_never_enters_patch", func(t *testing.T) {
		existing := &models.Application{Email: "a@example.com"}
		row := NormalizeRow(map[string]string{
			"phone":       "#ERROR!",
			"cv_file_url": "null",
		})

		patch := MergeApplication(existing, row, nil)

		assert.Empty(t, patch)
	})
}

func TestMergeRanking(t *testing.T) {
	t.Run("nil_filled_by_zero", func(t *testing.T) {
		existing := &models.CvRanking{}
		row := NormalizeRow(map[string]string{"total_score": "0"})

		patch := MergeRanking(existing, row, false)

		require.Contains(t, patch, "total_score")
		assert.Equal(t, 0, patch["total_score"])
	})

	t.Run("stored_zero_not_stomped_by_zero", func(t *testing.T) {
		existing := &models.CvRanking{TotalScore: intp(0)}
		row := NormalizeRow(map[string]string{"total_score": "0"})

		patch := MergeRanking(existing, row, false)

		assert.NotContains(t, patch, "total_score")
	})

	t.Run("stored_zero_overwritten_with_flag", func(t *testing.T) {
		existing := &models.CvRanking{TotalScore: intp(0)}
		row := NormalizeRow(map[string]string{"total_score": "0"})

		patch := MergeRanking(existing, row, true)

		assert.Equal(t, 0, patch["total_score"])
	})

	t.Run("stored_zero_replaced_by_nonzero", func(t *testing.T) {
		existing := &models.CvRanking{TotalScore: intp(0)}
		row := NormalizeRow(map[string]string{"total_score": "12"})

		patch := MergeRanking(existing, row, false)

		assert.Equal(t, 12, patch["total_score"])
	})

	t.Run("nonzero_value_never_overwritten", func(t *testing.T) {
		existing := &models.CvRanking{TotalScore: intp(30)}
		row := NormalizeRow(map[string]string{"total_score": "40"})

		patch := MergeRanking(existing, row, false)

		assert.NotContains(t, patch, "total_score")
	})

	t.Run("final_score_follows_zero_policy", func(t *testing.T) {
		existing := &models.CvRanking{FinalScore: floatp(0)}
		row := NormalizeRow(map[string]string{"final_score": "0"})

		patch := MergeRanking(existing, row, false)
		assert.NotContains(t, patch, "final_score")

		patch = MergeRanking(existing, row, true)
		assert.Equal(t, 0.0, patch["final_score"])
	})

	t.Run("evidence_fills_when_empty", func(t *testing.T) {
		existing := &models.CvRanking{EducationEvidence: "already noted"}
		row := NormalizeRow(map[string]string{
			"education_evidence": "other note",
			"summary":            "new summary",
		})

		patch := MergeRanking(existing, row, false)

		assert.NotContains(t, patch, "education_evidence")
		assert.Equal(t, "new summary", patch["summary"])
	})
}

func TestEngine_ImportApplicants(t *testing.T) {
	db := setupEngineDB(t)
	engine := NewEngine(db, zap.NewNop())

	vacancy := &models.Vacancy{JobTitle: "Engineer"}
	require.NoError(t, db.Create(vacancy).Error)

	rows := []Row{
		NormalizeRow(map[string]string{
			"email":     "one@example.com",
			"job title": "Engineer",
			"phone":     "077 111 1111",
		}),
		NormalizeRow(map[string]string{
			"email":     "two@example.com",
			"job title": "Engineer",
		}),
		// Missing both identifying fields, skipped
		NormalizeRow(map[string]string{"phone": "0773333333"}),
	}

	report := engine.ImportApplicants(rows, "test-sheet")

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Errors)

	t.Run("rows_link_to_vacancy", func(t *testing.T) {
		var app models.Application
		require.NoError(t, db.Where("email = ?", "one@example.com").First(&app).Error)
		require.NotNil(t, app.VacancyID)
		assert.Equal(t, vacancy.ID, *app.VacancyID)
		require.NotNil(t, app.Phone)
		assert.Equal(t, "0771111111", *app.Phone)
		assert.Equal(t, models.ApplicationSourceManual, app.Source)
	})

	t.Run("second_pass_is_noop", func(t *testing.T) {
		again := engine.ImportApplicants(rows, "test-sheet")

		assert.Equal(t, 0, again.Created)
		assert.Equal(t, 0, again.Updated)
		assert.Equal(t, 3, again.Skipped)

		var count int64
		db.Model(&models.Application{}).Count(&count)
		assert.EqualValues(t, 2, count)
	})

	t.Run("fills_missing_phone_on_existing_row", func(t *testing.T) {
		update := []Row{
			NormalizeRow(map[string]string{
				"email":     "two@example.com",
				"job title": "Engineer",
				"phone":     "0772222222",
			}),
		}
		report := engine.ImportApplicants(update, "test-sheet")

		assert.Equal(t, 1, report.Updated)

		var app models.Application
		require.NoError(t, db.Where("email = ?", "two@example.com").First(&app).Error)
		require.NotNil(t, app.Phone)
		assert.Equal(t, "0772222222", *app.Phone)
	})

	t.Run("dry_run_writes_nothing", func(t *testing.T) {
		dry := NewEngine(db, zap.NewNop())
		dry.DryRun = true

		report := dry.ImportApplicants([]Row{
			NormalizeRow(map[string]string{"email": "dry@example.com", "job title": "Engineer"}),
		}, "dry")

		assert.Equal(t, 1, report.Created)

		var count int64
		db.Model(&models.Application{}).Where("email = ?", "dry@example.com").Count(&count)
		assert.EqualValues(t, 0, count)
	})
}

func TestEngine_ImportRankings(t *testing.T) {
	db := setupEngineDB(t)
	engine := NewEngine(db, zap.NewNop())

	app := &models.Application{Email: "ranked@example.com", JobTitle: "Engineer"}
	require.NoError(t, db.Create(app).Error)

	rows := []Row{
		NormalizeRow(map[string]string{
			"email":           "ranked@example.com",
			"job title":       "Engineer",
			"education score": "8",
			"total score":     "8",
			"summary":         "decent",
		}),
	}

	report := engine.ImportRankings(rows, "rankings")

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Errors)

	t.Run("application_marked_ranked", func(t *testing.T) {
		var reloaded models.Application
		require.NoError(t, db.First(&reloaded, "id = ?", app.ID).Error)
		assert.Equal(t, models.ApplicationStatusRanked, reloaded.Status)
	})

	t.Run("ranking_persisted", func(t *testing.T) {
		var ranking models.CvRanking
		require.NoError(t, db.Where("application_id = ?", app.ID).First(&ranking).Error)
		require.NotNil(t, ranking.EducationScore)
		assert.Equal(t, 8, *ranking.EducationScore)
		assert.NotNil(t, ranking.RankedAt)
	})

	t.Run("unmatched_row_is_an_error", func(t *testing.T) {
		report := engine.ImportRankings([]Row{
			NormalizeRow(map[string]string{"email": "ghost@example.com", "total score": "5"}),
		}, "rankings")

		assert.Equal(t, 1, report.Errors)
	})

	t.Run("second_pass_is_noop", func(t *testing.T) {
		again := engine.ImportRankings(rows, "rankings")

		assert.Equal(t, 0, again.Created)
		assert.Equal(t, 0, again.Updated)
		assert.Equal(t, 1, again.Skipped)
	})
}

func TestEngine_ImportReferrals(t *testing.T) {
	db := setupEngineDB(t)
	engine := NewEngine(db, zap.NewNop())

	rows := []Row{
		NormalizeRow(map[string]string{
			"email":     "ref@example.com",
			"job title": "Engineer",
			"phone":     "077 444 4444",
		}),
		// Duplicate of the first, deduplicated
		NormalizeRow(map[string]string{
			"email":     "ref@example.com",
			"job title": "Engineer",
		}),
		// Missing job title, skipped
		NormalizeRow(map[string]string{"email": "other@example.com"}),
	}

	report := engine.ImportReferrals(rows, "referrals")

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Errors)
}

func TestEngine_ImportVacancies(t *testing.T) {
	db := setupEngineDB(t)
	engine := NewEngine(db, zap.NewNop())

	existing := &models.Vacancy{JobTitle: "Engineer"}
	require.NoError(t, db.Create(existing).Error)
	linked := &models.Vacancy{JobTitle: "Analyst", URL: "https://jobs.example.com/analyst"}
	require.NoError(t, db.Create(linked).Error)

	rows := []Row{
		// Fills the missing URL on a known title
		NormalizeRow(map[string]string{
			"job title": "Engineer",
			"jd url":    "https://jobs.example.com/engineer",
		}),
		// Stored URL wins over the incoming one
		NormalizeRow(map[string]string{
			"job title": "Analyst",
			"url":       "https://elsewhere.example.com/analyst",
		}),
		// Unknown title, created
		NormalizeRow(map[string]string{
			"job title": "Designer",
			"url":       "https://jobs.example.com/designer",
		}),
		// No job title, skipped
		NormalizeRow(map[string]string{"url": "https://jobs.example.com/orphan"}),
	}

	report := engine.ImportVacancies(rows, "vacancies")

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Skipped)

	var filled models.Vacancy
	require.NoError(t, db.First(&filled, existing.ID).Error)
	assert.Equal(t, "https://jobs.example.com/engineer", filled.URL)

	var kept models.Vacancy
	require.NoError(t, db.First(&kept, linked.ID).Error)
	assert.Equal(t, "https://jobs.example.com/analyst", kept.URL)

	var created models.Vacancy
	require.NoError(t, db.Where("job_title = ?", "Designer").First(&created).Error)
	assert.Equal(t, models.VacancyStatusActive, created.Status)
}

func TestEngine_ImportFile_CSV(t *testing.T) {
	db := setupEngineDB(t)
	engine := NewEngine(db, zap.NewNop())

	csv := "Email,Job Title,Phone\n" +
		"csv@example.com,Engineer,077 123 4567\n" +
		",,\n" +
		"other@example.com,Analyst,\n"
	path := filepath.Join(t.TempDir(), "applicants.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	reports, err := engine.ImportFile(path, SheetApplicants)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "applicants.csv", reports[0].Source)
	assert.Equal(t, 2, reports[0].Created)

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	t.Run("unsupported_extension", func(t *testing.T) {
		_, err := engine.ImportFile(filepath.Join(t.TempDir(), "export.txt"), SheetApplicants)
		assert.Error(t, err)
	})
}

func TestMaterializeVacancyCounts(t *testing.T) {
	db := setupEngineDB(t)

	vacancy := &models.Vacancy{JobTitle: "Engineer"}
	require.NoError(t, db.Create(vacancy).Error)
	other := &models.Vacancy{JobTitle: "Analyst"}
	require.NoError(t, db.Create(other).Error)

	// One linked, one unlinked-but-matching, one unrelated
	require.NoError(t, db.Create(&models.Application{
		Email: "a@example.com", JobTitle: "Engineer", VacancyID: &vacancy.ID,
	}).Error)
	require.NoError(t, db.Create(&models.Application{
		Email: "b@example.com", JobTitle: "Engineer",
	}).Error)
	require.NoError(t, db.Create(&models.Application{
		Email: "c@example.com", JobTitle: "Analyst",
	}).Error)

	updated, err := MaterializeVacancyCounts(db, zap.NewNop(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	var reloaded models.Vacancy
	require.NoError(t, db.First(&reloaded, vacancy.ID).Error)
	require.NotNil(t, reloaded.ApplicationsCount)
	assert.Equal(t, 2, *reloaded.ApplicationsCount)

	t.Run("zero_applications_yields_zero_not_null", func(t *testing.T) {
		empty := &models.Vacancy{JobTitle: "Nobody Applied"}
		require.NoError(t, db.Create(empty).Error)

		_, err := MaterializeVacancyCounts(db, zap.NewNop(), &empty.ID, false)
		require.NoError(t, err)

		dryUpdated, err := MaterializeVacancyCounts(db, zap.NewNop(), &empty.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 1, dryUpdated)

		var reloaded models.Vacancy
		require.NoError(t, db.First(&reloaded, empty.ID).Error)
		require.NotNil(t, reloaded.ApplicationsCount)
		assert.Equal(t, 0, *reloaded.ApplicationsCount)
	})
}

func TestBackfillVacancyIDs(t *testing.T) {
	db := setupEngineDB(t)

	older := &models.Vacancy{JobTitle: "Engineer", CreatedAt: time.Now().Add(-48 * time.Hour)}
	require.NoError(t, db.Create(older).Error)
	newer := &models.Vacancy{JobTitle: "Engineer", CreatedAt: time.Now()}
	require.NoError(t, db.Create(newer).Error)

	unlinked := &models.Application{Email: "a@example.com", JobTitle: "Engineer"}
	require.NoError(t, db.Create(unlinked).Error)
	noMatch := &models.Application{Email: "b@example.com", JobTitle: "Astronaut"}
	require.NoError(t, db.Create(noMatch).Error)

	report, err := BackfillVacancyIDs(db, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)

	t.Run("prefers_newest_duplicate", func(t *testing.T) {
		var reloaded models.Application
		require.NoError(t, db.First(&reloaded, "id = ?", unlinked.ID).Error)
		require.NotNil(t, reloaded.VacancyID)
		assert.Equal(t, newer.ID, *reloaded.VacancyID)
	})
}

func TestRewriteCvURLs(t *testing.T) {
	db := setupEngineDB(t)

	app := &models.Application{Email: "a@example.com", JobTitle: "Engineer"}
	require.NoError(t, db.Create(app).Error)
	oldURL := "https://old-host.example.com/files/" + app.ID.String() + ".pdf"
	require.NoError(t, db.Model(app).Update("cv_file_url", oldURL).Error)

	noCv := &models.Application{Email: "b@example.com", JobTitle: "Engineer"}
	require.NoError(t, db.Create(noCv).Error)

	driveApp := &models.Application{Email: "c@example.com", JobTitle: "Engineer"}
	require.NoError(t, db.Create(driveApp).Error)
	driveURL := "https://drive.google.com/file/d/abc123XYZ/view?usp=sharing"
	require.NoError(t, db.Model(driveApp).Update("cv_file_url", driveURL).Error)

	report, err := RewriteCvURLs(db, zap.NewNop(), "https://blobs.example.com/cvs/")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)

	var fromDrive models.Application
	require.NoError(t, db.First(&fromDrive, "id = ?", driveApp.ID).Error)
	require.NotNil(t, fromDrive.CvFileURL)
	assert.Equal(t, "https://blobs.example.com/cvs/"+driveApp.ID.String()+".pdf", *fromDrive.CvFileURL)

	var reloaded models.Application
	require.NoError(t, db.First(&reloaded, "id = ?", app.ID).Error)
	require.NotNil(t, reloaded.CvFileURL)
	assert.Equal(t, "https://blobs.example.com/cvs/"+app.ID.String()+".pdf", *reloaded.CvFileURL)

	t.Run("idempotent", func(t *testing.T) {
		again, err := RewriteCvURLs(db, zap.NewNop(), "https://blobs.example.com/cvs/")
		require.NoError(t, err)
		assert.Equal(t, 0, again.Updated)
	})
}
