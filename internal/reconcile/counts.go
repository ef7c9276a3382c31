package reconcile

import (
	"fmt"
	"regexp"
	"strings"

	"recruitment-portal/internal/database"
	"recruitment-portal/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaterializeVacancyCounts recomputes the denormalized application
// count for every vacancy (or a single one when vacancyID is set) and
// persists it. Applications not yet back-filled are included through
// the null-vacancy-id title match. The pass is idempotent and safe to
// re-run; writes racing the recompute leave a stale count until the
// next run.
func MaterializeVacancyCounts(db *gorm.DB, logger *zap.Logger, vacancyID *uint, dryRun bool) (int, error) {
	query := db.Model(&models.Vacancy{})
	if vacancyID != nil {
		query = query.Where("id = ?", *vacancyID)
	}

	var vacancies []models.Vacancy
	if err := query.Find(&vacancies).Error; err != nil {
		return 0, fmt.Errorf("failed to load vacancies: %w", err)
	}

	updated := 0
	for i := range vacancies {
		v := &vacancies[i]

		var count int64
		err := db.Model(&models.Application{}).
			Where("vacancy_id = ? OR (vacancy_id IS NULL AND job_title = ?)", v.ID, v.JobTitle).
			Count(&count).Error
		if err != nil {
			return updated, fmt.Errorf("failed to count applications for vacancy %d: %w", v.ID, err)
		}

		n := int(count)
		if !dryRun {
			if err := db.Model(v).Update("applications_count", n).Error; err != nil {
				return updated, fmt.Errorf("failed to persist count for vacancy %d: %w", v.ID, err)
			}
		}

		logger.Info("Materialized vacancy count",
			zap.Uint("vacancy_id", v.ID),
			zap.String("job_title", v.JobTitle),
			zap.Int("count", n),
			zap.Bool("dry_run", dryRun))
		updated++
	}

	return updated, nil
}

// BackfillVacancyIDs fills the vacancy reference on applications that
// arrived without one, matching by job title. Already-linked
// applications are never touched.
func BackfillVacancyIDs(db *gorm.DB, logger *zap.Logger) (*Report, error) {
	var applications []models.Application
	err := db.Where("vacancy_id IS NULL AND job_title <> ''").Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load unlinked applications: %w", err)
	}

	report := &Report{Source: "backfill"}
	for i := range applications {
		app := &applications[i]

		vacancy, err := database.ResolveVacancy(db, app.JobTitle)
		if err != nil {
			report.Errors++
			logger.Warn("Vacancy lookup failed",
				zap.String("application_id", app.ID.String()),
				zap.Error(err))
			continue
		}
		if vacancy == nil {
			report.Skipped++
			continue
		}

		if err := db.Model(app).Update("vacancy_id", vacancy.ID).Error; err != nil {
			report.Errors++
			logger.Warn("Backfill update failed",
				zap.String("application_id", app.ID.String()),
				zap.Error(err))
			continue
		}
		report.Updated++
	}

	return report, nil
}

// driveFilePattern matches the file id inside Google Drive share links
var driveFilePattern = regexp.MustCompile(`drive\.google\.com/(?:file/d/|open\?id=)([A-Za-z0-9_-]+)`)

// NormalizeDriveURL rewrites a Google Drive share link into its direct
// download form. Non-Drive URLs pass through unchanged.
func NormalizeDriveURL(url string) string {
	m := driveFilePattern.FindStringSubmatch(url)
	if m == nil {
		return url
	}
	return "https://drive.google.com/uc?export=download&id=" + m[1]
}

// RewriteCvURLs repoints stored CV references at a new base URL,
// keeping the canonical {uuid}.{ext} filename. Used after moving blobs
// out of Google Drive or between stores. Drive share links carry no
// extension and become pdf; other references without a recognizable
// extension are skipped.
func RewriteCvURLs(db *gorm.DB, logger *zap.Logger, baseURL string) (*Report, error) {
	var applications []models.Application
	err := db.Where("cv_file_url IS NOT NULL AND cv_file_url <> ''").Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load applications with CVs: %w", err)
	}

	base := strings.TrimSuffix(baseURL, "/")
	report := &Report{Source: "rewrite-urls"}
	for i := range applications {
		app := &applications[i]

		ext := app.CvExtension()
		if driveFilePattern.MatchString(*app.CvFileURL) {
			ext = "pdf"
		}
		if ext == "" {
			report.Skipped++
			continue
		}

		rewritten := fmt.Sprintf("%s/%s.%s", base, app.ID.String(), ext)
		if *app.CvFileURL == rewritten {
			report.Skipped++
			continue
		}

		if err := db.Model(app).Update("cv_file_url", rewritten).Error; err != nil {
			report.Errors++
			logger.Warn("URL rewrite failed",
				zap.String("application_id", app.ID.String()),
				zap.Error(err))
			continue
		}
		report.Updated++
	}

	return report, nil
}
