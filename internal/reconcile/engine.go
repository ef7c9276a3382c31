package reconcile

import (
	"fmt"
	"strings"
	"time"

	"recruitment-portal/internal/database"
	"recruitment-portal/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Report accumulates the outcome of one import batch. Per-row errors
// are counted, never fatal.
type Report struct {
	Source  string `json:"source"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
}

func (r *Report) String() string {
	return fmt.Sprintf("%s: created=%d updated=%d skipped=%d errors=%d",
		r.Source, r.Created, r.Updated, r.Skipped, r.Errors)
}

// Engine merges spreadsheet-style rows into the database. The merge
// policy is conservative: existing non-empty values are never
// overwritten, so re-running an import over the same data is a no-op.
type Engine struct {
	db     *gorm.DB
	logger *zap.Logger

	// AllowZeroOverwrite lets an incoming zero score replace a stored
	// zero. Off by default, a stored zero usually reflects a deliberate
	// review decision.
	AllowZeroOverwrite bool

	// DryRun reports what would change without writing
	DryRun bool
}

// NewEngine creates a reconciliation engine
func NewEngine(db *gorm.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// MergeApplication computes the update patch for an existing
// application. A field enters the patch only when the stored value is
// empty and the incoming one is not. VacancyID is filled once, from
// the resolved vacancy, and never replaced.
func MergeApplication(existing *models.Application, row Row, vacancy *models.Vacancy) map[string]interface{} {
	patch := map[string]interface{}{}

	if existing.Phone == nil || *existing.Phone == "" {
		if phone := NormalizePhone(row.Get(FieldPhone)); phone != nil {
			patch["phone"] = *phone
		}
	}

	if existing.CvFileURL == nil || *existing.CvFileURL == "" {
		if url := row.Get(FieldCvFileURL); !isAbsent(url) {
			patch["cv_file_url"] = url
		}
	}

	if existing.JobTitle == "" && row.Has(FieldJobTitle) {
		patch["job_title"] = row.Get(FieldJobTitle)
	}

	if existing.VacancyID == nil && vacancy != nil {
		patch["vacancy_id"] = vacancy.ID
	}

	return patch
}

// scoreField pairs a patch column with its stored and incoming values
type scoreField struct {
	column   string
	existing *int
	incoming *int
}

// mergeScore applies the zero-aware fill policy: nil is always
// fillable; a stored zero may be replaced by a non-zero value, and by
// an incoming zero only when allowZero is set.
func mergeScore(patch map[string]interface{}, f scoreField, allowZero bool) {
	if f.incoming == nil {
		return
	}
	if f.existing == nil {
		patch[f.column] = *f.incoming
		return
	}
	if *f.existing == 0 {
		if *f.incoming == 0 && !allowZero {
			return
		}
		patch[f.column] = *f.incoming
	}
}

func mergeText(patch map[string]interface{}, column, existing, incoming string) {
	if existing == "" && !isAbsent(incoming) {
		patch[column] = incoming
	}
}

// MergeRanking computes the update patch for an existing ranking.
// Numeric scores follow the zero-aware policy, evidence and summary
// text fills only when empty.
func MergeRanking(existing *models.CvRanking, row Row, allowZero bool) map[string]interface{} {
	patch := map[string]interface{}{}

	scores := []scoreField{
		{"education_score", existing.EducationScore, ParseIntMaybe(row.Get(FieldEducationScore))},
		{"work_experience_score", existing.WorkExperienceScore, ParseIntMaybe(row.Get(FieldWorkExperienceScore))},
		{"skill_match_score", existing.SkillMatchScore, ParseIntMaybe(row.Get(FieldSkillMatchScore))},
		{"certifications_score", existing.CertificationsScore, ParseIntMaybe(row.Get(FieldCertificationsScore))},
		{"domain_knowledge_score", existing.DomainKnowledgeScore, ParseIntMaybe(row.Get(FieldDomainKnowledgeScore))},
		{"soft_skills_score", existing.SoftSkillsScore, ParseIntMaybe(row.Get(FieldSoftSkillsScore))},
		{"total_score", existing.TotalScore, ParseIntMaybe(row.Get(FieldTotalScore))},
	}
	for _, f := range scores {
		mergeScore(patch, f, allowZero)
	}

	if incoming := ParseFloatMaybe(row.Get(FieldFinalScore)); incoming != nil {
		if existing.FinalScore == nil {
			patch["final_score"] = *incoming
		} else if *existing.FinalScore == 0 && !(*incoming == 0 && !allowZero) {
			patch["final_score"] = *incoming
		}
	}

	mergeText(patch, "education_evidence", existing.EducationEvidence, row.Get(FieldEducationEvidence))
	mergeText(patch, "work_experience_evidence", existing.WorkExperienceEvidence, row.Get(FieldWorkExperienceEvidence))
	mergeText(patch, "skill_match_evidence", existing.SkillMatchEvidence, row.Get(FieldSkillMatchEvidence))
	mergeText(patch, "certifications_evidence", existing.CertificationsEvidence, row.Get(FieldCertificationsEvidence))
	mergeText(patch, "domain_knowledge_evidence", existing.DomainKnowledgeEvidence, row.Get(FieldDomainKnowledgeEvidence))
	mergeText(patch, "soft_skills_evidence", existing.SoftSkillsEvidence, row.Get(FieldSoftSkillsEvidence))
	mergeText(patch, "summary", existing.Summary, row.Get(FieldSummary))

	return patch
}

// ImportApplicants merges applicant rows into the applications table
func (e *Engine) ImportApplicants(rows []Row, source string) *Report {
	report := &Report{Source: source}

	for i, row := range rows {
		if !row.Has(FieldEmail) && !row.Has(FieldJobTitle) {
			report.Skipped++
			continue
		}

		created, updated, err := e.importApplicant(row)
		if err != nil {
			report.Errors++
			e.logger.Warn("Applicant row failed",
				zap.String("source", source),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}
		switch {
		case created:
			report.Created++
		case updated:
			report.Updated++
		default:
			report.Skipped++
		}
	}

	return report
}

func (e *Engine) importApplicant(row Row) (created, updated bool, err error) {
	existing, err := e.findApplication(row)
	if err != nil {
		return false, false, err
	}

	vacancy, err := database.ResolveVacancy(e.db, row.Get(FieldJobTitle))
	if err != nil {
		return false, false, err
	}

	if existing == nil {
		app := &models.Application{
			Email:    row.Get(FieldEmail),
			Phone:    NormalizePhone(row.Get(FieldPhone)),
			JobTitle: row.Get(FieldJobTitle),
			Source:   applicationSource(row.Get(FieldSource)),
		}
		if id, err := uuid.Parse(row.Get(FieldID)); err == nil {
			app.ID = id
		}
		if url := row.Get(FieldCvFileURL); !isAbsent(url) {
			app.CvFileURL = &url
		}
		if vacancy != nil {
			app.VacancyID = &vacancy.ID
		}

		if e.DryRun {
			return true, false, nil
		}
		if err := e.db.Create(app).Error; err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	patch := MergeApplication(existing, row, vacancy)
	if len(patch) == 0 {
		return false, false, nil
	}
	if e.DryRun {
		return false, true, nil
	}
	if err := e.db.Model(existing).Updates(patch).Error; err != nil {
		return false, false, err
	}
	return false, true, nil
}

// findApplication locates an existing application for a row, by id
// when present, otherwise by (email, job_title).
func (e *Engine) findApplication(row Row) (*models.Application, error) {
	var app models.Application

	if raw := row.Get(FieldID); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			err := e.db.Where("id = ?", id).First(&app).Error
			if err == nil {
				return &app, nil
			}
			if err != gorm.ErrRecordNotFound {
				return nil, err
			}
		}
	}

	if !row.Has(FieldEmail) {
		return nil, nil
	}

	query := e.db.Where("email = ?", row.Get(FieldEmail))
	if row.Has(FieldJobTitle) {
		query = query.Where("job_title = ?", row.Get(FieldJobTitle))
	}
	err := query.Order("created_at DESC").First(&app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

// ImportRankings merges ranking rows, resolving each to its
// application by id or by (email, job_title)
func (e *Engine) ImportRankings(rows []Row, source string) *Report {
	report := &Report{Source: source}

	for i, row := range rows {
		if !row.Has(FieldEmail) && !row.Has(FieldID) {
			report.Skipped++
			continue
		}

		created, updated, err := e.importRanking(row)
		if err != nil {
			report.Errors++
			e.logger.Warn("Ranking row failed",
				zap.String("source", source),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}
		switch {
		case created:
			report.Created++
		case updated:
			report.Updated++
		default:
			report.Skipped++
		}
	}

	return report
}

func (e *Engine) importRanking(row Row) (created, updated bool, err error) {
	app, err := e.findApplication(row)
	if err != nil {
		return false, false, err
	}
	if app == nil {
		return false, false, fmt.Errorf("no application matches ranking row (email=%q)", row.Get(FieldEmail))
	}

	var existing models.CvRanking
	findErr := e.db.Where("application_id = ?", app.ID).First(&existing).Error
	if findErr != nil && findErr != gorm.ErrRecordNotFound {
		return false, false, findErr
	}

	if findErr == gorm.ErrRecordNotFound {
		now := time.Now()
		ranking := &models.CvRanking{
			ApplicationID:           app.ID,
			EducationScore:          ParseIntMaybe(row.Get(FieldEducationScore)),
			EducationEvidence:       textOrEmpty(row.Get(FieldEducationEvidence)),
			WorkExperienceScore:     ParseIntMaybe(row.Get(FieldWorkExperienceScore)),
			WorkExperienceEvidence:  textOrEmpty(row.Get(FieldWorkExperienceEvidence)),
			SkillMatchScore:         ParseIntMaybe(row.Get(FieldSkillMatchScore)),
			SkillMatchEvidence:      textOrEmpty(row.Get(FieldSkillMatchEvidence)),
			CertificationsScore:     ParseIntMaybe(row.Get(FieldCertificationsScore)),
			CertificationsEvidence:  textOrEmpty(row.Get(FieldCertificationsEvidence)),
			DomainKnowledgeScore:    ParseIntMaybe(row.Get(FieldDomainKnowledgeScore)),
			DomainKnowledgeEvidence: textOrEmpty(row.Get(FieldDomainKnowledgeEvidence)),
			SoftSkillsScore:         ParseIntMaybe(row.Get(FieldSoftSkillsScore)),
			SoftSkillsEvidence:      textOrEmpty(row.Get(FieldSoftSkillsEvidence)),
			TotalScore:              ParseIntMaybe(row.Get(FieldTotalScore)),
			FinalScore:              ParseFloatMaybe(row.Get(FieldFinalScore)),
			Summary:                 textOrEmpty(row.Get(FieldSummary)),
			RankedAt:                &now,
		}

		if e.DryRun {
			return true, false, nil
		}
		if err := e.db.Create(ranking).Error; err != nil {
			return false, false, err
		}
		if err := e.db.Model(app).Update("status", models.ApplicationStatusRanked).Error; err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	patch := MergeRanking(&existing, row, e.AllowZeroOverwrite)
	if len(patch) == 0 {
		return false, false, nil
	}
	if e.DryRun {
		return false, true, nil
	}
	if err := e.db.Model(&existing).Updates(patch).Error; err != nil {
		return false, false, err
	}
	return false, true, nil
}

// ImportReferrals appends referral rows, deduplicated by (email, job_title)
func (e *Engine) ImportReferrals(rows []Row, source string) *Report {
	report := &Report{Source: source}

	for i, row := range rows {
		if !row.Has(FieldEmail) || !row.Has(FieldJobTitle) {
			report.Skipped++
			continue
		}

		var existing models.Referral
		err := e.db.Where("email = ? AND job_title = ?", row.Get(FieldEmail), row.Get(FieldJobTitle)).
			First(&existing).Error
		if err == nil {
			report.Skipped++
			continue
		}
		if err != gorm.ErrRecordNotFound {
			report.Errors++
			e.logger.Warn("Referral lookup failed",
				zap.String("source", source),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}

		referral := &models.Referral{
			Email:    row.Get(FieldEmail),
			JobTitle: row.Get(FieldJobTitle),
			Phone:    NormalizePhone(row.Get(FieldPhone)),
		}
		if url := row.Get(FieldCvFileURL); !isAbsent(url) {
			referral.CvFileURL = &url
		}

		if e.DryRun {
			report.Created++
			continue
		}
		if err := e.db.Create(referral).Error; err != nil {
			report.Errors++
			e.logger.Warn("Referral row failed",
				zap.String("source", source),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}
		report.Created++
	}

	return report
}

// ImportVacancies merges vacancy rows, keyed by exact job title. A
// known title only contributes its posting URL, and only when the
// stored one is empty.
func (e *Engine) ImportVacancies(rows []Row, source string) *Report {
	report := &Report{Source: source}

	for i, row := range rows {
		if !row.Has(FieldJobTitle) {
			report.Skipped++
			continue
		}

		existing, err := database.ResolveVacancy(e.db, row.Get(FieldJobTitle))
		if err != nil {
			report.Errors++
			e.logger.Warn("Vacancy lookup failed",
				zap.String("source", source),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}

		if existing == nil {
			vacancy := &models.Vacancy{
				JobTitle: row.Get(FieldJobTitle),
				URL:      textOrEmpty(row.Get(FieldURL)),
				Status:   models.VacancyStatusActive,
			}
			if e.DryRun {
				report.Created++
				continue
			}
			if err := e.db.Create(vacancy).Error; err != nil {
				report.Errors++
				e.logger.Warn("Vacancy row failed",
					zap.String("source", source),
					zap.Int("row", i+1),
					zap.Error(err))
				continue
			}
			report.Created++
			continue
		}

		url := row.Get(FieldURL)
		if existing.URL != "" || isAbsent(url) {
			report.Skipped++
			continue
		}
		if e.DryRun {
			report.Updated++
			continue
		}
		if err := e.db.Model(existing).Update("url", url).Error; err != nil {
			report.Errors++
			e.logger.Warn("Vacancy row failed",
				zap.String("source", source),
				zap.Int("row", i+1),
				zap.Error(err))
			continue
		}
		report.Updated++
	}

	return report
}

func applicationSource(raw string) models.ApplicationSource {
	switch models.ApplicationSource(strings.ToLower(raw)) {
	case models.ApplicationSourceWeb:
		return models.ApplicationSourceWeb
	case models.ApplicationSourceReferral:
		return models.ApplicationSourceReferral
	default:
		return models.ApplicationSourceManual
	}
}

func textOrEmpty(s string) string {
	if isAbsent(s) {
		return ""
	}
	return s
}
