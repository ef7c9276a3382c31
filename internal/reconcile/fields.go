package reconcile

import (
	"strconv"
	"strings"
)

// Canonical field keys used across import sources
const (
	FieldID        = "id"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldJobTitle  = "job_title"
	FieldCvFileURL = "cv_file_url"
	FieldSource    = "source"
	FieldStatus    = "status"
	FieldURL       = "url"

	FieldEducationScore          = "education_score"
	FieldEducationEvidence       = "education_evidence"
	FieldWorkExperienceScore     = "work_experience_score"
	FieldWorkExperienceEvidence  = "work_experience_evidence"
	FieldSkillMatchScore         = "skill_match_score"
	FieldSkillMatchEvidence      = "skill_match_evidence"
	FieldCertificationsScore     = "certifications_score"
	FieldCertificationsEvidence  = "certifications_evidence"
	FieldDomainKnowledgeScore    = "domain_knowledge_score"
	FieldDomainKnowledgeEvidence = "domain_knowledge_evidence"
	FieldSoftSkillsScore         = "soft_skills_score"
	FieldSoftSkillsEvidence      = "soft_skills_evidence"
	FieldTotalScore              = "total_score"
	FieldFinalScore              = "final_score"
	FieldSummary                 = "summary"
	FieldCopied                  = "copied"
)

// fieldAliases maps each canonical key to the spreadsheet labels it has
// been seen under. Labels are compared in normalized form (lower case,
// separators stripped), so "Job Title", "job_title" and "JOBTITLE" all
// land on the same entry without listing every spelling.
var fieldAliases = map[string][]string{
	FieldID:        {"id", "application id", "applicant id", "uuid"},
	FieldEmail:     {"email", "e-mail", "email address", "mail", "applicant email"},
	FieldPhone:     {"phone", "phone number", "telephone", "mobile", "contact number"},
	FieldJobTitle:  {"job title", "job", "position", "vacancy", "role", "applied for"},
	FieldCvFileURL: {"cv file url", "cv url", "cv link", "cv", "resume url", "resume link", "file url"},
	FieldSource:    {"source", "application source", "origin"},
	FieldStatus:    {"status", "application status"},
	FieldURL:       {"url", "jd url", "jd link", "job description url", "posting url", "link"},

	FieldEducationScore:          {"education score", "education"},
	FieldEducationEvidence:       {"education evidence", "education notes"},
	FieldWorkExperienceScore:     {"work experience score", "work experience", "experience score"},
	FieldWorkExperienceEvidence:  {"work experience evidence", "experience evidence", "experience notes"},
	FieldSkillMatchScore:         {"skill match score", "skill match", "skills score"},
	FieldSkillMatchEvidence:      {"skill match evidence", "skills evidence"},
	FieldCertificationsScore:     {"certifications score", "certifications", "certification score"},
	FieldCertificationsEvidence:  {"certifications evidence", "certification evidence"},
	FieldDomainKnowledgeScore:    {"domain knowledge score", "domain knowledge"},
	FieldDomainKnowledgeEvidence: {"domain knowledge evidence", "domain evidence"},
	FieldSoftSkillsScore:         {"soft skills score", "soft skills"},
	FieldSoftSkillsEvidence:      {"soft skills evidence", "soft skill evidence"},
	FieldTotalScore:              {"total score", "total"},
	FieldFinalScore:              {"final score", "final", "weighted score"},
	FieldSummary:                 {"summary", "ranking summary", "notes"},
	FieldCopied:                  {"copied", "processed"},
}

// normalizeLabel collapses a header spelling to its comparison form
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
	return s
}

// Row is an import row keyed by canonical field names. Headers not
// matching any alias are dropped.
type Row map[string]string

// NormalizeRow converts a raw header->cell map into a canonical Row.
// When a sheet carries more than one spelling for the same canonical
// key ("Phone" and "Mobile"), aliases resolve in declaration order, so
// the earliest listed label always wins.
func NormalizeRow(raw map[string]string) Row {
	cells := make(map[string]string, len(raw))
	for header, value := range raw {
		cells[normalizeLabel(header)] = value
	}

	row := make(Row)
	for canonical, labels := range fieldAliases {
		for _, label := range labels {
			if value, ok := cells[normalizeLabel(label)]; ok {
				row[canonical] = strings.TrimSpace(value)
				break
			}
		}
	}
	return row
}

// Get returns the value for a canonical key, empty string when unset
func (r Row) Get(key string) string {
	return r[key]
}

// Has reports whether a non-empty value exists for the canonical key
func (r Row) Has(key string) bool {
	return r[key] != ""
}

// absentMarkers are cell values that mean "no data" rather than data.
// Spreadsheet exports produce these when formulas fail or floats leak
// through text columns.
var absentMarkers = map[string]bool{
	"":          true,
	"#error!":   true,
	"#n/a":      true,
	"nan":       true,
	"null":      true,
	"none":      true,
	"undefined": true,
}

func isAbsent(s string) bool {
	return absentMarkers[strings.ToLower(strings.TrimSpace(s))]
}

// ParseIntMaybe parses an integer cell, distinguishing "no data" (nil)
// from a legitimate zero. Excel float artifacts like "42.0" parse as 42.
func ParseIntMaybe(raw string) *int {
	s := strings.TrimSpace(raw)
	if isAbsent(s) {
		return nil
	}
	s = strings.TrimSuffix(s, ".0")
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ParseFloatMaybe parses a float cell, nil for absent or unparseable input
func ParseFloatMaybe(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if isAbsent(s) {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// NormalizePhone strips a phone cell down to digits, keeping a leading
// "+". Error markers and empty cells resolve to nil.
func NormalizePhone(raw string) *string {
	s := strings.TrimSpace(raw)
	if isAbsent(s) {
		return nil
	}

	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || out == "+" {
		return nil
	}
	return &out
}
