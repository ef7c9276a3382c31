package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"recruitment-portal/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidFileType is returned when an uploaded CV has a MIME type
// outside the accepted set
var ErrInvalidFileType = errors.New("unsupported file type: only pdf, doc and docx are accepted")

// mimeExtensions maps accepted CV MIME types to the canonical file
// extension. Anything else is rejected at upload; unrecognized types
// arriving through legacy import paths default to pdf.
var mimeExtensions = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
}

// AllowedMIME reports whether a MIME type is accepted for CV uploads
func AllowedMIME(mimeType string) bool {
	_, ok := mimeExtensions[normalizeMIME(mimeType)]
	return ok
}

// ExtensionForMIME returns the canonical extension for a MIME type,
// defaulting to pdf
func ExtensionForMIME(mimeType string) string {
	if ext, ok := mimeExtensions[normalizeMIME(mimeType)]; ok {
		return ext
	}
	return "pdf"
}

// MIMEForExtension reverses the extension mapping, for files whose
// only type information is their name
func MIMEForExtension(ext string) (string, bool) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for mime, e := range mimeExtensions {
		if e == ext {
			return mime, true
		}
	}
	return "", false
}

func normalizeMIME(mimeType string) string {
	// Strip parameters like "; charset=binary"
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// CanonicalFilename is the persisted file naming contract:
// {applicationUUID}.{ext}
func CanonicalFilename(applicationID uuid.UUID, mimeType string) string {
	return fmt.Sprintf("%s.%s", applicationID.String(), ExtensionForMIME(mimeType))
}

// uuidPattern matches a dashed UUID embedded anywhere in a string
var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// ExtractUUID pulls the first embedded UUID out of a filename or URL
func ExtractUUID(s string) (uuid.UUID, bool) {
	m := uuidPattern.FindString(s)
	if m == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(m)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CVManager binds uploaded CV files to application records and keeps
// blob state and database references consistent.
type CVManager struct {
	db     *gorm.DB
	store  BlobStore
	logger *zap.Logger
}

// NewCVManager creates a CV manager
func NewCVManager(db *gorm.DB, store BlobStore, logger *zap.Logger) *CVManager {
	return &CVManager{db: db, store: store, logger: logger}
}

// Store exposes the underlying blob store
func (m *CVManager) Store() BlobStore {
	return m.store
}

// CreateApplicationWithUpload creates the application row first to
// obtain its UUID, then uploads the CV under the canonical filename
// and patches the reference. If validation or upload fails the row is
// deleted again; a failed upload must never leave an orphan
// application behind.
func (m *CVManager) CreateApplicationWithUpload(ctx context.Context, app *models.Application, file []byte, mimeType string) error {
	if err := m.db.Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if len(file) == 0 {
		return nil
	}

	if !AllowedMIME(mimeType) {
		m.compensate(app)
		return ErrInvalidFileType
	}

	key := CanonicalFilename(app.ID, mimeType)
	url, err := m.store.Put(ctx, key, normalizeMIME(mimeType), bytes.NewReader(file))
	if err != nil {
		m.compensate(app)
		return fmt.Errorf("failed to upload CV: %w", err)
	}

	if err := m.db.Model(app).Update("cv_file_url", url).Error; err != nil {
		m.compensate(app)
		return fmt.Errorf("failed to record CV reference: %w", err)
	}
	app.CvFileURL = &url

	return nil
}

// compensate deletes the just-created application after a failed upload
func (m *CVManager) compensate(app *models.Application) {
	if err := m.db.Delete(&models.Application{}, "id = ?", app.ID).Error; err != nil {
		m.logger.Error("Compensating delete failed",
			zap.String("application_id", app.ID.String()),
			zap.Error(err))
	}
}

// UploadForApplication stores a CV for an already-existing application
// and patches its reference. Used by the legacy upload path where the
// row predates the file.
func (m *CVManager) UploadForApplication(ctx context.Context, app *models.Application, file []byte, mimeType string) (string, error) {
	if !AllowedMIME(mimeType) {
		return "", ErrInvalidFileType
	}

	key := CanonicalFilename(app.ID, mimeType)
	url, err := m.store.Put(ctx, key, normalizeMIME(mimeType), bytes.NewReader(file))
	if err != nil {
		return "", fmt.Errorf("failed to upload CV: %w", err)
	}

	if err := m.db.Model(app).Update("cv_file_url", url).Error; err != nil {
		return "", fmt.Errorf("failed to record CV reference: %w", err)
	}
	app.CvFileURL = &url

	return url, nil
}

// matchSampleLimit caps the fallback scan in FindApplicationForFile
const matchSampleLimit = 500

// FindApplicationForFile resolves a stray CV filename to its
// application. Resolution order: exact UUID in the filename stem, the
// explicit filename mapping, sanitized-email containment, and finally
// a dashless-UUID comparison over a bounded sample. First match wins;
// nil means the file is unmatched.
func (m *CVManager) FindApplicationForFile(filename string, mapping map[string]string) (*models.Application, error) {
	stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename))

	// (a) exact UUID match from the filename stem
	if id, ok := ExtractUUID(stem); ok {
		var app models.Application
		err := m.db.Where("id = ?", id).First(&app).Error
		if err == nil {
			return &app, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	// (b) explicit filename -> id or email mapping
	if target, ok := mapping[path.Base(filename)]; ok {
		var app models.Application
		var err error
		if id, parseErr := uuid.Parse(target); parseErr == nil {
			err = m.db.Where("id = ?", id).First(&app).Error
		} else {
			err = m.db.Where("email = ?", target).Order("created_at DESC").First(&app).Error
		}
		if err == nil {
			return &app, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	// (c) sanitized-email containment against applicant emails
	sanitized := sanitizeForMatch(stem)
	if len(sanitized) >= 5 {
		var apps []models.Application
		if err := m.db.Limit(matchSampleLimit).Find(&apps).Error; err != nil {
			return nil, err
		}
		for i := range apps {
			local := apps[i].Email
			if at := strings.Index(local, "@"); at > 0 {
				local = local[:at]
			}
			if candidate := sanitizeForMatch(local); len(candidate) >= 5 && strings.Contains(sanitized, candidate) {
				return &apps[i], nil
			}
		}

		// (d) dashless UUID comparison over the same sample
		for i := range apps {
			dashless := strings.ReplaceAll(apps[i].ID.String(), "-", "")
			if strings.Contains(strings.ToLower(stem), dashless) {
				return &apps[i], nil
			}
		}
	}

	return nil, nil
}

// sanitizeForMatch lowers a string and strips everything but letters
// and digits, so "John.Doe CV (1)" and "johndoe" compare equal
func sanitizeForMatch(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ReconcileBlobDeletion deletes a blob and nulls any application CV
// reference pointing at it, matched by the UUID embedded in the URL.
// Without this the database would dangle a reference to a file that no
// longer exists.
func (m *CVManager) ReconcileBlobDeletion(ctx context.Context, url string) error {
	key := path.Base(url)
	if err := m.store.Delete(ctx, key); err != nil {
		return err
	}

	if id, ok := ExtractUUID(url); ok {
		err := m.db.Model(&models.Application{}).
			Where("id = ? AND cv_file_url IS NOT NULL", id).
			Update("cv_file_url", nil).Error
		if err != nil {
			return fmt.Errorf("failed to clear CV reference: %w", err)
		}
		return nil
	}

	// No embedded UUID, fall back to clearing exact URL matches
	err := m.db.Model(&models.Application{}).
		Where("cv_file_url = ?", url).
		Update("cv_file_url", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear CV reference: %w", err)
	}
	return nil
}
