package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DirImportReport summarizes one ImportDirectory run
type DirImportReport struct {
	Dir       string
	Uploaded  int
	Skipped   int
	Unmatched []string
	Errors    []string
}

func (r *DirImportReport) String() string {
	return fmt.Sprintf("%s: uploaded=%d skipped=%d unmatched=%d errors=%d",
		r.Dir, r.Uploaded, r.Skipped, len(r.Unmatched), len(r.Errors))
}

// ImportDirectory walks a directory of CV files and attaches each one
// to its application. Files are matched with FindApplicationForFile;
// an application whose stored CV URL still resolves is skipped so a
// re-run never clobbers a good upload. Unmatched files are reported,
// not treated as errors.
func (m *CVManager) ImportDirectory(ctx context.Context, dir string, mapping map[string]string, dryRun bool) (*DirImportReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read CV directory: %w", err)
	}

	report := &DirImportReport{Dir: dir}
	client := &http.Client{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		mime, ok := MIMEForExtension(filepath.Ext(name))
		if !ok {
			report.Skipped++
			m.logger.Debug("Skipping non-CV file", zap.String("file", name))
			continue
		}

		app, err := m.FindApplicationForFile(name, mapping)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if app == nil {
			report.Unmatched = append(report.Unmatched, name)
			continue
		}

		if app.HasCV() && URLExists(ctx, client, *app.CvFileURL) {
			report.Skipped++
			m.logger.Info("Application already has a live CV, skipping",
				zap.String("file", name),
				zap.String("application_id", app.ID.String()))
			continue
		}

		if dryRun {
			report.Uploaded++
			m.logger.Info("Would upload CV",
				zap.String("file", name),
				zap.String("application_id", app.ID.String()),
				zap.Bool("dry_run", true))
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		url, err := m.UploadForApplication(ctx, app, data, mime)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		report.Uploaded++
		m.logger.Info("CV attached",
			zap.String("file", name),
			zap.String("application_id", app.ID.String()),
			zap.String("url", url))
	}

	return report, nil
}
