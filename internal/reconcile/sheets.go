package reconcile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SheetKind classifies a worksheet by what its rows describe
type SheetKind string

const (
	SheetApplicants SheetKind = "applicants"
	SheetRankings   SheetKind = "rankings"
	SheetReferrals  SheetKind = "referrals"
	SheetVacancies  SheetKind = "vacancies"
	SheetUnknown    SheetKind = "unknown"
)

// RouteSheet classifies a sheet by name substring. Exports name their
// tabs loosely ("Applicants 2024", "CV Ranking", "referrals-old"), so
// exact matching is useless here.
func RouteSheet(name string) SheetKind {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "rank"):
		return SheetRankings
	case strings.Contains(n, "referr"):
		return SheetReferrals
	case strings.Contains(n, "vacanc"), strings.Contains(n, "jd"):
		return SheetVacancies
	case strings.Contains(n, "applic"):
		return SheetApplicants
	default:
		return SheetUnknown
	}
}

// Sheet is one named table of canonical rows
type Sheet struct {
	Name string
	Kind SheetKind
	Rows []Row
}

// LoadWorkbook reads every sheet of an XLSX file into canonical rows.
// The first row of each sheet is treated as the header.
func LoadWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{
			Name: name,
			Kind: RouteSheet(name),
			Rows: tableToRows(rows),
		})
	}

	return sheets, nil
}

// LoadCSV reads a CSV file into canonical rows. The first record is
// the header. CSV exports carry no sheet name, callers decide the kind.
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return tableToRows(records), nil
}

// tableToRows converts header + data records into canonical rows.
// Short rows are padded, rows entirely empty are dropped.
func tableToRows(records [][]string) []Row {
	if len(records) < 2 {
		return nil
	}

	header := records[0]
	var rows []Row
	for _, record := range records[1:] {
		raw := make(map[string]string, len(header))
		empty := true
		for i, key := range header {
			value := ""
			if i < len(record) {
				value = record[i]
			}
			if strings.TrimSpace(value) != "" {
				empty = false
			}
			raw[key] = value
		}
		if empty {
			continue
		}
		rows = append(rows, NormalizeRow(raw))
	}
	return rows
}

// ImportFile runs a full import of one exported file. XLSX sheets are
// routed by name; CSV files carry a single unnamed table whose kind is
// given by defaultKind. Sheets with unrecognized names import as
// applicants, or as rankings when defaultKind is SheetRankings, which
// also restricts a workbook to its ranking sheets.
func (e *Engine) ImportFile(path string, defaultKind SheetKind) ([]*Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		sheets, err := LoadWorkbook(path)
		if err != nil {
			return nil, err
		}

		var reports []*Report
		for _, sheet := range sheets {
			kind := sheet.Kind
			if kind == SheetUnknown {
				// Exports often leave the main table on a default-named tab
				kind = SheetApplicants
				if defaultKind == SheetRankings {
					kind = SheetRankings
				}
				e.logger.Warn("Unrecognized sheet name",
					zap.String("sheet", sheet.Name),
					zap.String("imported_as", string(kind)))
			}
			if defaultKind == SheetRankings && kind != SheetRankings {
				e.logger.Info("Skipping non-ranking sheet", zap.String("sheet", sheet.Name))
				continue
			}
			reports = append(reports, e.importRows(sheet.Rows, kind, sheet.Name))
		}
		return reports, nil

	case ".csv":
		rows, err := LoadCSV(path)
		if err != nil {
			return nil, err
		}
		kind := defaultKind
		if kind == SheetUnknown || kind == "" {
			kind = SheetApplicants
		}
		return []*Report{e.importRows(rows, kind, filepath.Base(path))}, nil

	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func (e *Engine) importRows(rows []Row, kind SheetKind, source string) *Report {
	switch kind {
	case SheetRankings:
		return e.ImportRankings(rows, source)
	case SheetReferrals:
		return e.ImportReferrals(rows, source)
	case SheetVacancies:
		return e.ImportVacancies(rows, source)
	default:
		return e.ImportApplicants(rows, source)
	}
}
