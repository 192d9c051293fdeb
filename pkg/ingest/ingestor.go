// Package ingest parses uploaded tabular files into normalized row records
// with heuristically detected label, description, diameter, and application
// columns.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

// Ingestor parses uploaded spreadsheet bytes into RowRecords. It is pure and
// synchronous; all limits come from configuration.
type Ingestor struct {
	maxFileSize int64
	maxRows     int
	logger      *zap.Logger
}

// NewIngestor creates a new Ingestor with the given limits.
func NewIngestor(maxFileSize int64, maxRows int, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		maxFileSize: maxFileSize,
		maxRows:     maxRows,
		logger:      logger.Named("ingest"),
	}
}

// Ingest decodes the file and returns normalized row records. The decoder is
// selected by filename extension: workbook formats go through excelize,
// anything else is treated as comma-separated text. Rows whose label cell is
// blank after trimming are skipped silently.
func (g *Ingestor) Ingest(data []byte, filename string) ([]models.RowRecord, error) {
	if int64(len(data)) > g.maxFileSize {
		return nil, &apperrors.FileTooLargeError{Size: int64(len(data)), MaxSize: g.maxFileSize}
	}

	var (
		headers []string
		rows    [][]string
		err     error
	)

	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		headers, rows, err = decodeWorkbook(data)
	} else {
		headers, rows, err = decodeCSV(data)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) > g.maxRows {
		return nil, &apperrors.TooManyRowsError{Rows: len(rows), MaxRows: g.maxRows}
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrEmptyFile
	}

	// Clean column names once; detection and metadata keys both use the
	// normalized form.
	columns := make([]string, len(headers))
	for i, h := range headers {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mapping := DetectColumns(columns)
	records := normalizeRows(columns, rows, mapping)

	g.logger.Info("Parsed upload",
		zap.String("filename", filename),
		zap.Int("rows", len(rows)),
		zap.Int("records", len(records)),
		zap.String("label_column", mapping.Label),
		zap.String("description_column", mapping.Description),
		zap.String("diameter_column", mapping.Diameter),
		zap.String("application_column", mapping.Application))

	return records, nil
}

// decodeWorkbook reads the first sheet of an Excel workbook.
func decodeWorkbook(data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(all) == 0 || len(all[0]) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}

	return all[0], all[1:], nil
}

// decodeCSV reads comma-separated text. Ragged rows are tolerated; short
// rows read as missing cells.
func decodeCSV(data []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(all) == 0 || len(all[0]) == 0 {
		return nil, nil, apperrors.ErrEmptyFile
	}

	return all[0], all[1:], nil
}

// normalizeRows transforms raw cell rows into RowRecords.
func normalizeRows(columns []string, rows [][]string, mapping models.ColumnMapping) []models.RowRecord {
	records := make([]models.RowRecord, 0, len(rows))

	columnIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := columnIndex[c]; !ok {
			columnIndex[c] = i
		}
	}

	cell := func(row []string, column string) string {
		idx, ok := columnIndex[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for _, row := range rows {
		label := cell(row, mapping.Label)
		if label == "" {
			continue // partial files are expected
		}

		record := models.RowRecord{OriginalLabel: label}

		if mapping.Description != "" {
			record.Description = cell(row, mapping.Description)
		}

		metadata := make(map[string]any)
		for i, column := range columns {
			if column == mapping.Label || column == mapping.Description {
				continue
			}
			if i >= len(row) {
				continue
			}
			raw := strings.TrimSpace(row[i])
			if raw == "" {
				continue
			}
			metadata[column] = normalizeValue(raw)
		}

		if mapping.Application != "" {
			raw := strings.ToLower(cell(row, mapping.Application))
			if app, ok := models.ApplicationSynonyms[raw]; ok {
				record.Application = app
			}
		}

		if mapping.Diameter != "" {
			if raw := cell(row, mapping.Diameter); raw != "" {
				metadata["diameter"] = normalizeValue(raw)
			}
		}

		if len(metadata) > 0 {
			record.Metadata = metadata
		}

		records = append(records, record)
	}

	return records
}

// normalizeValue converts numeric-looking cells to numbers. Floats that are
// mathematically integral become integers so source-file numeric columns do
// not surface as artifacts like 12.0.
func normalizeValue(raw string) any {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if f == math.Trunc(f) && math.Abs(f) < float64(math.MaxInt64) {
		return int64(f)
	}
	return f
}
