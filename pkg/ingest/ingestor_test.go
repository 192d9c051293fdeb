package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
	"github.com/gradeline-systems/codebook-engine/pkg/models"
)

func newTestIngestor() *Ingestor {
	return NewIngestor(10*1024*1024, 10000, zap.NewNop())
}

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    models.ColumnMapping
	}{
		{
			name:    "standard headers",
			headers: []string{"Item", "Description", "Diameter", "Application"},
			want: models.ColumnMapping{
				Label:       "item",
				Description: "description",
				Diameter:    "diameter",
				Application: "application",
			},
		},
		{
			name:    "first match wins per role",
			headers: []string{"name", "label", "desc", "notes"},
			want: models.ColumnMapping{
				Label:       "name",
				Description: "desc",
			},
		},
		{
			name:    "no label synonym falls back to first column",
			headers: []string{"sku", "qty", "unit"},
			want: models.ColumnMapping{
				Label: "sku",
			},
		},
		{
			name:    "description column claimed as label clears description",
			headers: []string{"description", "qty"},
			want: models.ColumnMapping{
				Label: "description",
			},
		},
		{
			name:    "claimed column is not reconsidered for a later role",
			headers: []string{"size", "type"},
			// "size" has no label synonym, so the forced fallback picks it;
			// during the scan it was claimed as diameter first.
			want: models.ColumnMapping{
				Label:       "size",
				Diameter:    "size",
				Application: "type",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectColumns(tt.headers)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIngestCSV(t *testing.T) {
	g := newTestIngestor()

	csvData := strings.Join([]string{
		"Item,Description,Diameter,Application,Class",
		`8in DI Pipe,Ductile iron pipe,8,sanitary,350`,
		`12in PVC Pipe,PVC gravity main,12.0,storm sewer,SDR-26`,
		`,missing label row,6,water,`,
	}, "\n")

	records, err := g.Ingest([]byte(csvData), "materials.csv")
	require.NoError(t, err)
	require.Len(t, records, 2, "blank-label row should be dropped")

	first := records[0]
	assert.Equal(t, "8in DI Pipe", first.OriginalLabel)
	assert.Equal(t, "Ductile iron pipe", first.Description)
	assert.Equal(t, models.ApplicationSanitarySewer, first.Application)
	assert.Equal(t, int64(8), first.Metadata["diameter"])
	assert.Equal(t, int64(350), first.Metadata["class"])
	assert.Equal(t, "sanitary", first.Metadata["application"])

	second := records[1]
	assert.Equal(t, models.ApplicationStormSewer, second.Application)
	assert.Equal(t, int64(12), second.Metadata["diameter"], "integral float should collapse to integer")
	assert.Equal(t, "SDR-26", second.Metadata["class"])
}

func TestIngestNumericNormalization(t *testing.T) {
	g := newTestIngestor()

	csvData := "Item,Size\nPipe A,12.0\nPipe B,12.5\n"

	records, err := g.Ingest([]byte(csvData), "sizes.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(12), records[0].Metadata["diameter"])
	assert.Equal(t, 12.5, records[1].Metadata["diameter"])
}

func TestIngestUnknownApplicationStaysUnset(t *testing.T) {
	g := newTestIngestor()

	csvData := "Item,Application\nPipe A,irrigation\n"

	records, err := g.Ingest([]byte(csvData), "rows.csv")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Empty(t, records[0].Application, "unknown application is left unset, not coerced")
	assert.Equal(t, "irrigation", records[0].Metadata["application"])
}

func TestIngestFileTooLarge(t *testing.T) {
	g := NewIngestor(16, 100, zap.NewNop())

	_, err := g.Ingest([]byte("Item\nthis file is too large to accept\n"), "big.csv")

	var tooLarge *apperrors.FileTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(16), tooLarge.MaxSize)
}

func TestIngestTooManyRows(t *testing.T) {
	g := NewIngestor(10*1024*1024, 2, zap.NewNop())

	var sb strings.Builder
	sb.WriteString("Item\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&sb, "Pipe %d\n", i)
	}

	_, err := g.Ingest([]byte(sb.String()), "rows.csv")

	var tooMany *apperrors.TooManyRowsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 3, tooMany.Rows)
}

func TestIngestEmptyFile(t *testing.T) {
	g := newTestIngestor()

	_, err := g.Ingest([]byte("Item,Description\n"), "empty.csv")
	require.ErrorIs(t, err, apperrors.ErrEmptyFile)
}

func TestIngestWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Material", "Notes", "Size"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"6in Gate Valve", "Resilient wedge", 6}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Fire Hydrant", "", ""}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	g := newTestIngestor()
	records, err := g.Ingest(buf.Bytes(), "materials.xlsx")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "6in Gate Valve", records[0].OriginalLabel)
	assert.Equal(t, "Resilient wedge", records[0].Description)
	assert.Equal(t, int64(6), records[0].Metadata["diameter"])

	assert.Equal(t, "Fire Hydrant", records[1].OriginalLabel)
	assert.Empty(t, records[1].Description)
	assert.Nil(t, records[1].Metadata, "empty metadata is absent, not an empty map")
}

func TestIngestMalformedCSV(t *testing.T) {
	g := newTestIngestor()

	// Unclosed quote makes the csv reader fail.
	_, err := g.Ingest([]byte("Item\n\"unterminated\n"), "bad.csv")
	require.Error(t, err)
	require.False(t, errors.Is(err, apperrors.ErrEmptyFile))
}
