package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/export"
)

func newExportServiceForTest() *ExportService {
	svc := NewExportService(export.NewCSVExporter(), export.NewPDFExporter())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceRenderCSV(t *testing.T) {
	store := hydrate(t, "updated")
	require.NoError(t, store.EditField(0, "primary_name", models.String("B")))
	require.NoError(t, store.SetRecordDisposition(0, models.DispositionApprove))

	file, err := newExportServiceForTest().Render(store, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "ACME_asset_20260301_083000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, exportHeaders, rows[0])

	schema, err := models.SchemaFor(models.CategoryAsset)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(schema.Fields))

	name, ok := schema.Lookup("primary_name")
	require.True(t, ok)
	var found bool
	for _, row := range rows[1:] {
		if row[4] == name.Label {
			found = true
			assert.Equal(t, []string{"1", "B", "updated", "approve", name.Label, "", "B", "true"}, row)
		}
	}
	assert.True(t, found)
}

func TestExportServiceRenderPDF(t *testing.T) {
	store := hydrate(t, "new", "new")

	file, err := newExportServiceForTest().Render(store, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, f)

	f, err = ParseExportFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatPDF, f)

	_, err = ParseExportFormat("xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
