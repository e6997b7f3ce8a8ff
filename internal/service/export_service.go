package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/entity-review-api/internal/models"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
	"github.com/noah-isme/entity-review-api/pkg/export"
)

// ExportFormat names a rendering of a workspace.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat defaults to csv when raw is empty.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return ExportFormatCSV, nil
	case ExportFormatCSV, ExportFormatPDF:
		return f, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var (
	exportHeaders = []string{"Record", "Title", "Status", "Decision", "Field", "Previous", "Current", "Changed"}
	exportWeights = []float64{0.6, 2, 0.9, 0.9, 1.8, 2.2, 2.2, 0.8}
)

// ExportService renders the field diffs of an open workspace, one row per record field.
type ExportService struct {
	csv datasetRenderer
	pdf datasetRenderer
	now func() time.Time
}

// NewExportService constructs an ExportService; nil renderers fall back to pkg/export.
func NewExportService(csv, pdf datasetRenderer) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, now: func() time.Time { return time.Now().UTC() }}
}

// Render builds the dataset for store and encodes it in format.
func (s *ExportService) Render(store *ReviewStateStore, format ExportFormat) (*ExportFile, error) {
	dataset := buildReviewDataset(store.Records())
	dataset.Title = fmt.Sprintf("%s %s review %s", store.Ticker(), store.Category(), store.ReviewID())
	summary := store.ComputeSelectionSummary()
	dataset.Notes = []string{fmt.Sprintf("%d records: %d approved, %d rejected, %d deleted, %d undecided",
		summary.Total, summary.Approved, summary.Rejected, summary.Deleted, summary.Total-summary.Selected)}
	if reasoning := strings.TrimSpace(store.Reasoning()); reasoning != "" {
		dataset.Notes = append(dataset.Notes, reasoning)
	}

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportFile{
		Filename:    s.filename(store, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func (s *ExportService) filename(store *ReviewStateStore, format ExportFormat) string {
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(store.Ticker()), store.Category(), timestamp, format)
}

func buildReviewDataset(records []*models.RecordState) export.Dataset {
	dataset := export.Dataset{Headers: exportHeaders, Weights: exportWeights, HighlightColumn: "Changed"}
	for i, rec := range records {
		schema := rec.Schema()
		diffs := rec.Fields()
		for j, spec := range schema.Fields {
			diff := diffs[j]
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Record":   strconv.Itoa(i + 1),
				"Title":    rec.Title(),
				"Status":   string(rec.Status),
				"Decision": rec.Disposition().String(),
				"Field":    spec.Label,
				"Previous": diff.Previous.Text(),
				"Current":  diff.Current.Text(),
				"Changed":  strconv.FormatBool(diff.Changed(rec.Status)),
			})
		}
	}
	return dataset
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
