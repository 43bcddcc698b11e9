package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/onstage-hq/onstage-api/internal/models"
	appErrors "github.com/onstage-hq/onstage-api/pkg/errors"
	"github.com/onstage-hq/onstage-api/pkg/export"
)

// ExportFormat identifies a supported run-sheet output format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportArtifact is a rendered run sheet ready for download.
type ExportArtifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

type studioCodeLister interface {
	ListByCompetition(ctx context.Context, competitionID string) ([]models.StudioCodeAssignment, error)
}

// ExportService renders judge-facing run sheets. Studios appear only by their
// blind letter code; an entry whose studio has no code yet shows an empty
// column rather than leaking the studio name.
type ExportService struct {
	items   scheduleItemLister
	entries entryCatalog
	codes   studioCodeLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(items scheduleItemLister, entries entryCatalog, codes studioCodeLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		items:   items,
		entries: entries,
		codes:   codes,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

var runSheetHeaders = []string{"Day", "Session", "Order", "Start", "Type", "Title", "Studio Code", "Duration (min)"}

// RunSheet renders the full running order of a schedule in the requested
// format. Start times follow the supplied session-start resolver.
func (s *ExportService) RunSheet(ctx context.Context, schedule *models.Schedule, startFor SessionStartFunc, format ExportFormat) (*ExportArtifact, error) {
	items, err := s.items.ListItems(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule items")
	}
	entries, err := s.entries.ListConfirmedByCompetition(ctx, schedule.CompetitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entry catalog")
	}
	assignments, err := s.codes.ListByCompetition(ctx, schedule.CompetitionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load studio codes")
	}

	dataset := buildRunSheet(items, entriesByID(entries), assignments, startFor)

	switch format {
	case ExportFormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv run sheet")
		}
		return &ExportArtifact{
			FileName:    fmt.Sprintf("run-sheet-%s.csv", schedule.ID),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Run Sheet")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf run sheet")
		}
		return &ExportArtifact{
			FileName:    fmt.Sprintf("run-sheet-%s.pdf", schedule.ID),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildRunSheet(items []models.ScheduleItem, entries map[string]models.Entry, assignments []models.StudioCodeAssignment, startFor SessionStartFunc) export.Dataset {
	codeByStudio := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		codeByStudio[assignment.StudioID] = assignment.Code
	}
	times := ComputeStartTimes(items, startFor)

	rows := make([]map[string]string, 0, len(items))
	for _, key := range sessionKeys(items) {
		for _, item := range sessionItems(items, key) {
			title := ""
			code := ""
			switch item.ItemType {
			case models.ItemTypeRoutine:
				if item.EntryID != nil {
					if entry, ok := entries[*item.EntryID]; ok {
						title = entry.Title
						code = codeByStudio[entry.StudioID]
					}
				}
			default:
				if item.Label != nil {
					title = *item.Label
				}
			}
			rows = append(rows, map[string]string{
				"Day":            strconv.Itoa(item.DayNumber),
				"Session":        strconv.Itoa(item.SessionNumber),
				"Order":          strconv.Itoa(item.RunningOrder),
				"Start":          times[item.ID].Format("15:04"),
				"Type":           string(item.ItemType),
				"Title":          title,
				"Studio Code":    code,
				"Duration (min)": strconv.Itoa(item.DurationMinutes),
			})
		}
	}
	return export.Dataset{Headers: runSheetHeaders, Rows: rows}
}
