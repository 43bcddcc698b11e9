package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onstage-hq/onstage-api/internal/models"
)

func TestBuildRunSheetUsesBlindCodes(t *testing.T) {
	items := []models.ScheduleItem{
		routine("i1", 1, 1, 1, 3, "e1"),
		{ID: "brk", ItemType: models.ItemTypeBreak, DayNumber: 1, SessionNumber: 1, RunningOrder: 2, DurationMinutes: 15, Label: strPtr("Lunch")},
		routine("i2", 1, 1, 3, 4, "e2"),
	}
	entries := map[string]models.Entry{
		"e1": {ID: "e1", StudioID: "studio-a", Title: "Starlight", DurationMinutes: 3},
		"e2": {ID: "e2", StudioID: "studio-b", Title: "Thunder", DurationMinutes: 4},
	}
	assignments := []models.StudioCodeAssignment{
		{StudioID: "studio-a", Seq: 0, Code: "A"},
	}
	start := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	dataset := buildRunSheet(items, entries, assignments, FixedSessionStart(start))
	require.Equal(t, runSheetHeaders, dataset.Headers)
	require.Len(t, dataset.Rows, 3)

	require.Equal(t, "Starlight", dataset.Rows[0]["Title"])
	require.Equal(t, "A", dataset.Rows[0]["Studio Code"])
	require.Equal(t, "08:00", dataset.Rows[0]["Start"])

	require.Equal(t, "Lunch", dataset.Rows[1]["Title"])
	require.Equal(t, "", dataset.Rows[1]["Studio Code"])
	require.Equal(t, "08:03", dataset.Rows[1]["Start"])

	// Studio without a code shows an empty column, never the studio id.
	require.Equal(t, "", dataset.Rows[2]["Studio Code"])
	require.Equal(t, "08:18", dataset.Rows[2]["Start"])
}

func TestRunSheetRendersCSV(t *testing.T) {
	items := &itemListerStub{items: []models.ScheduleItem{
		routine("i1", 1, 1, 1, 3, "e1"),
	}}
	catalog := &entryCatalogStub{entries: []models.Entry{
		{ID: "e1", StudioID: "studio-a", Title: "Starlight", DurationMinutes: 3},
	}}
	codes := &codeListerStub{assigned: []models.StudioCodeAssignment{
		{StudioID: "studio-a", Seq: 0, Code: "A"},
	}}
	svc := NewExportService(items, catalog, codes, nil)

	schedule := &models.Schedule{ID: "sch-1", CompetitionID: "comp-1"}
	start := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	artifact, err := svc.RunSheet(context.Background(), schedule, FixedSessionStart(start), ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", artifact.ContentType)
	require.Equal(t, "run-sheet-sch-1.csv", artifact.FileName)

	body := string(artifact.Data)
	require.Contains(t, body, "Starlight")
	require.Contains(t, body, ",A,")
	require.NotContains(t, body, "studio-a")
}

func TestRunSheetRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&itemListerStub{}, &entryCatalogStub{}, &codeListerStub{}, nil)
	_, err := svc.RunSheet(context.Background(), &models.Schedule{ID: "sch-1"}, FixedSessionStart(time.Now()), ExportFormat("xml"))
	require.Error(t, err)
}

func strPtr(s string) *string { return &s }
