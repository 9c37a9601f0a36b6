package services

import (
	"bytes"
	"context"
	"fmt"
	"law_case_engine/models"
	"net/url"
	"time"

	"github.com/xuri/excelize/v2"
)

// MaxExportRows caps a single spreadsheet export
const MaxExportRows = 1000

const exportSheet = "Cases"

var exportHeaders = []string{
	"Case Number",  // A
	"Title",        // B
	"Type",         // C
	"Status",       // D
	"Priority",     // E
	"Client",       // F
	"Assigned To",  // G
	"Filing Date",  // H
	"Next Hearing", // I
	"Created At",   // J
}

// ExportCases writes the cases matching the list filters to an .xlsx workbook. Paging
// parameters are ignored; ordering follows the list rules and rows stop at MaxExportRows.
func (s *CaseService) ExportCases(ctx context.Context, scope Scope, raw url.Values) (*bytes.Buffer, int, error) {
	q := CompileCaseQuery(scope, raw)

	var cases []models.CaseRecord
	err := q.ApplyFilters(s.db.WithContext(ctx)).
		Preload("Client").
		Preload("AssignedTo").
		Order(q.OrderClause()).
		Limit(MaxExportRows).
		Find(&cases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch cases for export: %w", err)
	}

	buf, err := BuildCaseWorkbook(cases)
	if err != nil {
		return nil, 0, err
	}
	return buf, len(cases), nil
}

// BuildCaseWorkbook renders cases into a single-sheet workbook with a header row
func BuildCaseWorkbook(cases []models.CaseRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportSheet)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(exportSheet, "A1", "J1", headerStyle)
	f.SetColWidth(exportSheet, "A", "J", 20)
	f.SetColWidth(exportSheet, "B", "B", 40)

	for i, c := range cases {
		row := i + 2
		values := []interface{}{
			c.CaseNumber,
			c.Title,
			c.CaseType,
			c.Status,
			c.Priority,
			"",
			"",
			formatExportDate(c.FilingDate),
			formatExportDate(c.NextHearingDate),
			c.CreatedAt.Format(time.RFC3339),
		}
		if c.Client != nil {
			values[5] = c.Client.Name
		}
		if c.AssignedTo != nil {
			values[6] = c.AssignedTo.Name
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write export row %d: %w", row, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func formatExportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
