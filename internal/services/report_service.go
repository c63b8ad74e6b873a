package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"shift-backend/internal/models"
	"shift-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService renders shift history into downloadable timesheets.
type ReportService struct {
	Projection *ProjectionService
}

func NewReportService(projection *ProjectionService) *ReportService {
	return &ReportService{Projection: projection}
}

// GenerateTimesheetPDF renders the user's full shift history as a PDF.
func (s *ReportService) GenerateTimesheetPDF(ctx context.Context, user *models.User) ([]byte, error) {
	rows, err := s.Projection.ShiftHistory(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Shift Timesheet", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Worker Info Box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Worker", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", user.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Email: %s", user.Email), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Shifts table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Shifts", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(28, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(47, 7, "Location", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 7, "Start", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 7, "End", "1", 0, "C", true, 0, "")
	pdf.CellFormat(23, 7, "Duration", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Cleanings", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	var totalSeconds int64
	for _, row := range rows {
		endText := "-"
		if row.EndTime != nil {
			endText = timeutil.ToIST(*row.EndTime).Format("03:04 PM")
		}
		location := row.LocationName
		if len(location) > 24 {
			location = location[:21] + "..."
		}
		status := row.Status
		if len(status) > 18 {
			status = status[:15] + "..."
		}

		pdf.CellFormat(28, 6, timeutil.ToIST(row.StartTime).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(47, 6, location, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, timeutil.ToIST(row.StartTime).Format("03:04 PM"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, endText, "1", 0, "C", false, 0, "")
		pdf.CellFormat(23, 6, row.Duration, "1", 0, "C", false, 0, "")
		pdf.CellFormat(18, 6, fmt.Sprintf("%d", row.Cleanings), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, status, "1", 1, "L", false, 0, "")

		totalSeconds += row.DurationSeconds
	}
	pdf.Ln(3)

	// Total
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 9, fmt.Sprintf("Total: %d shifts, %s worked", len(rows), timeutil.FormatDuration(totalSeconds)), "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateTimesheetCSV renders the user's shift history as a CSV.
func (s *ReportService) GenerateTimesheetCSV(ctx context.Context, user *models.User) ([]byte, error) {
	rows, err := s.Projection.ShiftHistory(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"Shift Timesheet", user.Name, user.Email})
	w.Write([]string{""})
	w.Write([]string{"#", "Date", "Location", "Start", "End", "Duration", "Cleanings", "Status"})

	for i, row := range rows {
		endText := ""
		if row.EndTime != nil {
			endText = timeutil.FormatIST(*row.EndTime, timeutil.TimeLayout)
		}
		w.Write([]string{
			fmt.Sprintf("%d", i+1),
			timeutil.FormatIST(row.StartTime, timeutil.DateLayout),
			row.LocationName,
			timeutil.FormatIST(row.StartTime, timeutil.TimeLayout),
			endText,
			row.Duration,
			fmt.Sprintf("%d", row.Cleanings),
			row.Status,
		})
	}

	w.Flush()
	return buf.Bytes(), nil
}
