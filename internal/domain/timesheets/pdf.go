package timesheets

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders a timesheet summary with one row per day.
func WritePDF(w io.Writer, ts Timesheet, fullName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Timesheet")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", fullName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s",
		ts.PeriodStart.Format("2006-01-02"), ts.PeriodEnd.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", ts.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(35, 8, "Date")
	pdf.Cell(30, 8, "Worked")
	pdf.Cell(30, 8, "Regular")
	pdf.Cell(30, 8, "Overtime")
	pdf.Cell(30, 8, "Breaks")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range ts.Lines {
		pdf.Cell(35, 7, line.Date)
		pdf.Cell(30, 7, formatMinutes(line.WorkedMinutes))
		pdf.Cell(30, 7, formatMinutes(line.RegularMinutes))
		pdf.Cell(30, 7, formatMinutes(line.OvertimeMinutes))
		pdf.Cell(30, 7, formatMinutes(line.BreakMinutes))
		pdf.Ln(7)
	}

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %s worked, %s overtime",
		formatMinutes(ts.WorkedMinutes), formatMinutes(ts.OvertimeMinutes)))

	return pdf.Output(w)
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
