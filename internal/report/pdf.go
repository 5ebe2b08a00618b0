package report

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"
)

// WritePDF renders rep as a one-document A4 PDF.
func WritePDF(w io.Writer, rep Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 9)
	if rep.ProjectID != "" {
		pdf.Cell(0, 5, fmt.Sprintf("Project: %s", rep.ProjectID))
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, fmt.Sprintf("Report: %s", rep.ID))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", rep.GeneratedAt.Format("2006-01-02 15:04 MST")))
	pdf.Ln(8)

	for _, s := range rep.Sections() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetFillColor(235, 248, 255)
		pdf.CellFormat(0, 6, tr(s.Title), "", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, row := range s.Rows {
			pdf.CellFormat(70, 5, tr(row.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(40, 5, tr(row.Value), "", 0, "R", false, 0, "")
			pdf.CellFormat(0, 5, tr(" "+row.Unit), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Final Summary", "", 1, "L", true, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(90, 6, "Load Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Load (kW)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, "Load (TR)", "1", 1, "R", false, 0, "")
	lines := rep.LoadLines()
	for i, l := range lines {
		style := ""
		if i == len(lines)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(90, 6, tr(l.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, f3(l.KW), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, f3(l.TR), "1", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}
