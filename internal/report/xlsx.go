package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

const (
	SummarySheet = "Summary"
	DetailsSheet = "Details"
	InputsSheet  = "Inputs"
)

// WriteXLSX renders rep as a workbook with a load summary, the descriptive
// sections and the raw input records.
func WriteXLSX(w io.Writer, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	for _, name := range []string{DetailsSheet, InputsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	sw := sheetWriter{f: f}

	sw.row(SummarySheet, 1, Title)
	sw.row(SummarySheet, 2, "Report ID", rep.ID)
	sw.row(SummarySheet, 3, "Generated", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	sw.row(SummarySheet, 5, "Load Type", "Load (kW)", "Load (TR)")
	for i, l := range rep.LoadLines() {
		sw.row(SummarySheet, 6+i, l.Label, l.KW, l.TR)
	}

	row := 1
	for _, s := range rep.Sections() {
		sw.row(DetailsSheet, row, s.Title)
		row++
		for _, r := range s.Rows {
			sw.row(DetailsSheet, row, r.Label, r.Value, r.Unit)
			row++
		}
		row++
	}

	sw.row(InputsSheet, 1, "Record", "Field", "Value")
	row = 2
	for _, rec := range []struct {
		name string
		r    coldroom.Record
	}{
		{"room", rep.Inputs.Room},
		{"conditions", rep.Inputs.Conditions},
		{"product", rep.Inputs.Product},
	} {
		keys := make([]string, 0, len(rec.r))
		for k := range rec.r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sw.row(InputsSheet, row, rec.name, k, fmt.Sprint(rec.r[k]))
			row++
		}
	}

	if sw.err != nil {
		return sw.err
	}
	_, err := f.WriteTo(w)
	return err
}

// sheetWriter keeps the first cell error so rows can be written without
// checking each one.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (sw *sheetWriter) row(sheet string, row int, values ...any) {
	for i, v := range values {
		if sw.err != nil {
			return
		}
		var cell string
		cell, sw.err = excelize.CoordinatesToCellName(i+1, row)
		if sw.err != nil {
			return
		}
		sw.err = sw.f.SetCellValue(sheet, cell, v)
	}
}
