package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// WriteText renders rep as a plain-text report suitable for sharing.
func WriteText(w io.Writer, rep Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, rule)
	fmt.Fprintln(tw, strings.ToUpper(Title))
	fmt.Fprintln(tw, rule)
	fmt.Fprintf(tw, "Report ID:\t%s\n", rep.ID)
	if rep.ProjectID != "" {
		fmt.Fprintf(tw, "Project:\t%s\n", rep.ProjectID)
	}
	fmt.Fprintf(tw, "Generated:\t%s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	for _, s := range rep.Sections() {
		fmt.Fprintf(tw, "\n%s\n", strings.ToUpper(s.Title))
		for _, row := range s.Rows {
			fmt.Fprintf(tw, "%s:\t%s\t%s\n", row.Label, row.Value, row.Unit)
		}
	}

	fmt.Fprintf(tw, "\nLOAD BREAKDOWN\n")
	fmt.Fprintf(tw, "Load Type\tkW\tTR\n")
	for _, l := range rep.LoadLines() {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\n", l.Label, l.KW, l.TR)
	}
	fmt.Fprintln(tw, rule)

	return tw.Flush()
}
