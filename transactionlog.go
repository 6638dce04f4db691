package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const (
	stamp      = "2006/01/02"
	descLength = 40
	idLength   = 12
)

// printSummary prints one coloured line per entry: position, day, entry id,
// concept, total and residual.
func printSummary(w io.Writer, e Entry, idx, total int) {
	color.New(color.BgBlue, color.FgWhite).Fprintf(w, " [%*d of %*d] ", width(total), idx, width(total), total)

	day := strings.Repeat(" ", len(stamp))
	if e.Day != nil {
		day = e.Day.Format(stamp)
	}
	color.New(color.BgYellow, color.FgBlack).Fprintf(w, " %10s ", day)

	id := "<none>"
	if e.EntryID != nil {
		id = *e.EntryID
	}
	if len(id) > idLength {
		id = id[len(id)-idLength:]
	}
	color.New(color.BgCyan, color.FgBlack).Fprintf(w, " %-*s ", idLength, id)

	desc := []rune(e.Concept)
	if len(desc) > descLength {
		desc = desc[:descLength]
	}
	color.New(color.BgWhite, color.FgBlack).Fprintf(w, " %-40s", string(desc)) // descLength used in Printf.

	color.New(color.BgGreen, color.FgBlack).Fprintf(w, " %12.2f ", e.CreditTotal)
	switch sign(e.Residual) {
	case 0:
		color.New(color.BgGreen, color.FgBlack).Fprintf(w, " %10s ", "OK")
	default:
		color.New(color.BgRed, color.FgWhite).Fprintf(w, " %10.2f ", e.Residual)
	}
	fmt.Fprintln(w)
}

func width(n int) int {
	return len(fmt.Sprint(n))
}

// printRun prints the per-entry lines followed by the totals of the run.
func printRun(w io.Writer, res *runResult, verbose bool) {
	if verbose {
		for i, e := range res.Entries {
			printSummary(w, e, i+1, len(res.Entries))
		}
		fmt.Fprintln(w)
	}

	total := res.Table.TotalRow()
	var credit, residual float64
	if ci := res.Table.ColumnIndex(headCredit); ci >= 0 {
		credit = total.Cells[ci].Num
	}
	if ri := res.Table.ColumnIndex(headResidual); ri >= 0 {
		residual = total.Cells[ri].Num
	}
	fmt.Fprintf(w, "\t%d rows read, %d dropped as negative, %d line items kept.\n",
		res.Read, res.Dropped, len(res.Items))
	fmt.Fprintf(w, "\t%d entries, Abono %.2f, Redond %.2f (categories %s).\n",
		len(res.Entries), credit, residual, res.Table.Version)
	fmt.Fprintf(w, "\tRun %s written to file: %s\n\n", res.RunID, res.Output)
}

// printHints lists category suggestions for unclassified line items.
func printHints(w io.Writer, hints []Hint) {
	if len(hints) == 0 {
		return
	}
	color.New(color.BgMagenta, color.FgWhite).Fprintf(w, "[HINTS]")
	fmt.Fprintln(w)
	for _, h := range hints {
		color.New(color.FgCyan).Fprintf(w, "  %-5s ", h.Source)
		fmt.Fprintf(w, "%s", h)
		if len(h.Reasoning) > 0 {
			color.New(color.FgYellow).Fprintf(w, "  (%s)", h.Reasoning)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
