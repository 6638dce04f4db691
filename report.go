package main

import (
	"strings"
	"time"
)

// Output column headers.
const (
	headSeq       = "#"
	headDay       = "Día"
	headConcept   = "Concepto / Referencia"
	headDebit     = "cargo"
	headCredit    = "Abono"
	headReference = "Referencia"
	headResidual  = "Redond"
	headBalance   = "Saldo"

	totalLabel = "TOTAL"
)

// fixedColumns may not be reused as category names.
var fixedColumns = []string{
	headSeq, headDay, headConcept, headDebit, headCredit, headReference, headResidual, headBalance,
}

type columnKind int

const (
	colKindSeq columnKind = iota
	colKindDay
	colKindConcept
	colKindDebit
	colKindCredit
	colKindReference
	colKindCategory
	colKindResidual
	colKindBalance
)

// Column describes one report column.
type Column struct {
	Name     string
	Kind     columnKind
	Category int // index into CategorySpec.Categories for colKindCategory.
}

func (c Column) numeric() bool {
	switch c.Kind {
	case colKindDay, colKindConcept, colKindReference:
		return false
	}
	return true
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellText
	cellInt
	cellNumber
	cellDate
)

// Cell is one report value.
type Cell struct {
	Kind cellKind
	Text string
	Num  float64
	Date time.Time
}

func textCell(s string) Cell {
	if len(s) == 0 {
		return Cell{}
	}
	return Cell{Kind: cellText, Text: s}
}

func numberCell(f float64) Cell { return Cell{Kind: cellNumber, Num: f} }

// zero reports whether the renderer treats the cell as having no value.
func (c Cell) zero() bool {
	switch c.Kind {
	case cellEmpty:
		return true
	case cellText:
		return len(c.Text) == 0
	case cellInt, cellNumber:
		return c.Num == 0
	case cellDate:
		return c.Date.IsZero()
	}
	return true
}

// Row is one report line plus the flags the renderer styles by.
type Row struct {
	Cells []Cell

	Deposit      bool // concept names a cash deposit.
	Transfer     bool // concept names a transfer, and is not a deposit.
	ResidualSign int  // -1, 0 or 1.
	Total        bool
}

// ReportTable is the assembled report: entry rows followed by exactly one
// TOTAL row.
type ReportTable struct {
	Version string
	Columns []Column
	Rows    []Row
}

// Entries returns the rows without the trailing TOTAL row.
func (t *ReportTable) Entries() []Row {
	return t.Rows[:len(t.Rows)-1]
}

// TotalRow returns the trailing TOTAL row.
func (t *ReportTable) TotalRow() Row {
	return t.Rows[len(t.Rows)-1]
}

// ColumnIndex returns the position of the named column, or -1.
func (t *ReportTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func reportColumns(spec *CategorySpec, split bool) []Column {
	cols := []Column{
		{Name: headSeq, Kind: colKindSeq},
		{Name: headDay, Kind: colKindDay},
		{Name: headConcept, Kind: colKindConcept},
	}
	if split {
		cols = append(cols, Column{Name: headDebit, Kind: colKindDebit})
	}
	cols = append(cols,
		Column{Name: headCredit, Kind: colKindCredit},
		Column{Name: headReference, Kind: colKindReference},
	)
	for i, c := range spec.Categories {
		cols = append(cols, Column{Name: c.Name, Kind: colKindCategory, Category: i})
	}
	return append(cols,
		Column{Name: headResidual, Kind: colKindResidual},
		Column{Name: headBalance, Kind: colKindBalance},
	)
}

// assemble lays the entries out in the fixed column order and appends the
// TOTAL row. The debit column exists only for split exports.
func assemble(entries []Entry, spec *CategorySpec, split bool) *ReportTable {
	t := &ReportTable{
		Version: spec.Version,
		Columns: reportColumns(spec, split),
	}
	for i, e := range entries {
		cells := make([]Cell, len(t.Columns))
		for ci, col := range t.Columns {
			switch col.Kind {
			case colKindSeq:
				cells[ci] = Cell{Kind: cellInt, Num: float64(i + 1)}
			case colKindDay:
				if e.Day != nil {
					cells[ci] = Cell{Kind: cellDate, Date: *e.Day}
				}
			case colKindConcept:
				cells[ci] = textCell(e.Concept)
			case colKindDebit:
				cells[ci] = numberCell(e.DebitTotal)
			case colKindCredit:
				cells[ci] = numberCell(e.CreditTotal)
			case colKindReference:
				cells[ci] = textCell(e.Reference)
			case colKindCategory:
				cells[ci] = numberCell(e.Categories[col.Category])
			case colKindResidual:
				cells[ci] = numberCell(e.Residual)
			case colKindBalance:
				cells[ci] = numberCell(e.Balance)
			}
		}
		t.Rows = append(t.Rows, newRow(cells, e.Concept, e.Residual, spec))
	}
	t.Rows = append(t.Rows, t.totals(spec))
	return t
}

// totals sums every numeric column over the entry rows. The label column
// reads TOTAL and the other text columns stay empty.
func (t *ReportTable) totals(spec *CategorySpec) Row {
	cells := make([]Cell, len(t.Columns))
	for ci, col := range t.Columns {
		switch {
		case col.Kind == colKindConcept:
			cells[ci] = textCell(totalLabel)
		case col.numeric():
			var sum float64
			for _, r := range t.Rows {
				sum += r.Cells[ci].Num
			}
			kind := cellNumber
			if col.Kind == colKindSeq {
				kind = cellInt
			}
			cells[ci] = Cell{Kind: kind, Num: sum}
		}
	}
	var residual float64
	if ri := t.ColumnIndex(headResidual); ri >= 0 {
		residual = cells[ri].Num
	}
	r := newRow(cells, totalLabel, residual, spec)
	r.Total = true
	return r
}

func newRow(cells []Cell, concept string, residual float64, spec *CategorySpec) Row {
	r := Row{Cells: cells, ResidualSign: sign(residual)}
	lc := strings.ToLower(concept)
	switch {
	case containsAny(lc, spec.Highlight.Deposit):
		r.Deposit = true
	case containsAny(lc, spec.Highlight.Transfer):
		r.Transfer = true
	}
	return r
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	}
	return 0
}
