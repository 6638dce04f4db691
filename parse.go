package main

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Input column headers. They are matched exactly: case and accents matter.
const (
	colEntryID      = "Asiento contable"
	colDate         = "Fecha"
	colAmount       = "Importe"
	colDescription  = "Líneas de factura"
	colCounterparty = "Partner"
	colReference    = "Referencia"
	colDebit        = "Líneas de factura/Débito"
	colCredit       = "Líneas de factura/Crédito"
)

var requiredColumns = []string{
	colEntryID, colDate, colAmount, colDescription, colCounterparty, colReference,
}

var errMissingColumn = errors.New("missing required column")

// LineItem is one row of the ledger export after cleaning.
type LineItem struct {
	Row          int        // 1-based row in the source sheet, header is row 1.
	EntryID      *string    // nil when no row up to this one named an entry.
	Date         *time.Time // nil when no row up to this one carried a date.
	RawAmount    string
	Amount       float64
	Description  string
	Counterparty string
	Reference    string
	Debit        float64
	Credit       float64

	// Lowercased copies used only for keyword matching.
	desc    string
	partner string
}

func (it LineItem) entryLabel() string {
	if it.EntryID == nil {
		return "<none>"
	}
	return *it.EntryID
}

// rawTable is a sheet as strings, header first.
type rawTable struct {
	header []string
	rows   [][]string
	// xlsx is set for workbook input: date cells hold Excel serial numbers
	// and numeric cells their raw stored text.
	xlsx bool
}

func isXLSX(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

func isCSV(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return true
	}
	return false
}

// readTable reads the first sheet of an xlsx workbook, or a delimited text
// file.
func readTable(path string, comma rune) (*rawTable, error) {
	switch {
	case isXLSX(path):
		return readXLSX(path)
	case isCSV(path):
		return readCSV(path, comma)
	}
	return nil, errors.Errorf("unsupported input file type: %s", path)
}

func readXLSX(path string) (*rawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open workbook %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read sheet %q of %s", sheets[0], path)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("sheet %q of %s is empty, expected a header row", sheets[0], path)
	}
	return &rawTable{header: rows[0], rows: rows[1:], xlsx: true}, nil
}

func readCSV(path string, comma rune) (*rawTable, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer fd.Close()

	r := csv.NewReader(newConverter(fd))
	r.Comma = comma
	r.FieldsPerRecord = -1
	var t rawTable
	for {
		cols, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read line of %s", path)
		}
		if t.header == nil {
			t.header = cols
			continue
		}
		t.rows = append(t.rows, cols)
	}
	if t.header == nil {
		return nil, errors.Errorf("%s is empty, expected a header row", path)
	}
	return &t, nil
}

// columns holds header positions; -1 marks an absent optional column.
type columns struct {
	id, date, amount, desc, partner, ref, debit, credit int
}

func locateColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, has := pos[h]; !has {
			pos[h] = i
		}
	}
	for _, name := range requiredColumns {
		if _, has := pos[name]; !has {
			return columns{}, errors.Wrapf(errMissingColumn, "column %q", name)
		}
	}
	lookup := func(name string) int {
		if i, has := pos[name]; has {
			return i
		}
		return -1
	}
	return columns{
		id:      pos[colEntryID],
		date:    pos[colDate],
		amount:  pos[colAmount],
		desc:    pos[colDescription],
		partner: pos[colCounterparty],
		ref:     pos[colReference],
		debit:   lookup(colDebit),
		credit:  lookup(colCredit),
	}, nil
}

// split reports whether the export carries separate debit/credit columns.
func (c columns) split() bool {
	return c.debit >= 0 || c.credit >= 0
}

// ledger is the loader's output.
type ledger struct {
	items   []LineItem
	split   bool
	read    int // non-blank data rows
	dropped int // rows rejected by the minus filter
}

// isRejectedAmount is the row filter: any '-' in the amount text rejects the
// row, whatever its numeric value.
func isRejectedAmount(raw string) bool {
	return strings.Contains(raw, "-")
}

// amountText is the text the minus filter inspects. Workbooks may store a
// number such as 0.05 as "5.0000000000000003E-2"; numeric workbook cells are
// rendered the way a spreadsheet user reads the value instead, with the
// exponent form kept only for magnitudes below 1e-4 or from 1e16 up.
func amountText(raw string, xlsx bool) string {
	if !xlsx {
		return raw
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if err != nil {
		return raw
	}
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// loadLedger filters and forward-fills the raw rows. Filtering happens first,
// so a rejected row never lends its entry or date to the rows after it.
func loadLedger(t *rawTable, dateLayouts []string) (*ledger, error) {
	cols, err := locateColumns(t.header)
	if err != nil {
		return nil, err
	}
	l := &ledger{split: cols.split()}

	var lastID *string
	var lastDate *time.Time
	for i, row := range t.rows {
		if isBlankRow(row) {
			continue
		}
		l.read++
		cell := func(j int) string {
			if j < 0 || j >= len(row) {
				return ""
			}
			return row[j]
		}
		rowNum := i + 2

		raw := cell(cols.amount)
		if isRejectedAmount(amountText(raw, t.xlsx)) {
			l.dropped++
			continue
		}

		it := LineItem{
			Row:          rowNum,
			RawAmount:    raw,
			Description:  cell(cols.desc),
			Counterparty: cell(cols.partner),
			Reference:    cell(cols.ref),
		}
		if it.Amount, err = parseAmount(raw); err != nil {
			return nil, errors.Wrapf(err, "row %d: column %q", rowNum, colAmount)
		}

		// Only blank cells inherit; a non-blank id is kept verbatim, so "E1"
		// and "E1 " stay distinct entries.
		if id := cell(cols.id); len(strings.TrimSpace(id)) > 0 {
			lastID = &id
		}
		it.EntryID = lastID

		if ds := strings.TrimSpace(cell(cols.date)); len(ds) > 0 {
			d, err := parseDate(ds, t.xlsx, dateLayouts)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: column %q", rowNum, colDate)
			}
			lastDate = &d
		}
		it.Date = lastDate

		if l.split {
			if it.Debit, err = parseAmount(cell(cols.debit)); err != nil {
				return nil, errors.Wrapf(err, "row %d: column %q", rowNum, colDebit)
			}
			if it.Credit, err = parseAmount(cell(cols.credit)); err != nil {
				return nil, errors.Wrapf(err, "row %d: column %q", rowNum, colCredit)
			}
		} else {
			// Without a split the whole amount is allocated as debit.
			it.Debit = it.Amount
		}

		it.desc = strings.ToLower(it.Description)
		it.partner = strings.ToLower(it.Counterparty)
		l.items = append(l.items, it)
	}
	return l, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if len(strings.TrimSpace(c)) > 0 {
			return false
		}
	}
	return true
}

// parseAmount reads a decimal cell; an empty cell is zero.
func parseAmount(col string) (float64, error) {
	col = strings.TrimSpace(col)
	if len(col) == 0 {
		return 0, nil
	}
	d, err := decimal.NewFromString(col)
	if err != nil {
		return 0, errors.Errorf("unable to parse amount %q", col)
	}
	f, _ := d.Float64()
	return f, nil
}

var fallbackDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// parseDate accepts Excel serial numbers (xlsx input only) and text dates in
// any of the given layouts, then the ISO fallbacks. The time of day is
// dropped.
func parseDate(col string, serial bool, layouts []string) (time.Time, error) {
	if serial {
		if f, err := strconv.ParseFloat(col, 64); err == nil {
			tm, err := excelize.ExcelDateToTime(f, false)
			if err != nil {
				return time.Time{}, errors.Wrapf(err, "unable to convert serial date %q", col)
			}
			return dateOnly(tm), nil
		}
	}
	for _, layout := range append(append([]string(nil), layouts...), fallbackDateLayouts...) {
		if tm, err := time.Parse(layout, col); err == nil {
			return dateOnly(tm), nil
		}
	}
	return time.Time{}, errors.Errorf("unable to parse date %q", col)
}

func dateOnly(tm time.Time) time.Time {
	y, m, d := tm.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
