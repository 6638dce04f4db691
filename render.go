package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName  = "Resumen"
	dateLayout = "2006-01-02"

	fmtNumber = "#,##0.00"
	fmtDate   = "yyyy-mm-dd"

	colorHeaderFill = "4472C4"
	colorHeaderFont = "FFFFFF"
	colorDeposit    = "FFCCCC"
	colorTransfer   = "CCFFCC"
	colorCredit     = "CCE5FF"
	colorAltRow     = "F2F2F2"
	colorTotal      = "F4CCCC"
	colorBorder     = "000000"
	colorNegative   = "FF0000"
	colorPositive   = "000000"
	colorZero       = "FFFFFF"
)

// categoryPalette colours category columns in declaration order, cycling.
var categoryPalette = []string{
	"D9EAD3", "FCE5CD", "D0E0E3", "EAD1DC", "FFF2CC", "C9DAF8", "E2EFDA", "E6B8B7",
	"FFD966", "B6D7A8", "EA9999", "A4C2F4", "D5A6BD", "B7DEE8",
}

func categoryColor(i int) string {
	return categoryPalette[i%len(categoryPalette)]
}

func checkOutputPath(path string) error {
	if isXLSX(path) || strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil
	}
	return errors.Errorf("unsupported output file type %q, use .xlsx or .csv", filepath.Ext(path))
}

// writeReport renders the table to path. The artifact is written to a temp
// file in the same directory and renamed into place, so path either holds a
// complete report or is left untouched.
func writeReport(t *ReportTable, path, runID string) error {
	if err := checkOutputPath(path); err != nil {
		return err
	}
	return writeAtomic(path, func(tmp string) error {
		if isXLSX(path) {
			return renderXLSX(t, tmp, runID)
		}
		return renderCSV(t, tmp)
	})
}

func writeAtomic(path string, write func(tmp string) error) (err error) {
	dir := filepath.Dir(path)
	tf, err := os.CreateTemp(dir, ".asientos-*"+filepath.Ext(path))
	if err != nil {
		return errors.Wrapf(err, "unable to create output in %s", dir)
	}
	tmp := tf.Name()
	tf.Close()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	// CreateTemp leaves the file 0600.
	if err = os.Chmod(tmp, 0o644); err != nil {
		return errors.Wrapf(err, "unable to set permissions of %s", tmp)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "unable to move output into place at %s", path)
	}
	return nil
}

func renderCSV(t *ReportTable, path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	w := csv.NewWriter(fd)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	w.Write(header)
	for _, r := range t.Rows {
		rec := make([]string, len(r.Cells))
		for i, c := range r.Cells {
			rec[i] = c.csvText()
		}
		w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fd.Close()
		return errors.Wrapf(err, "unable to write %s", path)
	}
	return errors.Wrapf(fd.Close(), "unable to close %s", path)
}

func (c Cell) csvText() string {
	switch c.Kind {
	case cellText:
		return c.Text
	case cellInt:
		return strconv.FormatInt(int64(c.Num), 10)
	case cellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case cellDate:
		return c.Date.Format(dateLayout)
	}
	return ""
}

// displayLen is the width a value takes when shown as plain text; it drives
// the column widths.
func (c Cell) displayLen() int {
	switch c.Kind {
	case cellText:
		return utf8.RuneCountInString(c.Text)
	case cellInt:
		return len(strconv.FormatInt(int64(c.Num), 10))
	case cellNumber:
		s := strconv.FormatFloat(c.Num, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return len(s)
	case cellDate:
		return len("2006-01-02 00:00:00")
	}
	return 0
}

// cellStyle is everything the renderer decides about one cell. Equal styles
// share one workbook style id.
type cellStyle struct {
	fill   string
	font   string
	bold   bool
	center bool
	border bool
	numFmt string
}

type styleCache struct {
	f   *excelize.File
	ids map[cellStyle]int
}

func (sc *styleCache) id(k cellStyle) (int, error) {
	if id, has := sc.ids[k]; has {
		return id, nil
	}
	s := &excelize.Style{}
	if k.fill != "" {
		s.Fill = excelize.Fill{Type: "pattern", Color: []string{k.fill}, Pattern: 1}
	}
	if k.font != "" || k.bold {
		s.Font = &excelize.Font{Bold: k.bold, Color: k.font}
	}
	if k.center {
		s.Alignment = &excelize.Alignment{Horizontal: "center"}
	}
	if k.border {
		s.Border = []excelize.Border{{Type: "bottom", Color: colorBorder, Style: 1}}
	}
	if k.numFmt != "" {
		nf := k.numFmt
		s.CustomNumFmt = &nf
	}
	id, err := sc.f.NewStyle(s)
	if err != nil {
		return 0, errors.Wrap(err, "unable to create cell style")
	}
	sc.ids[k] = id
	return id, nil
}

// layoutStyles applies the styling rules in order, later rules overriding
// earlier ones on the same attribute. Index 0 is the header row.
func layoutStyles(t *ReportTable) [][]cellStyle {
	rows := len(t.Rows) + 1
	styles := make([][]cellStyle, rows)
	for i := range styles {
		styles[i] = make([]cellStyle, len(t.Columns))
	}
	for ci := range t.Columns {
		styles[0][ci] = cellStyle{fill: colorHeaderFill, font: colorHeaderFont, bold: true, center: true}
	}

	entries := t.Entries()
	for ri, r := range entries {
		for ci, col := range t.Columns {
			if col.Kind == colKindCategory && !r.Cells[ci].zero() {
				styles[ri+1][ci].fill = categoryColor(col.Category)
			}
		}
	}

	for ri, r := range t.Rows {
		st := styles[ri+1]
		for ci, col := range t.Columns {
			switch r.Cells[ci].Kind {
			case cellInt, cellNumber:
				st[ci].numFmt = fmtNumber
			case cellDate:
				st[ci].numFmt = fmtDate
			}
			switch col.Kind {
			case colKindConcept:
				if r.Deposit {
					st[ci].fill = colorDeposit
				} else if r.Transfer {
					st[ci].fill = colorTransfer
				}
			case colKindCredit:
				st[ci].fill = colorCredit
			case colKindResidual:
				switch r.ResidualSign {
				case -1:
					st[ci].font = colorNegative
				case 1:
					st[ci].font = colorPositive
				default:
					st[ci].font = colorZero
				}
			}
		}
	}

	// Sheet rows 2, 4, ... of the entries; TOTAL is never shaded.
	for ri := range entries {
		if (ri+2)%2 != 0 {
			continue
		}
		for ci := range t.Columns {
			if styles[ri+1][ci].fill == "" {
				styles[ri+1][ci].fill = colorAltRow
			}
		}
	}

	// Underline the last row of every run of equal days.
	if dc := t.ColumnIndex(headDay); dc >= 0 {
		var last Cell
		for ri, r := range entries {
			curr := r.Cells[dc]
			if !last.zero() && (curr.Kind != last.Kind || !curr.Date.Equal(last.Date)) {
				for ci := range t.Columns {
					styles[ri][ci].border = true
				}
			}
			last = curr
		}
	}

	total := styles[len(styles)-1]
	for ci := range total {
		total[ci].fill = colorTotal
		total[ci].font = ""
		total[ci].bold = true
		total[ci].center = true
	}
	return styles
}

func columnWidths(t *ReportTable) []float64 {
	widths := make([]float64, len(t.Columns))
	for ci, col := range t.Columns {
		max := utf8.RuneCountInString(col.Name)
		for _, r := range t.Rows {
			c := r.Cells[ci]
			if c.zero() {
				continue
			}
			if n := c.displayLen(); n > max {
				max = n
			}
		}
		widths[ci] = float64(max + 2)
	}
	return widths
}

func renderXLSX(t *ReportTable, path, runID string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "unable to name sheet")
	}
	for ci, col := range t.Columns {
		if err := setCell(f, ci, 0, col.Name); err != nil {
			return err
		}
	}
	for ri, r := range t.Rows {
		for ci, c := range r.Cells {
			var v interface{}
			switch c.Kind {
			case cellText:
				v = c.Text
			case cellInt:
				v = int64(c.Num)
			case cellNumber:
				v = c.Num
			case cellDate:
				v = c.Date
			default:
				continue
			}
			if err := setCell(f, ci, ri+1, v); err != nil {
				return err
			}
		}
	}

	sc := &styleCache{f: f, ids: make(map[cellStyle]int)}
	for ri, row := range layoutStyles(t) {
		for ci, k := range row {
			if k == (cellStyle{}) {
				continue
			}
			id, err := sc.id(k)
			if err != nil {
				return err
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return errors.WithStack(err)
			}
			if err := f.SetCellStyle(sheetName, cell, cell, id); err != nil {
				return errors.Wrapf(err, "unable to style cell %s", cell)
			}
		}
	}

	for ci, w := range columnWidths(t) {
		name, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := f.SetColWidth(sheetName, name, name, w); err != nil {
			return errors.Wrapf(err, "unable to set width of column %s", name)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return errors.Wrap(err, "unable to freeze header")
	}
	last, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return errors.WithStack(err)
	}
	if err := f.AutoFilter(sheetName, "A1:"+last+"1", nil); err != nil {
		return errors.Wrap(err, "unable to set auto filter")
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:     "asientos",
		Title:       "Resumen de asientos",
		Identifier:  runID,
		Description: "categories " + t.Version,
	}); err != nil {
		return errors.Wrap(err, "unable to set document properties")
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "unable to save workbook %s", path)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := f.SetCellValue(sheetName, cell, v); err != nil {
		return errors.Wrapf(err, "unable to write cell %s", cell)
	}
	return nil
}
