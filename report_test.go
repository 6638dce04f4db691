package main

import (
	"reflect"
	"testing"
	"time"
)

func columnNames(t *ReportTable) []string {
	var names []string
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

func TestReportColumns(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	cats := spec.Names()

	want := append([]string{"#", "Día", "Concepto / Referencia", "Abono", "Referencia"}, cats...)
	want = append(want, "Redond", "Saldo")
	if got := columnNames(assemble(nil, spec, false)); !reflect.DeepEqual(got, want) {
		t.Errorf("unsplit columns:\n got %v\nwant %v", got, want)
	}

	want = append([]string{"#", "Día", "Concepto / Referencia", "cargo", "Abono", "Referencia"}, cats...)
	want = append(want, "Redond", "Saldo")
	if got := columnNames(assemble(nil, spec, true)); !reflect.DeepEqual(got, want) {
		t.Errorf("split columns:\n got %v\nwant %v", got, want)
	}
}

func TestAssembleTotals(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	entries := aggregate([]LineItem{
		withDate(testItem("E1", 100, "facta", ""), day),
		withDate(testItem("E2", 50, "otro", ""), day),
	}, spec)
	table := assemble(entries, spec, false)

	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}
	total := table.TotalRow()
	if !total.Total {
		t.Error("last row is not flagged as total")
	}
	cell := func(r Row, name string) Cell {
		return r.Cells[table.ColumnIndex(name)]
	}
	if got := cell(total, headCredit).Num; got != 150 {
		t.Errorf("total Abono = %v, want 150", got)
	}
	if got := cell(total, headConcept).Text; got != totalLabel {
		t.Errorf("total label = %q, want %q", got, totalLabel)
	}
	if got := cell(total, headSeq); got.Kind != cellInt || got.Num != 3 {
		t.Errorf("total # = %+v, want int 3", got)
	}
	if got := cell(total, "Facta").Num; got != 100 {
		t.Errorf("total Facta = %v, want 100", got)
	}
	if got := cell(total, headResidual).Num; got != 50 {
		t.Errorf("total Redond = %v, want 50", got)
	}
	for _, name := range []string{headDay, headReference} {
		if got := cell(total, name); got.Kind != cellEmpty {
			t.Errorf("total %s = %+v, want empty", name, got)
		}
	}

	first := table.Entries()[0]
	if got := cell(first, headDay); got.Kind != cellDate || !got.Date.Equal(day) {
		t.Errorf("first Día = %+v, want %v", got, day)
	}
	if got := cell(first, headSeq).Num; got != 1 {
		t.Errorf("first # = %v, want 1", got)
	}
	if first.ResidualSign != 0 || table.Entries()[1].ResidualSign != 1 {
		t.Errorf("residual signs = %d, %d; want 0, 1", first.ResidualSign, table.Entries()[1].ResidualSign)
	}
}

func TestAssembleEmpty(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	table := assemble(nil, spec, true)
	if len(table.Rows) != 1 || len(table.Entries()) != 0 {
		t.Fatalf("got %d rows, want only the total row", len(table.Rows))
	}
	for ci, col := range table.Columns {
		c := table.TotalRow().Cells[ci]
		if col.numeric() && (c.Num != 0 || c.Kind == cellEmpty) {
			t.Errorf("column %s = %+v, want a zero number", col.Name, c)
		}
	}
}

func TestRowFlags(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	entries := aggregate([]LineItem{
		testItem("E1", 10, "Deposito en efectivo sucursal", ""),
		testItem("E2", 10, "Traspaso a cuenta", ""),
		testItem("E3", 10, "Traspaso y deposito en efectivo", ""),
		testItem("E4", 10, "Facta", ""),
	}, spec)
	rows := assemble(entries, spec, false).Entries()

	want := []struct{ deposit, transfer bool }{
		{true, false},
		{false, true},
		{true, false},
		{false, false},
	}
	for i, w := range want {
		if rows[i].Deposit != w.deposit || rows[i].Transfer != w.transfer {
			t.Errorf("row %d flags = %v/%v, want %v/%v", i+1, rows[i].Deposit, rows[i].Transfer, w.deposit, w.transfer)
		}
	}
	if rows[0].ResidualSign != 1 || rows[1].ResidualSign != 0 {
		t.Errorf("residual signs = %d, %d; want 1, 0", rows[0].ResidualSign, rows[1].ResidualSign)
	}
}
