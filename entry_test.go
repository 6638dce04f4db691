package main

import (
	"math"
	"math/rand"
	"testing"
)

func TestAggregateScenario(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	items := []LineItem{
		testItem("E1", 10, "facta 1", ""),
		testItem("E1", 5, "facta 2", ""),
		testItem("E1", 2, "alm stock", ""),
	}
	entries := aggregate(items, spec)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.CreditTotal != 17 {
		t.Errorf("credit total = %v, want 17", e.CreditTotal)
	}
	if got := e.Categories[0]; got != 15 {
		t.Errorf("Facta = %v, want 15", got)
	}
	if got := e.Categories[2]; got != 2 {
		t.Errorf("Almacen = %v, want 2", got)
	}
	if e.Residual != 0 || e.Balance != 0 {
		t.Errorf("residual/balance = %v/%v, want 0/0", e.Residual, e.Balance)
	}
	if e.Concept != "facta 1" || e.Items != 3 {
		t.Errorf("concept/items = %q/%d", e.Concept, e.Items)
	}
}

func TestAggregateReconciles(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	words := []string{"facta", "max", "alm", "comision", "submr", "traspaso", "sat", "otro", "caja de cobro", ""}
	ids := []string{"E1", "E2", "E3", "E4", ""}
	r := rand.New(rand.NewSource(42))

	var items []LineItem
	for i := 0; i < 500; i++ {
		desc := words[r.Intn(len(words))] + " " + words[r.Intn(len(words))]
		it := testItem(ids[r.Intn(len(ids))], float64(r.Intn(100000))/100, desc, words[r.Intn(len(words))])
		if r.Intn(2) == 0 {
			it.Credit = float64(r.Intn(1000)) / 100
		}
		items = append(items, it)
	}

	for _, e := range aggregate(items, spec) {
		var sum float64
		for _, v := range e.Categories {
			sum += v
		}
		if d := math.Abs(sum + e.Residual - e.CreditTotal); d > 1e-9*math.Max(1, math.Abs(e.CreditTotal)) {
			t.Errorf("entry %v: categories %v + residual %v != credit %v", e.EntryID, sum, e.Residual, e.CreditTotal)
		}
		if e.Balance != 0 {
			t.Errorf("entry %v: balance = %v, want exactly 0", e.EntryID, e.Balance)
		}
	}
}

func TestAggregateUnclassified(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	entries := aggregate([]LineItem{
		testItem("E1", 7.5, "pago proveedor", "acme"),
		testItem("E1", 2.5, "otro", ""),
	}, spec)
	e := entries[0]
	if e.Residual != e.CreditTotal || e.CreditTotal != 10 {
		t.Errorf("residual = %v, credit = %v; want both 10", e.Residual, e.CreditTotal)
	}
	for i, v := range e.Categories {
		if v != 0 {
			t.Errorf("category %s = %v, want 0", spec.Categories[i].Name, v)
		}
	}
}

func TestAggregateDebitOnly(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	it := testItem("E1", 100, "traspaso comision", "")
	it.Debit, it.Credit = 60, 40
	e := aggregate([]LineItem{it}, spec)[0]

	traspaso := -1
	comision := -1
	for i, c := range spec.Categories {
		switch c.Name {
		case "Traspaso":
			traspaso = i
		case "Comision":
			comision = i
		}
	}
	if got := e.Categories[traspaso]; got != 60 {
		t.Errorf("Traspaso = %v, want debit only 60", got)
	}
	if got := e.Categories[comision]; got != 100 {
		t.Errorf("Comision = %v, want debit + credit 100", got)
	}
	if e.DebitTotal != 60 {
		t.Errorf("debit total = %v, want 60", e.DebitTotal)
	}
	if e.Residual != -60 {
		t.Errorf("residual = %v, want -60", e.Residual)
	}
}

func TestAggregateOrderAndNullGroup(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	items := []LineItem{
		testItem("", 1, "sin asiento", ""),
		testItem("E2", 2, "segundo", ""),
		testItem("E1", 3, "primero", ""),
		testItem("E2", 4, "segundo bis", ""),
		testItem("", 5, "sin asiento bis", ""),
	}
	entries := aggregate(items, spec)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].EntryID != nil || entries[0].CreditTotal != 6 {
		t.Errorf("null group = %v with credit %v, want nil with 6", entries[0].EntryID, entries[0].CreditTotal)
	}
	if got := *entries[1].EntryID; got != "E2" {
		t.Errorf("second entry = %q, want E2", got)
	}
	if entries[1].Concept != "segundo" || entries[1].CreditTotal != 6 {
		t.Errorf("E2 = %q/%v, want segundo/6", entries[1].Concept, entries[1].CreditTotal)
	}
	if got := *entries[2].EntryID; got != "E1" {
		t.Errorf("third entry = %q, want E1", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := aggregate(nil, mustSpec(t, defaultSpecVersion)); len(got) != 0 {
		t.Errorf("got %d entries from no items", len(got))
	}
}
