package main

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestTermStore(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	path := filepath.Join(t.TempDir(), "hints.db")

	store, err := openTermStore(path)
	if err != nil {
		t.Fatalf("openTermStore: %v", err)
	}
	items := []LineItem{
		testItem("A", 10, "facta norte", ""),
		testItem("A", 11, "facta norte", ""),
		testItem("B", 12, "pago max", "almacen"),
		testItem("C", 13, "sin categoria", ""),
	}
	added, err := store.record(items, spec)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// "facta norte" once, "pago max almacen" under Master and Almacen.
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	if err := store.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A second run over the same file sees what the first one stored.
	store, err = openTermStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.close()
	if added, err := store.record(items[:1], spec); err != nil || added != 0 {
		t.Errorf("record again: added %d, %v; want 0, nil", added, err)
	}
	got, err := store.examples()
	if err != nil {
		t.Fatalf("examples: %v", err)
	}
	want := map[string][][]string{
		"Facta":   {{"facta", "norte"}, {"facta", "norte"}, {"facta", "norte"}},
		"Master":  {{"pago", "max", "almacen"}},
		"Almacen": {{"pago", "max", "almacen"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("examples = %v, want %v", got, want)
	}
}

func TestHintsLearnAcrossRuns(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	path := filepath.Join(t.TempDir(), "hints.db")

	first := []LineItem{
		testItem("A", 10, "facta pago proveedor norte", ""),
		testItem("B", 12, "alm bodega sur", ""),
	}
	if _, err := learnFrom(path, first, spec); err != nil {
		t.Fatalf("learnFrom: %v", err)
	}

	second := []LineItem{
		testItem("C", 5, "alm bodega sur", ""),
		testItem("D", 7, "pago proveedor norte", ""),
	}
	second[1].Row = 3
	if hints := bayesHints(second, spec, learnedTerms(second, spec)); hints != nil {
		t.Fatalf("a single run with one category gave hints: %v", hints)
	}

	learned, err := learnFrom(path, second, spec)
	if err != nil {
		t.Fatalf("learnFrom: %v", err)
	}
	hints := bayesHints(second, spec, learned)
	if len(hints) != 1 || hints[0].Row != 3 || hints[0].Category != "Facta" {
		t.Errorf("hints = %v, want row 3 -> Facta", hints)
	}
}
