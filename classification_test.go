package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func mustSpec(t *testing.T, version string) *CategorySpec {
	t.Helper()
	s, err := builtinSpec(version)
	if err != nil {
		t.Fatalf("builtinSpec(%q): %v", version, err)
	}
	return s
}

func TestMatches(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	cases := []struct {
		desc, partner string
		want          []string
	}{
		{"Pago MAX", "Almacen Central", []string{"Master", "Almacen"}},
		{"FACTA 0012", "", []string{"Facta"}},
		{"", "Servicio de Administracion Tributaria", []string{"SAT"}},
		{"Traspaso entre cuentas", "", []string{"Traspaso"}},
		{"Línea 9 recarga", "", []string{"Linea 9"}},
		{"pago proveedor", "acme", nil},
	}
	for _, tc := range cases {
		it := testItem("A", 1, tc.desc, tc.partner)
		if got := spec.matches(it); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("matches(%q, %q) = %v, want %v", tc.desc, tc.partner, got, tc.want)
		}
	}
}

func TestBuiltinVersions(t *testing.T) {
	it := testItem("A", 1, "Cobro B/2025-114", "")
	if got := mustSpec(t, "rm-2025").matches(it); !reflect.DeepEqual(got, []string{"Comision"}) {
		t.Errorf("rm-2025 matches = %v, want [Comision]", got)
	}
	if got := mustSpec(t, "rm-legacy").matches(it); got != nil {
		t.Errorf("rm-legacy matches = %v, want none", got)
	}
	if _, err := builtinSpec("rm-1999"); err == nil {
		t.Error("expected an error for an unknown version")
	}
}

func TestBuiltinSpecIsACopy(t *testing.T) {
	a := mustSpec(t, defaultSpecVersion)
	a.Categories[0].Keywords[0] = "changed"
	b := mustSpec(t, defaultSpecVersion)
	if b.Categories[0].Keywords[0] != "facta" {
		t.Errorf("built-in spec was modified through a copy: %v", b.Categories[0].Keywords)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoadCategorySpec(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		p := writeFile(t, dir, "ok.yaml", `
version: custom-1
categories:
  - name: Renta
    keywords: [RENTA, Arrendamiento]
  - name: Traspaso
    keywords: [traspaso]
    debit_only: true
`)
		s, err := loadCategorySpec(p)
		if err != nil {
			t.Fatalf("loadCategorySpec: %v", err)
		}
		if s.Version != "custom-1" {
			t.Errorf("version = %q", s.Version)
		}
		if got, want := s.Categories[0].Keywords, []string{"renta", "arrendamiento"}; !reflect.DeepEqual(got, want) {
			t.Errorf("keywords = %v, want %v", got, want)
		}
		if !s.Categories[1].DebitOnly {
			t.Error("debit_only not loaded")
		}
		if !reflect.DeepEqual(s.Highlight, defaultHighlight) {
			t.Errorf("highlight = %+v, want the default", s.Highlight)
		}
	})

	invalid := []struct {
		name, content, want string
	}{
		{"duplicate", "version: x\ncategories:\n  - {name: A, keywords: [a]}\n  - {name: A, keywords: [b]}\n", "duplicate"},
		{"fixed", "version: x\ncategories:\n  - {name: Abono, keywords: [a]}\n", "duplicate"},
		{"nokeywords", "version: x\ncategories:\n  - {name: A, keywords: [\" \"]}\n", "no keywords"},
		{"empty", "version: x\n", "no categories"},
		{"unknownfield", "version: x\ncategories:\n  - {name: A, keyword: [a]}\n", "unable to parse"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			p := writeFile(t, dir, tc.name+".yaml", tc.content)
			_, err := loadCategorySpec(p)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got error %v, want one containing %q", err, tc.want)
			}
		})
	}
}

func TestPersistRoundTrip(t *testing.T) {
	spec := mustSpec(t, "rm-legacy")
	p := filepath.Join(t.TempDir(), "categories.yaml")
	if err := spec.Persist(p); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got, err := loadCategorySpec(p)
	if err != nil {
		t.Fatalf("loadCategorySpec: %v", err)
	}
	if !reflect.DeepEqual(got, spec) {
		t.Errorf("round trip changed the categories:\n got %+v\nwant %+v", got, spec)
	}
}

func TestBayesHints(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	items := []LineItem{
		testItem("A", 10, "facta pago proveedor norte", ""),
		testItem("A", 11, "facta pago proveedor norte", ""),
		testItem("B", 12, "alm bodega sur", ""),
		testItem("B", 13, "alm bodega sur", ""),
		testItem("C", 14, "pago proveedor norte", ""),
	}
	items[4].Row = 6

	hints := bayesHints(items, spec, learnedTerms(items, spec))
	if len(hints) != 1 {
		t.Fatalf("got %d hints, want 1: %v", len(hints), hints)
	}
	h := hints[0]
	if h.Category != "Facta" || h.Row != 6 || h.Source != "bayes" || h.EntryID != "C" {
		t.Errorf("hint = %+v", h)
	}

	if got := unclassified(items, spec); len(got) != 1 || got[0].Row != 6 {
		t.Errorf("unclassified = %v", got)
	}
}

func TestBayesHintsNeedTwoClasses(t *testing.T) {
	spec := mustSpec(t, defaultSpecVersion)
	items := []LineItem{
		testItem("A", 10, "facta uno", ""),
		testItem("B", 3, "otro concepto", ""),
	}
	if hints := bayesHints(items, spec, learnedTerms(items, spec)); hints != nil {
		t.Errorf("hints = %v, want none with a single learned class", hints)
	}
}
