package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Category is one output column of the report. A line item contributes to
// the category when any keyword is a substring of its lowercased description
// or counterparty.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	// DebitOnly categories sum only the debit side of matching items.
	DebitOnly bool `yaml:"debit_only,omitempty"`
}

// Highlight lists the concept keywords that flag a row as a cash deposit or
// a transfer for the renderer.
type Highlight struct {
	Deposit  []string `yaml:"deposit"`
	Transfer []string `yaml:"transfer"`
}

// CategorySpec is the ordered set of categories used for one run. Order
// decides the report column order, never the match result.
type CategorySpec struct {
	Version    string     `yaml:"version"`
	Categories []Category `yaml:"categories"`
	Highlight  Highlight  `yaml:"highlight"`
}

const defaultSpecVersion = "rm-2025"

var defaultHighlight = Highlight{
	Deposit:  []string{"deposito en efectivo"},
	Transfer: []string{"traspaso"},
}

// builtinSpecs holds the category sets shipped with the binary. The two
// versions differ only in the "Comision" keywords.
var builtinSpecs = map[string]CategorySpec{
	"rm-2025": {
		Version: "rm-2025",
		Categories: []Category{
			{Name: "Facta", Keywords: []string{"facta"}},
			{Name: "Master", Keywords: []string{"max"}},
			{Name: "Almacen", Keywords: []string{"alm", "almacen"}},
			{Name: "Comision", Keywords: []string{"comision", "b/2025"}},
			{Name: "Submarcell", Keywords: []string{"submr"}},
			{Name: "Linea 9", Keywords: []string{"linea 9", "línea 9"}},
			{Name: "Caja de cobro", Keywords: []string{"caja de cobro"}},
			{Name: "Traspaso", Keywords: []string{"traspaso"}, DebitOnly: true},
			{Name: "SAT", Keywords: []string{"sat", "servicio de administracion", "servicios de administracion"}},
		},
		Highlight: defaultHighlight,
	},
	"rm-legacy": {
		Version: "rm-legacy",
		Categories: []Category{
			{Name: "Facta", Keywords: []string{"facta"}},
			{Name: "Master", Keywords: []string{"max"}},
			{Name: "Almacen", Keywords: []string{"alm", "almacen"}},
			{Name: "Comision", Keywords: []string{"comision"}},
			{Name: "Submarcell", Keywords: []string{"submr"}},
			{Name: "Linea 9", Keywords: []string{"linea 9", "línea 9"}},
			{Name: "Caja de cobro", Keywords: []string{"caja de cobro"}},
			{Name: "Traspaso", Keywords: []string{"traspaso"}, DebitOnly: true},
			{Name: "SAT", Keywords: []string{"sat", "servicio de administracion", "servicios de administracion"}},
		},
		Highlight: defaultHighlight,
	},
}

// builtinSpec returns a private copy of the named built-in spec.
func builtinSpec(version string) (*CategorySpec, error) {
	s, has := builtinSpecs[version]
	if !has {
		names := make([]string, 0, len(builtinSpecs))
		for name := range builtinSpecs {
			names = append(names, name)
		}
		return nil, errors.Errorf("unknown category version %q (known: %s)",
			version, strings.Join(sortedStrings(names), ", "))
	}
	c := s.clone()
	return &c, nil
}

// loadCategorySpec reads a spec from a YAML file in this format:
//
//	version: rm-2025
//	categories:
//	  - name: Facta
//	    keywords: [facta]
//	  - name: Traspaso
//	    keywords: [traspaso]
//	    debit_only: true
//	highlight:
//	  deposit: [deposito en efectivo]
//	  transfer: [traspaso]
func loadCategorySpec(path string) (*CategorySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read categories file %s", path)
	}
	var s CategorySpec
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, errors.Wrapf(err, "unable to parse categories file %s", path)
	}
	if len(s.Highlight.Deposit) == 0 && len(s.Highlight.Transfer) == 0 {
		s.Highlight = defaultHighlight
	}
	if err := s.normalize(); err != nil {
		return nil, errors.Wrapf(err, "invalid categories file %s", path)
	}
	return &s, nil
}

// Persist writes the categories as YAML, so they can be edited and passed back with
// -categories.
func (s *CategorySpec) Persist(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal categories")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "while writing categories to file %s", path)
	}
	return nil
}

// normalize lowercases keywords and rejects specs that cannot produce a
// well-formed report.
func (s *CategorySpec) normalize() error {
	if len(s.Categories) == 0 {
		return errors.New("no categories defined")
	}
	seen := make(map[string]bool)
	for _, name := range fixedColumns {
		seen[name] = true
	}
	for i := range s.Categories {
		c := &s.Categories[i]
		c.Name = strings.TrimSpace(c.Name)
		if len(c.Name) == 0 {
			return errors.Errorf("category %d has no name", i+1)
		}
		if seen[c.Name] {
			return errors.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = true

		kws := c.Keywords[:0]
		for _, kw := range c.Keywords {
			kw = strings.ToLower(kw)
			if len(strings.TrimSpace(kw)) == 0 {
				continue
			}
			kws = append(kws, kw)
		}
		if len(kws) == 0 {
			return errors.Errorf("category %q has no keywords", c.Name)
		}
		c.Keywords = kws
	}
	s.Highlight.Deposit = lowerAll(s.Highlight.Deposit)
	s.Highlight.Transfer = lowerAll(s.Highlight.Transfer)
	return nil
}

func (s CategorySpec) clone() CategorySpec {
	c := CategorySpec{Version: s.Version}
	for _, cat := range s.Categories {
		cat.Keywords = append([]string(nil), cat.Keywords...)
		c.Categories = append(c.Categories, cat)
	}
	c.Highlight.Deposit = append([]string(nil), s.Highlight.Deposit...)
	c.Highlight.Transfer = append([]string(nil), s.Highlight.Transfer...)
	return c
}

// Names returns the category names in declaration order.
func (s *CategorySpec) Names() []string {
	names := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		names[i] = c.Name
	}
	return names
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(s); len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}
