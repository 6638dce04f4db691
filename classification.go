package main

import (
	"fmt"
	"strings"

	"github.com/jbrukh/bayesian"
)

// matchesCategory reports whether any keyword of category i is contained in
// the item's lowercased description or counterparty.
func (s *CategorySpec) matchesCategory(it LineItem, i int) bool {
	for _, kw := range s.Categories[i].Keywords {
		if strings.Contains(it.desc, kw) || strings.Contains(it.partner, kw) {
			return true
		}
	}
	return false
}

// matches returns every category the item belongs to, in declaration order.
// An item may land in several categories at once.
func (s *CategorySpec) matches(it LineItem) []string {
	var names []string
	for i, c := range s.Categories {
		if s.matchesCategory(it, i) {
			names = append(names, c.Name)
		}
	}
	return names
}

// matchMask is matches as a bool per category, which is what the aggregator
// consumes.
func (s *CategorySpec) matchMask(it LineItem) []bool {
	mask := make([]bool, len(s.Categories))
	for i := range s.Categories {
		mask[i] = s.matchesCategory(it, i)
	}
	return mask
}

// prepareTerms splits description and counterparty into lowercase terms for
// Bayesian learning.
func prepareTerms(it LineItem) []string {
	text := it.desc + " " + it.partner
	text = strings.NewReplacer("*", " ", "/", " ", ",", " ", ".", " ").Replace(text)
	return strings.Fields(text)
}

// Hint is an advisory category for a line item that matched no keyword.
type Hint struct {
	Row         int
	EntryID     string
	Description string
	Category    string
	Source      string // "bayes" or "ai"
	Reasoning   string
}

type hinter struct {
	classes []bayesian.Class
	cl      *bayesian.Classifier
}

// learnedTerms collects the terms of every keyword-matched item under each
// category it matched.
func learnedTerms(items []LineItem, spec *CategorySpec) map[string][][]string {
	learned := make(map[string][][]string)
	for _, it := range items {
		terms := prepareTerms(it)
		if len(terms) == 0 {
			continue
		}
		for _, name := range spec.matches(it) {
			learned[name] = append(learned[name], terms)
		}
	}
	return learned
}

// newHinter trains a classifier on the given examples, keeping only
// categories of the current spec. It returns nil when fewer than two
// categories have examples, since the classifier cannot rank a single class.
func newHinter(learned map[string][][]string, spec *CategorySpec) *hinter {
	h := &hinter{}
	// Declaration order keeps class indexes stable between runs.
	for _, name := range spec.Names() {
		if len(learned[name]) > 0 {
			h.classes = append(h.classes, bayesian.Class(name))
		}
	}
	if len(h.classes) < 2 {
		return nil
	}
	h.cl = bayesian.NewClassifier(h.classes...)
	for _, class := range h.classes {
		for _, terms := range learned[string(class)] {
			h.cl.Learn(terms, class)
		}
	}
	return h
}

func (h *hinter) suggest(it LineItem) (string, bool) {
	terms := prepareTerms(it)
	if len(terms) == 0 {
		return "", false
	}
	_, inx, strict := h.cl.LogScores(terms)
	if !strict {
		return "", false
	}
	return string(h.classes[inx]), true
}

// bayesHints suggests a category for every item that no keyword matched,
// using a classifier trained on learned. Pass learnedTerms(items, spec) to
// learn from the current run only.
func bayesHints(items []LineItem, spec *CategorySpec, learned map[string][][]string) []Hint {
	h := newHinter(learned, spec)
	if h == nil {
		return nil
	}
	var hints []Hint
	for _, it := range items {
		if len(spec.matches(it)) > 0 {
			continue
		}
		if cat, ok := h.suggest(it); ok {
			hints = append(hints, Hint{
				Row:         it.Row,
				EntryID:     it.entryLabel(),
				Description: it.Description,
				Category:    cat,
				Source:      "bayes",
			})
		}
	}
	return hints
}

// unclassified returns the items no category claims.
func unclassified(items []LineItem, spec *CategorySpec) []LineItem {
	var out []LineItem
	for _, it := range items {
		if len(spec.matches(it)) == 0 {
			out = append(out, it)
		}
	}
	return out
}

func (h Hint) String() string {
	return fmt.Sprintf("row %d [%s] %q -> %s", h.Row, h.EntryID, h.Description, h.Category)
}
