package main

import "time"

// Entry is the aggregate of one accounting entry: one report row.
type Entry struct {
	EntryID   *string
	Day       *time.Time
	Concept   string
	Reference string
	Items     int

	DebitTotal  float64 // "cargo", only reported for split exports.
	CreditTotal float64 // "Abono": sum of Importe over the entry.
	// Categories is indexed like CategorySpec.Categories.
	Categories []float64
	Residual   float64 // "Redond"
	Balance    float64 // "Saldo", zero by construction.
}

type groupKey struct {
	id   string
	null bool
}

func keyOf(it LineItem) groupKey {
	if it.EntryID == nil {
		return groupKey{null: true}
	}
	return groupKey{id: *it.EntryID}
}

// aggregate groups items by entry id in first-seen order. Items without an
// entry id form one group of their own.
func aggregate(items []LineItem, spec *CategorySpec) []Entry {
	index := make(map[groupKey]int)
	var groups [][]LineItem
	for _, it := range items {
		k := keyOf(it)
		gi, has := index[k]
		if !has {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], it)
	}

	entries := make([]Entry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, aggregateEntry(g, spec))
	}
	return entries
}

func aggregateEntry(g []LineItem, spec *CategorySpec) Entry {
	first := g[0]
	e := Entry{
		EntryID:    first.EntryID,
		Day:        first.Date,
		Concept:    first.Description,
		Reference:  first.Reference,
		Items:      len(g),
		Categories: make([]float64, len(spec.Categories)),
	}

	masks := make([][]bool, len(g))
	for i, it := range g {
		e.CreditTotal += it.Amount
		e.DebitTotal += it.Debit
		masks[i] = spec.matchMask(it)
	}

	for ci, c := range spec.Categories {
		// Debit and credit are summed separately and then added, matching how
		// the report has always been computed.
		var debit, credit float64
		for i, it := range g {
			if !masks[i][ci] {
				continue
			}
			debit += it.Debit
			credit += it.Credit
		}
		if c.DebitOnly {
			e.Categories[ci] = debit
		} else {
			e.Categories[ci] = debit + credit
		}
	}

	var classified float64
	for _, v := range e.Categories {
		classified += v
	}
	e.Residual = e.CreditTotal - classified
	// Same operands as Residual, so this is exactly zero. It stays a computed
	// audit column.
	e.Balance = e.CreditTotal - classified - e.Residual
	return e
}
