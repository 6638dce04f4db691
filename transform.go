package main

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// transformOptions carries everything a run depends on; the engine reads no
// flags or globals.
type transformOptions struct {
	Spec        *CategorySpec
	DateLayouts []string
	Comma       rune
	RunID       string
}

// runResult is what a successful transform hands back to the caller.
type runResult struct {
	RunID   string
	Output  string
	Items   []LineItem
	Entries []Entry
	Table   *ReportTable
	Read    int
	Dropped int
	Split   bool
}

// transform reads the ledger export at inputPath and writes the entry
// summary to outputPath. On error no output file is created or replaced.
func transform(inputPath, outputPath string, opts transformOptions) (*runResult, error) {
	if opts.Spec == nil {
		return nil, errors.New("no category spec given")
	}
	if err := checkOutputPath(outputPath); err != nil {
		return nil, err
	}
	if sameFile(inputPath, outputPath) {
		return nil, errors.Errorf("output %s would overwrite the input", outputPath)
	}
	comma := opts.Comma
	if comma == 0 {
		comma = ','
	}

	raw, err := readTable(inputPath, comma)
	if err != nil {
		return nil, err
	}
	l, err := loadLedger(raw, opts.DateLayouts)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed input %s", inputPath)
	}

	entries := aggregate(l.items, opts.Spec)
	table := assemble(entries, opts.Spec, l.split)
	if err := writeReport(table, outputPath, opts.RunID); err != nil {
		return nil, err
	}
	return &runResult{
		RunID:   opts.RunID,
		Output:  outputPath,
		Items:   l.items,
		Entries: entries,
		Table:   table,
		Read:    l.read,
		Dropped: l.dropped,
		Split:   l.split,
	}, nil
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
