// Package importer bulk-loads student records from files into a Store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"studentdb/storage"
)

var (
	// ErrMalformed marks a file whose structure cannot be read at all.
	ErrMalformed = errors.New("malformed import file")

	// ErrUnsupportedFormat is returned for file extensions Load does not know.
	ErrUnsupportedFormat = errors.New("unsupported import format")
)

// Failure is a row that was not imported.
type Failure struct {
	Line int
	ID   string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("line %d: %v", f.Line, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarises one import run.
type Report struct {
	Added      int
	Duplicates []Failure
	Invalid    []Failure
}

// Err combines every failed row into a single error, nil if all rows made it.
func (r Report) Err() error {
	var err error
	for _, f := range r.Invalid {
		err = multierr.Append(err, f)
	}
	for _, f := range r.Duplicates {
		err = multierr.Append(err, f)
	}
	return err
}

// Importer validates rows concurrently and inserts the valid ones.
type Importer struct {
	store   storage.Store
	workers int
	log     *zap.Logger
}

// New returns an Importer that inserts into store using workers validation
// goroutines.
func New(store storage.Store, workers int, log *zap.Logger) *Importer {
	return &Importer{store: store, workers: workers, log: log}
}

// Load reads rows from path, picking the reader from the file extension:
// .csv/.txt line files, .json and .yaml/.yml documents.
func Load(path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadLines(path)
	case ".json":
		return LoadJSON(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ImportFile loads path and imports its rows.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	rows, err := Load(path)
	if err != nil {
		return Report{}, err
	}
	im.log.Info("import file loaded", zap.String("path", path), zap.Int("rows", len(rows)))
	return im.Import(ctx, rows)
}

// Import validates rows and adds every valid one to the store, in row order.
// Invalid rows and duplicate ids are collected in the Report; a storage
// failure stops the run and is returned along with what was done so far.
func (im *Importer) Import(ctx context.Context, rows []Row) (Report, error) {
	var rep Report

	results, err := ValidateRows(ctx, rows, im.workers, im.log)
	if err != nil {
		return rep, fmt.Errorf("validate rows: %w", err)
	}

	for _, res := range results {
		if res.Err != nil {
			im.log.Warn("row rejected", zap.Int("line", res.Row.Line), zap.Error(res.Err))
			rep.Invalid = append(rep.Invalid, Failure{Line: res.Row.Line, ID: res.Row.ID, Err: res.Err})
			continue
		}
		if err := im.store.Add(ctx, res.Record); err != nil {
			if errors.Is(err, storage.ErrDuplicateID) {
				im.log.Warn("row skipped", zap.Int("line", res.Row.Line), zap.String("id", res.Record.ID))
				rep.Duplicates = append(rep.Duplicates, Failure{Line: res.Row.Line, ID: res.Record.ID, Err: err})
				continue
			}
			return rep, fmt.Errorf("import line %d: %w", res.Row.Line, err)
		}
		rep.Added++
	}
	im.log.Info("import finished",
		zap.Int("added", rep.Added),
		zap.Int("duplicates", len(rep.Duplicates)),
		zap.Int("invalid", len(rep.Invalid)))
	return rep, nil
}
