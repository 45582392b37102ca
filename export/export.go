// Package export writes snapshots of the student table to files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"studentdb/record"
)

// ErrUnsupportedFormat is returned for file extensions Write does not know.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// SheetName is the worksheet that holds the records in xlsx exports.
const SheetName = "Students"

// Write stores recs at path in the format given by its extension:
// .json, .yaml/.yml or .xlsx. avg is only written to xlsx files, as a
// trailing summary row; json and yaml exports stay importable.
func Write(path string, recs []record.Record, avg float64) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return writeJSON(path, recs)
	case ".yaml", ".yml":
		return writeYAML(path, recs)
	case ".xlsx":
		return writeXLSX(path, recs, avg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func writeJSON(path string, recs []record.Record) error {
	if recs == nil {
		recs = []record.Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeYAML(path string, recs []record.Record) error {
	if recs == nil {
		recs = []record.Record{}
	}
	data, err := yaml.Marshal(recs)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeXLSX(path string, recs []record.Record, avg float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"ID", "Name", "Age", "Grade"}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.ID, r.Name, r.Age, r.Grade}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, len(recs)+2)
	if err != nil {
		return err
	}
	summary := []any{"Average", "", "", avg}
	if err := f.SetSheetRow(SheetName, cell, &summary); err != nil {
		return fmt.Errorf("write average: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
