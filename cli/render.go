package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"

	"studentdb/record"
	"studentdb/storage"
	"studentdb/validator"
)

// Exit codes returned by Run.
const (
	ExitOK          = 0
	ExitFailure     = 1 // invalid input, duplicate id, unknown id, bad file
	ExitUsage       = 2
	ExitUnavailable = 3 // the database could not be used
)

// Listing writes one line per record, or a notice when there are none.
func Listing(w io.Writer, recs []record.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No students in the database.")
		return
	}
	for _, r := range recs {
		fmt.Fprintln(w, r.String())
	}
}

// Average writes the average grade line.
func Average(w io.Writer, avg float64) {
	fmt.Fprintf(w, "Average grade: %s\n", record.FormatGrade(avg))
}

var fieldLabels = map[string]string{
	"id":    "ID",
	"name":  "Name",
	"age":   "Age",
	"grade": "Grade",
}

// Describe turns an error from the validator or the store into the message
// shown to the user and the matching exit code. id is the student the
// failed operation was about.
func Describe(err error, id string) (string, int) {
	var fe *validator.FieldError
	switch {
	case errors.Is(err, storage.ErrStorageUnavailable):
		return "Error: database unavailable: " + err.Error(), ExitUnavailable
	case errors.Is(err, storage.ErrDuplicateID):
		return fmt.Sprintf("Student with ID: %s already exists!", id), ExitFailure
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Sprintf("No student found with ID: %s", id), ExitFailure
	case errors.As(err, &fe):
		var lines []string
		for _, e := range multierr.Errors(err) {
			if errors.As(e, &fe) {
				lines = append(lines, fieldMessage(fe))
			}
		}
		return strings.Join(lines, "\n"), ExitFailure
	default:
		return "Error: " + err.Error(), ExitFailure
	}
}

func fieldMessage(fe *validator.FieldError) string {
	label, ok := fieldLabels[fe.Field]
	if !ok {
		label = fe.Field
	}
	return fmt.Sprintf("Error: %s %s!", label, fe.Reason)
}
