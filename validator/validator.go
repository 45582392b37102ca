// Package validator checks raw user input before it becomes a record.
// Every function is pure and total: it accepts any string and returns
// either the parsed value or a *FieldError.
package validator

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/multierr"

	"studentdb/record"
)

const (
	MinAge = 18
	MaxAge = 100

	// gradeTolerance absorbs floating point noise when matching grades.
	gradeTolerance = 1e-6
)

// AllowedGrades lists every grade a record may carry.
var AllowedGrades = []float64{2.0, 3.0, 3.5, 4.0, 4.5, 5.0}

var (
	ErrInvalidID    = errors.New("invalid id")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidAge   = errors.New("invalid age")
	ErrInvalidGrade = errors.New("invalid grade")
)

// FieldError describes why one field was rejected. It unwraps to one of the
// ErrInvalid* sentinels.
type FieldError struct {
	Field  string // "id", "name", "age" or "grade"
	Input  string // raw input as received
	Reason string // e.g. "must be digits only"
	kind   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Field, e.Input, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.kind }

func fieldError(kind error, field, input, reason string) *FieldError {
	return &FieldError{Field: field, Input: input, Reason: reason, kind: kind}
}

// ValidateID accepts a non-empty string of decimal digits.
func ValidateID(s string) (string, error) {
	if s == "" || !allBytes(s, isDigit) {
		return "", fieldError(ErrInvalidID, "id", s, "must be digits only")
	}
	return s, nil
}

// ValidateName accepts a non-empty string of ASCII letters.
func ValidateName(s string) (string, error) {
	if s == "" || !allBytes(s, isLetter) {
		return "", fieldError(ErrInvalidName, "name", s, "must be letters only")
	}
	return s, nil
}

// ValidateAge parses a base-10 integer and checks it lies in [MinAge, MaxAge].
func ValidateAge(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fieldError(ErrInvalidAge, "age", s, "must be an integer")
	}
	if n < MinAge || n > MaxAge {
		return 0, fieldError(ErrInvalidAge, "age", s,
			fmt.Sprintf("must be in [%d..%d]", MinAge, MaxAge))
	}
	return n, nil
}

// ValidateGrade parses a number and checks it matches one of AllowedGrades.
// The returned value is the canonical allowed grade, not the raw parse.
func ValidateGrade(s string) (float64, error) {
	g, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fieldError(ErrInvalidGrade, "grade", s, "must be a number (e.g. 3.5)")
	}
	for _, allowed := range AllowedGrades {
		if math.Abs(allowed-g) < gradeTolerance {
			return allowed, nil
		}
	}
	return 0, fieldError(ErrInvalidGrade, "grade", s, "must be one of 2,3,3.5,4,4.5,5")
}

// Validate checks all four fields in order and stops at the first failure.
func Validate(id, name, age, grade string) (record.Record, error) {
	vid, err := ValidateID(id)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := ValidateFields(name, age, grade)
	if err != nil {
		return record.Record{}, err
	}
	rec.ID = vid
	return rec, nil
}

// ValidateFields checks the three mutable fields, stopping at the first
// failure. The returned record has an empty ID.
func ValidateFields(name, age, grade string) (record.Record, error) {
	vname, err := ValidateName(name)
	if err != nil {
		return record.Record{}, err
	}
	vage, err := ValidateAge(age)
	if err != nil {
		return record.Record{}, err
	}
	vgrade, err := ValidateGrade(grade)
	if err != nil {
		return record.Record{}, err
	}
	return record.New("", vname, vage, vgrade), nil
}

// ValidateAll checks every field and reports all failures at once.
// Use multierr.Errors on the result to get the individual *FieldError values.
func ValidateAll(id, name, age, grade string) (record.Record, error) {
	vid, errID := ValidateID(id)
	vname, errName := ValidateName(name)
	vage, errAge := ValidateAge(age)
	vgrade, errGrade := ValidateGrade(grade)

	if err := multierr.Combine(errID, errName, errAge, errGrade); err != nil {
		return record.Record{}, err
	}
	return record.New(vid, vname, vage, vgrade), nil
}

func allBytes(s string, ok func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !ok(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
