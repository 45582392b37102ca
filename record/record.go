package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a single student row. It is a plain value: building one does
// not validate it, that is the validator package's job.
type Record struct {
	ID    string  `json:"id" yaml:"id"`       // digits only, primary key
	Name  string  `json:"name" yaml:"name"`   // ASCII letters only
	Age   int     `json:"age" yaml:"age"`     // 18..100
	Grade float64 `json:"grade" yaml:"grade"` // one of 2, 3, 3.5, 4, 4.5, 5
}

// New returns a Record holding the supplied fields as-is.
func New(id, name string, age int, grade float64) Record {
	return Record{ID: id, Name: name, Age: age, Grade: grade}
}

// String renders the record as a single listing line, e.g.
// "ID: 1, Name: Anna, Age: 20, Grade: 4.5".
func (r Record) String() string {
	return fmt.Sprintf("ID: %s, Name: %s, Age: %d, Grade: %s",
		r.ID, r.Name, r.Age, FormatGrade(r.Grade))
}

// FormatGrade prints a grade with the shortest exact representation while
// always keeping one decimal place, so 3 prints as "3.0" and 3.5 as "3.5".
func FormatGrade(g float64) string {
	s := strconv.FormatFloat(g, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
