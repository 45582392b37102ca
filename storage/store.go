package storage

import (
	"context"
	"errors"

	"studentdb/record"
)

var (
	// ErrDuplicateID is returned by Add when the id is already taken.
	ErrDuplicateID = errors.New("duplicate student id")

	// ErrNotFound is returned by Get and Update when no row has the id.
	ErrNotFound = errors.New("student not found")

	// ErrStorageUnavailable wraps every failure of the underlying database
	// (file missing, disk error, closed handle, ...).
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Store abstracts the persistence back-end for student records.
// Every method is a self-contained unit: it acquires whatever it needs,
// runs a single statement and releases it before returning. Field values
// are trusted; run them through the validator package first.
type Store interface {
	// Add inserts rec. It fails with ErrDuplicateID, leaving the store
	// untouched, when a record with the same ID exists.
	Add(ctx context.Context, rec record.Record) error

	// Remove deletes the record with the given id and reports how many
	// rows went away. Removing an unknown id is not an error.
	Remove(ctx context.Context, id string) (int64, error)

	// Update overwrites name, age and grade of the record with the given id.
	// It fails with ErrNotFound when there is no such record.
	Update(ctx context.Context, id, name string, age int, grade float64) error

	// Get returns a copy of the record with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (record.Record, error)

	// List returns a snapshot of every record in storage order. The slice
	// is never nil.
	List(ctx context.Context) ([]record.Record, error)

	// Average returns the mean grade over all records, or exactly 0 when
	// the store is empty.
	Average(ctx context.Context) (float64, error)

	// Close releases the database handle.
	Close() error
}
