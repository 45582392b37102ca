package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"studentdb/record"
)

// SQLite is the Store backed by a single local SQLite file.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the SQLite file at dbPath and creates the
// `students` table if it does not exist. The caller must call Close() when
// the program shuts down.
func NewSQLite(dbPath string, log *zap.Logger) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, unavailable("create database directory", err)
		}
	}

	// modernc.org/sqlite is pure Go, no CGO needed. busy_timeout makes a
	// second writer wait for the lock instead of failing right away.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable("open sqlite db", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, unavailable("ping sqlite db", err)
	}

	s := &SQLite{db: db, log: log}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const stmt = `
CREATE TABLE IF NOT EXISTS students (
    name      TEXT,
    age       INTEGER,
    grade     REAL,
    studentID TEXT PRIMARY KEY
);`
	if _, err := s.db.Exec(stmt); err != nil {
		return unavailable("create students table", err)
	}
	s.log.Info("SQLite migration applied")
	return nil
}

// conn checks a connection out of the pool for the duration of one call.
func (s *SQLite) conn(ctx context.Context) (*sql.Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, unavailable("acquire connection", err)
	}
	return c, nil
}

// Add implements Store.
func (s *SQLite) Add(ctx context.Context, rec record.Record) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.ExecContext(ctx,
		`INSERT INTO students (name, age, grade, studentID) VALUES (?, ?, ?, ?)
		 ON CONFLICT(studentID) DO NOTHING`,
		rec.Name, rec.Age, rec.Grade, rec.ID)
	if err != nil {
		return unavailable("insert student "+rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("insert student "+rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("add student %s: %w", rec.ID, ErrDuplicateID)
	}
	s.log.Debug("student added", zap.String("id", rec.ID))
	return nil
}

// Remove implements Store.
func (s *SQLite) Remove(ctx context.Context, id string) (int64, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	res, err := c.ExecContext(ctx, `DELETE FROM students WHERE studentID = ?`, id)
	if err != nil {
		return 0, unavailable("delete student "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("delete student "+id, err)
	}
	s.log.Debug("student removed", zap.String("id", id), zap.Int64("rows", n))
	return n, nil
}

// Update implements Store.
func (s *SQLite) Update(ctx context.Context, id, name string, age int, grade float64) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.ExecContext(ctx,
		`UPDATE students SET name = ?, age = ?, grade = ? WHERE studentID = ?`,
		name, age, grade, id)
	if err != nil {
		return unavailable("update student "+id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update student "+id, err)
	}
	if n == 0 {
		return fmt.Errorf("update student %s: %w", id, ErrNotFound)
	}
	s.log.Debug("student updated", zap.String("id", id))
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, id string) (record.Record, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return record.Record{}, err
	}
	defer c.Close()

	var rec record.Record
	err = c.QueryRowContext(ctx,
		`SELECT name, age, grade, studentID FROM students WHERE studentID = ?`, id).
		Scan(&rec.Name, &rec.Age, &rec.Grade, &rec.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return record.Record{}, fmt.Errorf("get student %s: %w", id, ErrNotFound)
	case err != nil:
		return record.Record{}, unavailable("get student "+id, err)
	}
	return rec, nil
}

// List implements Store.
func (s *SQLite) List(ctx context.Context) ([]record.Record, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	rows, err := c.QueryContext(ctx,
		`SELECT name, age, grade, studentID FROM students ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("list students", err)
	}
	defer rows.Close()

	recs := []record.Record{}
	for rows.Next() {
		var rec record.Record
		if err := rows.Scan(&rec.Name, &rec.Age, &rec.Grade, &rec.ID); err != nil {
			return nil, unavailable("scan student", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list students", err)
	}
	s.log.Debug("students listed", zap.Int("count", len(recs)))
	return recs, nil
}

// Average implements Store.
func (s *SQLite) Average(ctx context.Context) (float64, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	var (
		count int64
		total float64
	)
	// TOTAL() is 0.0 on an empty table where SUM() would be NULL.
	err = c.QueryRowContext(ctx, `SELECT COUNT(grade), TOTAL(grade) FROM students`).
		Scan(&count, &total)
	if err != nil {
		return 0, unavailable("average grade", err)
	}
	if count == 0 {
		return 0.0, nil
	}
	return total / float64(count), nil
}

// Close shuts down the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
