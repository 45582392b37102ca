package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studentdb/record"
	"studentdb/storage"
)

type harness struct {
	store  *storage.SQLite
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := storage.NewSQLite(filepath.Join(t.TempDir(), "students.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &harness{store: s}
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	return Run(context.Background(), args, Env{
		Stdout:  &h.stdout,
		Stderr:  &h.stderr,
		Store:   h.store,
		Log:     zap.NewNop(),
		Workers: 2,
	})
}

func TestAddListAverage(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, ExitOK, h.run("list"))
	assert.Equal(t, "No students in the database.\n", h.stdout.String())

	assert.Equal(t, ExitOK, h.run("average"))
	assert.Equal(t, "Average grade: 0.0\n", h.stdout.String())

	require.Equal(t, ExitOK, h.run("add", "-id", "1", "-name", "Anna", "-age", "20", "-grade", "4.5"))
	assert.Equal(t, "Student added successfully!\n", h.stdout.String())
	require.Equal(t, ExitOK, h.run("add", "-id", "2", "-name", "Bob", "-age", "40", "-grade", "3"))

	assert.Equal(t, ExitOK, h.run("list"))
	assert.Equal(t,
		"ID: 1, Name: Anna, Age: 20, Grade: 4.5\nID: 2, Name: Bob, Age: 40, Grade: 3.0\n",
		h.stdout.String())

	assert.Equal(t, ExitOK, h.run("average"))
	assert.Equal(t, "Average grade: 3.75\n", h.stdout.String())
}

func TestAddDuplicate(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitOK, h.run("add", "-id", "1", "-name", "Anna", "-age", "20", "-grade", "4.5"))

	assert.Equal(t, ExitFailure, h.run("add", "-id", "1", "-name", "Other", "-age", "30", "-grade", "2"))
	assert.Equal(t, "Student with ID: 1 already exists!\n", h.stderr.String())

	recs, err := h.store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []record.Record{record.New("1", "Anna", 20, 4.5)}, recs)
}

func TestAddValidationMessages(t *testing.T) {
	h := newHarness(t)
	for _, tc := range []struct {
		args []string
		want string
	}{
		{[]string{"-id", "a1", "-name", "Anna", "-age", "20", "-grade", "4"}, "Error: ID must be digits only!\n"},
		{[]string{"-id", "1", "-name", "Anna Maria", "-age", "20", "-grade", "4"}, "Error: Name must be letters only!\n"},
		{[]string{"-id", "1", "-name", "Anna", "-age", "abc", "-grade", "4"}, "Error: Age must be an integer!\n"},
		{[]string{"-id", "1", "-name", "Anna", "-age", "17", "-grade", "4"}, "Error: Age must be in [18..100]!\n"},
		{[]string{"-id", "1", "-name", "Anna", "-age", "20", "-grade", "x"}, "Error: Grade must be a number (e.g. 3.5)!\n"},
		{[]string{"-id", "1", "-name", "Anna", "-age", "20", "-grade", "2.5"}, "Error: Grade must be one of 2,3,3.5,4,4.5,5!\n"},
		{nil, "Error: ID must be digits only!\n"},
	} {
		assert.Equal(t, ExitFailure, h.run(append([]string{"add"}, tc.args...)...), tc.args)
		assert.Equal(t, tc.want, h.stderr.String(), tc.args)
	}

	recs, err := h.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitOK, h.run("add", "-id", "1", "-name", "Anna", "-age", "20", "-grade", "4.5"))

	assert.Equal(t, ExitOK, h.run("remove", "-id", "404"))
	assert.Equal(t, "No student found with ID: 404 (nothing removed)\n", h.stdout.String())

	assert.Equal(t, ExitOK, h.run("remove", "-id", "1"))
	assert.Equal(t, "Removed student with ID: 1\n", h.stdout.String())

	assert.Equal(t, ExitFailure, h.run("remove"))
	assert.Equal(t, "Error: ID must be digits only!\n", h.stderr.String())
}

func TestUpdateKeepsOmittedFields(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitOK, h.run("add", "-id", "1", "-name", "Anna", "-age", "20", "-grade", "3"))

	assert.Equal(t, ExitOK, h.run("update", "-id", "1", "-age", "21"))
	assert.Equal(t, "Student with ID 1 updated successfully!\n", h.stdout.String())

	assert.Equal(t, ExitOK, h.run("get", "-id", "1"))
	assert.Equal(t, "ID: 1, Name: Anna, Age: 21, Grade: 3.0\n", h.stdout.String())

	assert.Equal(t, ExitOK, h.run("update", "-id", "1", "-name", "Anka", "-grade", "5"))
	got, err := h.store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, record.New("1", "Anka", 21, 5), got)
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, ExitOK, h.run("add", "-id", "1", "-name", "Anna", "-age", "20", "-grade", "3"))

	assert.Equal(t, ExitFailure, h.run("update", "-id", "1", "-grade", "1"))
	assert.Equal(t, "Error: Grade must be one of 2,3,3.5,4,4.5,5!\n", h.stderr.String())

	// an explicitly empty name is still validated
	assert.Equal(t, ExitFailure, h.run("update", "-id", "1", "-name", ""))
	assert.Equal(t, "Error: Name must be letters only!\n", h.stderr.String())

	got, err := h.store.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, record.New("1", "Anna", 20, 3), got)
}

func TestUpdateUnknown(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, ExitFailure, h.run("update", "-id", "9", "-name", "Zed"))
	assert.Equal(t, "No student found with ID: 9\n", h.stderr.String())

	assert.Equal(t, ExitFailure, h.run("get", "-id", "9"))
	assert.Equal(t, "No student found with ID: 9\n", h.stderr.String())
}

func TestStorageUnavailable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Close())

	assert.Equal(t, ExitUnavailable, h.run("list"))
	assert.Contains(t, h.stderr.String(), "Error: database unavailable")

	assert.Equal(t, ExitUnavailable, h.run("add", "-id", "1", "-name", "Anna", "-age", "20", "-grade", "4.5"))
	assert.Contains(t, h.stderr.String(), "Error: database unavailable")
}

func TestImportAndExport(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("1,Anna,20,4.5\n2,Bob,17,3\n1,Ann,30,2\n3,Cat,30,2\n"), 0o644))

	assert.Equal(t, ExitFailure, h.run("import", "-file", in))
	assert.Equal(t, "Imported 2, skipped 1 duplicate(s), rejected 1 invalid row(s)\n", h.stdout.String())
	assert.Equal(t,
		"line 2: Error: Age must be in [18..100]!\nline 3: Student with ID: 1 already exists!\n",
		h.stderr.String())

	out := filepath.Join(dir, "out.xlsx")
	assert.Equal(t, ExitOK, h.run("export", "-file", out))
	assert.Equal(t, "Exported 2 student(s) to "+out+"\n", h.stdout.String())
	assert.FileExists(t, out)

	assert.Equal(t, ExitFailure, h.run("export", "-file", filepath.Join(dir, "out.txt")))
	assert.Contains(t, h.stderr.String(), "unsupported export format")

	assert.Equal(t, ExitUsage, h.run("import"))
	assert.Equal(t, ExitFailure, h.run("import", "-file", filepath.Join(dir, "missing.json")))
}

func TestUsage(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, ExitUsage, h.run())
	assert.Contains(t, h.stdout.String(), "usage: studentdb")

	assert.Equal(t, ExitOK, h.run("help"))
	assert.Contains(t, h.stdout.String(), "average")

	assert.Equal(t, ExitUsage, h.run("frobnicate"))
	assert.Contains(t, h.stderr.String(), `unknown command "frobnicate"`)

	assert.Equal(t, ExitUsage, h.run("list", "extra"))
	assert.Equal(t, ExitUsage, h.run("add", "-nope"))

	assert.True(t, Known("import"))
	assert.False(t, Known("help"))
}
