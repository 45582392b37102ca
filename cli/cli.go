// Package cli is the command-line front end: it collects raw strings from
// flags, runs them through the validator, calls the store and renders the
// outcome as text.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"studentdb/export"
	"studentdb/importer"
	"studentdb/logger"
	"studentdb/record"
	"studentdb/storage"
	"studentdb/validator"
)

// Env is everything a command needs. Store is owned by the caller.
type Env struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Store   storage.Store
	Log     *zap.Logger
	Workers int // import validation workers
}

type command struct {
	summary string
	run     func(ctx context.Context, env Env, args []string) int
}

var commands = map[string]command{
	"add":     {"add a student: -id -name -age -grade", runAdd},
	"remove":  {"remove a student: -id", runRemove},
	"update":  {"update a student: -id [-name] [-age] [-grade]", runUpdate},
	"get":     {"show one student: -id", runGet},
	"list":    {"list all students", runList},
	"average": {"print the average grade", runAverage},
	"import":  {"import students from a .csv/.txt/.json/.yaml file: -file [-workers]", runImport},
	"export":  {"export students to a .json/.yaml/.xlsx file: -file", runExport},
}

// Known reports whether name is a command Run understands.
func Known(name string) bool {
	_, ok := commands[name]
	return ok
}

// Usage writes the list of commands.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: studentdb [-config file] [-db path] [-log-level level] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

// Run executes the command named by args[0] and returns the process exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		Usage(env.Stdout)
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(env.Stderr, "unknown command %q\n", args[0])
		Usage(env.Stderr)
		return ExitUsage
	}
	logger.FromContext(ctx, env.Log).Debug("running command", zap.String("command", args[0]))
	return cmd.run(ctx, env, args[1:])
}

func newFlagSet(name string, env Env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK, false
		}
		return ExitUsage, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		return ExitUsage, false
	}
	return 0, true
}

func fail(env Env, err error, id string) int {
	msg, code := Describe(err, id)
	fmt.Fprintln(env.Stderr, msg)
	return code
}

func runAdd(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("add", env)
	id := fs.String("id", "", "student id (digits)")
	name := fs.String("name", "", "name (letters)")
	age := fs.String("age", "", "age (18-100)")
	grade := fs.String("grade", "", "grade (2,3,3.5,4,4.5,5)")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	rec, err := validator.Validate(*id, *name, *age, *grade)
	if err != nil {
		return fail(env, err, *id)
	}
	if err := env.Store.Add(ctx, rec); err != nil {
		return fail(env, err, rec.ID)
	}
	fmt.Fprintln(env.Stdout, "Student added successfully!")
	return ExitOK
}

func runRemove(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("remove", env)
	id := fs.String("id", "", "student id (digits)")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	vid, err := validator.ValidateID(*id)
	if err != nil {
		return fail(env, err, *id)
	}
	n, err := env.Store.Remove(ctx, vid)
	if err != nil {
		return fail(env, err, vid)
	}
	if n == 0 {
		fmt.Fprintf(env.Stdout, "No student found with ID: %s (nothing removed)\n", vid)
		return ExitOK
	}
	fmt.Fprintf(env.Stdout, "Removed student with ID: %s\n", vid)
	return ExitOK
}

// runUpdate fetches the current record first so that omitted flags keep
// their stored value, then revalidates the final values and writes them in
// one Update call.
func runUpdate(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("update", env)
	id := fs.String("id", "", "student id (digits)")
	name := fs.String("name", "", "new name (letters), defaults to current")
	age := fs.String("age", "", "new age (18-100), defaults to current")
	grade := fs.String("grade", "", "new grade (2,3,3.5,4,4.5,5), defaults to current")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	vid, err := validator.ValidateID(*id)
	if err != nil {
		return fail(env, err, *id)
	}
	current, err := env.Store.Get(ctx, vid)
	if err != nil {
		return fail(env, err, vid)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["name"] {
		*name = current.Name
	}
	if !set["age"] {
		*age = strconv.Itoa(current.Age)
	}
	if !set["grade"] {
		*grade = record.FormatGrade(current.Grade)
	}

	rec, err := validator.ValidateFields(*name, *age, *grade)
	if err != nil {
		return fail(env, err, vid)
	}
	if err := env.Store.Update(ctx, vid, rec.Name, rec.Age, rec.Grade); err != nil {
		return fail(env, err, vid)
	}
	fmt.Fprintf(env.Stdout, "Student with ID %s updated successfully!\n", vid)
	return ExitOK
}

func runGet(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("get", env)
	id := fs.String("id", "", "student id (digits)")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	vid, err := validator.ValidateID(*id)
	if err != nil {
		return fail(env, err, *id)
	}
	rec, err := env.Store.Get(ctx, vid)
	if err != nil {
		return fail(env, err, vid)
	}
	fmt.Fprintln(env.Stdout, rec.String())
	return ExitOK
}

func runList(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("list", env)
	if code, ok := parse(fs, args); !ok {
		return code
	}

	recs, err := env.Store.List(ctx)
	if err != nil {
		return fail(env, err, "")
	}
	Listing(env.Stdout, recs)
	return ExitOK
}

func runAverage(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("average", env)
	if code, ok := parse(fs, args); !ok {
		return code
	}

	avg, err := env.Store.Average(ctx)
	if err != nil {
		return fail(env, err, "")
	}
	Average(env.Stdout, avg)
	return ExitOK
}

func runImport(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("import", env)
	file := fs.String("file", "", "file to import (.csv, .txt, .json, .yaml, .yml)")
	workers := fs.Int("workers", env.Workers, "validation workers")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if *file == "" {
		fmt.Fprintln(env.Stderr, "Error: provide a file to import!")
		return ExitUsage
	}

	log := logger.FromContext(ctx, env.Log)
	rep, err := importer.New(env.Store, *workers, log).ImportFile(ctx, *file)
	if err != nil {
		return fail(env, err, "")
	}

	fmt.Fprintf(env.Stdout, "Imported %d, skipped %d duplicate(s), rejected %d invalid row(s)\n",
		rep.Added, len(rep.Duplicates), len(rep.Invalid))
	for _, f := range rep.Invalid {
		msg, _ := Describe(f.Err, f.ID)
		fmt.Fprintf(env.Stderr, "line %d: %s\n", f.Line, msg)
	}
	for _, f := range rep.Duplicates {
		msg, _ := Describe(f.Err, f.ID)
		fmt.Fprintf(env.Stderr, "line %d: %s\n", f.Line, msg)
	}
	if rep.Err() != nil {
		return ExitFailure
	}
	return ExitOK
}

func runExport(ctx context.Context, env Env, args []string) int {
	fs := newFlagSet("export", env)
	file := fs.String("file", "", "destination file (.json, .yaml, .yml, .xlsx)")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if *file == "" {
		fmt.Fprintln(env.Stderr, "Error: provide a file to export to!")
		return ExitUsage
	}

	recs, err := env.Store.List(ctx)
	if err != nil {
		return fail(env, err, "")
	}
	avg, err := env.Store.Average(ctx)
	if err != nil {
		return fail(env, err, "")
	}
	if err := export.Write(*file, recs, avg); err != nil {
		return fail(env, err, "")
	}
	fmt.Fprintf(env.Stdout, "Exported %d student(s) to %s\n", len(recs), *file)
	return ExitOK
}
