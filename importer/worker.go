package importer

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"studentdb/record"
	"studentdb/validator"
)

// Result is the outcome of validating one Row.
type Result struct {
	Row    Row
	Record record.Record
	Err    error // nil when Record is valid
}

func worker(ctx context.Context, id int, jobs <-chan Row, results chan<- Result, log *zap.Logger) {
	for row := range jobs {
		if err := ctx.Err(); err != nil {
			results <- Result{Row: row, Err: err}
			continue
		}
		rec, err := validator.ValidateAll(row.ID, row.Name, row.Age, row.Grade)
		log.Debug("row validated", zap.Int("worker", id), zap.Int("line", row.Line), zap.Bool("ok", err == nil))
		results <- Result{Row: row, Record: rec, Err: err}
	}
}

// ValidateRows validates rows on a pool of workers and returns one Result
// per row, ordered by Row.Line. It returns ctx.Err() if the context is
// cancelled before every row is done.
func ValidateRows(ctx context.Context, rows []Row, workers int, log *zap.Logger) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	numJobs := len(rows)

	// both channels are buffered for every row so nobody blocks on send
	jobs := make(chan Row, numJobs)
	results := make(chan Result, numJobs)

	for w := 1; w <= workers; w++ {
		go worker(ctx, w, jobs, results, log)
	}
	for _, row := range rows {
		jobs <- row
	}
	close(jobs)

	out := make([]Result, 0, numJobs)
	for i := 0; i < numJobs; i++ {
		out = append(out, <-results)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b Result) int { return a.Row.Line - b.Row.Line })
	return out, nil
}
