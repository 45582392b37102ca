package importer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Row is one raw, unvalidated input record together with where it came from.
type Row struct {
	Line  int // 1-based line (line files) or element (documents) number
	ID    string
	Name  string
	Age   string
	Grade string
}

// ReadLines parses a file of "id,name,age,grade" lines. Blank lines and
// lines starting with '#' are skipped; surrounding spaces are trimmed from
// every field. A line without exactly four fields fails the whole file.
func ReadLines(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d: want 4 comma-separated fields, got %d",
				ErrMalformed, n, len(fields))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, Row{Line: n, ID: fields[0], Name: fields[1], Age: fields[2], Grade: fields[3]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return rows, nil
}
