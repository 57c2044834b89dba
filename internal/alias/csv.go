package alias

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// The persisted format is a two-column UTF-8 CSV with a header row. Readers
// make no assumption about row order.
var csvHeader = []string{"Full Name", "Short Form"}

func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var entries []Entry
	for i, row := range rows {
		if i == 0 {
			// Header row.
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("read %q: row %d has %d columns, want 2", path, i+1, len(row))
		}
		entries = append(entries, Entry{FullName: row[0], ShortForm: row[1]})
	}

	return entries, nil
}

// writeFile persists entries atomically: write to a temp file in the same
// directory, then rename over the target. A failed write never leaves a
// half-written table behind.
func writeFile(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(csvHeader)
	for _, e := range entries {
		if writeErr != nil {
			break
		}
		writeErr = w.Write([]string{e.FullName, e.ShortForm})
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}

	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %q: %w", tmpName, writeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %q to %q: %w", tmpName, path, err)
	}
	return nil
}
