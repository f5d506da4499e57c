// Package checkpoint persists the discovered-URL ledger that makes crawls resumable.
package checkpoint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jonathan/lien-harvester/internal/types"
)

var header = []string{"url", "status", "search_name", "entity_index", "doc_index"}

// Store is a row-addressable list of discovered URLs with per-row status,
// backed by a CSV file. Discovery appends rows; extraction flips status to
// Done. Rows are never deleted and never reordered, so the file doubles as
// the resume ledger: a crash loses at most the in-flight row.
type Store struct {
	path string
	rows []types.DiscoveredURL
	// byURL indexes rows for dedup and MarkDone; values are row offsets.
	byURL map[string]int
}

// Open loads an existing ledger or starts an empty one at path.
func Open(path string) (*Store, error) {
	s := &Store{path: path, byURL: make(map[string]int)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", path, err)
	}

	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "url" {
			continue // header
		}
		if len(rec) < 2 {
			continue
		}
		row := types.DiscoveredURL{URL: rec[0], Status: rec[1]}
		if len(rec) > 2 {
			row.SearchName = rec[2]
		}
		if len(rec) > 3 {
			row.EntityIndex, _ = strconv.Atoi(rec[3])
		}
		if len(rec) > 4 {
			row.DocIndex, _ = strconv.Atoi(rec[4])
		}
		if _, dup := s.byURL[row.URL]; dup {
			continue
		}
		s.byURL[row.URL] = len(s.rows)
		s.rows = append(s.rows, row)
	}

	return s, nil
}

// Len returns the number of ledger rows.
func (s *Store) Len() int {
	return len(s.rows)
}

// Rows returns a copy of the full ledger in row order.
func (s *Store) Rows() []types.DiscoveredURL {
	out := make([]types.DiscoveredURL, len(s.rows))
	copy(out, s.rows)
	return out
}

// Pending returns the rows not yet marked Done, in row order.
func (s *Store) Pending() []types.DiscoveredURL {
	var out []types.DiscoveredURL
	for _, row := range s.rows {
		if !row.Done() {
			out = append(out, row)
		}
	}
	return out
}

// AllDone reports whether every row has been processed. An empty ledger
// counts as done.
func (s *Store) AllDone() bool {
	for _, row := range s.rows {
		if !row.Done() {
			return false
		}
	}
	return true
}

// Contains reports whether a URL is already in the ledger.
func (s *Store) Contains(url string) bool {
	_, ok := s.byURL[url]
	return ok
}

// Append adds newly discovered rows, skipping URLs already present, and
// flushes the whole ledger to disk. It is called after every discovery step
// so an interrupted discovery keeps everything found so far.
func (s *Store) Append(rows ...types.DiscoveredURL) error {
	added := 0
	for _, row := range rows {
		if _, dup := s.byURL[row.URL]; dup {
			continue
		}
		s.byURL[row.URL] = len(s.rows)
		s.rows = append(s.rows, row)
		added++
	}
	if added == 0 {
		return nil
	}
	return s.flush()
}

// MarkDone flips a row's status to Done and flushes. Status only ever moves
// pending -> done; marking an already-done row is a no-op.
func (s *Store) MarkDone(url string) error {
	i, ok := s.byURL[url]
	if !ok {
		return fmt.Errorf("checkpoint has no row for %s", url)
	}
	if s.rows[i].Done() {
		return nil
	}
	s.rows[i].Status = types.StatusDone
	return s.flush()
}

// flush writes the ledger atomically: temp file in the same directory, then
// rename over the old one.
func (s *Store) flush() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write checkpoint header: %w", err)
	}
	for _, row := range s.rows {
		rec := []string{
			row.URL,
			row.Status,
			row.SearchName,
			strconv.Itoa(row.EntityIndex),
			strconv.Itoa(row.DocIndex),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write checkpoint row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint %s: %w", s.path, err)
	}
	return nil
}
