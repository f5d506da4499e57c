package navigator

import "fmt"

// ErrNoResults indicates the search returned no results table.
type ErrNoResults struct {
	SearchName string
}

func (e *ErrNoResults) Error() string {
	return fmt.Sprintf("no results table for search %q", e.SearchName)
}

// ErrRowUnavailable indicates a results row could not be selected.
type ErrRowUnavailable struct {
	Row    int
	Reason string
}

func (e *ErrRowUnavailable) Error() string {
	return fmt.Sprintf("results row %d unavailable: %s", e.Row, e.Reason)
}

// ErrCancelled indicates the crawl stop flag was raised mid-discovery.
type ErrCancelled struct {
	Stage string
}

func (e *ErrCancelled) Error() string {
	return fmt.Sprintf("discovery cancelled during %s", e.Stage)
}
