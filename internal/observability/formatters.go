// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/lien-harvester/internal/crawl"
	"github.com/jonathan/lien-harvester/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSearchRequest outputs a human-readable summary of the search about to run.
func (p *Printer) PrintSearchRequest(req *types.SearchRequest) {
	if req == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:       %s\n", req.SearchName))
	sb.WriteString(fmt.Sprintf("County:     %s (include=%s)\n", req.CountyID, req.IncludeCounties))
	sb.WriteString(fmt.Sprintf("Instrument: %s\n", req.InstrumentType))
	sb.WriteString(fmt.Sprintf("Party:      %s\n", req.PartyType))
	sb.WriteString(fmt.Sprintf("Dates:      %s - %s\n", req.FromDate, req.ToDate))
	sb.WriteString(fmt.Sprintf("Max rows:   %s", req.MaxRows))

	p.printBox("SEARCH REQUEST", sb.String())
}

// PrintRecord outputs one extracted record as it is appended.
func (p *Printer) PrintRecord(rec *types.ExtractedRecord) {
	if rec == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Debtor:    %s\n", rec.Debtor))
	sb.WriteString(fmt.Sprintf("Claimant:  %s\n", rec.Claimant))
	sb.WriteString(fmt.Sprintf("County:    %s   Book %s Page %s\n", rec.County, rec.Book, rec.Page))
	sb.WriteString(fmt.Sprintf("Filed:     %s %s\n", rec.DateFiled, rec.TimeFiled))
	if rec.TotalDue != "" {
		sb.WriteString(fmt.Sprintf("Total due: $%s\n", rec.TotalDue))
	}
	if rec.Address != "" {
		sb.WriteString(fmt.Sprintf("Address:   %s\n", rec.Address))
	}
	if rec.PDFFilename != "" {
		sb.WriteString(fmt.Sprintf("PDF:       %s\n", rec.PDFFilename))
	}

	p.printBox("EXTRACTED RECORD", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPendingRows outputs the first few pending checkpoint rows before
// extraction starts.
func (p *Printer) PrintPendingRows(rows []types.DiscoveredURL) {
	if len(rows) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pending rows: %d\n\n", len(rows)))

	count := min(len(rows), maxItemsToShow)
	for i := 0; i < count; i++ {
		url := rows[i].URL
		if len(url) > 50 {
			url = url[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", url))
	}
	if len(rows) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more rows", len(rows)-maxItemsToShow))
	}

	p.printBox("RESUME QUEUE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the end-of-run counters.
func (p *Printer) PrintRunSummary(s *crawl.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:           %s\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Output folder: %s\n", s.Folder))
	sb.WriteString(fmt.Sprintf("Discovered:    %d\n", s.Discovered))
	sb.WriteString(fmt.Sprintf("Processed:     %d\n", s.Processed))
	sb.WriteString(fmt.Sprintf("Skipped:       %d\n", s.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:        %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("Duration:      %s", s.Duration.Round(time.Second)))

	p.printBox("RUN SUMMARY", sb.String())
}
