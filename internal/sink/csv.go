// Package sink appends extracted records to durable, incrementally written output.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/lien-harvester/internal/types"
)

// Columns is the output row schema, in file order. The file is consumed by
// the spreadsheet layer, so the order is part of the external interface.
var Columns = []string{
	"County",
	"Direct Party (Debtor)",
	"Reverse Party (Claimant)",
	"Address",
	"OCR Address",
	"Zipcode",
	"Total Due",
	"OCR Total Due",
	"Instrument",
	"Date Filed",
	"Book",
	"Page",
	"Description",
	"Amount",
	"Cross References",
	"PDF Document URL",
	"View PDF",
	"Source URL",
	"OCR Raw Text",
}

// CSV is a ResultSink that appends one row per record and flushes after every
// append, so a partial run always leaves a valid, openable file. It never
// rewrites rows and never buffers the whole run.
type CSV struct {
	f *os.File
	w *csv.Writer
}

// OpenCSV opens (or creates) the sink file at path. The header is written
// only when the file is new or empty, so appending to a partial run's output
// keeps a single header.
func OpenCSV(path string) (*CSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sink %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat sink %s: %w", path, err)
	}

	s := &CSV{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.w.Write(Columns); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sink header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to flush sink header: %w", err)
		}
	}
	return s, nil
}

// Append writes one record and flushes it to disk.
func (s *CSV) Append(rec *types.ExtractedRecord) error {
	row := []string{
		rec.County,
		rec.Debtor,
		rec.Claimant,
		rec.Address,
		strings.Join(rec.OCRAddress, " | "),
		rec.Zipcode,
		rec.TotalDue,
		rec.OCRTotalDue,
		rec.Instrument,
		rec.DateFiled,
		rec.Book,
		rec.Page,
		rec.Description,
		rec.Amount,
		rec.CrossReferences,
		rec.ViewerURL,
		rec.PDFFilename,
		rec.SourceURL,
		rec.RawOCRText,
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}
	return s.f.Sync()
}

// Close flushes and closes the underlying file.
func (s *CSV) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
