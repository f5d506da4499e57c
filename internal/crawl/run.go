// Package crawl wires the full pipeline: session, discovery, per-document
// extraction, recognition, and result persistence.
package crawl

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/lien-harvester/internal/cancel"
	"github.com/jonathan/lien-harvester/internal/checkpoint"
	"github.com/jonathan/lien-harvester/internal/config"
	"github.com/jonathan/lien-harvester/internal/extractor"
	"github.com/jonathan/lien-harvester/internal/navigator"
	"github.com/jonathan/lien-harvester/internal/ocr"
	"github.com/jonathan/lien-harvester/internal/retry"
	"github.com/jonathan/lien-harvester/internal/session"
	"github.com/jonathan/lien-harvester/internal/sink"
	"github.com/jonathan/lien-harvester/internal/types"
)

// Options configures one crawl run.
type Options struct {
	Config  *config.Crawler
	Request *types.SearchRequest

	// CheckpointPath resumes an existing ledger. Empty means a fresh run
	// whose ledger lands in the per-search output folder.
	CheckpointPath string

	// Token stops the run cooperatively; nil means never cancelled.
	Token cancel.Token

	// Pipeline overrides the default recognition pipeline, mainly for tests.
	Pipeline Recognizer

	// OnRecord is called after each record is appended, for verbose output.
	OnRecord func(*types.ExtractedRecord)
}

// Recognizer is the slice of the OCR pipeline the crawl needs.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (ocr.Fields, error)
}

// docExtractor is the slice of the extractor the row loop needs.
type docExtractor interface {
	Extract(row types.DiscoveredURL) (*extractor.Result, error)
}

// Summary reports what one run accomplished.
type Summary struct {
	RunID      string
	Folder     string
	Discovered int
	Processed  int
	Skipped    int
	Failed     int
	Duration   time.Duration
}

// Run executes a crawl end to end. Resume is driven entirely by the
// checkpoint: a ledger with rows skips discovery, and an all-done ledger
// returns without a single navigation.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[CRAWL] Starting run %s", runID)
	tok := opts.Token
	if tok == nil {
		tok = cancel.None()
	}

	var (
		store  *checkpoint.Store
		folder string
		err    error
	)
	if opts.CheckpointPath != "" {
		store, err = checkpoint.Open(opts.CheckpointPath)
		if err != nil {
			return nil, err
		}
		folder = filepath.Dir(opts.CheckpointPath)
		if store.Len() > 0 && store.AllDone() {
			log.Printf("[CRAWL] Checkpoint complete, nothing to do")
			return &Summary{RunID: runID, Folder: folder, Discovered: store.Len(), Duration: time.Since(start)}, nil
		}
	}

	if opts.Request != nil {
		if err := opts.Request.Validate(); err != nil {
			return nil, err
		}
	}
	if store == nil && opts.Request == nil {
		return nil, fmt.Errorf("crawl needs a search request or a checkpoint to resume")
	}
	// A ledger that never got its first discovery batch cannot be resumed
	// without the search parameters that produced it.
	if store != nil && store.Len() == 0 && opts.Request == nil {
		return nil, fmt.Errorf("checkpoint %s has no rows; rerun with a search request", opts.CheckpointPath)
	}

	sess, err := session.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	state, err := session.LoadState(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	if err := sess.RestoreState(state); err != nil {
		return nil, err
	}
	if err := sess.EnsureAuthenticated(); err != nil {
		return nil, err
	}

	nav := navigator.New(sess, cfg)

	// Discovery, unless a resumed ledger already has rows.
	if store == nil || store.Len() == 0 {
		if err := nav.Search(opts.Request); err != nil {
			return nil, err
		}
		if store == nil {
			if folder, err = nav.FolderName(opts.Request); err != nil {
				return nil, err
			}
			folder = filepath.Join(cfg.LienOutputDir(), folder)
			store, err = checkpoint.Open(filepath.Join(folder, "checkpoint.csv"))
			if err != nil {
				return nil, err
			}
		}

		disc, err := nav.Discover(tok, opts.Request, store)
		if err != nil {
			if _, stopped := err.(*navigator.ErrCancelled); stopped {
				log.Printf("[CRAWL] %v", err)
				return &Summary{RunID: runID, Folder: folder, Discovered: store.Len(), Duration: time.Since(start)}, nil
			}
			return nil, err
		}
		log.Printf("[CRAWL] Discovery complete: %d URLs across %d entities", disc.URLs, disc.Entities)
	}

	summary := &Summary{RunID: runID, Folder: folder, Discovered: store.Len()}

	recognizer := opts.Pipeline
	if recognizer == nil {
		recognizer = ocr.NewPipeline(cfg.Verbose)
	}

	searchName := ""
	if opts.Request != nil {
		searchName = opts.Request.SearchName
	} else if rows := store.Rows(); len(rows) > 0 {
		searchName = rows[0].SearchName
	}

	results, err := sink.OpenCSV(filepath.Join(folder, navigator.SanitizeName(searchName)+"_results.csv"))
	if err != nil {
		return nil, err
	}
	defer results.Close()

	ext := extractor.New(sess,
		time.Duration(cfg.NavTimeoutSec)*time.Second,
		filepath.Join(folder, "documents"),
		cfg.Verbose,
	)

	for _, row := range store.Pending() {
		if tok.Cancelled() {
			log.Printf("[CRAWL] Stop requested, ending run")
			break
		}
		if err := processRow(ctx, tok, ext, recognizer, results, store, row, summary, opts.OnRecord); err != nil {
			return nil, err
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// processRow extracts one checkpoint row. Row-level failures are logged,
// counted, and retire the row, never aborting the run; only checkpoint or
// sink write errors are fatal because continuing would lose results.
func processRow(
	ctx context.Context,
	tok cancel.Token,
	ext docExtractor,
	recognizer Recognizer,
	results *sink.CSV,
	store *checkpoint.Store,
	row types.DiscoveredURL,
	summary *Summary,
	onRecord func(*types.ExtractedRecord),
) error {
	log.Printf("[CRAWL] Processing %s", row.URL)

	var res *extractor.Result
	err := retry.Do(ctx, retry.DefaultAttempts, 2*time.Second, func(context.Context) error {
		var extractErr error
		res, extractErr = ext.Extract(row)
		if types.IsSkip(extractErr) {
			// Skips are deliberate, not transient.
			return nil
		}
		return extractErr
	})
	if err != nil {
		summary.Failed++
		log.Printf("[CRAWL] Extraction failed for %s, giving up on row: %v", row.URL, err)
		// Exhausted retries are terminal for the row; leaving it pending
		// would wedge every resume on the same broken URL.
		return store.MarkDone(row.URL)
	}
	if res == nil {
		summary.Skipped++
		log.Printf("[CRAWL] Skipping %s (document no longer live)", row.URL)
		return store.MarkDone(row.URL)
	}

	rec := res.Record
	if len(res.Pages) > 0 && !tok.Cancelled() {
		applyRecognition(ctx, recognizer, rec, res.Pages)
	}

	if err := results.Append(rec); err != nil {
		return err
	}
	if err := store.MarkDone(row.URL); err != nil {
		return err
	}
	summary.Processed++
	if onRecord != nil {
		onRecord(rec)
	}
	return nil
}

// applyRecognition runs OCR over the first captured page and fills the
// derived record fields. Recognition failures leave the structured fields
// intact, so they are logged rather than propagated.
func applyRecognition(ctx context.Context, recognizer Recognizer, rec *types.ExtractedRecord, pages [][]byte) {
	fields, err := recognizer.Recognize(ctx, pages[0])
	if err != nil {
		log.Printf("[OCR] Recognition failed for %s: %v", rec.SourceURL, err)
		return
	}

	rec.RawOCRText = fields.RawText
	rec.OCRTotalDue = fields.TotalDue
	if rec.TotalDue == "" {
		rec.TotalDue = fields.TotalDue
	}
	if fields.Description != "" && rec.Description == "" {
		rec.Description = fields.Description
	}
	if len(fields.Addresses) > 0 {
		rec.Address = fields.Addresses[0].Address
		rec.Zipcode = fields.Addresses[0].Zipcode
	}
	for _, a := range fields.Addresses {
		rec.OCRAddress = append(rec.OCRAddress, a.Address)
	}
}
