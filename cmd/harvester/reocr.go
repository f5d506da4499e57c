package main

import (
	"context"
	"crypto/sha1"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/lien-harvester/internal/ocr"
)

var reocrCommand = &cobra.Command{
	Use:   "reocr",
	Short: "Re-run field extraction over saved page images",
	Long: `Runs the recognition pipeline over every page image under a directory
(the "pages" folders a crawl leaves next to its PDFs) without touching the
portal. Results are cached per image keyed on size and mtime, so repeated
runs only pay for new or changed files. Output is a CSV of derived fields.`,
	RunE: reocrCmd,
}

var (
	reocrDir      string
	reocrOut      string
	reocrCacheDir string
	reocrNoCache  bool
	reocrWorkers  int
	reocrVerbose  bool
)

func init() {
	reocrCommand.Flags().StringVarP(&reocrDir, "images", "i", "", "Directory of page images (required)")
	reocrCommand.Flags().StringVarP(&reocrOut, "out", "o", "reocr_fields.csv", "Output CSV path")
	reocrCommand.Flags().StringVar(&reocrCacheDir, "cache-dir", ".reocr_cache", "Cache directory")
	reocrCommand.Flags().BoolVar(&reocrNoCache, "no-cache", false, "Disable the per-image cache")
	reocrCommand.Flags().IntVarP(&reocrWorkers, "workers", "w", 2, "Parallel OCR workers")
	reocrCommand.Flags().BoolVarP(&reocrVerbose, "verbose", "v", false, "Print per-image progress")

	_ = reocrCommand.MarkFlagRequired("images")

	rootCmd.AddCommand(reocrCommand)
}

// reocrResult is the cached and reported outcome for one image.
type reocrResult struct {
	Image       string   `json:"image"`
	TotalDue    string   `json:"total_due"`
	Addresses   []string `json:"addresses"`
	Zipcodes    []string `json:"zipcodes"`
	Description string   `json:"description"`
}

// cacheKey fingerprints an image by path, size and mtime so edits invalidate
// the cached recognition.
func cacheKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	base := fmt.Sprintf("%s|%d|%d", abs, st.Size(), st.ModTime().Unix())
	return fmt.Sprintf("%x", sha1.Sum([]byte(base))), nil
}

func loadCached(cacheDir, key string) *reocrResult {
	data, err := os.ReadFile(filepath.Join(cacheDir, key+".json"))
	if err != nil {
		return nil
	}
	var res reocrResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil
	}
	return &res
}

func saveCached(cacheDir, key string, res *reocrResult) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(cacheDir, key+".json"), data, 0o644)
}

// gatherImages walks the directory for page images, sorted for stable output.
func gatherImages(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg":
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func reocrCmd(_ *cobra.Command, _ []string) error {
	images, err := gatherImages(reocrDir)
	if err != nil {
		return fmt.Errorf("scan images dir: %w", err)
	}
	if len(images) == 0 {
		return fmt.Errorf("no page images found under %s", reocrDir)
	}
	log.Printf("[OCR] Processing %d images with %d workers", len(images), reocrWorkers)

	results := make([]*reocrResult, len(images))
	var cacheHits int
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(reocrWorkers)

	for i, img := range images {
		g.Go(func() error {
			var key string
			if !reocrNoCache {
				if k, err := cacheKey(img); err == nil {
					key = k
					if cached := loadCached(reocrCacheDir, key); cached != nil {
						mu.Lock()
						results[i] = cached
						cacheHits++
						mu.Unlock()
						return nil
					}
				}
			}

			data, err := os.ReadFile(img)
			if err != nil {
				return fmt.Errorf("read %s: %w", img, err)
			}

			// One pipeline per worker invocation; the tesseract client is
			// not safe to share across goroutines.
			fields, err := ocr.NewPipeline(reocrVerbose).Recognize(ctx, data)
			if err != nil {
				return fmt.Errorf("recognize %s: %w", img, err)
			}

			res := &reocrResult{
				Image:       img,
				TotalDue:    fields.TotalDue,
				Description: fields.Description,
				Zipcodes:    fields.Zipcodes(),
			}
			for _, a := range fields.Addresses {
				res.Addresses = append(res.Addresses, a.Address)
			}

			if !reocrNoCache && key != "" {
				saveCached(reocrCacheDir, key, res)
			}
			if reocrVerbose {
				log.Printf("[OCR] %s: total=%s addresses=%d", filepath.Base(img), res.TotalDue, len(res.Addresses))
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeReocrCSV(reocrOut, results); err != nil {
		return err
	}
	log.Printf("[OCR] Done: %d images (%d cached), fields written to %s", len(images), cacheHits, reocrOut)
	return nil
}

func writeReocrCSV(path string, results []*reocrResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Image", "Total Due", "Addresses", "Zipcodes", "Description"}); err != nil {
		return err
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		rec := []string{
			res.Image,
			res.TotalDue,
			strings.Join(res.Addresses, " | "),
			strings.Join(res.Zipcodes, " | "),
			res.Description,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
