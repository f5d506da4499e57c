package extractor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/lien-harvester/internal/session"
	"github.com/jonathan/lien-harvester/internal/types"
)

// Extractor processes one discovered URL end to end: detail page parse,
// viewer capture, PDF assembly. OCR is layered on by the crawl loop so this
// package stays free of the recognition dependencies.
type Extractor struct {
	sess     *session.Session
	capturer *Capturer

	// DocumentsDir receives the generated PDFs and their page images.
	DocumentsDir string
}

func New(sess *session.Session, navTimeout time.Duration, documentsDir string, verbose bool) *Extractor {
	return &Extractor{
		sess:         sess,
		capturer:     NewCapturer(sess, navTimeout, verbose),
		DocumentsDir: documentsDir,
	}
}

// Result is one extracted document plus its upright page images for
// downstream recognition.
type Result struct {
	Record *types.ExtractedRecord
	Pages  [][]byte
}

// Extract loads a document URL in the main tab and produces its record. A
// page flagged with a skip marker returns a SkipError; a record without a
// viewer script is returned with empty image fields rather than failing.
func (e *Extractor) Extract(row types.DiscoveredURL) (*Result, error) {
	if err := e.sess.Navigate(row.URL); err != nil {
		return nil, err
	}
	if err := e.sess.DismissAnnouncement(); err != nil {
		return nil, err
	}
	if err := e.recoverSession(row.URL); err != nil {
		return nil, err
	}
	e.sess.Pace()

	var pageHTML string
	if err := e.sess.Run(chromedp.OuterHTML("html", &pageHTML)); err != nil {
		return nil, fmt.Errorf("read detail page: %w", err)
	}

	rec, params, err := ParseDetailPage(pageHTML, row.URL)
	if err != nil {
		return nil, err
	}

	if params == nil {
		log.Printf("[VIEWER] No viewer script on %s, saving record without document", row.URL)
		return &Result{Record: rec}, nil
	}

	captures, err := e.capturer.CapturePages(params.URL())
	if err != nil {
		// The structured fields are still worth keeping when the viewer is broken.
		log.Printf("[VIEWER] Capture failed for %s: %v", row.URL, err)
		return &Result{Record: rec}, nil
	}

	rec.PDFFilename = PDFName(rec.Debtor, params)
	rec.PDFPath = filepath.Join(e.DocumentsDir, rec.PDFFilename)

	if err := WritePDF(rec.PDFPath, captures); err != nil {
		return nil, err
	}
	log.Printf("[VIEWER] PDF document saved to %s", rec.PDFPath)

	pages, err := e.savePageImages(rec.PDFFilename, captures)
	if err != nil {
		return nil, err
	}
	return &Result{Record: rec, Pages: pages}, nil
}

// recoverSession handles the portal expiring the session mid-run: a detail
// navigation that lands on the login page triggers one re-login and a retry
// of the navigation. A second bounce is left to fail the row.
func (e *Extractor) recoverSession(url string) error {
	current, err := e.sess.CurrentURL()
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(current), "login") {
		return nil
	}

	log.Printf("[LOGIN] Session expired mid-run, logging in again")
	if err := e.sess.Login(); err != nil {
		return fmt.Errorf("re-login after session loss: %w", err)
	}
	if err := e.sess.Navigate(url); err != nil {
		return err
	}
	return e.sess.DismissAnnouncement()
}

// savePageImages writes the upright page PNGs next to the PDF so recognition
// can be rerun later without the portal, and returns them for the inline
// pass.
func (e *Extractor) savePageImages(pdfName string, captures [][]byte) ([][]byte, error) {
	base := strings.TrimSuffix(pdfName, ".pdf")
	imagesDir := filepath.Join(e.DocumentsDir, "pages")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}

	var pages [][]byte
	for i, capture := range captures {
		upright, err := UprightPNG(capture)
		if err != nil {
			return nil, err
		}
		name := filepath.Join(imagesDir, fmt.Sprintf("%s_p%d.png", base, i+1))
		if err := os.WriteFile(name, upright, 0o644); err != nil {
			return nil, fmt.Errorf("write page image: %w", err)
		}
		pages = append(pages, upright)
	}
	return pages, nil
}
