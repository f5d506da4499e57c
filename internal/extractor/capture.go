package extractor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/lien-harvester/internal/session"
)

const (
	zoomSelect   = "td.vtm_zoomSelectCell select"
	viewerCanvas = "div.vtm_imageClipper canvas"
	thumbnailSel = "a[id*='lvThumbnails_lnkThumbnail']"
)

// Capturer screenshots document pages out of the portal's HTML5 viewer. Each
// capture runs in a secondary tab off the session browser so it shares the
// login cookies; the tab is closed before the next document is considered.
type Capturer struct {
	sess    *session.Session
	timeout time.Duration
	verbose bool
}

func NewCapturer(sess *session.Session, timeout time.Duration, verbose bool) *Capturer {
	return &Capturer{sess: sess, timeout: timeout, verbose: verbose}
}

// CaptureDocument opens the viewer, fits and rotates the document, and
// screenshots its canvas. When the canvas screenshot fails it falls back to a
// full-tab screenshot, which still contains the document at fit-window zoom.
func (c *Capturer) CaptureDocument(viewerURL string) ([]byte, error) {
	tabCtx, cancel := chromedp.NewContext(c.sess.Context())
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	err := chromedp.Run(tabCtx,
		chromedp.Navigate(viewerURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(5*time.Second),
		chromedp.WaitVisible(zoomSelect),
		chromedp.SetValue(zoomSelect, "fitwindow"),
		chromedp.Sleep(2*time.Second),
		chromedp.Click(`img[title="Rotate Right"]`, chromedp.NodeVisible),
		chromedp.WaitReady(viewerCanvas),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("prepare viewer: %w", err)
	}

	var shot []byte
	if err := chromedp.Run(tabCtx, chromedp.Screenshot(viewerCanvas, &shot, chromedp.NodeVisible)); err != nil {
		log.Printf("[VIEWER] Canvas screenshot failed (%v), taking full tab screenshot", err)
		if err := chromedp.Run(tabCtx, chromedp.FullScreenshot(&shot, 90)); err != nil {
			return nil, fmt.Errorf("viewer screenshot: %w", err)
		}
	}
	if len(shot) == 0 {
		return nil, fmt.Errorf("viewer screenshot produced no data")
	}
	return shot, nil
}

// CapturePages handles multi-page documents: when the viewer shows a
// thumbnail strip, every thumbnail is clicked and captured in order. A viewer
// without thumbnails yields the single visible page.
func (c *Capturer) CapturePages(viewerURL string) ([][]byte, error) {
	tabCtx, cancel := chromedp.NewContext(c.sess.Context())
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout*2)
	defer cancelTimeout()

	err := chromedp.Run(tabCtx,
		chromedp.Navigate(viewerURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("open viewer: %w", err)
	}

	var count int
	js := fmt.Sprintf(`document.querySelectorAll("%s").length`, thumbnailSel)
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(js, &count)); err != nil {
		return nil, fmt.Errorf("count viewer thumbnails: %w", err)
	}

	if count == 0 {
		shot, err := c.CaptureDocument(viewerURL)
		if err != nil {
			return nil, err
		}
		return [][]byte{shot}, nil
	}

	if c.verbose {
		log.Printf("[VIEWER] Found %d thumbnails in viewer", count)
	}

	var pages [][]byte
	for i := 0; i < count; i++ {
		clickJS := fmt.Sprintf(`document.querySelectorAll("%s")[%d].click()`, thumbnailSel, i)
		var shot []byte
		err := chromedp.Run(tabCtx,
			chromedp.Evaluate(clickJS, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Screenshot("canvas", &shot, chromedp.NodeVisible),
		)
		if err != nil {
			log.Printf("[VIEWER] Thumbnail %d capture failed: %v", i+1, err)
			continue
		}
		pages = append(pages, shot)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no viewer pages captured")
	}
	return pages, nil
}
