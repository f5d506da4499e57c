package navigator

import (
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/lien-harvester/internal/cancel"
	"github.com/jonathan/lien-harvester/internal/checkpoint"
	"github.com/jonathan/lien-harvester/internal/config"
	"github.com/jonathan/lien-harvester/internal/session"
	"github.com/jonathan/lien-harvester/internal/types"
)

const resultsTable = "table.name_results"

// Navigator runs URL discovery for one search: it fills the search form,
// walks every entity row's detail pages, and appends every document URL it
// finds to the checkpoint ledger.
type Navigator struct {
	sess *session.Session
	cfg  *config.Crawler
}

// Discovery summarizes one completed discovery pass.
type Discovery struct {
	Entities int
	URLs     int
}

func New(sess *session.Session, cfg *config.Crawler) *Navigator {
	return &Navigator{sess: sess, cfg: cfg}
}

// Search navigates to the name search page and submits the request.
func (n *Navigator) Search(req *types.SearchRequest) error {
	if err := n.sess.Navigate(n.cfg.SearchURL); err != nil {
		return err
	}
	n.sess.Pace()
	if err := n.sess.DismissAnnouncement(); err != nil {
		return err
	}

	steps := []struct {
		desc   string
		action chromedp.Action
	}{
		{"party type", chromedp.SetValue("#txtPartyType", req.PartyType, chromedp.ByID)},
		{"instrument type", chromedp.SetValue(`select[name='txtInstrCode']`, req.InstrumentType)},
		{"county", chromedp.SetValue(`select[name='intCountyID']`, req.CountyID)},
		{"search name", chromedp.SetValue(`input[name='txtSearchName']`, req.SearchName)},
		{"from date", chromedp.SetValue(`input[name='txtFromDate']`, req.FromDate)},
		{"to date", chromedp.SetValue(`input[name='txtToDate']`, req.ToDate)},
		{"max rows", chromedp.SetValue(`select[name='MaxRows']`, req.MaxRows)},
		{"table type", chromedp.SetValue(`select[name='TableType']`, req.TableType)},
	}
	for _, step := range steps {
		if err := n.sess.Run(step.action); err != nil {
			return fmt.Errorf("fill %s: %w", step.desc, err)
		}
		n.sess.PaceShort()
	}

	// The include-counties radio is absent on some portal variants.
	includeJS := fmt.Sprintf(
		`(() => { const r = document.querySelector("input[name='bolInclude'][value='%s']"); if (r) r.checked = true; })()`,
		req.IncludeCounties,
	)
	if err := n.sess.Run(chromedp.Evaluate(includeJS, nil)); err != nil {
		return fmt.Errorf("set include counties: %w", err)
	}
	n.sess.PaceShort()

	err := n.sess.Run(
		chromedp.Click(`input[type='button'][value='Search']`, chromedp.NodeVisible),
		chromedp.WaitVisible(resultsTable),
	)
	if err != nil {
		return &ErrNoResults{SearchName: req.SearchName}
	}
	n.sess.Pace()
	return nil
}

// Discover runs the full discovery pass for a submitted search, appending
// every found URL to the checkpoint store. The cancellation token is polled
// between rows and between pagination steps; everything appended to the
// checkpoint before a stop stays persisted.
func (n *Navigator) Discover(tok cancel.Token, req *types.SearchRequest, store *checkpoint.Store) (*Discovery, error) {
	total, err := n.countEntityRows()
	if err != nil {
		return nil, err
	}
	log.Printf("[SEARCH] Found %d entity rows for %q", total, req.SearchName)

	disc := &Discovery{Entities: total}
	for row := 0; row < total; row++ {
		if tok.Cancelled() {
			return disc, &ErrCancelled{Stage: "entity rows"}
		}
		log.Printf("[SEARCH] Extracting URLs from row %d of %d", row+1, total)

		found, err := n.discoverRow(tok, req, row, store)
		disc.URLs += found
		if err != nil {
			if _, stopped := err.(*ErrCancelled); stopped {
				return disc, err
			}
			// One bad row must not sink the whole discovery.
			log.Printf("[SEARCH] Row %d failed: %v", row+1, err)
		}
	}
	return disc, nil
}

// discoverRow expands one entity row's details, collects document URLs from
// every pagination page, and returns to the results table.
func (n *Navigator) discoverRow(tok cancel.Token, req *types.SearchRequest, row int, store *checkpoint.Store) (int, error) {
	if err := n.selectRow(row); err != nil {
		return 0, err
	}

	if err := n.sess.Run(chromedp.Click(`input[value='Display Details']`, chromedp.NodeVisible)); err != nil {
		return 0, &ErrRowUnavailable{Row: row + 1, Reason: "Display Details button not clickable"}
	}

	found := 0
	pages := 0
	for {
		if tok.Cancelled() {
			return found, &ErrCancelled{Stage: "pagination"}
		}
		pages++

		urls, err := n.collectPageLinks()
		if err != nil {
			return found, err
		}
		batch := discoveryBatch(req.SearchName, row, found, urls)
		if err := store.Append(batch...); err != nil {
			return found, err
		}
		found += len(urls)

		next, err := n.nextPage()
		if err != nil {
			return found, err
		}
		if !next {
			break
		}
		n.sess.Pace()
	}

	if err := n.returnToResults(req, pages); err != nil {
		return found, err
	}
	return found, nil
}

// discoveryBatch builds the ledger rows for one pagination page. Entity and
// document indices are 1-based in the ledger; row is the zero-based results
// table position and found is how many documents the row already yielded.
func discoveryBatch(searchName string, row, found int, urls []string) []types.DiscoveredURL {
	batch := make([]types.DiscoveredURL, 0, len(urls))
	for i, u := range urls {
		batch = append(batch, types.DiscoveredURL{
			URL:         u,
			SearchName:  searchName,
			EntityIndex: row + 1,
			DocIndex:    found + i + 1,
		})
	}
	return batch
}

// selectRow clicks the radio button of the given zero-based entity row,
// retrying because the table occasionally re-renders under the click.
func (n *Navigator) selectRow(row int) error {
	js := fmt.Sprintf(`(() => {
		const rows = document.querySelectorAll("%s tr");
		if (%d + 1 >= rows.length) return "missing";
		const radio = rows[%d + 1].querySelector("input[type='radio']");
		if (!radio) return "no-radio";
		radio.click();
		return "ok";
	})()`, resultsTable, row, row)

	var status string
	for attempt := 1; attempt <= 3; attempt++ {
		if err := n.sess.Run(
			chromedp.WaitVisible(resultsTable),
			chromedp.Evaluate(js, &status),
		); err == nil && status == "ok" {
			return nil
		}
		time.Sleep(time.Second)
	}
	return &ErrRowUnavailable{Row: row + 1, Reason: status}
}

// collectPageLinks scrapes the document links from the current detail page.
func (n *Navigator) collectPageLinks() ([]string, error) {
	var hrefs []string
	err := n.sess.Run(
		chromedp.WaitReady(`a[href^="javascript:fnSubmitThisForm("]`),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Evaluate(
			`Array.from(document.querySelectorAll('a[href^="javascript:fnSubmitThisForm("]')).map(a => a.getAttribute("href"))`,
			&hrefs,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("collect detail links: %w", err)
	}
	return FilterControlLinks(ExtractDocumentLinks(hrefs, n.cfg.SearchBase)), nil
}

// nextPage advances pagination if a next-page link exists.
func (n *Navigator) nextPage() (bool, error) {
	js := `(() => {
		const link = document.querySelector("a[href*='liennamesselected.asp?page=']")
			|| Array.from(document.querySelectorAll("a")).find(a => /next\s*page/i.test(a.textContent));
		if (!link) return false;
		link.click();
		return true;
	})()`

	var advanced bool
	if err := n.sess.Run(chromedp.Evaluate(js, &advanced)); err != nil {
		return false, fmt.Errorf("advance pagination: %w", err)
	}
	if advanced {
		if err := n.sess.Run(chromedp.WaitReady("body")); err != nil {
			return false, fmt.Errorf("wait for next page: %w", err)
		}
	}
	return advanced, nil
}

// returnToResults walks back to the results table, once per visited page.
// When the back button chain breaks it tries browser history, and as a last
// resort re-runs the search.
func (n *Navigator) returnToResults(req *types.SearchRequest, pages int) error {
	backOK := false
	for i := 0; i < pages; i++ {
		n.sess.Pace()
		err := n.sess.Run(
			chromedp.Click(`input[name='bBack']`, chromedp.NodeVisible),
			chromedp.WaitReady("body"),
		)
		if err != nil {
			log.Printf("[SEARCH] Back button failed: %v", err)
			backOK = false
			break
		}
		backOK = true
	}

	if !backOK {
		log.Printf("[SEARCH] Trying browser history back")
		err := n.sess.Run(
			chromedp.NavigateBack(),
			chromedp.WaitReady("body"),
			chromedp.WaitVisible(resultsTable),
		)
		if err == nil {
			return nil
		}
		log.Printf("[SEARCH] History back failed (%v), re-running the search", err)
		if err := n.Search(req); err != nil {
			return fmt.Errorf("re-search recovery: %w", err)
		}
		return nil
	}

	if err := n.sess.Run(chromedp.WaitVisible(resultsTable)); err != nil {
		log.Printf("[SEARCH] Results table slow to reload, re-running the search")
		return n.Search(req)
	}
	return nil
}

// FolderName reads the results header and derives the per-search output
// folder. Must be called while the results table is showing.
func (n *Navigator) FolderName(req *types.SearchRequest) (string, error) {
	var pageHTML string
	if err := n.sess.Run(chromedp.OuterHTML("html", &pageHTML)); err != nil {
		return "", fmt.Errorf("read results page: %w", err)
	}
	return SearchFolderName(pageHTML, req.SearchName), nil
}

// countEntityRows counts the result rows, excluding the header.
func (n *Navigator) countEntityRows() (int, error) {
	var count int
	js := fmt.Sprintf(`document.querySelectorAll("%s tr").length`, resultsTable)
	if err := n.sess.Run(chromedp.Evaluate(js, &count)); err != nil {
		return 0, fmt.Errorf("count result rows: %w", err)
	}
	if count > 0 {
		count--
	}
	return count, nil
}
