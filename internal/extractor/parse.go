package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/lien-harvester/internal/types"
)

// skipMarkers flag documents that are no longer live liens; the crawl records
// them as done without extracting anything.
var skipMarkers = []string{"CANCELLATION", "CANCELLED", "FORECLOSURE", "FORECLOSED"}

var amountPattern = regexp.MustCompile(`\$\s*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`)

// ParseDetailPage parses one document detail page into a record plus the
// viewer parameters, if the page carries a viewer script. A page matching a
// skip marker returns a SkipError.
func ParseDetailPage(pageHTML, sourceURL string) (*types.ExtractedRecord, *ViewerParams, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, nil, err
	}

	bodyText := strings.ToUpper(doc.Find("body").Text())
	for _, marker := range skipMarkers {
		if strings.Contains(bodyText, marker) {
			return nil, nil, &types.SkipError{Reason: marker}
		}
	}

	rec := &types.ExtractedRecord{SourceURL: sourceURL}

	parseHeaderTable(doc, rec)
	parseDescription(doc, rec)
	rec.Debtor = partyValues(doc, "Direct Party (Debtor)")
	rec.Claimant = partyValues(doc, "Reverse Party (Claimant)")
	parseCrossReferences(doc, rec)

	if info := strings.TrimSpace(doc.Find("i").First().Text()); info != "" {
		rec.SetExtra("record_info", info)
	}

	params := viewerParamsFromPage(doc)
	if params != nil {
		rec.ViewerURL = params.URL()
	}
	return rec, params, nil
}

// parseHeaderTable reads the fixed-layout document header row: county,
// instrument, date filed, time, book, page.
func parseHeaderTable(doc *goquery.Document, rec *types.ExtractedRecord) {
	table := doc.Find(`table[width='800'][cellpadding='0'][cellspacing='0']`).First()
	if table.Length() == 0 {
		return
	}
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return
	}

	var cols []string
	rows.Eq(1).Find("td").Each(func(_ int, td *goquery.Selection) {
		cols = append(cols, cellText(td))
	})
	if len(cols) < 6 {
		return
	}
	rec.County = cols[0]
	rec.Instrument = cols[1]
	rec.DateFiled = cols[2]
	rec.TimeFiled = cols[3]
	rec.Book = cols[4]
	rec.Page = cols[5]
}

// parseDescription finds the description table and pulls the free text plus
// any dollar amount embedded in it.
func parseDescription(doc *goquery.Document, rec *types.ExtractedRecord) {
	label := findCell(doc, "Description")
	if label == nil {
		return
	}
	rows := label.Closest("table").Find("tr")
	if rows.Length() < 2 {
		return
	}
	rec.Description = cellText(rows.Eq(1).Find("td").First())
	if m := amountPattern.FindStringSubmatch(rec.Description); m != nil {
		rec.Amount = strings.ReplaceAll(m[1], ",", "")
	}
}

// partyValues joins every cell after a party label, matching how the portal
// lists multiple debtors or claimants as sibling cells.
func partyValues(doc *goquery.Document, label string) string {
	cell := findCell(doc, label)
	if cell == nil {
		return ""
	}
	var parts []string
	cell.Closest("table").Find("td").Each(func(i int, td *goquery.Selection) {
		if i == 0 {
			return // the label cell
		}
		if t := cellText(td); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "; ")
}

func parseCrossReferences(doc *goquery.Document, rec *types.ExtractedRecord) {
	cell := findCell(doc, "Cross-Referenced Instruments")
	if cell == nil {
		return
	}
	var refs []string
	cell.Closest("table").Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		var cols []string
		any := false
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			t := cellText(td)
			cols = append(cols, t)
			if t != "" {
				any = true
			}
		})
		if any {
			refs = append(refs, strings.Join(cols, " | "))
		}
	})
	rec.CrossReferences = strings.Join(refs, "; ")
}

// viewerParamsFromPage finds the ViewImage script and parses its variables.
func viewerParamsFromPage(doc *goquery.Document) *ViewerParams {
	var params *ViewerParams
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ViewImage") {
			return true
		}
		if p, err := ParseViewerParams(text); err == nil {
			params = p
		}
		return false
	})
	return params
}

// findCell returns the first leaf td whose text contains the label. Leaf
// cells only, so a wrapper cell enclosing the whole layout never matches.
func findCell(doc *goquery.Document, label string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.Find("td").Length() > 0 {
			return true
		}
		if strings.Contains(cellText(td), label) {
			found = td
			return false
		}
		return true
	})
	return found
}

// cellText collapses a cell's text the way a browser renders it.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
