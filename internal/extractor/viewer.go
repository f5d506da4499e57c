// Package extractor turns a discovered document URL into a structured record:
// it parses the detail page, captures the document image from the portal's
// HTML5 viewer, and assembles the captured pages into a PDF.
package extractor

import (
	"fmt"
	"regexp"
	"strings"
)

const viewerBaseURL = "https://search.gsccca.org/Imaging/HTML5Viewer.aspx"

// ViewerParams are the arguments the detail page's ViewImage script passes to
// the document viewer.
type ViewerParams struct {
	LienID string
	County string
	Book   string
	Page   string
	UserID string
	AppID  string
}

var (
	lienIDPattern = regexp.MustCompile(`var iLienID\s*=\s*(\d+);`)
	countyPattern = regexp.MustCompile(`var county\s*=\s*"(\d+)"`)
	bookPattern   = regexp.MustCompile(`var book\s*=\s*"(\d+)"`)
	pagePattern   = regexp.MustCompile(`var page\s*=\s*"(\d+)"`)
	userPattern   = regexp.MustCompile(`var user\s*=\s*(\d+)`)
	appIDPattern  = regexp.MustCompile(`var appid\s*=\s*(\d+)`)
)

// ErrNoViewer indicates the detail page carries no viewer script, which
// happens for records whose image was never digitized.
type ErrNoViewer struct {
	Missing string
}

func (e *ErrNoViewer) Error() string {
	return fmt.Sprintf("viewer script incomplete: missing %s", e.Missing)
}

// ParseViewerParams extracts the viewer arguments from the script text.
func ParseViewerParams(script string) (*ViewerParams, error) {
	get := func(p *regexp.Regexp, name string) (string, error) {
		m := p.FindStringSubmatch(script)
		if m == nil {
			return "", &ErrNoViewer{Missing: name}
		}
		return m[1], nil
	}

	var (
		v   ViewerParams
		err error
	)
	if v.LienID, err = get(lienIDPattern, "iLienID"); err != nil {
		return nil, err
	}
	if v.County, err = get(countyPattern, "county"); err != nil {
		return nil, err
	}
	if v.Book, err = get(bookPattern, "book"); err != nil {
		return nil, err
	}
	if v.Page, err = get(pagePattern, "page"); err != nil {
		return nil, err
	}
	if v.UserID, err = get(userPattern, "user"); err != nil {
		return nil, err
	}
	if v.AppID, err = get(appIDPattern, "appid"); err != nil {
		return nil, err
	}
	return &v, nil
}

// URL builds the HTML5 viewer URL for these parameters.
func (v *ViewerParams) URL() string {
	return fmt.Sprintf("%s?id=%s&key1=%s&key2=%s&county=%s&userid=%s&appid=%s",
		viewerBaseURL, v.LienID, v.Book, v.Page, v.County, v.UserID, v.AppID)
}

// PDFName derives the document's PDF filename from the first debtor and the
// viewer book page and county codes.
func PDFName(debtor string, v *ViewerParams) string {
	name := debtor
	if i := strings.Index(name, ";"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown_debtor"
	}
	if len(name) > 40 {
		name = name[:40]
	}
	name = strings.ReplaceAll(name, ",", "")
	name = strings.Join(strings.Fields(name), "_")
	return fmt.Sprintf("%s_page_%s_%s.pdf", name, v.Page, v.County)
}
