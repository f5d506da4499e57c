// Package navigator drives the portal's multi-step name search: form fill,
// per-entity detail expansion, pagination, and document URL discovery.
package navigator

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Result rows link documents through a javascript form submit; the relative
// document path is the call's only argument.
var submitFormPattern = regexp.MustCompile(`fnSubmitThisForm\('([^']+)'\)`)

// ExtractDocumentLinks pulls document URLs out of the javascript hrefs on a
// results page and resolves them against the search base. Hrefs that do not
// carry a form-submit call are ignored.
func ExtractDocumentLinks(hrefs []string, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var out []string
	for _, h := range hrefs {
		m := submitFormPattern.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		rel, err := url.Parse(html.UnescapeString(m[1]))
		if err != nil {
			continue
		}
		out = append(out, baseURL.ResolveReference(rel).String())
	}
	return out
}

// FilterControlLinks drops URLs that are page-size controls rather than
// documents, and deduplicates while preserving order.
func FilterControlLinks(urls []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, u := range urls {
		if strings.Contains(strings.ToLower(u), "maxrows") {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// SearchFolderName derives the per-search output folder from the results
// header: the searched-scope values followed by the searched name, joined
// with underscores. Falls back to the sanitized search name when the header
// is missing.
func SearchFolderName(pageHTML, searchName string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return SanitizeName(searchName)
	}

	var parts []string
	collect := func(label string) {
		doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
			if strings.TrimSpace(td.Text()) != label {
				return true
			}
			td.NextAll().Find("strong").Each(func(_ int, s *goquery.Selection) {
				if t := strings.TrimSpace(s.Text()); t != "" {
					parts = append(parts, strings.ReplaceAll(strings.ToLower(t), " ", "_"))
				}
			})
			return false
		})
	}
	collect("Searched:")
	collect("Name Searched:")

	if len(parts) == 0 {
		return SanitizeName(searchName)
	}
	return strings.Join(parts, "_")
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SanitizeName reduces a search name to a filesystem-safe token.
func SanitizeName(name string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
