package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDocumentLinks_ResolvesRelativePaths(t *testing.T) {
	hrefs := []string{
		`javascript:fnSubmitThisForm('lienfinal.asp?book=123&amp;page=45')`,
		`javascript:void(0)`,
		`javascript:fnSubmitThisForm('lienfinal.asp?book=200&amp;page=7')`,
	}

	urls := ExtractDocumentLinks(hrefs, "https://search.gsccca.org/Lien/")
	require.Len(t, urls, 2)
	assert.Equal(t, "https://search.gsccca.org/Lien/lienfinal.asp?book=123&page=45", urls[0])
	assert.Equal(t, "https://search.gsccca.org/Lien/lienfinal.asp?book=200&page=7", urls[1])
}

func TestExtractDocumentLinks_IgnoresNonSubmitHrefs(t *testing.T) {
	assert.Empty(t, ExtractDocumentLinks([]string{"#", "", "https://example.com"}, "https://search.gsccca.org/Lien/"))
}

func TestFilterControlLinks_DropsMaxRowsAndDuplicates(t *testing.T) {
	urls := []string{
		"https://search.gsccca.org/Lien/lienfinal.asp?book=1",
		"https://search.gsccca.org/Lien/liennamesselected.asp?MaxRows=200",
		"https://search.gsccca.org/Lien/lienfinal.asp?book=1",
		"https://search.gsccca.org/Lien/lienfinal.asp?book=2",
	}

	out := FilterControlLinks(urls)
	assert.Equal(t, []string{
		"https://search.gsccca.org/Lien/lienfinal.asp?book=1",
		"https://search.gsccca.org/Lien/lienfinal.asp?book=2",
	}, out)
}

func TestSearchFolderName_JoinsHeaderValues(t *testing.T) {
	pageHTML := `<html><body><table>
		<tr><td>Searched:</td><td><strong>Fulton County</strong></td></tr>
		<tr><td>Name Searched:</td><td><strong>ACME HOLDINGS</strong></td></tr>
	</table></body></html>`

	assert.Equal(t, "fulton_county_acme_holdings", SearchFolderName(pageHTML, "ACME HOLDINGS"))
}

func TestSearchFolderName_FallsBackToSearchName(t *testing.T) {
	assert.Equal(t, "acme_holdings", SearchFolderName("<html><body></body></html>", "ACME Holdings!"))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "smith_john_jr", SanitizeName("Smith, John (Jr.)"))
}

func TestDiscoveryBatch_IndicesAreOneBased(t *testing.T) {
	urls := []string{
		"https://search.gsccca.org/Lien/lienfinal.asp?b=1",
		"https://search.gsccca.org/Lien/lienfinal.asp?b=2",
	}

	first := discoveryBatch("acme", 0, 0, urls)
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].EntityIndex)
	assert.Equal(t, 1, first[0].DocIndex)
	assert.Equal(t, 2, first[1].DocIndex)

	// A later pagination page of the third entity row continues the count.
	second := discoveryBatch("acme", 2, 25, urls[:1])
	require.Len(t, second, 1)
	assert.Equal(t, 3, second[0].EntityIndex)
	assert.Equal(t, 26, second[0].DocIndex)
}
