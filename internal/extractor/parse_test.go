package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lien-harvester/internal/types"
)

const detailPage = `<html><body>
<table width="800" cellpadding="0" cellspacing="0">
  <tr><td>County</td><td>Instrument</td><td>Date Filed</td><td>Time</td><td>Book</td><td>Page</td></tr>
  <tr><td>Fulton</td><td>Lien</td><td>01/15/2024</td><td>10:32 AM</td><td>1234</td><td>56</td></tr>
</table>
<table>
  <tr><td>Description</td></tr>
  <tr><td>State tax execution for $1,234.56 recorded</td></tr>
</table>
<table>
  <tr><td>Direct Party (Debtor)</td></tr>
  <tr><td>SMITH, JOHN</td><td>SMITH, JANE</td></tr>
</table>
<table>
  <tr><td>Reverse Party (Claimant)</td></tr>
  <tr><td>GEORGIA DEPT OF REVENUE</td></tr>
</table>
<table>
  <tr><td>Cross-Referenced Instruments</td></tr>
  <tr><td>Lien Book 9</td><td>Page 12</td></tr>
</table>
<i>1 of 3 records</i>
<script>
function ViewImage() {}
var iLienID = 987654;
var county = "60";
var book = "1234";
var page = "56";
var user = 11223;
var appid = 4;
</script>
</body></html>`

func TestParseDetailPage_FullRecord(t *testing.T) {
	rec, params, err := ParseDetailPage(detailPage, "https://search.gsccca.org/Lien/lienfinal.asp?x=1")
	require.NoError(t, err)
	require.NotNil(t, params)

	assert.Equal(t, "Fulton", rec.County)
	assert.Equal(t, "Lien", rec.Instrument)
	assert.Equal(t, "01/15/2024", rec.DateFiled)
	assert.Equal(t, "10:32 AM", rec.TimeFiled)
	assert.Equal(t, "1234", rec.Book)
	assert.Equal(t, "56", rec.Page)
	assert.Equal(t, "State tax execution for $1,234.56 recorded", rec.Description)
	assert.Equal(t, "1234.56", rec.Amount)
	assert.Equal(t, "SMITH, JOHN; SMITH, JANE", rec.Debtor)
	assert.Equal(t, "GEORGIA DEPT OF REVENUE", rec.Claimant)
	assert.Equal(t, "Lien Book 9 | Page 12", rec.CrossReferences)
	assert.Equal(t, "1 of 3 records", rec.Extra["record_info"])
	assert.Equal(t, "https://search.gsccca.org/Lien/lienfinal.asp?x=1", rec.SourceURL)
}

func TestParseDetailPage_ViewerURL(t *testing.T) {
	rec, params, err := ParseDetailPage(detailPage, "https://example.org")
	require.NoError(t, err)
	require.NotNil(t, params)

	want := "https://search.gsccca.org/Imaging/HTML5Viewer.aspx?id=987654&key1=1234&key2=56&county=60&userid=11223&appid=4"
	assert.Equal(t, want, params.URL())
	assert.Equal(t, want, rec.ViewerURL)
}

func TestParseDetailPage_SkipMarkers(t *testing.T) {
	for _, marker := range []string{"CANCELLATION", "FORECLOSED"} {
		page := "<html><body><p>NOTICE OF " + marker + "</p></body></html>"
		_, _, err := ParseDetailPage(page, "https://example.org")
		require.Error(t, err)
		assert.True(t, types.IsSkip(err), "marker %s should produce a skip", marker)
	}
}

func TestParseDetailPage_NoViewerScript(t *testing.T) {
	page := `<html><body>
	<table width="800" cellpadding="0" cellspacing="0">
	  <tr><td>h</td></tr><tr><td>Cobb</td><td>Lien</td><td>02/01/2024</td><td>9:00 AM</td><td>77</td><td>8</td></tr>
	</table></body></html>`

	rec, params, err := ParseDetailPage(page, "https://example.org")
	require.NoError(t, err)
	assert.Nil(t, params)
	assert.Empty(t, rec.ViewerURL)
	assert.Equal(t, "Cobb", rec.County)
}
