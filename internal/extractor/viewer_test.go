package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseViewerParams_MissingVariable(t *testing.T) {
	script := `var iLienID = 1; var county = "60";`

	_, err := ParseViewerParams(script)
	var noViewer *ErrNoViewer
	require.ErrorAs(t, err, &noViewer)
	assert.Equal(t, "book", noViewer.Missing)
}

func TestPDFName_FirstDebtorSanitized(t *testing.T) {
	v := &ViewerParams{Page: "56", County: "60"}

	name := PDFName("SMITH, JOHN; SMITH, JANE", v)
	assert.Equal(t, "SMITH_JOHN_page_56_60.pdf", name)
}

func TestPDFName_EmptyDebtor(t *testing.T) {
	v := &ViewerParams{Page: "1", County: "2"}
	assert.Equal(t, "unknown_debtor_page_1_2.pdf", PDFName("", v))
}

func TestPDFName_TruncatesLongNames(t *testing.T) {
	long := "VERY LONG COMPANY NAME OF GEORGIA LLC AND ASSOCIATES INCORPORATED"
	v := &ViewerParams{Page: "1", County: "2"}

	name := PDFName(long, v)
	assert.LessOrEqual(t, len(name), 40+len("_page_1_2.pdf"))
}
