package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDescription_RestOfLabeledLine(t *testing.T) {
	text := "STATE OF GEORGIA\nDescription: All that tract of land in Land Lot 42\n"

	assert.Equal(t, "All that tract of land in Land Lot 42", ExtractDescription(text))
}

func TestExtractDescription_NextNonEmptyLine(t *testing.T) {
	text := "Property Location:\n\n1422 Ridgewood Terrace\n"

	assert.Equal(t, "1422 Ridgewood Terrace", ExtractDescription(text))
}

func TestExtractDescription_RejectsPureNumbers(t *testing.T) {
	assert.Equal(t, "", ExtractDescription("Description: 12345.00\n"))
}

func TestExtractDescription_RejectsFeeVocabulary(t *testing.T) {
	assert.Equal(t, "", ExtractDescription("Description: penalty and interest fees\n"))
}

func TestExtractDescription_NoLabel(t *testing.T) {
	assert.Equal(t, "", ExtractDescription("nothing labeled here\n"))
}
