package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLine(text string, y, height float64) Line {
	return Line{Text: text, Bounds: Rect{X: 10, Y: y, Width: 400, Height: height}}
}

func TestExtractAddresses_WalksPrecedingLines(t *testing.T) {
	lines := []Line{
		makeLine("JOHN Q DEBTOR", 100, 20),
		makeLine("123 PEACH ST", 125, 20),
		makeLine("ATLANTA, GA 30303", 150, 20),
	}

	cands := ExtractAddresses(lines)
	require.Len(t, cands, 1)
	assert.Equal(t, "30303", cands[0].Zipcode)
	assert.Equal(t, "123 PEACH ST, ATLANTA, GA 30303", cands[0].Address)
}

func TestExtractAddresses_StopsAtParagraphGap(t *testing.T) {
	lines := []Line{
		makeLine("456 ELM AVE", 0, 20),
		// 200px below the previous line, far past 2.5 line heights.
		makeLine("789 OAK DR", 220, 20),
		makeLine("MACON, GA 31201", 245, 20),
	}

	cands := ExtractAddresses(lines)
	require.Len(t, cands, 1)
	assert.NotContains(t, cands[0].Address, "ELM")
	assert.Contains(t, cands[0].Address, "789 OAK DR")
}

func TestExtractAddresses_SkipsNonAddressBlocks(t *testing.T) {
	lines := []Line{
		makeLine("FULTON COUNTY TAX COMMISSIONER", 100, 20),
		makeLine("ATLANTA, GA 30303", 125, 20),
	}

	assert.Empty(t, ExtractAddresses(lines))
}

func TestExtractAddresses_DeduplicatesNormalizedBlocks(t *testing.T) {
	lines := []Line{
		makeLine("123 Peach St", 100, 20),
		makeLine("Atlanta, GA 30303", 125, 20),
		makeLine("123  PEACH  ST", 500, 20),
		makeLine("ATLANTA, GA 30303", 525, 20),
	}

	cands := ExtractAddresses(lines)
	assert.Len(t, cands, 1)
}

func TestExtractAddresses_TrimsToPOBoxStart(t *testing.T) {
	lines := []Line{
		makeLine("MAIL CORRESPONDENCE TO P.O. BOX 821", 100, 20),
		makeLine("SAVANNAH, GA 31402", 125, 20),
	}

	cands := ExtractAddresses(lines)
	require.Len(t, cands, 1)
	assert.Equal(t, "P.O. BOX 821, SAVANNAH, GA 31402", cands[0].Address)
}

func TestExtractAddresses_NoAnchorNoMatch(t *testing.T) {
	lines := []Line{
		makeLine("123 PEACH ST", 100, 20),
		makeLine("ATLANTA GEORGIA", 125, 20),
	}

	assert.Empty(t, ExtractAddresses(lines))
}
