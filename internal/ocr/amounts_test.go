package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmounts_KeywordOutranksMagnitude(t *testing.T) {
	text := "TAX $500.00\nTOTAL DUE: $125.43\n"

	cands := ExtractAmounts(text)
	require.NotEmpty(t, cands)

	// The smaller amount wins because its keyword weighs more.
	assert.InDelta(t, 125.43, cands[0].Value, 0.001)
	assert.Equal(t, "TOTAL DUE", cands[0].Keyword)
}

func TestExtractAmounts_MagnitudeBreaksTies(t *testing.T) {
	text := "TAX $50.00\nTAX $5000.00\n"

	cands := ExtractAmounts(text)
	require.Len(t, cands, 2)
	assert.InDelta(t, 5000.00, cands[0].Value, 0.001)
}

func TestExtractAmounts_SectionSignFixedToDollar(t *testing.T) {
	cands := ExtractAmounts("TOTAL DUE §125.43")
	require.Len(t, cands, 1)
	assert.InDelta(t, 125.43, cands[0].Value, 0.001)
}

func TestExtractAmounts_MisreadSBeforeDigit(t *testing.T) {
	cands := ExtractAmounts("BALANCE DUE S125.43")
	require.Len(t, cands, 1)
	assert.InDelta(t, 125.43, cands[0].Value, 0.001)
}

func TestExtractAmounts_NoMoney(t *testing.T) {
	assert.Empty(t, ExtractAmounts("no figures on this page"))
}

func TestFallbackComponentTotal_SumsComponents(t *testing.T) {
	text := "TAX 50.00\nPENALTY 25.00\nINTEREST 20.00\nFEES 10.00\n"

	sum, ok := FallbackComponentTotal(text)
	require.True(t, ok)
	assert.InDelta(t, 105.00, sum, 0.001)
}

func TestFallbackComponentTotal_SubtractsPayments(t *testing.T) {
	text := "TAX 100.00\nPENALTY 20.00\nPAYMENT 30.00\n"

	sum, ok := FallbackComponentTotal(text)
	require.True(t, ok)
	assert.InDelta(t, 90.00, sum, 0.001)
}

func TestFallbackComponentTotal_SingleComponentRejected(t *testing.T) {
	_, ok := FallbackComponentTotal("TAX 100.00\n")
	assert.False(t, ok)
}

func TestFuzzyTotal_MatchesGarbledLabel(t *testing.T) {
	// "TOTAI" is the common misread of TOTAL.
	cand, ok := FuzzyTotal("TOTAI DUE 342.10")
	require.True(t, ok)
	assert.InDelta(t, 342.10, cand.Value, 0.001)
}

func TestFuzzyTotal_RejectsUnrelatedLines(t *testing.T) {
	_, ok := FuzzyTotal("RECORDING PAGE 2 OF 3 12.00")
	assert.False(t, ok)
}
