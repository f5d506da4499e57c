package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() SearchRequest {
	return SearchRequest{
		PartyType:      "2",
		InstrumentType: "ALL",
		CountyID:       "64",
		SearchName:     "ACME HOLDINGS LLC",
		FromDate:       "01/01/1990",
		ToDate:         "08/17/2025",
	}.WithDefaults()
}

func TestSearchRequest_Valid(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate())
}

func TestSearchRequest_WithDefaults(t *testing.T) {
	req := SearchRequest{
		PartyType:      "2",
		InstrumentType: "ALL",
		CountyID:       "-1",
		SearchName:     "SMITH",
		FromDate:       "01/01/2020",
		ToDate:         "12/31/2020",
	}.WithDefaults()

	assert.Equal(t, "0", req.IncludeCounties)
	assert.Equal(t, "100", req.MaxRows)
	assert.Equal(t, "1", req.TableType)
}

func TestSearchRequest_MissingName(t *testing.T) {
	req := validRequest()
	req.SearchName = ""
	assert.Error(t, req.Validate())
}

func TestSearchRequest_BadDateFormat(t *testing.T) {
	req := validRequest()
	req.FromDate = "1990-01-01"
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MM/DD/YYYY")
}

func TestSearchRequest_ReversedDateRange(t *testing.T) {
	req := validRequest()
	req.FromDate = "01/01/2025"
	req.ToDate = "01/01/2020"
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precedes")
}

func TestDiscoveredURL_Done(t *testing.T) {
	row := DiscoveredURL{URL: "https://example.com/doc", Status: ""}
	assert.False(t, row.Done())

	row.Status = "in-progress"
	assert.False(t, row.Done(), "any status other than Done counts as pending")

	row.Status = StatusDone
	assert.True(t, row.Done())
}

func TestSkipError(t *testing.T) {
	err := error(&SkipError{Reason: "CANCELLATION marker on page"})
	assert.True(t, IsSkip(err))
	assert.False(t, IsSkip(assert.AnError))
}
