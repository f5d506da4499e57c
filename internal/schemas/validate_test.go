package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSearchRequest_Valid(t *testing.T) {
	raw := []byte(`{
		"party_type": "2",
		"instrument_type": "ALL",
		"county": "64",
		"include_counties": "0",
		"search_name": "1290 VETERANS MEMORIAL LLC",
		"from_date": "01/01/1990",
		"to_date": "08/17/2025",
		"max_rows": "100",
		"table_type": "1"
	}`)

	req, err := ValidateSearchRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "1290 VETERANS MEMORIAL LLC", req.SearchName)
	assert.Equal(t, "64", req.CountyID)
}

func TestValidateSearchRequest_DefaultsApplied(t *testing.T) {
	raw := []byte(`{
		"party_type": "2",
		"instrument_type": "ALL",
		"county": "-1",
		"search_name": "SMITH",
		"from_date": "01/01/2020",
		"to_date": "12/31/2020"
	}`)

	req, err := ValidateSearchRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "100", req.MaxRows)
	assert.Equal(t, "1", req.TableType)
}

func TestValidateSearchRequest_MissingRequiredFields(t *testing.T) {
	raw := []byte(`{"party_type": "2"}`)

	_, err := ValidateSearchRequest(raw)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateSearchRequest_BadDatePattern(t *testing.T) {
	raw := []byte(`{
		"party_type": "2",
		"instrument_type": "ALL",
		"county": "64",
		"search_name": "SMITH",
		"from_date": "1990-01-01",
		"to_date": "08/17/2025"
	}`)

	_, err := ValidateSearchRequest(raw)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	found := false
	for _, fe := range ve.Errors {
		if fe.Field == "from_date" {
			found = true
		}
	}
	assert.True(t, found, "expected a from_date field error, got %v", ve.Errors)
}

func TestValidateSearchRequest_RejectsUnknownKeys(t *testing.T) {
	raw := []byte(`{
		"party_type": "2",
		"instrument_type": "ALL",
		"county": "64",
		"search_name": "SMITH",
		"from_date": "01/01/2020",
		"to_date": "12/31/2020",
		"mystery_field": "x"
	}`)

	_, err := ValidateSearchRequest(raw)
	assert.Error(t, err)
}

func TestValidateSearchRequest_NotJSON(t *testing.T) {
	_, err := ValidateSearchRequest([]byte("not json at all"))
	assert.Error(t, err)
}
