// Package types defines the structured data passed between the crawl pipeline stages.
package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// dateLayout is the portal's date format for the from/to search fields.
const dateLayout = "01/02/2006"

// SearchRequest is the immutable parameter set for one crawl. It mirrors the
// portal's name-search form fields and is created once per invocation by the
// control layer; nothing in the pipeline mutates it.
type SearchRequest struct {
	// PartyType is the portal's party type code (e.g. "2" for direct party).
	PartyType string `json:"party_type" validate:"required"`
	// InstrumentType is the instrument code or "ALL".
	InstrumentType string `json:"instrument_type" validate:"required"`
	// CountyID is the portal's numeric county code; "-1" means statewide.
	CountyID string `json:"county" validate:"required"`
	// IncludeCounties is the bolInclude checkbox value ("0" or "1").
	IncludeCounties string `json:"include_counties" validate:"omitempty,oneof=0 1"`
	// SearchName is the party name to search.
	SearchName string `json:"search_name" validate:"required,min=2"`
	// FromDate and ToDate bound the filing date range, MM/DD/YYYY.
	FromDate string `json:"from_date" validate:"required"`
	ToDate   string `json:"to_date" validate:"required"`
	// MaxRows is the result page size the portal supports (e.g. "100").
	MaxRows string `json:"max_rows" validate:"omitempty,numeric"`
	// TableType selects the portal's result table layout.
	TableType string `json:"table_type" validate:"omitempty,numeric"`
}

var validate = validator.New()

// Validate checks required fields and the portal date format.
func (r *SearchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("search request invalid: %w", err)
	}

	from, err := time.Parse(dateLayout, r.FromDate)
	if err != nil {
		return fmt.Errorf("search request invalid: from_date %q is not MM/DD/YYYY", r.FromDate)
	}
	to, err := time.Parse(dateLayout, r.ToDate)
	if err != nil {
		return fmt.Errorf("search request invalid: to_date %q is not MM/DD/YYYY", r.ToDate)
	}
	if to.Before(from) {
		return fmt.Errorf("search request invalid: to_date %s precedes from_date %s", r.ToDate, r.FromDate)
	}

	return nil
}

// WithDefaults returns a copy with the portal's default values filled in for
// the optional fields. The receiver is not modified.
func (r SearchRequest) WithDefaults() SearchRequest {
	if r.IncludeCounties == "" {
		r.IncludeCounties = "0"
	}
	if r.MaxRows == "" {
		r.MaxRows = "100"
	}
	if r.TableType == "" {
		r.TableType = "1"
	}
	return r
}
