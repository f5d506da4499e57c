package types

// ExtractedRecord is one document's structured output: header fields parsed
// from the detail page HTML, the generated PDF, and the fields recovered from
// the scanned page images. It is immutable once appended to the result sink.
type ExtractedRecord struct {
	// Header fields parsed from the detail page tables.
	County     string `csv:"county" json:"county"`
	Instrument string `csv:"instrument" json:"instrument"`
	DateFiled  string `csv:"date_filed" json:"date_filed"`
	TimeFiled  string `csv:"time_filed" json:"time_filed"`
	Book       string `csv:"book" json:"book"`
	Page       string `csv:"page" json:"page"`

	// Description is the free-text description table contents; Amount is the
	// first dollar amount found inside it, when present.
	Description string `csv:"description" json:"description"`
	Amount      string `csv:"amount" json:"amount"`

	// Party tables. Multiple parties are joined with "; ".
	Debtor   string `csv:"debtor" json:"debtor"`
	Claimant string `csv:"claimant" json:"claimant"`

	// CrossReferences holds book/page references to related filings.
	CrossReferences string `csv:"cross_references" json:"cross_references"`

	// Image capture output. Empty when the page exposes no viewer.
	ViewerURL   string `csv:"viewer_url" json:"viewer_url"`
	PDFFilename string `csv:"pdf_filename" json:"pdf_filename"`
	PDFPath     string `csv:"pdf_path" json:"pdf_path"`

	// OCR-derived fields.
	RawOCRText  string   `csv:"ocr_raw_text" json:"ocr_raw_text"`
	Address     string   `csv:"address" json:"address"`
	Zipcode     string   `csv:"zipcode" json:"zipcode"`
	TotalDue    string   `csv:"total_due" json:"total_due"`
	OCRAddress  []string `csv:"ocr_address" json:"ocr_address"`
	OCRTotalDue string   `csv:"ocr_total_due" json:"ocr_total_due"`

	// SourceURL is the detail page this record was extracted from.
	SourceURL string `csv:"source_url" json:"source_url"`

	// Extra catches key/value rows the detail page layout grows that the
	// named fields above do not anticipate.
	Extra map[string]string `csv:"-" json:"extra,omitempty"`
}

// SetExtra records an unanticipated key/value pair from the detail page.
func (r *ExtractedRecord) SetExtra(key, value string) {
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	r.Extra[key] = value
}
