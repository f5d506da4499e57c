package types

// StatusDone is the checkpoint status value written once a discovered URL has
// been fully processed. Any other value, including empty, counts as pending.
const StatusDone = "Done"

// DiscoveredURL is one row of the resume ledger: a document URL found during
// discovery plus its processing status. Entity and document indices are
// 1-based, assigned at discovery time and never renumbered.
type DiscoveredURL struct {
	URL         string `csv:"url" json:"url"`
	Status      string `csv:"status" json:"status"`
	SearchName  string `csv:"search_name" json:"search_name"`
	EntityIndex int    `csv:"entity_index" json:"entity_index"`
	DocIndex    int    `csv:"doc_index" json:"doc_index"`
}

// Done reports whether the row has been processed.
func (d *DiscoveredURL) Done() bool {
	return d.Status == StatusDone
}
