package library

// Segment is one unit of extracted document text plus its provenance tags.
type Segment struct {
	Text       string         `json:"text"`
	Page       *int           `json:"page,omitempty"`
	Confidence *float64       `json:"confidence,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
