package model

// Item is one source record from the archive catalog. Items are immutable
// after acquisition and persisted as one metadata file per item id.
type Item struct {
	ItemID             string          `json:"item_id"`
	Title              string          `json:"title"`
	Subtitle           string          `json:"subtitle"`
	ScopeNote          string          `json:"scope_note"`
	UseRestrictionNote string          `json:"use_restriction_note"`
	DigitalObjects     []DigitalObject `json:"digital_objects"`
}

// DigitalObject is one downloadable file belonging to an Item.
type DigitalObject struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
	FileSize int64  `json:"file_size"`
}
