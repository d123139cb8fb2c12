package models

// WriteKind is the kind of a single write inside a batch.
type WriteKind string

const (
	WriteSet    WriteKind = "set"
	WriteUpdate WriteKind = "update"
	WriteDelete WriteKind = "delete"
)

// SetOptions controls document replacement. With Merge the given fields are
// merged into an existing document instead of replacing it.
type SetOptions struct {
	Merge bool `json:"merge"`
}

// BatchWrite is one write of an atomic batch. The owner of the path is taken
// from the authenticated request, so only collection and id travel.
type BatchWrite struct {
	Kind       WriteKind      `json:"op"`
	Collection Collection     `json:"collection"`
	DocID      string         `json:"id"`
	Data       map[string]any `json:"data,omitempty"`
	Merge      bool           `json:"merge,omitempty"`
}

// BatchRequest is the body of POST /api/docs/batch.
type BatchRequest struct {
	Writes []BatchWrite `json:"writes"`
	Length int          `json:"length"`
}

// ListResponse is the body returned when listing a collection.
type ListResponse struct {
	Documents []Document `json:"documents"`
	Length    int        `json:"length"`
}
