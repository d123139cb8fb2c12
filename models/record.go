package models

import (
	"maps"
	"time"
)

// Record is a user-owned entity (task, goal or the profile document) as the
// client sees it. ID is generated by the client and stays the same from the
// optimistic creation through remote confirmation.
type Record struct {
	ID         string         `json:"id"`
	Collection Collection     `json:"collection"`
	Fields     map[string]any `json:"fields"`
	State      RecordState    `json:"state,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Confirmed reports whether the remote store is known to hold this version.
func (r Record) Confirmed() bool {
	return r.State == StateConfirmed
}

// Clone returns a deep copy of r so callers can mutate Fields freely.
func (r Record) Clone() Record {
	r.Fields = CloneFields(r.Fields)
	return r
}

// String returns the "title" field when present, falling back to the id.
func (r Record) String() string {
	if title, ok := r.Fields["title"].(string); ok && title != "" {
		return title
	}
	return r.ID
}

// CloneFields deep-copies a field map. Nested maps and slices are copied,
// scalars are shared.
func CloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return CloneFields(value)
	case []any:
		out := make([]any, len(value))
		for i := range value {
			out[i] = cloneValue(value[i])
		}
		return out
	case []string:
		out := make([]string, len(value))
		copy(out, value)
		return out
	case Patch:
		return Patch(CloneFields(value))
	default:
		return v
	}
}

// MergeFields applies patch on top of base (top-level keys) and returns a new map.
func MergeFields(base, patch map[string]any) map[string]any {
	out := CloneFields(base)
	if out == nil {
		out = make(map[string]any, len(patch))
	}
	maps.Copy(out, CloneFields(patch))
	return out
}

// Document is a record as stored by the remote document service.
type Document struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ToRecord converts a remote document into a confirmed local record.
func (d Document) ToRecord(collection Collection) Record {
	return Record{
		ID:         d.ID,
		Collection: collection,
		Fields:     CloneFields(d.Data),
		State:      StateConfirmed,
		UpdatedAt:  d.UpdatedAt,
	}
}

// Snapshot is the full content of one collection delivered by a subscription.
type Snapshot struct {
	Collection Collection `json:"collection"`
	Documents  []Document `json:"documents"`
}

// Records converts every document of the snapshot into confirmed records.
func (s Snapshot) Records() []Record {
	records := make([]Record, 0, len(s.Documents))
	for _, doc := range s.Documents {
		records = append(records, doc.ToRecord(s.Collection))
	}
	return records
}
