package domain

import (
	"encoding/json"
	"time"
)

// FlowRecord is a stored flow: its interchange document plus the metadata the
// store keeps around it. Version is the optimistic-concurrency counter of the record,
// independent of the in-memory Graph version.
type FlowRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Owner     string          `json:"owner,omitempty"`
	Version   uint64          `json:"version"`
	Document  json.RawMessage `json:"document"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Clone returns a copy that shares no memory with r.
func (r *FlowRecord) Clone() *FlowRecord {
	c := *r
	c.Document = append(json.RawMessage(nil), r.Document...)
	return &c
}
