package model

import "time"

// CursorKeyLastIndexedBlock records discovery progress.
const CursorKeyLastIndexedBlock = "last_indexed_block"

// CursorEntry is a generic progress marker. Created on first write,
// overwritten thereafter, never deleted during normal operation.
type CursorEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
