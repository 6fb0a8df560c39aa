package models

import "time"

// Health is the body of /healthz.
type Health struct {
	Status          string    `json:"status"`
	SnapshotVersion uint64    `json:"snapshotVersion"`
	Stops           int       `json:"stops"`
	Routes          int       `json:"routes"`
	LoadedAt        time.Time `json:"loadedAt"`
	LastError       string    `json:"lastError,omitempty"`
}
