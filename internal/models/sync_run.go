package models

import (
	"time"

	"github.com/cashback-engine/internal/types"
)

// SyncRun is the audit record for one network's slice of a reconciliation
// cycle, stored in ClickHouse for operator reporting.
type SyncRun struct {
	Network    types.Network `json:"network" ch:"network"`
	StartedAt  time.Time     `json:"startedAt" ch:"started_at"`
	Fetched    uint64        `json:"fetched" ch:"fetched"`
	Imported   uint64        `json:"imported" ch:"imported"`
	Updated    uint64        `json:"updated" ch:"updated"`
	Credited   uint64        `json:"credited" ch:"credited"`
	Errors     uint64        `json:"errors" ch:"errors"`
	DurationMs uint64        `json:"durationMs" ch:"duration_ms"`
}
