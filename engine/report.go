// CLAUDE:SUMMARY Machine-readable run report: summary, per-batch and per-request records, errors, warnings.
package engine

import (
	"encoding/json"
	"time"
)

// RunReport is the machine-readable artifact written after every run,
// successful or not. Field names are part of the artifact contract; tools
// downstream parse them.
type RunReport struct {
	Summary         Summary           `json:"summary"`
	BlockValidation []ValidationEntry `json:"blockValidation"`
	BatchProcessing []BatchEntry      `json:"batchProcessing"`
	APIRequests     []RequestEntry    `json:"apiRequests"`
	Errors          []string          `json:"errors"`
	Warnings        []string          `json:"warnings"`
}

// Summary aggregates the run.
type Summary struct {
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	DurationMs   int64     `json:"durationMs"`
	Outcome      string    `json:"outcome"` // "success", "partial", "failed", "cancelled"
	RootURL      string    `json:"rootUrl,omitempty"`
	TotalBlocks  int       `json:"totalBlocks"`
	TotalBatches int       `json:"totalBatches"`
	APICalls     int       `json:"apiCalls"`
	Retries      int       `json:"retries"`
}

// ValidationEntry records one block repaired or replaced before packing.
type ValidationEntry struct {
	Index   int    `json:"index"`
	Outcome string `json:"outcome"` // "repaired" or "replaced"
	Detail  string `json:"detail"`
}

// BatchEntry records one children batch as executed.
type BatchEntry struct {
	Batch  int    `json:"batch"`
	Blocks int    `json:"blocks"`
	Bytes  int    `json:"bytes"`
	Status string `json:"status"` // "ok", "failed", "skipped"
}

// RequestEntry records one API call as executed, attempts included.
type RequestEntry struct {
	Kind       string `json:"kind"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Attempts   int    `json:"attempts"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// MarshalIndent renders the artifact. Slice fields are never null in the
// output, empty runs produce empty arrays.
func (r *RunReport) MarshalIndent() ([]byte, error) {
	if r.BlockValidation == nil {
		r.BlockValidation = []ValidationEntry{}
	}
	if r.BatchProcessing == nil {
		r.BatchProcessing = []BatchEntry{}
	}
	if r.APIRequests == nil {
		r.APIRequests = []RequestEntry{}
	}
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	return json.MarshalIndent(r, "", "  ")
}
