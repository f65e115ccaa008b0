package billingsync

import "strings"

// SyncResult is the ephemeral, per-entity-kind outcome of one orchestrator
// run. It is never persisted; the orchestrator aggregates results into the
// connection's last-sync fields.
type SyncResult struct {
	EntityKind   EntityKind
	TotalFetched int
	Created      int
	Updated      int
	Errors       []string
	Success      bool
}

// NewSyncResult creates an empty, successful result for one kind.
func NewSyncResult(kind EntityKind) *SyncResult {
	return &SyncResult{EntityKind: kind, Success: true}
}

// AddError records an error and marks the result as failed.
func (r *SyncResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// AggregateOutcome folds a run's per-kind results into the connection-level
// status: success iff every kind succeeded, partial when at least one kind
// ran but errors were recorded, failed when no kind produced a result. The
// error text is the newline-joined concatenation of every recorded error.
func AggregateOutcome(results map[EntityKind]*SyncResult) (SyncStatus, string) {
	if len(results) == 0 {
		return SyncStatusFailed, ""
	}

	allSuccess := true
	var errs []string
	for _, kind := range AllEntityKinds() {
		result, ok := results[kind]
		if !ok {
			continue
		}
		if !result.Success {
			allSuccess = false
		}
		errs = append(errs, result.Errors...)
	}

	if allSuccess {
		return SyncStatusSuccess, ""
	}
	return SyncStatusPartial, strings.Join(errs, "\n")
}
