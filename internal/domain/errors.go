package domain

import (
	"fmt"
)

// ClassificationError marks a malformed item that could not be classified.
// It excludes only that item from the batch, never the batch itself.
type ClassificationError struct {
	ItemID string
	Field  string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for item %q: missing %s", e.ItemID, e.Field)
}

// AnalyzerError wraps an internal failure of one analyzer. The orchestrator
// treats it as zero findings from that analyzer.
type AnalyzerError struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer %s failed: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }

// FusionError marks a run where the decision engine could not combine
// analyzer output. Fatal to the run only; a previously cached result stays
// valid.
type FusionError struct {
	Reason string
	Err    error
}

func (e *FusionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fusion failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fusion failed: %s", e.Reason)
}

func (e *FusionError) Unwrap() error { return e.Err }

// MonitorPersistenceError surfaces a load/save failure from the storage
// collaborator. The in-memory monitor list stays intact.
type MonitorPersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *MonitorPersistenceError) Error() string {
	return fmt.Sprintf("monitor %s failed: %v", e.Op, e.Err)
}

func (e *MonitorPersistenceError) Unwrap() error { return e.Err }
