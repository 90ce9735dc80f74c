package domain

import (
	"time"
)

// Monitor is a standing keyword query re-evaluated against each new batch.
// It is the only long-lived mutable entity in the engine; the registry owns
// every mutation.
type Monitor struct {
	ID             string        `json:"id"`
	Query          string        `json:"query"`
	AlertThreshold float64       `json:"alert_threshold"` // fraction in [0,1]
	CheckInterval  time.Duration `json:"check_interval"`  // advisory, not enforced as a gate
	IsActive       bool          `json:"is_active"`
	CreatedAt      time.Time     `json:"created_at"`
	LastChecked    time.Time     `json:"last_checked"`
	AlertCount     int           `json:"alert_count"`
}

// Alert is an ephemeral output of a monitor evaluation or analyzer finding.
// Entries are append-only; only Acknowledged may change after emission.
type Alert struct {
	ID           string     `json:"id"`
	MonitorID    string     `json:"monitor_id,omitempty"`
	Severity     AlertLevel `json:"severity"`
	Message      string     `json:"message"`
	Timestamp    time.Time  `json:"timestamp"`
	Acknowledged bool       `json:"acknowledged"`
}
