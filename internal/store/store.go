package store

import (
	"context"

	"github.com/sitroom/sitrep/internal/domain"
)

// MonitorStore is the persistence contract the registry calls at startup
// and after every mutation. The registry never implements storage itself.
type MonitorStore interface {
	LoadMonitors(ctx context.Context) ([]domain.Monitor, error)
	SaveMonitors(ctx context.Context, monitors []domain.Monitor) error
}

// AlertSink receives emitted alerts for out-of-process consumers. Optional;
// the in-memory alert log is the source of truth either way.
type AlertSink interface {
	PublishAlert(ctx context.Context, alert domain.Alert) error
}
