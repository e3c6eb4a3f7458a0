package history

import (
	"context"
	"fmt"
	"time"

	"slidereel/internal/config"
	"slidereel/internal/services"
)

// Log is the completed-job history. Append drops expired records before
// adding the new one at the front; Read returns newest first and never
// includes expired records.
type Log interface {
	Append(ctx context.Context, record Record) error
	Read(ctx context.Context) ([]Record, error)
	Close() error
}

// Clock supplies the current time. Tests replace it.
type Clock func() time.Time

// Open selects the backend configured under [history].
func Open(cfg *config.Config) (Log, error) {
	retention := cfg.HistoryRetention()
	if retention <= 0 {
		retention = DefaultRetention
	}
	switch cfg.History.Backend {
	case "", config.HistoryJSON:
		return NewJSONLog(cfg.History.Path, retention, time.Now), nil
	case config.HistorySQLite:
		return OpenSQLite(cfg.History.Path, retention, time.Now)
	case config.HistoryPebble:
		return OpenPebble(cfg.History.Path, retention, time.Now)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "history", "open",
			fmt.Sprintf("unknown history backend %q", cfg.History.Backend), nil)
	}
}

func persistenceError(operation string, err error) error {
	return services.Wrap(services.ErrPersistence, "history", operation, "", err)
}
