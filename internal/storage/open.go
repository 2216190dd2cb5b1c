package storage

import (
	"context"
	"errors"
	"strings"

	logx "rembot/pkg/logx"
)

// Store is the byte-document persistence API used by the reminder store.
// The document is an opaque serialized snapshot of all reminder entries;
// storage never interprets it.
type Store interface {
	// Load returns the last saved document. ok is false when nothing has
	// been saved yet (fresh install); that is not an error.
	Load(ctx context.Context) (doc []byte, ok bool, err error)
	// Save durably replaces the document. It must not leave a partial
	// document behind on failure.
	Save(ctx context.Context, doc []byte) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
