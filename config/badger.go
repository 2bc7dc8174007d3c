package config

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// NewBadger opens the embedded store used when no postgres instance is
// available. Badger's own logger is silenced; store failures are logged
// where they occur.
func NewBadger(cfg *Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.BadgerPath).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return db, nil
}
