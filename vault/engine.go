// Package vault is the orchestration layer tying the SafeDrop core
// together. CLI commands call Engine methods to upload, download, list,
// remove, and maintain files; the Engine coordinates the threat
// scanner, the encrypted object store, and the metadata ledger so that
// each operation leaves the two stores consistent.
package vault

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/safedroporg/safedrop-go/config"
	"github.com/safedroporg/safedrop-go/metadata"
	"github.com/safedroporg/safedrop-go/storage"
)

// Engine is the shared business logic layer.
type Engine struct {
	Config config.Config
	Store  *storage.Store
	Ledger *metadata.Ledger
	Logger *slog.Logger
}

// New creates an Engine from a resolved configuration, initializing the
// object store directory on first use.
func New(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.New(cfg.StorageDir, logger)
	if err != nil {
		return nil, fmt.Errorf("engine: init storage: %w", err)
	}

	return &Engine{
		Config: cfg,
		Store:  store,
		Ledger: metadata.NewLedger(cfg.MetadataFile, logger),
		Logger: logger.With("component", "vault"),
	}, nil
}
