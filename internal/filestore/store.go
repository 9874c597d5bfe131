// Package filestore mirrors acquired media to secondary storage. The raw
// download directory stays the working copy for segmentation; a mirror is an
// optional replica (local directory or S3 bucket).
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/halewood/mediasearch/internal/config"
)

// Store writes one media object under a key.
type Store interface {
	Type() string
	Save(ctx context.Context, key string, r io.Reader, size int64) error
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// New builds the configured mirror store. An empty type means no mirror; nil
// is returned without error.
func New(cfg config.MirrorConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, nil
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported mirror type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("mirror config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode mirror config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode mirror config: %w", err)
	}
	return nil
}
