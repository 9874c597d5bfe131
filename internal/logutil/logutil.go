package logutil

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Config controls process-wide logging.
type Config struct {
	Level   string `json:"level"`
	File    string `json:"file"`
	Console bool   `json:"console"`
}

// Init builds the global logger. Safe to call once at startup before any
// GetLogger use; callers before Init get a nop logger.
func Init(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return err
		}
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = nil
	if cfg.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}
	if cfg.Console || len(zcfg.OutputPaths) == 0 {
		zcfg.OutputPaths = append(zcfg.OutputPaths, "stderr")
	}
	logger, err := zcfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	global = logger
	mu.Unlock()
	return nil
}

// WithLogger stores a request-scoped logger in the context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// GetLogger returns the logger carried by ctx, or the global logger.
func GetLogger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
			return logger
		}
	}
	mu.RLock()
	defer mu.RUnlock()
	return global
}
