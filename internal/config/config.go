package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/halewood/mediasearch/internal/logutil"
)

type Config struct {
	Port        int      `json:"port"`
	DataDir     string   `json:"data_dir"`
	SearchTerm  string   `json:"search_term"`
	MediaTypes  []string `json:"media_types"`
	CORSOrigins []string `json:"cors_origins"`
	// Minimum interval between search requests per client, 0 disables.
	SearchRateLimitMS int            `json:"search_rate_limit_ms"`
	Database          DatabaseConfig `json:"database"`
	LogConfig         logutil.Config `json:"log_config"`
	Catalog           CatalogConfig  `json:"catalog"`
	Chunking          ChunkingConfig `json:"chunking"`
	AI                AIConfig       `json:"ai"`
	Mirror            MirrorConfig   `json:"mirror"`
	Schedule          ScheduleConfig `json:"schedule"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type CatalogConfig struct {
	BaseURL           string  `json:"base_url"`
	PageLimit         int     `json:"page_limit"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	BatchDelaySeconds int     `json:"batch_delay_seconds"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

type ChunkingConfig struct {
	DurationSeconds int `json:"duration_seconds"`
	FramesPerChunk  int `json:"frames_per_chunk"`
	MaxImageDim     int `json:"max_image_dim"`
}

// ProviderConfig selects a capability provider; Data is passed to the
// provider factory untouched.
type ProviderConfig struct {
	Provider string      `json:"provider"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Transcriber    ProviderConfig `json:"transcriber"`
	Embedder       ProviderConfig `json:"embedder"`
	Reranker       ProviderConfig `json:"reranker"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	PoolSize       int            `json:"pool_size"`
}

type MirrorConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ScheduleConfig struct {
	Enabled     bool   `json:"enabled"`
	AcquireSpec string `json:"acquire_spec"`
	IngestSpec  string `json:"ingest_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/dbname is required")
	}
	if cfg.AI.Embedder.Provider == "" {
		return nil, fmt.Errorf("ai.embedder.provider is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.SearchTerm == "" {
		cfg.SearchTerm = "NASA"
	}
	if len(cfg.MediaTypes) == 0 {
		cfg.MediaTypes = []string{"mp4", "mp3", "jpg", "pdf", "ascii", "mov", "gif"}
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Catalog.BaseURL == "" {
		return nil, fmt.Errorf("catalog.base_url is required")
	}
	if cfg.Catalog.PageLimit == 0 {
		cfg.Catalog.PageLimit = 50
	}
	if cfg.Catalog.RequestsPerSecond == 0 {
		cfg.Catalog.RequestsPerSecond = 2
	}
	if cfg.Catalog.BatchDelaySeconds == 0 {
		cfg.Catalog.BatchDelaySeconds = 2
	}
	if cfg.Catalog.TimeoutSeconds == 0 {
		cfg.Catalog.TimeoutSeconds = 30
	}
	if cfg.Chunking.DurationSeconds == 0 {
		cfg.Chunking.DurationSeconds = 10
	}
	if cfg.Chunking.FramesPerChunk == 0 {
		cfg.Chunking.FramesPerChunk = 5
	}
	if cfg.Chunking.MaxImageDim == 0 {
		cfg.Chunking.MaxImageDim = 2048
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.PoolSize == 0 {
		cfg.AI.PoolSize = 1
	}
	if cfg.Schedule.Enabled {
		if cfg.Schedule.AcquireSpec == "" {
			return nil, fmt.Errorf("schedule.acquire_spec is required when schedule is enabled")
		}
		if cfg.Schedule.IngestSpec == "" {
			return nil, fmt.Errorf("schedule.ingest_spec is required when schedule is enabled")
		}
	}
	return &cfg, nil
}
