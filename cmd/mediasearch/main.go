package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/acquire"
	"github.com/halewood/mediasearch/internal/ai"
	"github.com/halewood/mediasearch/internal/catalog"
	"github.com/halewood/mediasearch/internal/config"
	"github.com/halewood/mediasearch/internal/filestore"
	"github.com/halewood/mediasearch/internal/handler"
	"github.com/halewood/mediasearch/internal/ingest"
	"github.com/halewood/mediasearch/internal/job"
	"github.com/halewood/mediasearch/internal/layout"
	"github.com/halewood/mediasearch/internal/logutil"
	"github.com/halewood/mediasearch/internal/middleware"
	"github.com/halewood/mediasearch/internal/schedule"
	"github.com/halewood/mediasearch/internal/search"
	"github.com/halewood/mediasearch/internal/segment"
	"github.com/halewood/mediasearch/internal/store"
)

func main() {
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mediasearch",
		Short: "archival media embedding and semantic search",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to config.json")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if err := logutil.Init(cfg.LogConfig); err != nil {
			return nil, fmt.Errorf("init logging: %w", err)
		}
		logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
		return cfg, nil
	}

	acquireCmd := &cobra.Command{
		Use:   "acquire",
		Short: "fetch catalog metadata and media files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			acquirer, err := buildAcquirer(cfg)
			if err != nil {
				return err
			}
			return acquirer.Run(ctx, cfg.MediaTypes)
		},
	}

	segmentCmd := &cobra.Command{
		Use:   "segment",
		Short: "split downloaded videos into chunks with audio and frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			lay := layoutFor(cfg)
			segmenter := segment.New(cfg.Chunking.DurationSeconds, cfg.Chunking.FramesPerChunk)
			return segmenter.SegmentDir(ctx, lay.DownloadDir("mp4"), lay.ChunksRoot())
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "embed segmented media and fill the index store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			coordinator, err := buildCoordinator(cfg, db)
			if err != nil {
				return err
			}
			fields, err := job.NewIngestJob(coordinator, cfg.MediaTypes).Run(ctx)
			logutil.GetLogger(ctx).Info("ingestion summary", fields...)
			return err
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the search API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	rootCmd.AddCommand(acquireCmd, segmentCmd, ingestCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func layoutFor(cfg *config.Config) layout.Layout {
	return layout.Layout{DataDir: cfg.DataDir, Term: cfg.SearchTerm}
}

func openStore(cfg *config.Config) (*sqlx.DB, error) {
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	if err := store.ApplyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}

func buildAcquirer(cfg *config.Config) (*acquire.Acquirer, error) {
	client := catalog.NewClient(cfg.Catalog.BaseURL,
		catalog.WithPageLimit(cfg.Catalog.PageLimit),
		catalog.WithRateLimit(cfg.Catalog.RequestsPerSecond),
		catalog.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second}),
	)
	mirror, err := filestore.New(cfg.Mirror)
	if err != nil {
		return nil, fmt.Errorf("init mirror store: %w", err)
	}
	return acquire.New(client, acquire.Options{
		Layout:            layoutFor(cfg),
		DownloadTimeout:   time.Duration(cfg.Catalog.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		BatchDelay:        time.Duration(cfg.Catalog.BatchDelaySeconds) * time.Second,
		Mirror:            mirror,
	}), nil
}

func buildCoordinator(cfg *config.Config, db *sqlx.DB) (*ingest.Coordinator, error) {
	transcriber, err := ai.NewTranscriber(cfg.AI.Transcriber.Provider, cfg.AI.Transcriber.Data)
	if err != nil {
		return nil, fmt.Errorf("init transcriber: %w", err)
	}
	embedder, err := ai.NewEmbedder(cfg.AI.Embedder.Provider, cfg.AI.Embedder.Data)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return ingest.New(store.NewRecordRepo(db), transcriber, embedder, ingest.Options{
		Layout:      layoutFor(cfg),
		MaxImageDim: cfg.Chunking.MaxImageDim,
		CallTimeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		PoolSize:    cfg.AI.PoolSize,
	}), nil
}

func runServer(cfg *config.Config) error {
	logger := logutil.GetLogger(context.Background())
	logger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.String("term", cfg.SearchTerm))

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := store.NewRecordRepo(db)

	embedder, err := ai.NewEmbedder(cfg.AI.Embedder.Provider, cfg.AI.Embedder.Data)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	var reranker ai.IReranker
	if cfg.AI.Reranker.Provider != "" {
		reranker, err = ai.NewReranker(cfg.AI.Reranker.Provider, cfg.AI.Reranker.Data)
		if err != nil {
			return fmt.Errorf("init reranker: %w", err)
		}
	}
	searchService := search.New(repo, embedder, reranker)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.RateLimit(time.Duration(cfg.SearchRateLimitMS)*time.Millisecond),
		gzip.Gzip(gzip.DefaultCompression),
	)
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api, handler.RouterDeps{
		Search: handler.NewSearchHandler(searchService),
		Health: handler.NewHealthHandler(db),
	})

	ctx, stop := signalContext()
	defer stop()

	if cfg.Schedule.Enabled {
		scheduler := schedule.NewCronScheduler()
		acquirer, err := buildAcquirer(cfg)
		if err != nil {
			return err
		}
		coordinator, err := buildCoordinator(cfg, db)
		if err != nil {
			return err
		}
		if err := scheduler.AddJob(job.NewAcquireJob(acquirer, cfg.MediaTypes), cfg.Schedule.AcquireSpec); err != nil {
			return err
		}
		lay := layoutFor(cfg)
		segmenter := segment.New(cfg.Chunking.DurationSeconds, cfg.Chunking.FramesPerChunk)
		if err := scheduler.AddJob(job.NewSegmentJob(segmenter, lay), cfg.Schedule.IngestSpec); err != nil {
			return err
		}
		if err := scheduler.AddJob(job.NewIngestJob(coordinator, cfg.MediaTypes), cfg.Schedule.IngestSpec); err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: engine}
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
