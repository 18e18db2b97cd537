// The worker binary consumes job continuations from Kafka and resumes
// paused seeding jobs.  It runs the same classification cascade as the API
// server but exposes only health and metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tupiana/lexipipe/internal/application/seeding"
	"github.com/tupiana/lexipipe/internal/application/semantics"
	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/domain/tagset"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres/repositories"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/redis"
	"github.com/tupiana/lexipipe/internal/infrastructure/messaging/kafka"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/prometheus"
	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("worker")
	logger.Info("starting lexipipe continuation worker",
		logging.String("group_id", cfg.Kafka.GroupID),
		logging.Int("health_port", cfg.Worker.HealthPort),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "lexipipe",
		Subsystem:            "worker",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	lexiconRepo := repositories.NewLexiconRepo(conn.Pool())
	classificationRepo := repositories.NewClassificationRepo(conn.Pool())
	jobRepo := repositories.NewJobRepo(conn.Pool())
	candidateRepo := repositories.NewCandidateRepo(conn.Pool())

	taxonomy, _, err := tagset.Load(ctx, repositories.NewTagsetRepo(conn.Pool()))
	if err != nil {
		return err
	}

	var llm *llmclassifier.Classifier
	if cfg.Intelligence.GeminiAPIKey != "" {
		llm, err = llmclassifier.New(ctx, llmclassifier.Config{
			APIKey:      cfg.Intelligence.GeminiAPIKey,
			Model:       cfg.Intelligence.GeminiModel,
			Temperature: cfg.Intelligence.Temperature,
			MaxTokens:   cfg.Intelligence.MaxOutputTokens,
			BatchLimit:  cfg.Intelligence.LLMBatchSize,
			MaxRetries:  cfg.Intelligence.LLMMaxRetries,
			Backoff:     cfg.Intelligence.LLMRetryBackoff,
			OnCall:      metrics.LLMCallObserver("seed"),
		}, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no Gemini API key configured, LLM level disabled")
	}

	classifierCfg := semantics.Config{
		Stopwords:  classification.DefaultPortugueseStopwords(),
		Cache:      redis.NewClassificationCache(redisClient),
		Repository: classificationRepo,
		Morph:      morphology.NewDefaultEngine(),
		Dialectal:  lexicon.NewStore(lexiconRepo),
		Taxonomy:   taxonomy,
		BatchLimit: cfg.Intelligence.LLMBatchSize,
		Threshold:  cfg.Pipeline.DisambiguationThreshold,
		Logger:     logger,
	}
	if llm != nil {
		classifierCfg.LLM = llm
	}
	classifier, err := semantics.New(classifierCfg)
	if err != nil {
		return err
	}

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	orchestrator, err := seeding.New(seeding.Config{
		Jobs:       jobRepo,
		Candidates: candidateRepo,
		Classifier: classifier,
		Records:    classificationRepo,
		Publisher:  producer,
		Canceller:  redis.NewCancelFlags(redisClient),
		ChunkSize:  cfg.Pipeline.ChunkSize,
		TimeBudget: cfg.Pipeline.TimeBudget,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	consumer := kafka.NewConsumer(cfg.Kafka, producer, logger)
	defer consumer.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Run(gctx, func(ctx context.Context, cont *seeding.Continuation) error {
			logger.Info("resuming job",
				logging.String("job_id", cont.JobID),
				logging.Int("next_chunk_index", cont.NextChunkIndex),
			)
			return orchestrator.Run(ctx, cont.JobID, cont.NextChunkIndex)
		})
	})

	// Health and metrics endpoint for liveness probes and scraping.
	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:           healthMux(collector, conn, redisClient),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return healthSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("worker stopped")
	return nil
}

func healthMux(collector prometheus.MetricsCollector, conn *postgres.Connection, redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := conn.HealthCheck(ctx); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.HealthCheck(ctx); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	mux.Handle("/metrics", collector.Handler())
	return mux
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	fmt.Fprintf(os.Stderr, "config file %s not found, loading from environment\n", path)
	return config.LoadFromEnv()
}
