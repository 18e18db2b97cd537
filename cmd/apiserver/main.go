// The apiserver binary runs the annotation platform's REST API: job
// control, classification, POS annotation, keyness extraction, and the
// operational endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tupiana/lexipipe/internal/application/keyness"
	"github.com/tupiana/lexipipe/internal/application/pos"
	"github.com/tupiana/lexipipe/internal/application/propagation"
	"github.com/tupiana/lexipipe/internal/application/seeding"
	"github.com/tupiana/lexipipe/internal/application/semantics"
	"github.com/tupiana/lexipipe/internal/config"
	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/lexicon"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/domain/tagset"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/neo4j"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/postgres/repositories"
	"github.com/tupiana/lexipipe/internal/infrastructure/database/redis"
	"github.com/tupiana/lexipipe/internal/infrastructure/messaging/kafka"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/prometheus"
	"github.com/tupiana/lexipipe/internal/infrastructure/search/opensearch"
	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
	"github.com/tupiana/lexipipe/internal/intelligence/postagger"
	httpserver "github.com/tupiana/lexipipe/internal/interfaces/http"
	"github.com/tupiana/lexipipe/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
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
	logger = logger.Named("apiserver")
	logger.Info("starting lexipipe API server", logging.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics.
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "lexipipe",
		Subsystem:            "api",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	// PostgreSQL is the system of record; without it nothing works.
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	lexiconRepo := repositories.NewLexiconRepo(conn.Pool())
	classificationRepo := repositories.NewClassificationRepo(conn.Pool())
	jobRepo := repositories.NewJobRepo(conn.Pool())
	candidateRepo := repositories.NewCandidateRepo(conn.Pool())
	tagsetRepo := repositories.NewTagsetRepo(conn.Pool())

	taxonomy, loadReport, err := tagset.Load(ctx, tagsetRepo)
	if err != nil {
		return err
	}
	if loadReport != nil && loadReport.Rejected > 0 {
		logger.Warn("tagset loaded with rejected nodes", logging.Int("rejected", loadReport.Rejected))
	}

	store := lexicon.NewStore(lexiconRepo)
	stopwords := classification.DefaultPortugueseStopwords()

	healthChecks := map[string]handlers.HealthChecker{
		"postgres": conn.HealthCheck,
	}

	// Redis backs the classification cache and the cancel flags.
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	healthChecks["redis"] = redisClient.HealthCheck
	cache := redis.NewClassificationCache(redisClient)
	cancelFlags := redis.NewCancelFlags(redisClient)

	// The synonym graph is optional: without it propagation routes return
	// 503 and everything else keeps working.
	var graphRepo *neo4j.SynonymRepo
	graphDriver, err := neo4j.NewDriver(cfg.Neo4j, logger)
	if err != nil {
		logger.Warn("synonym graph unavailable, propagation disabled", logging.Err(err))
	} else {
		defer graphDriver.Close()
		graphRepo = neo4j.NewSynonymRepo(graphDriver, logger)
		healthChecks["neo4j"] = graphDriver.HealthCheck
	}

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	// Intelligence backends degrade gracefully when unconfigured.
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
			OnCall:      metrics.LLMCallObserver("classify"),
		}, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no Gemini API key configured, LLM layers disabled")
	}

	var tagger *postagger.Client
	if cfg.Intelligence.TaggerBaseURL != "" {
		tagger, err = postagger.New(postagger.Config{
			BaseURL: cfg.Intelligence.TaggerBaseURL,
			Timeout: cfg.Intelligence.TaggerTimeout,
		}, logger)
		if err != nil {
			return err
		}
	}

	// Application services.
	classifierCfg := semantics.Config{
		Stopwords:  stopwords,
		Cache:      cache,
		Repository: classificationRepo,
		Morph:      morphology.NewDefaultEngine(),
		Dialectal:  store,
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

	var propagator *propagation.Engine
	if graphRepo != nil {
		propagator, err = propagation.New(propagation.Config{
			Graph:        graphRepo,
			Repository:   classificationRepo,
			ForwardDecay: cfg.Pipeline.ForwardDecay,
			ReverseDecay: cfg.Pipeline.ReverseDecay,
			Floor:        cfg.Pipeline.PropagationFloor,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
	}

	orchestrator, err := seeding.New(seeding.Config{
		Jobs:       jobRepo,
		Candidates: candidateRepo,
		Classifier: classifier,
		Records:    classificationRepo,
		Publisher:  producer,
		Canceller:  cancelFlags,
		ChunkSize:  cfg.Pipeline.ChunkSize,
		TimeBudget: cfg.Pipeline.TimeBudget,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	var taggerLayer pos.Tagger
	if tagger != nil {
		taggerLayer = tagger
	}
	var llmLayer pos.LLM
	if llm != nil {
		llmLayer = llm
	}
	resolver := pos.NewResolver(
		pos.NewDefaultGrammarTable(),
		newLexiconDictionary(store),
		taggerLayer,
		llmLayer,
		cfg.Intelligence.LLMBatchSize,
		logger,
	)

	// The keyness engine needs the reference corpus; without OpenSearch the
	// route stays unregistered.
	var keynessHandler *handlers.KeynessHandler
	searchClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		logger.Warn("reference corpus unavailable, keyness disabled", logging.Err(err))
	} else {
		healthChecks["opensearch"] = searchClient.HealthCheck
		extractor, kerr := keyness.New(opensearch.NewReferenceCorpus(searchClient, logger), stopwords, logger)
		if kerr != nil {
			return kerr
		}
		keynessHandler = handlers.NewKeynessHandler(extractor, logger)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		JobHandler:            handlers.NewJobHandler(orchestrator, jobRepo, logger),
		ClassificationHandler: handlers.NewClassificationHandler(classifier, classificationRepo, propagatorOrNil(propagator), logger),
		AnnotationHandler:     handlers.NewAnnotationHandler(resolver, logger),
		KeynessHandler:        keynessHandler,
		HealthHandler:         handlers.NewHealthHandler(healthChecks, logger),
		Mode:                  cfg.Server.Mode,
		Logger:                logger,
		Metrics:               metrics,
		MetricsCollector:      collector,
	})

	server := httpserver.NewServer(cfg.Server, router, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logging.Err(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// propagatorOrNil avoids handing the handler a non-nil interface wrapping a
// nil engine.
func propagatorOrNil(engine *propagation.Engine) handlers.Propagator {
	if engine == nil {
		return nil
	}
	return engine
}

// loadConfig reads the config file when present and falls back to
// environment variables for containerised deployments.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	fmt.Fprintf(os.Stderr, "config file %s not found, loading from environment\n", path)
	return config.LoadFromEnv()
}
