package main

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/config"
	"github.com/aescanero/autogent/pkg/adapters/embedding"
	eventsmemory "github.com/aescanero/autogent/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/autogent/pkg/adapters/events/redis"
	"github.com/aescanero/autogent/pkg/adapters/llm"
	"github.com/aescanero/autogent/pkg/adapters/simulated"
	storagememory "github.com/aescanero/autogent/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/autogent/pkg/adapters/storage/redis"
	vectormemory "github.com/aescanero/autogent/pkg/adapters/vectorsearch/memory"
	vectorneo4j "github.com/aescanero/autogent/pkg/adapters/vectorsearch/neo4j"
	vectorredis "github.com/aescanero/autogent/pkg/adapters/vectorsearch/redis"
	"github.com/aescanero/autogent/pkg/ports"
)

// backends holds the adapters built from configuration and the hooks that
// release them
type backends struct {
	bundle   ports.Bundle
	store    ports.ReportStore
	eventBus ports.EventBus
	closers  []func(context.Context) error
}

func (b *backends) close(ctx context.Context, logger *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			logger.Error("failed to close backend", zap.Error(err))
		}
	}
}

// buildBackends connects the configured storage, events, vector search and
// model adapters
func buildBackends(ctx context.Context, cfg *config.Config, metrics ports.MetricsCollector, logger *zap.Logger) (*backends, error) {
	b := &backends{}

	var redisClient *goredis.Client
	if cfg.UsesRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		b.closers = append(b.closers, func(context.Context) error { return redisClient.Close() })
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	switch cfg.StorageBackend {
	case config.BackendRedis:
		b.store = storageredis.NewReportStore(redisClient, cfg.ReportTTL, logger)
	default:
		b.store = storagememory.NewReportStore()
	}

	switch cfg.EventsBackend {
	case config.BackendRedis:
		bus := eventsredis.NewStreamsEventBus(redisClient, cfg.Redis.ConsumerGroup, cfg.Redis.ConsumerName, cfg.Redis.StreamMaxLen, logger)
		b.eventBus = bus
		b.closers = append(b.closers, func(context.Context) error { return bus.Close() })
	default:
		bus := eventsmemory.NewEventBus(logger)
		b.eventBus = bus
		b.closers = append(b.closers, func(context.Context) error { return bus.Close() })
	}

	router, err := llm.NewClient(&llm.Config{
		DefaultProvider: cfg.LLM.DefaultProvider,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.LLM.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.LLM.OpenAIBaseURL,
		Logger:          logger,
		Metrics:         metrics,
	})
	switch {
	case err == nil:
		b.bundle.LLM = router
	case errors.Is(err, llm.ErrNoProviders):
		logger.Warn("no LLM provider configured, ai_model nodes are unavailable")
	default:
		b.close(ctx, logger)
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	if cfg.Embedding.Provider == "openai" && cfg.LLM.OpenAIAPIKey != "" {
		embedder, err := embedding.NewOpenAIEmbedder(cfg.LLM.OpenAIAPIKey, cfg.LLM.OpenAIBaseURL, logger)
		if err != nil {
			b.close(ctx, logger)
			return nil, err
		}
		b.bundle.Embedder = embedder
	} else {
		if cfg.Embedding.Provider == "openai" {
			logger.Warn("OPENAI_API_KEY not set, using hash embeddings")
		}
		b.bundle.Embedder = embedding.NewHashEmbedder(nil)
	}

	switch cfg.Vector.Backend {
	case config.BackendRedis:
		b.bundle.Vectors = vectorredis.NewIndex(redisClient, logger)
	case config.BackendNeo4j:
		index, err := vectorneo4j.Connect(ctx, vectorneo4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
			Index:    cfg.Neo4j.Index,
		}, logger)
		if err != nil {
			b.close(ctx, logger)
			return nil, err
		}
		b.closers = append(b.closers, index.Close)
		if err := index.EnsureIndex(ctx, cfg.Neo4j.Dimension); err != nil {
			b.close(ctx, logger)
			return nil, err
		}
		b.bundle.Vectors = index
	default:
		b.bundle.Vectors = vectormemory.NewIndex()
	}

	if cfg.Simulators.Enabled {
		b.bundle.Images = simulated.NewImageGenerator(cfg.Simulators.ImageBaseURL)
		b.bundle.Quantum = simulated.Quantum{}
		b.bundle.Federated = simulated.Federated{}
		b.bundle.Neuromorphic = simulated.Neuromorphic{}
		b.bundle.Safety = simulated.NewSafetyChecker(cfg.Simulators.Blocklist)
	}

	logger.Info("backends ready",
		zap.String("storage", cfg.StorageBackend),
		zap.String("events", cfg.EventsBackend),
		zap.String("vector", cfg.Vector.Backend),
		zap.String("embedding", cfg.Embedding.Provider),
		zap.Bool("simulators", cfg.Simulators.Enabled))

	return b, nil
}
