// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app 统一装配：供 api 与 worker 复用，避免在 cmd 内写业务
package app

import (
	"context"
	"fmt"
	"time"

	"doc-ingest/internal/mineru"
	"doc-ingest/internal/model/embedding"
	"doc-ingest/internal/orchestrator"
	"doc-ingest/internal/splitter"
	"doc-ingest/internal/storage"
	"doc-ingest/internal/storage/cache"
	"doc-ingest/internal/storage/metadata"
	"doc-ingest/internal/storage/vector"
	"doc-ingest/internal/taskstore"
	"doc-ingest/pkg/config"
	"doc-ingest/pkg/log"
	"doc-ingest/pkg/secrets"
)

// Bootstrap 按配置装配全部组件
type Bootstrap struct {
	Config        *config.Config
	Logger        *log.Logger
	TaskStore     taskstore.Store
	MetadataStore metadata.Store
	VectorStore   vector.Store
	CacheStore    cache.Store
	Embedder      embedding.Embedder
	Converter     *mineru.Client
	Orchestrator  *orchestrator.Orchestrator
}

// NewBootstrap 创建 Bootstrap。detached 为 true 时编排器只入队，
// 任务由独立 Worker 进程认领执行。
func NewBootstrap(cfg *config.Config, detached bool) (*Bootstrap, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志 failed: %w", err)
	}

	ctx := context.Background()

	secretStore, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Secret Store failed: %w", err)
	}

	metaStore, err := metadata.NewStore(ctx, cfg.Storage.Metadata)
	if err != nil {
		return nil, fmt.Errorf("初始化元数据存储 failed: %w", err)
	}
	vecStore, err := vector.NewStore(cfg.Storage.Vector)
	if err != nil {
		return nil, fmt.Errorf("初始化向量存储 failed: %w", err)
	}
	cacheStore, err := cache.NewStore(cfg.Storage.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化产物缓存 failed: %w", err)
	}
	taskStore, err := taskstore.NewStore(ctx, cfg.TaskStore)
	if err != nil {
		return nil, fmt.Errorf("初始化任务存储 failed: %w", err)
	}

	var embedder embedding.Embedder
	if cfg.Embedding.BaseURL != "" {
		embedder = embedding.NewOpenAIAdapter(embedding.Options{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    resolveSecret(ctx, secretStore, cfg.Embedding.APIKey, "embedding_api_key"),
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			BatchSize: cfg.Embedding.BatchSize,
			QPS:       cfg.Embedding.QPS,
		})
	} else {
		embedder = embedding.NewFakeEmbedder(cfg.Embedding.Dimension)
		logger.Warn("未配置向量化服务，使用确定性本地向量")
	}

	converter := mineru.NewClient(mineru.Options{
		BaseURL:      cfg.Conversion.BaseURL,
		APIKey:       resolveSecret(ctx, secretStore, cfg.Conversion.APIKey, "conversion_api_key"),
		PollInterval: parseDuration(cfg.Conversion.PollInterval, 5*time.Second),
		PollTimeout:  parseDuration(cfg.Conversion.PollTimeout, 10*time.Minute),
		OutputDir:    cfg.Conversion.OutputDir,
	})

	dimension := cfg.Storage.Vector.Dimension
	if dimension <= 0 {
		dimension = embedder.Dimension()
	}
	adapter := storage.NewAdapter(metaStore, vecStore, cfg.Storage.Vector.Collection, dimension)
	// 转换产物的落盘位置以转换网关为准，级联删除同一规则定位
	adapter.SetMarkdownPathResolver(converter.MarkdownPath)

	engine := splitter.NewEngine(splitter.Config{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
		MinChunkSize: cfg.Chunker.MinChunkSize,
	})

	orch, err := orchestrator.New(orchestrator.Options{
		Tasks:       taskStore,
		Metadata:    metaStore,
		Adapter:     adapter,
		Cache:       cacheStore,
		Engine:      engine,
		Embedder:    embedder,
		Converter:   converter,
		Concurrency: cfg.Worker.Concurrency,
		Detached:    detached,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化编排器 failed: %w", err)
	}

	return &Bootstrap{
		Config:        cfg,
		Logger:        logger,
		TaskStore:     taskStore,
		MetadataStore: metaStore,
		VectorStore:   vecStore,
		CacheStore:    cacheStore,
		Embedder:      embedder,
		Converter:     converter,
		Orchestrator:  orch,
	}, nil
}

// Close 逆序释放全部组件
func (b *Bootstrap) Close() {
	if b.Orchestrator != nil {
		b.Orchestrator.Close()
	}
	for name, closer := range map[string]interface{ Close() error }{
		"task_store":     b.TaskStore,
		"cache_store":    b.CacheStore,
		"vector_store":   b.VectorStore,
		"metadata_store": b.MetadataStore,
	} {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			b.Logger.Error("关闭组件 failed", "component", name, "error", err)
		}
	}
}

// resolveSecret 取配置值，空则回退到 Secret Store
func resolveSecret(ctx context.Context, store secrets.Store, configured, key string) string {
	if configured != "" {
		return configured
	}
	if store == nil {
		return ""
	}
	value, err := store.Get(ctx, key)
	if err != nil {
		return ""
	}
	return value
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
