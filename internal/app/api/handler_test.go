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

package api

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"doc-ingest/internal/model/embedding"
	"doc-ingest/internal/orchestrator"
	"doc-ingest/internal/splitter"
	"doc-ingest/internal/storage"
	"doc-ingest/internal/storage/cache"
	"doc-ingest/internal/storage/metadata"
	"doc-ingest/internal/storage/vector"
	"doc-ingest/internal/taskstore"
	"doc-ingest/pkg/log"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	embedder := embedding.NewFakeEmbedder(8)
	meta := metadata.NewMemoryStore()
	orch, err := orchestrator.New(orchestrator.Options{
		Tasks:    taskstore.NewMemoryStore(),
		Metadata: meta,
		Adapter:  storage.NewAdapter(meta, vector.NewMemoryStore(), "kb", embedder.Dimension()),
		Cache:    cache.NewMemoryStore(),
		Engine:   splitter.NewEngine(splitter.DefaultConfig()),
		Embedder: embedder,
		Detached: true,
	})
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}
	t.Cleanup(orch.Close)
	logger, err := log.NewLogger(&log.Config{Level: "error", Format: "text"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return NewHandler(orch, logger)
}

func TestHealth(t *testing.T) {
	handler := newTestHandler(t)
	h := server.Default(server.WithHostPorts(":0"))
	h.GET("/api/health", func(ctx context.Context, c *app.RequestContext) {
		handler.Health(ctx, c)
	})
	w := ut.PerformRequest(h.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("Health status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("timestamp")) {
		t.Errorf("Health body: %s", resp.Body())
	}
}

// TestProcessDocument_MissingFile 提交不存在的文件应返回 400 并指明路径
func TestProcessDocument_MissingFile(t *testing.T) {
	handler := newTestHandler(t)
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/documents/process", func(ctx context.Context, c *app.RequestContext) {
		handler.ProcessDocument(ctx, c)
	})
	missing := filepath.Join(t.TempDir(), "missing.txt")
	body := []byte(`{"file_path":"` + missing + `","knowledge_base_code":"kb01"}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/documents/process",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	resp := w.Result()
	if resp.StatusCode() != 400 {
		t.Errorf("ProcessDocument missing file: status got %d, want 400", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("missing.txt")) {
		t.Errorf("ProcessDocument missing file: body %s", resp.Body())
	}
}

// TestTaskStatus_NotFound 未知任务号应返回 404
func TestTaskStatus_NotFound(t *testing.T) {
	handler := newTestHandler(t)
	h := server.Default(server.WithHostPorts(":0"))
	h.GET("/api/tasks/:id", func(ctx context.Context, c *app.RequestContext) {
		handler.TaskStatus(ctx, c)
	})
	w := ut.PerformRequest(h.Engine, "GET", "/api/tasks/no-such-task", nil)
	resp := w.Result()
	if resp.StatusCode() != 404 {
		t.Errorf("TaskStatus unknown id: status got %d, want 404", resp.StatusCode())
	}
}

// TestDeleteDocuments_EmptyBody file_paths 为空应返回 400
func TestDeleteDocuments_EmptyBody(t *testing.T) {
	handler := newTestHandler(t)
	h := server.Default(server.WithHostPorts(":0"))
	h.DELETE("/api/documents", func(ctx context.Context, c *app.RequestContext) {
		handler.DeleteDocuments(ctx, c)
	})
	body := []byte(`{"file_paths":[]}`)
	w := ut.PerformRequest(h.Engine, "DELETE", "/api/documents",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	resp := w.Result()
	if resp.StatusCode() != 400 {
		t.Errorf("DeleteDocuments empty: status got %d, want 400", resp.StatusCode())
	}
}
