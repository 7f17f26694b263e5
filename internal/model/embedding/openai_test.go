package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"doc-ingest/internal/pipeline/common"
	"doc-ingest/pkg/metrics"
)

func TestOpenAIAdapter_Embed(t *testing.T) {
	var gotRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequests++
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		var data []item
		for i := range req.Input {
			data = append(data, item{Index: i, Embedding: []float64{float64(i), 1}})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Options{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		Dimension: 2,
		BatchSize: 2,
	})

	okBefore := testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues("ok"))
	vectors, err := adapter.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	// 批大小 2，3 个文本需要 2 次请求
	if gotRequests != 2 {
		t.Errorf("got %d requests, want 2", gotRequests)
	}
	if delta := testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues("ok")) - okBefore; delta != 2 {
		t.Errorf("embedding request counter delta = %v, want 2", delta)
	}
	if !reflect.DeepEqual(vectors[0], []float64{0, 1}) {
		t.Errorf("vectors[0] = %v", vectors[0])
	}
}

func TestOpenAIAdapter_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Options{BaseURL: server.URL, APIKey: "k"})
	_, err := adapter.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !common.IsExternalServiceError(err) {
		t.Fatalf("error should be ExternalServiceError, got %T: %v", err, err)
	}
}

func TestOpenAIAdapter_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Options{BaseURL: server.URL})
	_, err := adapter.Embed(context.Background(), []string{"text"})
	if !common.IsExternalServiceError(err) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
}

func TestFakeEmbedder_Deterministic(t *testing.T) {
	fake := NewFakeEmbedder(768)
	a, err := fake.Embed(context.Background(), []string{"同一段文本"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := fake.Embed(context.Background(), []string{"同一段文本"})
	if !reflect.DeepEqual(a, b) {
		t.Error("fake embedder should be deterministic")
	}
	if len(a[0]) != 768 {
		t.Errorf("dimension = %d, want 768", len(a[0]))
	}
}
