package vector

import (
	"context"
	"testing"
)

func TestMemoryStore_InsertReturnsIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.EnsureCollection(ctx, "kb", 3); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	ids, err := store.Insert(ctx, "kb", []*Vector{
		{DocumentID: 1, Content: "c0", Values: []float64{1, 0, 0}},
		{DocumentID: 1, Content: "c1", Values: []float64{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	for _, id := range ids {
		if id == "" {
			t.Fatal("assigned id should not be empty")
		}
	}
	if ids[0] == ids[1] {
		t.Fatal("assigned ids should be distinct")
	}
}

func TestMemoryStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.EnsureCollection(ctx, "kb", 3)

	_, err := store.Insert(ctx, "kb", []*Vector{{DocumentID: 1, Values: []float64{1, 0}}})
	if err == nil {
		t.Fatal("dimension mismatch should error")
	}
	if err := store.EnsureCollection(ctx, "kb", 4); err == nil {
		t.Fatal("re-ensure with other dimension should error")
	}
	if err := store.EnsureCollection(ctx, "kb", 3); err != nil {
		t.Fatalf("re-ensure with same dimension: %v", err)
	}
}

func TestMemoryStore_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.EnsureCollection(ctx, "kb", 2)
	store.Insert(ctx, "kb", []*Vector{
		{DocumentID: 1, Content: "doc1-a", Values: []float64{1, 0}},
		{DocumentID: 1, Content: "doc1-b", Values: []float64{0.9, 0.1}},
		{DocumentID: 2, Content: "doc2-a", Values: []float64{0, 1}},
	})

	results, err := store.Search(ctx, "kb", []float64{1, 0}, &SearchOptions{TopK: 10, DocumentID: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Content != "doc1-a" {
		t.Errorf("top result = %q, want doc1-a", results[0].Content)
	}
	if results[0].Score < results[1].Score {
		t.Error("results should be sorted by score desc")
	}
}

func TestMemoryStore_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.EnsureCollection(ctx, "kb", 2)
	store.Insert(ctx, "kb", []*Vector{
		{DocumentID: 1, Values: []float64{1, 0}},
		{DocumentID: 1, Values: []float64{0, 1}},
		{DocumentID: 2, Values: []float64{1, 1}},
	})

	deleted, err := store.DeleteByDocument(ctx, "kb", 1, "")
	if err != nil {
		t.Fatalf("DeleteByDocument: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	remaining, _ := store.Search(ctx, "kb", []float64{1, 0}, &SearchOptions{TopK: 10})
	if len(remaining) != 1 || remaining[0].DocumentID != 2 {
		t.Fatalf("remaining vectors wrong: %+v", remaining)
	}

	deleted, _ = store.DeleteByDocument(ctx, "kb", 99, "")
	if deleted != 0 {
		t.Errorf("delete of absent document should remove 0, got %d", deleted)
	}
}

func TestMemoryStore_DeleteByDocument_KnowledgeBaseFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.EnsureCollection(ctx, "kb", 2)
	store.Insert(ctx, "kb", []*Vector{
		{DocumentID: 1, KnowledgeBaseCode: "kbA", Values: []float64{1, 0}},
		{DocumentID: 1, KnowledgeBaseCode: "kbB", Values: []float64{0, 1}},
	})

	// 过滤码不匹配的向量必须保留
	deleted, err := store.DeleteByDocument(ctx, "kb", 1, "kbA")
	if err != nil {
		t.Fatalf("DeleteByDocument: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	remaining, _ := store.Search(ctx, "kb", []float64{0, 1}, &SearchOptions{TopK: 10})
	if len(remaining) != 1 {
		t.Fatalf("got %d remaining, want 1", len(remaining))
	}

	deleted, _ = store.DeleteByDocument(ctx, "kb", 1, "kbB")
	if deleted != 1 {
		t.Fatalf("scoped second delete = %d, want 1", deleted)
	}
}
