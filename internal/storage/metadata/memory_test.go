package metadata

import (
	"context"
	"errors"
	"testing"

	"doc-ingest/internal/pipeline/common"
)

func TestMemoryStore_SaveDocumentIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id1, err := store.SaveDocument(ctx, &common.Document{
		Path: "/data/a.md", Name: "a.md", Extension: ".md", ContentHash: "h1",
	})
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if id1 <= 0 {
		t.Fatalf("id = %d, want positive", id1)
	}

	// 同一路径再次保存返回同一 ID
	id2, err := store.SaveDocument(ctx, &common.Document{
		Path: "/data/a.md", Name: "a.md", Extension: ".md", ContentHash: "h2",
	})
	if err != nil {
		t.Fatalf("SaveDocument again: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("re-save returned id %d, want %d", id2, id1)
	}

	doc, err := store.GetDocumentByPath(ctx, "/data/a.md")
	if err != nil {
		t.Fatalf("GetDocumentByPath: %v", err)
	}
	if doc.ContentHash != "h2" {
		t.Errorf("content_hash = %q, want h2", doc.ContentHash)
	}
}

func TestMemoryStore_StatusMonotonic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id, _ := store.SaveDocument(ctx, &common.Document{Path: "/data/a.md"})

	steps := []common.DocumentStatus{
		common.DocStatusParsed,
		common.DocStatusVectorized,
		common.DocStatusParsed, // 回退必须被忽略
	}
	for _, st := range steps {
		if err := store.UpdateDocumentStatus(ctx, id, st); err != nil {
			t.Fatalf("UpdateDocumentStatus(%s): %v", st, err)
		}
	}
	doc, _ := store.GetDocumentByPath(ctx, "/data/a.md")
	if doc.Status != common.DocStatusVectorized {
		t.Fatalf("status = %s, want %s", doc.Status, common.DocStatusVectorized)
	}
}

func TestMemoryStore_GetByPathAndHash(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SaveDocument(ctx, &common.Document{Path: "/data/a.md", ContentHash: "h1"})

	if _, err := store.GetDocumentByPathAndHash(ctx, "/data/a.md", "h1"); err != nil {
		t.Fatalf("matching hash: %v", err)
	}
	if _, err := store.GetDocumentByPathAndHash(ctx, "/data/a.md", "other"); !errors.Is(err, common.ErrDocumentNotFound) {
		t.Fatalf("mismatched hash should be not-found, got %v", err)
	}
}

func TestMemoryStore_DeleteCascadeHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id, _ := store.SaveDocument(ctx, &common.Document{Path: "/data/a.md"})

	chunks := []common.Chunk{
		{DocumentID: id, Index: 0, Content: "c0", VectorID: "v0"},
		{DocumentID: id, Index: 1, Content: "c1", VectorID: "v1"},
	}
	if err := store.SaveChunks(ctx, chunks); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}

	n, err := store.DeleteChunksByDocument(ctx, id)
	if err != nil || n != 2 {
		t.Fatalf("DeleteChunksByDocument = (%d, %v), want (2, nil)", n, err)
	}
	if _, err := store.DeleteEntitiesByDocument(ctx, id); err != nil {
		t.Fatalf("DeleteEntitiesByDocument: %v", err)
	}
	if err := store.DeleteDocument(ctx, id); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := store.GetDocumentByPath(ctx, "/data/a.md"); !errors.Is(err, common.ErrDocumentNotFound) {
		t.Fatalf("document should be gone, got %v", err)
	}
	if err := store.DeleteDocument(ctx, id); !errors.Is(err, common.ErrDocumentNotFound) {
		t.Fatalf("double delete should be not-found, got %v", err)
	}
}

func TestMemoryStore_ParseBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	batch := &common.ParseBatch{
		BatchID: "mineru-1", DocumentID: 1, Status: "submitted",
		ExternalTaskID: "ext-1", SourceFilePath: "/data/a.pdf", SourceFileHash: "h1",
	}
	if err := store.SaveParseBatch(ctx, batch); err != nil {
		t.Fatalf("SaveParseBatch: %v", err)
	}
	if err := store.UpdateParseBatch(ctx, "mineru-1", "done", "/data/a.md"); err != nil {
		t.Fatalf("UpdateParseBatch: %v", err)
	}
	if err := store.UpdateParseBatch(ctx, "missing", "done", ""); !errors.Is(err, common.ErrBatchNotFound) {
		t.Fatalf("missing batch should be not-found, got %v", err)
	}
}
