package cache

import (
	"context"
	"testing"
	"time"

	"doc-ingest/internal/pipeline/common"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()
	artifact, err := store.Get(context.Background(), "/data/absent.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if artifact != nil {
		t.Fatalf("missing path should return nil artifact, got %+v", artifact)
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	in := &Artifact{
		ContentHash: "5d41402abc4b2a76b9719d911017c592",
		Chunks: []common.Chunk{
			{Index: 0, Content: "第一段", Type: common.ChunkParagraph},
			{Index: 1, Content: "第二段", Type: common.ChunkParagraph},
		},
		CreatedAt: time.Now(),
	}
	if err := store.Put(ctx, "/data/report.txt", in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, err := store.Get(ctx, "/data/report.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out == nil {
		t.Fatal("artifact should exist after Put")
	}
	if out.ContentHash != in.ContentHash {
		t.Errorf("ContentHash = %q, want %q", out.ContentHash, in.ContentHash)
	}
	if len(out.Chunks) != 2 || out.Chunks[1].Content != "第二段" {
		t.Errorf("chunks not preserved: %+v", out.Chunks)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, "/data/a.txt", &Artifact{
		ContentHash: "h",
		Chunks:      []common.Chunk{{Index: 0, Content: "原文"}},
	})

	first, _ := store.Get(ctx, "/data/a.txt")
	first.Chunks[0].Content = "被篡改"

	second, _ := store.Get(ctx, "/data/a.txt")
	if second.Chunks[0].Content != "原文" {
		t.Errorf("mutation of returned artifact leaked into store: %q", second.Chunks[0].Content)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(ctx, "/data/a.txt", &Artifact{ContentHash: "h"})

	if err := store.Delete(ctx, "/data/a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	artifact, _ := store.Get(ctx, "/data/a.txt")
	if artifact != nil {
		t.Fatal("artifact should be gone after Delete")
	}
	if err := store.Delete(ctx, "/data/a.txt"); err != nil {
		t.Fatalf("double delete should not error: %v", err)
	}
}
