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

package metadata

import (
	"context"
	"sync"
	"time"

	"doc-ingest/internal/pipeline/common"
)

// MemoryStore 内存元数据存储，供测试与单进程部署使用
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	documents map[int64]*common.Document // id -> document
	byPath    map[string]int64           // path -> id
	chunks    map[int64][]common.Chunk   // document_id -> chunks
	entities  map[int64]int64            // document_id -> entity 行数（仅删除路径使用）
	batches   map[string]*common.ParseBatch
}

// NewMemoryStore 创建内存元数据存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		documents: make(map[int64]*common.Document),
		byPath:    make(map[string]int64),
		chunks:    make(map[int64][]common.Chunk),
		entities:  make(map[int64]int64),
		batches:   make(map[string]*common.ParseBatch),
	}
}

// SaveDocument 按 path 幂等保存，返回持久 ID
func (m *MemoryStore) SaveDocument(ctx context.Context, doc *common.Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if id, ok := m.byPath[doc.Path]; ok {
		existing := m.documents[id]
		existing.Name = doc.Name
		existing.Extension = doc.Extension
		existing.ContentHash = doc.ContentHash
		existing.Size = doc.Size
		existing.ModifiedTime = doc.ModifiedTime
		if doc.KnowledgeBaseCode != "" {
			existing.KnowledgeBaseCode = doc.KnowledgeBaseCode
		}
		// 状态单调：重新入库不回退已有进度
		if doc.Status.Rank() > existing.Status.Rank() {
			existing.Status = doc.Status
		}
		existing.UpdatedAt = now
		return id, nil
	}

	id := m.nextID
	m.nextID++
	saved := *doc
	saved.ID = id
	if saved.Status == "" {
		saved.Status = common.DocStatusUnparsed
	}
	saved.CreatedAt = now
	saved.UpdatedAt = now
	m.documents[id] = &saved
	m.byPath[saved.Path] = id
	return id, nil
}

// GetDocumentByPath 按路径获取文档
func (m *MemoryStore) GetDocumentByPath(ctx context.Context, path string) (*common.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byPath[path]
	if !ok {
		return nil, common.ErrDocumentNotFound
	}
	cp := *m.documents[id]
	return &cp, nil
}

// GetDocumentByPathAndHash 按 (path, content_hash) 获取文档
func (m *MemoryStore) GetDocumentByPathAndHash(ctx context.Context, path, hash string) (*common.Document, error) {
	doc, err := m.GetDocumentByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if doc.ContentHash != hash {
		return nil, common.ErrDocumentNotFound
	}
	return doc, nil
}

// UpdateDocumentStatus 推进文档状态，回退更新被忽略
func (m *MemoryStore) UpdateDocumentStatus(ctx context.Context, id int64, status common.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[id]
	if !ok {
		return common.ErrDocumentNotFound
	}
	if status.Rank() > doc.Status.Rank() {
		doc.Status = status
		doc.UpdatedAt = time.Now()
	}
	return nil
}

// SaveChunks 批量保存切片元数据
func (m *MemoryStore) SaveChunks(ctx context.Context, chunks []common.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range chunks {
		m.chunks[c.DocumentID] = append(m.chunks[c.DocumentID], c)
	}
	return nil
}

// GetChunksByDocument 获取文档切片（测试辅助）
func (m *MemoryStore) GetChunksByDocument(documentID int64) []common.Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]common.Chunk, len(m.chunks[documentID]))
	copy(out, m.chunks[documentID])
	return out
}

// DeleteChunksByDocument 删除文档全部切片
func (m *MemoryStore) DeleteChunksByDocument(ctx context.Context, documentID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.chunks[documentID]))
	delete(m.chunks, documentID)
	return n, nil
}

// DeleteEntitiesByDocument 删除文档关联命名实体行
func (m *MemoryStore) DeleteEntitiesByDocument(ctx context.Context, documentID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.entities[documentID]
	delete(m.entities, documentID)
	return n, nil
}

// DeleteDocument 删除文档行
func (m *MemoryStore) DeleteDocument(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[id]
	if !ok {
		return common.ErrDocumentNotFound
	}
	delete(m.byPath, doc.Path)
	delete(m.documents, id)
	return nil
}

// SaveParseBatch 记录转换批次簿记
func (m *MemoryStore) SaveParseBatch(ctx context.Context, batch *common.ParseBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *batch
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.batches[cp.BatchID] = &cp
	return nil
}

// GetParseBatch 获取转换批次簿记（测试辅助）
func (m *MemoryStore) GetParseBatch(batchID string) *common.ParseBatch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	batch, ok := m.batches[batchID]
	if !ok {
		return nil
	}
	cp := *batch
	return &cp
}

// UpdateParseBatch 更新转换批次状态与产物路径
func (m *MemoryStore) UpdateParseBatch(ctx context.Context, batchID, status, markdownPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, ok := m.batches[batchID]
	if !ok {
		return common.ErrBatchNotFound
	}
	batch.Status = status
	if markdownPath != "" {
		batch.MarkdownPath = markdownPath
	}
	return nil
}

// Close 实现 Store
func (m *MemoryStore) Close() error {
	return nil
}
