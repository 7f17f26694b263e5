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

package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore 内存向量存储实现
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	dimension int
	vectors   map[string]*Vector
}

// NewMemoryStore 创建新的内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*collection),
	}
}

// EnsureCollection 确保集合存在
func (s *MemoryStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, exists := s.collections[name]; exists {
		if c.dimension != dimension {
			return fmt.Errorf("collection %s dimension %d does not match requested %d", name, c.dimension, dimension)
		}
		return nil
	}
	s.collections[name] = &collection{
		dimension: dimension,
		vectors:   make(map[string]*Vector),
	}
	return nil
}

// Insert 插入向量，返回分配的 ID
func (s *MemoryStore) Insert(ctx context.Context, name string, vectors []*Vector) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.collections[name]
	if !exists {
		return nil, fmt.Errorf("collection %s not found", name)
	}

	ids := make([]string, 0, len(vectors))
	for _, v := range vectors {
		if len(v.Values) != c.dimension {
			return nil, fmt.Errorf("vector dimension %d does not match collection dimension %d", len(v.Values), c.dimension)
		}
		stored := *v
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		c.vectors[stored.ID] = &stored
		ids = append(ids, stored.ID)
	}
	return ids, nil
}

// Search 余弦相似度检索
func (s *MemoryStore) Search(ctx context.Context, name string, query []float64, opts *SearchOptions) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.collections[name]
	if !exists {
		return nil, fmt.Errorf("collection %s not found", name)
	}
	if len(query) != c.dimension {
		return nil, fmt.Errorf("query dimension %d does not match collection dimension %d", len(query), c.dimension)
	}
	if opts == nil {
		opts = &SearchOptions{TopK: 10}
	}

	var results []*SearchResult
	for id, v := range c.vectors {
		if opts.DocumentID > 0 && v.DocumentID != opts.DocumentID {
			continue
		}
		if opts.KnowledgeBaseCode != "" && v.KnowledgeBaseCode != opts.KnowledgeBaseCode {
			continue
		}
		results = append(results, &SearchResult{
			ID:         id,
			DocumentID: v.DocumentID,
			Content:    v.Content,
			Score:      cosineSimilarity(query, v.Values),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// DeleteByDocument 按 document_id 过滤删除；kbCode 非空时只删除该知识库下的向量
func (s *MemoryStore) DeleteByDocument(ctx context.Context, name string, documentID int64, kbCode string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.collections[name]
	if !exists {
		return 0, fmt.Errorf("collection %s not found", name)
	}

	var deleted int64
	for id, v := range c.vectors {
		if v.DocumentID != documentID {
			continue
		}
		if kbCode != "" && v.KnowledgeBaseCode != kbCode {
			continue
		}
		delete(c.vectors, id)
		deleted++
	}
	return deleted, nil
}

// Close 关闭存储连接
func (s *MemoryStore) Close() error {
	return nil
}

// cosineSimilarity 计算余弦相似度
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dotProduct := 0.0
	normA := 0.0
	normB := 0.0

	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
