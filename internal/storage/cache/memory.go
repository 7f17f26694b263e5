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

package cache

import (
	"context"
	"sync"

	"doc-ingest/internal/pipeline/common"
)

// MemoryStore 内存产物缓存
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
}

// NewMemoryStore 创建内存产物缓存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		artifacts: make(map[string]*Artifact),
	}
}

// Get 实现 Store
func (m *MemoryStore) Get(ctx context.Context, path string) (*Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	artifact, ok := m.artifacts[path]
	if !ok {
		return nil, nil
	}
	cp := *artifact
	cp.Chunks = append([]common.Chunk(nil), artifact.Chunks...)
	return &cp, nil
}

// Put 实现 Store
func (m *MemoryStore) Put(ctx context.Context, path string, artifact *Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *artifact
	cp.Chunks = append([]common.Chunk(nil), artifact.Chunks...)
	m.artifacts[path] = &cp
	return nil
}

// Delete 实现 Store
func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.artifacts, path)
	return nil
}

// Close 实现 Store
func (m *MemoryStore) Close() error {
	return nil
}
