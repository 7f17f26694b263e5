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

package taskstore

import (
	"context"
	"sync"

	"doc-ingest/internal/pipeline/common"
)

// MemoryStore 内存任务注册表，认领顺序为 FIFO
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*common.Task
	order []string // 入队顺序
}

// NewMemoryStore 创建内存任务注册表
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*common.Task),
	}
}

// Put 实现 Store
func (m *MemoryStore) Put(ctx context.Context, task *common.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tasks[task.TaskID]; !exists {
		m.order = append(m.order, task.TaskID)
	}
	m.tasks[task.TaskID] = task.Clone()
	return nil
}

// Get 实现 Store
func (m *MemoryStore) Get(ctx context.Context, taskID string) (*common.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[taskID]
	if !ok {
		return nil, common.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// ListByBatch 实现 Store
func (m *MemoryStore) ListByBatch(ctx context.Context, batchID string) ([]*common.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tasks []*common.Task
	for _, id := range m.order {
		if t := m.tasks[id]; t != nil && t.BatchID == batchID {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks, nil
}

// ClaimOne 实现 Store
func (m *MemoryStore) ClaimOne(ctx context.Context, workerID string) (*common.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		t := m.tasks[id]
		if t == nil || t.Status != common.TaskPending {
			continue
		}
		t.Status = common.TaskProcessing
		return t.Clone(), nil
	}
	return nil, nil
}

// Close 实现 Store
func (m *MemoryStore) Close() error {
	return nil
}
