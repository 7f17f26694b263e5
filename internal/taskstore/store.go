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

// Package taskstore 任务注册表兼工作队列：API 写入任务，
// Worker 原子认领后推进阶段并回写进度。
package taskstore

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"doc-ingest/internal/pipeline/common"
	"doc-ingest/pkg/config"
)

// Store 任务注册表接口
type Store interface {
	// Put 写入或覆盖任务记录（入队与进度回写共用）
	Put(ctx context.Context, task *common.Task) error
	// Get 按任务 ID 查询；不存在返回 common.ErrTaskNotFound
	Get(ctx context.Context, taskID string) (*common.Task, error)
	// ListByBatch 列出批内全部任务，按创建顺序
	ListByBatch(ctx context.Context, batchID string) ([]*common.Task, error)
	// ClaimOne 原子认领一条 pending 任务并置为 processing；
	// 无任务时返回 (nil, nil)
	ClaimOne(ctx context.Context, workerID string) (*common.Task, error)
	// Close 关闭存储连接
	Close() error
}

// NewStore 根据配置创建任务注册表
func NewStore(ctx context.Context, cfg config.TaskStoreConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPgStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("不支持的任务存储类型: %s", cfg.Type)
	}
}

// NewTaskID 生成任务 ID
func NewTaskID() string {
	return uuid.New().String()
}

// NewBatchID 生成批次 ID，格式 DPS_<秒级时间戳>_<6位随机数>
func NewBatchID() string {
	return fmt.Sprintf("DPS_%d_%06d", time.Now().Unix(), rand.Intn(1_000_000))
}
