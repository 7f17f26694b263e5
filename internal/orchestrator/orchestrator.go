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

// Package orchestrator 文件入库编排：任务创建、批次聚合、
// 五阶段状态机执行与级联删除。
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/panjf2000/ants/v2"

	"doc-ingest/internal/mineru"
	"doc-ingest/internal/model/embedding"
	"doc-ingest/internal/pipeline/common"
	"doc-ingest/internal/splitter"
	"doc-ingest/internal/storage"
	"doc-ingest/internal/storage/cache"
	"doc-ingest/internal/storage/metadata"
	"doc-ingest/internal/taskstore"
	"doc-ingest/pkg/utils"
)

// DefaultConcurrency 进程内执行的缺省并发
const DefaultConcurrency = 4

// Options 编排器依赖
type Options struct {
	Tasks     taskstore.Store
	Metadata  metadata.Store
	Adapter   *storage.Adapter
	Cache     cache.Store
	Engine    *splitter.Engine
	Embedder  embedding.Embedder
	Converter *mineru.Client

	// Concurrency 进程内工作池大小，<=0 使用 DefaultConcurrency
	Concurrency int
	// Detached 为 true 时只入队不执行，由独立 Worker 认领
	Detached bool
}

// Orchestrator 入库编排器
type Orchestrator struct {
	tasks     taskstore.Store
	meta      metadata.Store
	adapter   *storage.Adapter
	cache     cache.Store
	engine    *splitter.Engine
	embedder  embedding.Embedder
	converter *mineru.Client
	pool      *ants.Pool
	detached  bool
}

// New 创建编排器
func New(opts Options) (*Orchestrator, error) {
	if opts.Tasks == nil || opts.Metadata == nil || opts.Adapter == nil ||
		opts.Cache == nil || opts.Engine == nil || opts.Embedder == nil {
		return nil, fmt.Errorf("编排器依赖不完整")
	}
	pool, err := ants.NewPool(utils.DefaultInt(opts.Concurrency, DefaultConcurrency))
	if err != nil {
		return nil, fmt.Errorf("创建工作池 failed: %w", err)
	}
	return &Orchestrator{
		tasks:     opts.Tasks,
		meta:      opts.Metadata,
		adapter:   opts.Adapter,
		cache:     opts.Cache,
		engine:    opts.Engine,
		embedder:  opts.Embedder,
		converter: opts.Converter,
		pool:      pool,
		detached:  opts.Detached,
	}, nil
}

// Close 释放工作池
func (o *Orchestrator) Close() {
	o.pool.Release()
}

// Submit 提交单文件任务
func (o *Orchestrator) Submit(ctx context.Context, filePath, kbCode string) (*common.Task, error) {
	if err := validateFile(filePath); err != nil {
		return nil, err
	}
	task := common.NewTask(taskstore.NewTaskID(), "", filePath, kbCode)
	if err := o.tasks.Put(ctx, task); err != nil {
		return nil, err
	}
	o.dispatch(task)
	return task.Clone(), nil
}

// SubmitBatch 提交批次。校验是全有或全无的：任何一个文件不合法
// 则整批拒绝，不创建任何任务。
func (o *Orchestrator) SubmitBatch(ctx context.Context, filePaths []string, kbCode string) (*common.Batch, error) {
	if len(filePaths) == 0 {
		return nil, common.NewValidationError("file_paths", "文件列表不能为空")
	}
	for _, p := range filePaths {
		if err := validateFile(p); err != nil {
			return nil, err
		}
	}

	batchID := taskstore.NewBatchID()
	batch := &common.Batch{
		BatchID:    batchID,
		TotalFiles: len(filePaths),
		Status:     common.TaskPending,
	}
	for _, p := range filePaths {
		task := common.NewTask(taskstore.NewTaskID(), batchID, p, kbCode)
		if err := o.tasks.Put(ctx, task); err != nil {
			return nil, err
		}
		batch.Tasks = append(batch.Tasks, task.Clone())
		batch.CreatedAt = task.CreatedAt
		o.dispatch(task)
	}
	return batch, nil
}

// GetStatus 查询单任务状态
func (o *Orchestrator) GetStatus(ctx context.Context, taskID string) (*common.Task, error) {
	return o.tasks.Get(ctx, taskID)
}

// GetBatchStatus 查询批次状态；批状态为成员任务的读时投影
func (o *Orchestrator) GetBatchStatus(ctx context.Context, batchID string) (*common.Batch, error) {
	tasks, err := o.tasks.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, common.ErrBatchNotFound
	}

	counts := make(map[common.TaskStatus]int)
	for _, t := range tasks {
		counts[t.Status]++
	}
	return &common.Batch{
		BatchID:      batchID,
		TotalFiles:   len(tasks),
		Status:       common.AggregateBatchStatus(tasks),
		StatusCounts: counts,
		Tasks:        tasks,
		CreatedAt:    tasks[0].CreatedAt,
	}, nil
}

// Delete 级联删除一组文件的全部痕迹；kbCode 非空时只删除属于该
// 知识库的文档。单文件失败不影响其余文件。
func (o *Orchestrator) Delete(ctx context.Context, filePaths []string, kbCode string) []common.DeleteResult {
	results := make([]common.DeleteResult, 0, len(filePaths))
	for _, p := range filePaths {
		result := o.adapter.CascadeDelete(ctx, p, kbCode)
		if result.MetadataDeleted || result.VectorDeleted {
			if err := o.cache.Delete(ctx, p); err != nil {
				slog.Warn("清除切片产物缓存 failed", "path", p, "error", err)
			}
		}
		results = append(results, result)
	}
	return results
}

// Health 组件健康概览
func (o *Orchestrator) Health(ctx context.Context) map[string]string {
	health := map[string]string{
		"status":          "ok",
		"embedding_model": o.embedder.Model(),
		"conversion":      "disabled",
	}
	if o.converter != nil && o.converter.Enabled() {
		health["conversion"] = "enabled"
	}
	return health
}

// dispatch 将任务交给进程内工作池；Detached 模式下只入队
func (o *Orchestrator) dispatch(task *common.Task) {
	if o.detached {
		return
	}
	t := task.Clone()
	if err := o.pool.Submit(func() {
		o.Execute(context.Background(), t)
	}); err != nil {
		slog.Error("提交任务到工作池 failed", "task_id", t.TaskID, "error", err)
	}
}

func validateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return common.NewValidationError("file_path", fmt.Sprintf("文件不存在: %s", path))
	}
	if info.IsDir() {
		return common.NewValidationError("file_path", fmt.Sprintf("不是文件: %s", path))
	}
	if !utils.IsSupportedFormat(path) {
		return common.NewValidationError("file_path", fmt.Sprintf("不支持的格式: %s（支持 %s）",
			path, strings.Join(utils.SupportedExtensions(), " ")))
	}
	return nil
}
