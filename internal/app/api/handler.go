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

package api

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"doc-ingest/internal/orchestrator"
	"doc-ingest/internal/pipeline/common"
	"doc-ingest/pkg/log"
	"doc-ingest/pkg/metrics"
)

// Handler HTTP 处理器
type Handler struct {
	orch   *orchestrator.Orchestrator
	logger *log.Logger
}

// NewHandler 创建 HTTP 处理器
func NewHandler(orch *orchestrator.Orchestrator, logger *log.Logger) *Handler {
	return &Handler{orch: orch, logger: logger}
}

type processRequest struct {
	FilePath          string `json:"file_path"`
	KnowledgeBaseCode string `json:"knowledge_base_code"`
}

type batchProcessRequest struct {
	FilePaths         []string `json:"file_paths"`
	KnowledgeBaseCode string   `json:"knowledge_base_code"`
}

type deleteRequest struct {
	FilePaths         []string `json:"file_paths"`
	KnowledgeBaseCode string   `json:"knowledge_base_code"`
}

// ProcessDocument 提交单文件任务
func (h *Handler) ProcessDocument(ctx context.Context, c *app.RequestContext) {
	var req processRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不合法: " + err.Error()})
		return
	}
	task, err := h.orch.Submit(ctx, req.FilePath, req.KnowledgeBaseCode)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"task_id": task.TaskID,
		"status":  task.Status,
	})
}

// BatchProcess 提交批次任务
func (h *Handler) BatchProcess(ctx context.Context, c *app.RequestContext) {
	var req batchProcessRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不合法: " + err.Error()})
		return
	}
	batch, err := h.orch.SubmitBatch(ctx, req.FilePaths, req.KnowledgeBaseCode)
	if err != nil {
		h.writeError(c, err)
		return
	}
	taskIDs := make([]string, 0, len(batch.Tasks))
	for _, t := range batch.Tasks {
		taskIDs = append(taskIDs, t.TaskID)
	}
	c.JSON(consts.StatusOK, utils.H{
		"batch_id":    batch.BatchID,
		"total_files": batch.TotalFiles,
		"task_ids":    taskIDs,
	})
}

// TaskStatus 查询单任务状态
func (h *Handler) TaskStatus(ctx context.Context, c *app.RequestContext) {
	task, err := h.orch.GetStatus(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, task)
}

// BatchStatus 查询批次状态
func (h *Handler) BatchStatus(ctx context.Context, c *app.RequestContext) {
	batch, err := h.orch.GetBatchStatus(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(consts.StatusOK, batch)
}

// DeleteDocuments 级联删除一组文件
func (h *Handler) DeleteDocuments(ctx context.Context, c *app.RequestContext) {
	var req deleteRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不合法: " + err.Error()})
		return
	}
	if len(req.FilePaths) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "file_paths 不能为空"})
		return
	}
	results := h.orch.Delete(ctx, req.FilePaths, req.KnowledgeBaseCode)
	c.JSON(consts.StatusOK, utils.H{"results": results})
}

// Health 健康检查
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	health := h.orch.Health(ctx)
	health["timestamp"] = time.Now().Format(time.RFC3339)
	c.JSON(consts.StatusOK, health)
}

// Metrics Prometheus 文本格式指标
func (h *Handler) Metrics(ctx context.Context, c *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	c.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

func (h *Handler) writeError(c *app.RequestContext, err error) {
	switch {
	case common.IsValidationError(err):
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	case errors.Is(err, common.ErrTaskNotFound), errors.Is(err, common.ErrBatchNotFound),
		errors.Is(err, common.ErrDocumentNotFound):
		c.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
	default:
		h.logger.Error("请求处理 failed", "error", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}
