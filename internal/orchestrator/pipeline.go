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

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"doc-ingest/internal/mineru"
	"doc-ingest/internal/pipeline/common"
	"doc-ingest/internal/storage"
	"doc-ingest/internal/storage/cache"
	"doc-ingest/pkg/metrics"
	"doc-ingest/pkg/utils"
)

// Execute 运行单任务的完整管线并回写终态。
// 阶段严格顺序执行，首个失败即终止任务，后续阶段保持 pending。
func (o *Orchestrator) Execute(ctx context.Context, task *common.Task) {
	start := time.Now()
	ext := utils.NormalizeExt(task.FilePath)

	task.Status = common.TaskProcessing
	task.UpdatedAt = time.Now()
	o.put(ctx, task)

	result, err := o.process(ctx, task)
	if err != nil {
		task.Status = common.TaskFailed
		task.Error = err.Error()
		metrics.TaskTotal.WithLabelValues(string(common.TaskFailed)).Inc()
		slog.Error("任务 failed", "task_id", task.TaskID, "file", task.FilePath, "error", err)
	} else {
		task.Status = common.TaskCompleted
		task.Result = result
		metrics.TaskTotal.WithLabelValues(string(common.TaskCompleted)).Inc()
		slog.Info("任务完成", "task_id", task.TaskID, "file", task.FilePath,
			"chunks", result.ChunkCount, "cache_hit", result.CacheHit)
	}
	task.UpdatedAt = time.Now()
	o.put(ctx, task)
	metrics.TaskDuration.WithLabelValues(ext).Observe(time.Since(start).Seconds())
}

func (o *Orchestrator) process(ctx context.Context, task *common.Task) (*common.TaskResult, error) {
	path := task.FilePath

	// 幂等跳过：已有非空切片产物则整条管线短路，
	// 各阶段保持 pending，不触发任何外部调用
	if artifact, err := o.cache.Get(ctx, path); err == nil && artifact != nil && len(artifact.Chunks) > 0 {
		return &common.TaskResult{
			OriginalFile: path,
			ChunkCount:   len(artifact.Chunks),
			FileHash:     artifact.ContentHash,
			CacheHit:     true,
		}, nil
	}

	// 文档先以未解析态登记，转换批次簿记才拿得到 document_id
	hash, err := utils.FileMD5(path)
	if err != nil {
		return nil, common.NewStageError(common.StagePreprocessing, "计算文件哈希 failed", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.NewStageError(common.StagePreprocessing, "读取文件信息 failed", err)
	}
	docID, err := o.adapter.SaveDocument(ctx, &common.Document{
		Path:              path,
		Name:              filepath.Base(path),
		Extension:         utils.NormalizeExt(path),
		ContentHash:       hash,
		Size:              info.Size(),
		ModifiedTime:      info.ModTime(),
		Status:            common.DocStatusUnparsed,
		KnowledgeBaseCode: task.KnowledgeBaseCode,
	})
	if err != nil {
		return nil, common.NewStageError(common.StagePreprocessing, "登记文档 failed", err)
	}

	var (
		content          string
		preprocessedFile string
	)

	// 阶段一：预处理。转换格式走转换网关；直读格式标记 skipped
	if utils.RequiresConversion(path) {
		err := o.runStage(ctx, task, common.StagePreprocessing, func() error {
			mdPath, err := o.convert(ctx, path, hash, docID)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(mdPath)
			if err != nil {
				return fmt.Errorf("读取转换产物 failed: %w", err)
			}
			preprocessedFile = mdPath
			content = string(data)
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			task.Progress[common.StagePreprocessing] = common.StageFailed
			metrics.StageFailTotal.WithLabelValues(string(common.StagePreprocessing)).Inc()
			return nil, common.NewStageError(common.StagePreprocessing, "读取文件 failed", err)
		}
		content = string(data)
		task.Progress[common.StagePreprocessing] = common.StageSkipped
		o.put(ctx, task)
	}

	// 预处理成功即推进为已解析
	if !docID.Provisional {
		if err := o.meta.UpdateDocumentStatus(ctx, docID.Value, common.DocStatusParsed); err != nil {
			return nil, common.NewStageError(common.StagePreprocessing, "推进文档状态 failed", err)
		}
	}

	// 阶段二：切片
	var chunks []common.Chunk
	if err := o.runStage(ctx, task, common.StageChunking, func() error {
		chunks = o.engine.Split(content, path, docID.Value)
		for i := range chunks {
			metrics.ChunksTotal.WithLabelValues(string(chunks[i].Type)).Inc()
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// 阶段三：向量化
	if err := o.runStage(ctx, task, common.StageVectorization, func() error {
		if len(chunks) == 0 {
			return nil
		}
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		vectors, err := o.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("向量数 %d 与切片数 %d 不一致", len(vectors), len(chunks))
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// 阶段四：索引。先向量后元数据，vector_id 取自存储确认
	if err := o.runStage(ctx, task, common.StageIndexing, func() error {
		return o.adapter.SaveChunks(ctx, docID, task.KnowledgeBaseCode, chunks)
	}); err != nil {
		return nil, err
	}

	// 阶段五：落库收尾。文档推进到已向量化，产物写缓存
	if err := o.runStage(ctx, task, common.StageStorage, func() error {
		if !docID.Provisional {
			if err := o.meta.UpdateDocumentStatus(ctx, docID.Value, common.DocStatusVectorized); err != nil {
				return err
			}
		}
		if len(chunks) > 0 {
			return o.cache.Put(ctx, path, &cache.Artifact{
				ContentHash: hash,
				Chunks:      chunks,
				CreatedAt:   time.Now(),
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &common.TaskResult{
		OriginalFile:     path,
		PreprocessedFile: preprocessedFile,
		ChunkCount:       len(chunks),
		VectorizedCount:  len(chunks),
		FileHash:         hash,
	}, nil
}

// runStage 执行单个阶段并维护其状态转移
func (o *Orchestrator) runStage(ctx context.Context, task *common.Task, stage common.Stage, fn func() error) error {
	task.Progress[stage] = common.StageProcessing
	task.UpdatedAt = time.Now()
	o.put(ctx, task)

	start := time.Now()
	if err := fn(); err != nil {
		task.Progress[stage] = common.StageFailed
		metrics.StageFailTotal.WithLabelValues(string(stage)).Inc()
		if _, ok := common.GetStageError(err); ok {
			return err
		}
		return common.NewStageError(stage, "阶段执行 failed", err)
	}
	task.Progress[stage] = common.StageCompleted
	task.UpdatedAt = time.Now()
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	o.put(ctx, task)
	return nil
}

// convert 将文件转换为 Markdown，返回产物路径。
// 优先远端转换网关并记录 parse_batches 簿记；
// 未配置网关时 PDF 走本地提取降级，其余格式直接失败。
func (o *Orchestrator) convert(ctx context.Context, path, hash string, docID storage.DocumentID) (string, error) {
	if o.converter != nil && o.converter.Enabled() {
		return o.convertRemote(ctx, path, hash, docID)
	}

	if utils.NormalizeExt(path) == ".pdf" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		text, err := mineru.ExtractPDFText(data)
		if err != nil {
			return "", err
		}
		// 产物路径与转换网关同一规则，级联删除按它定位
		mdPath := o.converter.MarkdownPath(path)
		if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(mdPath, []byte(text), 0644); err != nil {
			return "", err
		}
		return mdPath, nil
	}

	return "", common.NewExternalServiceError("conversion",
		fmt.Sprintf("未配置转换服务，无法处理 %s", utils.NormalizeExt(path)), common.ErrUnsupportedFormat)
}

func (o *Orchestrator) convertRemote(ctx context.Context, path, hash string, docID storage.DocumentID) (string, error) {
	batchID, err := o.converter.SubmitBatch(ctx, []string{path})
	if err != nil {
		return "", err
	}

	batch := &common.ParseBatch{
		BatchID:        batchID,
		Status:         "submitted",
		ExternalTaskID: mineru.DataID(path),
		SourceFilePath: path,
		SourceFileHash: hash,
		CreatedAt:      time.Now(),
	}
	if !docID.Provisional {
		batch.DocumentID = docID.Value
	}
	if err := o.meta.SaveParseBatch(ctx, batch); err != nil {
		slog.Warn("记录转换批次 failed", "batch_id", batchID, "error", err)
	}

	results, err := o.converter.WaitForBatch(ctx, batchID)
	if err != nil {
		o.markParseBatch(ctx, batchID, "failed", "")
		return "", err
	}

	if len(results) == 0 {
		o.markParseBatch(ctx, batchID, "failed", "")
		return "", common.NewExternalServiceError("conversion", "转换批次无结果", nil)
	}
	result := results[0]
	base := filepath.Base(path)
	for _, r := range results {
		if r.FileName == base {
			result = r
			break
		}
	}
	mdPath, err := o.converter.FetchMarkdown(ctx, result, path)
	if err != nil {
		o.markParseBatch(ctx, batchID, "failed", "")
		return "", err
	}
	o.markParseBatch(ctx, batchID, "completed", mdPath)
	return mdPath, nil
}

func (o *Orchestrator) markParseBatch(ctx context.Context, batchID, status, mdPath string) {
	if err := o.meta.UpdateParseBatch(ctx, batchID, status, mdPath); err != nil {
		slog.Warn("更新转换批次 failed", "batch_id", batchID, "error", err)
	}
}

// put 回写任务进度，失败只记日志不中断管线
func (o *Orchestrator) put(ctx context.Context, task *common.Task) {
	if err := o.tasks.Put(ctx, task); err != nil {
		slog.Warn("回写任务进度 failed", "task_id", task.TaskID, "error", err)
	}
}
