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

// Package storage 在元数据存储与向量存储之间维护一致性：
// 身份对齐、维度归一、先向量后元数据的写入顺序、级联删除。
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"doc-ingest/internal/pipeline/common"
	"doc-ingest/internal/storage/metadata"
	"doc-ingest/internal/storage/vector"
	"doc-ingest/pkg/utils"
)

// DefaultDimension 向量存储的固定维度
const DefaultDimension = 768

// DefaultCollection 缺省集合名
const DefaultCollection = "documents"

// Adapter 双存储协调器
type Adapter struct {
	meta         metadata.Store
	vec          vector.Store
	collection   string
	dimension    int
	markdownPath func(string) string
}

// NewAdapter 创建双存储协调器
func NewAdapter(meta metadata.Store, vec vector.Store, collection string, dimension int) *Adapter {
	if collection == "" {
		collection = DefaultCollection
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Adapter{
		meta:         meta,
		vec:          vec,
		collection:   collection,
		dimension:    dimension,
		markdownPath: markdownSiblingPath,
	}
}

// SetMarkdownPathResolver 指定转换产物 Markdown 的落盘路径计算，
// 级联删除时与转换网关使用同一处真值。默认取源文件同目录。
func (a *Adapter) SetMarkdownPathResolver(fn func(string) string) {
	if fn != nil {
		a.markdownPath = fn
	}
}

// Dimension 返回固定向量维度
func (a *Adapter) Dimension() int {
	return a.dimension
}

// SaveDocument 保存文档并解析其 ID。存储返回持久 ID 则直接采用；
// 否则按 (path, content_hash) 做一次校正重查，仍拿不到时降级为
// 本地临时 ID，不中断当次任务。
func (a *Adapter) SaveDocument(ctx context.Context, doc *common.Document) (DocumentID, error) {
	id, err := a.meta.SaveDocument(ctx, doc)
	if err == nil && id > 0 {
		return DurableID(id), nil
	}
	if err != nil {
		slog.Warn("保存文档未取得持久 ID，尝试校正重查",
			"path", doc.Path, "error", err)
	}

	if found, qerr := a.meta.GetDocumentByPathAndHash(ctx, doc.Path, doc.ContentHash); qerr == nil && found.ID > 0 {
		return DurableID(found.ID), nil
	}

	pid := ProvisionalID()
	slog.Warn("降级使用临时文档 ID", "path", doc.Path, "provisional_id", pid.Value)
	return pid, nil
}

// NormalizeVector 将向量调整为固定维度：超长截断，不足补零
func NormalizeVector(values []float64, dimension int) []float64 {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if len(values) == dimension {
		return values
	}
	out := make([]float64, dimension)
	copy(out, values)
	if len(values) > dimension {
		slog.Warn("向量超长，截断", "got", len(values), "want", dimension)
	} else {
		slog.Warn("向量不足，补零", "got", len(values), "want", dimension)
	}
	return out
}

// SaveChunks 持久化切片：先写向量存储，用其返回的 ID 回填
// vector_id 后再写元数据。向量写入失败时不落任何元数据行。
func (a *Adapter) SaveChunks(ctx context.Context, doc DocumentID, kbCode string, chunks []common.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := a.vec.EnsureCollection(ctx, a.collection, a.dimension); err != nil {
		return common.NewStorageError("vector", "确保集合 failed", err)
	}

	vectors := make([]*vector.Vector, len(chunks))
	for i := range chunks {
		chunks[i].DocumentID = doc.Value
		if chunks[i].FileID == 0 {
			chunks[i].FileID = doc.Value
		}
		vectors[i] = &vector.Vector{
			DocumentID:        doc.Value,
			KnowledgeBaseCode: kbCode,
			Content:           chunks[i].Content,
			Values:            NormalizeVector(chunks[i].Embedding, a.dimension),
		}
	}

	ids, err := a.vec.Insert(ctx, a.collection, vectors)
	if err != nil {
		return common.NewStorageError("vector", "插入向量 failed", err)
	}
	if len(ids) != len(chunks) {
		return common.NewStorageError("vector",
			fmt.Sprintf("向量存储确认数 %d 与切片数 %d 不一致", len(ids), len(chunks)), nil)
	}
	for i := range chunks {
		chunks[i].VectorID = ids[i]
	}

	if err := a.meta.SaveChunks(ctx, chunks); err != nil {
		return common.NewStorageError("metadata", "保存切片元数据 failed", err)
	}
	return nil
}

// CascadeDelete 按路径级联删除单个文件的全部痕迹：命名实体、
// 切片行、文档行、向量、转换产物 Markdown。kbCode 非空时只删除
// 属于该知识库的文档。任何一步失败只记录进结果，不中断其余步骤。
func (a *Adapter) CascadeDelete(ctx context.Context, path, kbCode string) common.DeleteResult {
	result := common.DeleteResult{FilePath: path}
	var failures []string

	doc, err := a.meta.GetDocumentByPath(ctx, path)
	if err != nil {
		result.Error = fmt.Sprintf("查找文档 failed: %v", err)
		return result
	}
	if kbCode != "" && doc.KnowledgeBaseCode != kbCode {
		result.Error = fmt.Sprintf("文档不属于知识库 %s", kbCode)
		return result
	}

	// named_entities 经 chunk_id 关联切片，必须先于切片删除
	if _, err := a.meta.DeleteEntitiesByDocument(ctx, doc.ID); err != nil {
		failures = append(failures, fmt.Sprintf("删除命名实体 failed: %v", err))
	}
	if _, err := a.meta.DeleteChunksByDocument(ctx, doc.ID); err != nil {
		failures = append(failures, fmt.Sprintf("删除切片 failed: %v", err))
	}
	if err := a.meta.DeleteDocument(ctx, doc.ID); err != nil {
		failures = append(failures, fmt.Sprintf("删除文档 failed: %v", err))
	} else {
		result.MetadataDeleted = true
	}

	if _, err := a.vec.DeleteByDocument(ctx, a.collection, doc.ID, kbCode); err != nil {
		failures = append(failures, fmt.Sprintf("删除向量 failed: %v", err))
	} else {
		result.VectorDeleted = true
	}

	if utils.RequiresConversion(path) {
		mdPath := a.markdownPath(path)
		switch err := os.Remove(mdPath); {
		case err == nil:
			result.MarkdownDeleted = true
		case os.IsNotExist(err):
			// 无产物视为已清理
		default:
			failures = append(failures, fmt.Sprintf("删除转换产物 failed: %v", err))
		}
	}

	if len(failures) > 0 {
		result.Error = strings.Join(failures, "; ")
	}
	return result
}

// markdownSiblingPath 源文件同目录下的转换产物路径
func markdownSiblingPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
}
