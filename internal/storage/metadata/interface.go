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

	"doc-ingest/internal/pipeline/common"
)

// Store 元数据存储接口：documents / document_chunks / named_entities /
// parse_batches 四张表的读写
type Store interface {
	// SaveDocument 按 path 幂等保存文档，返回持久 ID
	SaveDocument(ctx context.Context, doc *common.Document) (int64, error)
	// GetDocumentByPath 按路径获取文档
	GetDocumentByPath(ctx context.Context, path string) (*common.Document, error)
	// GetDocumentByPathAndHash 按 (path, content_hash) 获取文档，
	// 用于临时 ID 的校正重查
	GetDocumentByPathAndHash(ctx context.Context, path, hash string) (*common.Document, error)
	// UpdateDocumentStatus 推进文档状态；状态单调不回退，回退更新被忽略
	UpdateDocumentStatus(ctx context.Context, id int64, status common.DocumentStatus) error

	// SaveChunks 批量保存切片元数据
	SaveChunks(ctx context.Context, chunks []common.Chunk) error
	// DeleteChunksByDocument 删除文档的全部切片，返回删除行数
	DeleteChunksByDocument(ctx context.Context, documentID int64) (int64, error)
	// DeleteEntitiesByDocument 删除文档切片关联的命名实体行，返回删除行数
	DeleteEntitiesByDocument(ctx context.Context, documentID int64) (int64, error)
	// DeleteDocument 删除文档行
	DeleteDocument(ctx context.Context, id int64) error

	// SaveParseBatch 记录转换批次簿记
	SaveParseBatch(ctx context.Context, batch *common.ParseBatch) error
	// UpdateParseBatch 更新转换批次状态与产物路径
	UpdateParseBatch(ctx context.Context, batchID, status, markdownPath string) error

	// Close 关闭存储连接
	Close() error
}
