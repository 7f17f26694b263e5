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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"doc-ingest/internal/pipeline/common"
)

// requiredTables 启动时校验的表；缺表直接失败并列出缺失项
var requiredTables = []string{"documents", "document_chunks", "named_entities", "parse_batches"}

// PgStore PostgreSQL 元数据存储
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore 创建 PostgreSQL 元数据存储并校验表结构
func NewPgStore(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("连接元数据库failed: %w", err)
	}
	store := &PgStore{pool: pool}
	if err := store.checkTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// checkTables 校验必需表存在
func (s *PgStore) checkTables(ctx context.Context) error {
	rows, err := s.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_name = ANY($1)`,
		requiredTables,
	)
	if err != nil {
		return fmt.Errorf("查询表结构failed: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		found[name] = true
	}

	var missing []string
	for _, table := range requiredTables {
		if !found[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("元数据库缺少必需表: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SaveDocument 按 path upsert，返回持久 ID
func (s *PgStore) SaveDocument(ctx context.Context, doc *common.Document) (int64, error) {
	status := doc.Status
	if status == "" {
		status = common.DocStatusUnparsed
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (path, name, extension, content_hash, size, modified_time, status, knowledge_base_code, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), now(), now())
		 ON CONFLICT (path) DO UPDATE SET
		   name = EXCLUDED.name,
		   extension = EXCLUDED.extension,
		   content_hash = EXCLUDED.content_hash,
		   size = EXCLUDED.size,
		   modified_time = EXCLUDED.modified_time,
		   knowledge_base_code = COALESCE(EXCLUDED.knowledge_base_code, documents.knowledge_base_code),
		   status = GREATEST(documents.status, EXCLUDED.status),
		   updated_at = now()
		 RETURNING id`,
		doc.Path, doc.Name, doc.Extension, doc.ContentHash, doc.Size, doc.ModifiedTime,
		string(status), doc.KnowledgeBaseCode,
	).Scan(&id)
	if err != nil {
		return 0, common.NewStorageError("metadata", "保存文档failed", err)
	}
	// 历史工具写入过时间戳派生的行 ID，仅告警不做控制流
	if id > 1_000_000_000 {
		slog.Warn("documents.id 超出常规序列范围，疑似历史临时 ID", "id", id, "path", doc.Path)
	}
	return id, nil
}

// GetDocumentByPath 按路径获取文档
func (s *PgStore) GetDocumentByPath(ctx context.Context, path string) (*common.Document, error) {
	return s.getDocument(ctx,
		`SELECT id, path, name, extension, content_hash, size, modified_time, status, COALESCE(knowledge_base_code, ''), created_at, updated_at
		 FROM documents WHERE path = $1`, path)
}

// GetDocumentByPathAndHash 按 (path, content_hash) 获取文档
func (s *PgStore) GetDocumentByPathAndHash(ctx context.Context, path, hash string) (*common.Document, error) {
	return s.getDocument(ctx,
		`SELECT id, path, name, extension, content_hash, size, modified_time, status, COALESCE(knowledge_base_code, ''), created_at, updated_at
		 FROM documents WHERE path = $1 AND content_hash = $2`, path, hash)
}

func (s *PgStore) getDocument(ctx context.Context, query string, args ...interface{}) (*common.Document, error) {
	var doc common.Document
	var status string
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&doc.ID, &doc.Path, &doc.Name, &doc.Extension, &doc.ContentHash, &doc.Size,
		&doc.ModifiedTime, &status, &doc.KnowledgeBaseCode, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrDocumentNotFound
		}
		return nil, common.NewStorageError("metadata", "查询文档failed", err)
	}
	doc.Status = common.DocumentStatus(status)
	return &doc, nil
}

// UpdateDocumentStatus 推进状态；文本码 '0'<'1'<'2'，GREATEST 保证不回退
func (s *PgStore) UpdateDocumentStatus(ctx context.Context, id int64, status common.DocumentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = GREATEST(status, $1), updated_at = now() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return common.NewStorageError("metadata", "更新文档状态failed", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrDocumentNotFound
	}
	return nil
}

// SaveChunks 批量保存切片
func (s *PgStore) SaveChunks(ctx context.Context, chunks []common.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO document_chunks (document_id, file_id, chunk_index, content, vector_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.DocumentID, c.FileID, c.Index, c.Content, c.VectorID,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range chunks {
		if _, err := br.Exec(); err != nil {
			return common.NewStorageError("metadata", "保存切片failed", err)
		}
	}
	return nil
}

// DeleteChunksByDocument 删除文档全部切片
func (s *PgStore) DeleteChunksByDocument(ctx context.Context, documentID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, common.NewStorageError("metadata", "删除切片failed", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteEntitiesByDocument 删除文档切片关联的命名实体行
func (s *PgStore) DeleteEntitiesByDocument(ctx context.Context, documentID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM named_entities WHERE chunk_id IN (
		   SELECT id FROM document_chunks WHERE document_id = $1
		 )`, documentID)
	if err != nil {
		return 0, common.NewStorageError("metadata", "删除命名实体failed", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteDocument 删除文档行
func (s *PgStore) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return common.NewStorageError("metadata", "删除文档failed", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrDocumentNotFound
	}
	return nil
}

// SaveParseBatch 记录转换批次簿记
func (s *PgStore) SaveParseBatch(ctx context.Context, batch *common.ParseBatch) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO parse_batches (batch_id, document_id, status, external_task_id, source_file_path, source_file_hash, markdown_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), now())
		 ON CONFLICT (batch_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   external_task_id = EXCLUDED.external_task_id,
		   markdown_path = COALESCE(EXCLUDED.markdown_path, parse_batches.markdown_path)`,
		batch.BatchID, batch.DocumentID, batch.Status, batch.ExternalTaskID,
		batch.SourceFilePath, batch.SourceFileHash, batch.MarkdownPath,
	)
	if err != nil {
		return common.NewStorageError("metadata", "保存转换批次failed", err)
	}
	return nil
}

// UpdateParseBatch 更新转换批次状态与产物路径
func (s *PgStore) UpdateParseBatch(ctx context.Context, batchID, status, markdownPath string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE parse_batches SET status = $1, markdown_path = COALESCE(NULLIF($2, ''), markdown_path) WHERE batch_id = $3`,
		status, markdownPath, batchID,
	)
	if err != nil {
		return common.NewStorageError("metadata", "更新转换批次failed", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrBatchNotFound
	}
	return nil
}

// Close 关闭连接池
func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}
