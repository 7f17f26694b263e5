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
)

// Store 向量存储接口：黑盒契约为按过滤条件的插入 / 检索 / 删除，
// 插入返回存储侧分配的 ID
type Store interface {
	// EnsureCollection 确保集合存在（维度固定）
	EnsureCollection(ctx context.Context, name string, dimension int) error
	// Insert 插入向量，返回与 vectors 一一对应的存储侧 ID
	Insert(ctx context.Context, collection string, vectors []*Vector) ([]string, error)
	// Search 余弦相似度检索，filter 可选按 document_id / kb_code 过滤
	Search(ctx context.Context, collection string, query []float64, opts *SearchOptions) ([]*SearchResult, error)
	// DeleteByDocument 按 document_id 过滤删除，返回删除条数；
	// kbCode 非空时只删除该知识库下的向量
	DeleteByDocument(ctx context.Context, collection string, documentID int64, kbCode string) (int64, error)
	// Close 关闭存储连接
	Close() error
}

// Vector 向量数据；DocumentID 是删除过滤键
type Vector struct {
	ID                string    `json:"id"` // 留空由存储分配
	DocumentID        int64     `json:"document_id"`
	KnowledgeBaseCode string    `json:"knowledge_base_code,omitempty"`
	Content           string    `json:"content"`
	Values            []float64 `json:"values"`
}

// SearchOptions 检索选项
type SearchOptions struct {
	TopK              int    `json:"top_k"`
	DocumentID        int64  `json:"document_id,omitempty"` // >0 时过滤
	KnowledgeBaseCode string `json:"knowledge_base_code,omitempty"`
}

// SearchResult 检索结果
type SearchResult struct {
	ID         string  `json:"id"`
	DocumentID int64   `json:"document_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}
