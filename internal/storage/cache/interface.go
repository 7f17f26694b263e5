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
	"time"

	"doc-ingest/internal/pipeline/common"
)

// Artifact 文件的成功切片产物；幂等跳过依据其存在且非空。
// ContentHash 随产物保存，便于后续升级为哈希校验式跳过。
type Artifact struct {
	ContentHash string         `json:"content_hash"`
	Chunks      []common.Chunk `json:"chunks"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Store 切片产物缓存接口，键为文件绝对路径
type Store interface {
	// Get 获取产物；不存在时返回 (nil, nil)
	Get(ctx context.Context, path string) (*Artifact, error)
	// Put 保存产物
	Put(ctx context.Context, path string, artifact *Artifact) error
	// Delete 删除产物
	Delete(ctx context.Context, path string) error
	// Close 关闭存储连接
	Close() error
}
