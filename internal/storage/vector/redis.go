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
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore Redis Hash 向量存储实现；相似度在客户端计算，
// 适用于中小规模集合
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 向量存储
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis failed: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func dimKey(col string) string            { return "vec:" + col + ":dim" }
func idsKey(col string) string            { return "vec:" + col + ":ids" }
func vecKey(col, id string) string        { return "vec:" + col + ":v:" + id }
func docKey(col string, doc int64) string { return "vec:" + col + ":doc:" + strconv.FormatInt(doc, 10) }

// EnsureCollection 确保集合存在
func (s *RedisStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	existing, err := s.client.Get(ctx, dimKey(name)).Result()
	if err == nil {
		if d, _ := strconv.Atoi(existing); d != dimension {
			return fmt.Errorf("collection %s dimension %s does not match requested %d", name, existing, dimension)
		}
		return nil
	}
	if err != redis.Nil {
		return err
	}
	return s.client.Set(ctx, dimKey(name), dimension, 0).Err()
}

// Insert 插入向量，返回分配的 ID
func (s *RedisStore) Insert(ctx context.Context, name string, vectors []*Vector) ([]string, error) {
	dimStr, err := s.client.Get(ctx, dimKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("collection %s not found: %w", name, err)
	}
	dimension, _ := strconv.Atoi(dimStr)

	ids := make([]string, 0, len(vectors))
	pipe := s.client.TxPipeline()
	for _, v := range vectors {
		if len(v.Values) != dimension {
			return nil, fmt.Errorf("vector dimension %d does not match collection dimension %d", len(v.Values), dimension)
		}
		id := v.ID
		if id == "" {
			id = uuid.New().String()
		}
		values, err := json.Marshal(v.Values)
		if err != nil {
			return nil, err
		}
		pipe.HSet(ctx, vecKey(name, id), map[string]interface{}{
			"document_id": v.DocumentID,
			"kb_code":     v.KnowledgeBaseCode,
			"content":     v.Content,
			"values":      values,
		})
		pipe.SAdd(ctx, idsKey(name), id)
		pipe.SAdd(ctx, docKey(name, v.DocumentID), id)
		ids = append(ids, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// Search 取回候选向量并在客户端计算余弦相似度
func (s *RedisStore) Search(ctx context.Context, name string, query []float64, opts *SearchOptions) ([]*SearchResult, error) {
	if opts == nil {
		opts = &SearchOptions{TopK: 10}
	}

	setKey := idsKey(name)
	if opts.DocumentID > 0 {
		setKey = docKey(name, opts.DocumentID)
	}
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}

	var results []*SearchResult
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, vecKey(name, id)).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		if opts.KnowledgeBaseCode != "" && fields["kb_code"] != opts.KnowledgeBaseCode {
			continue
		}
		var values []float64
		if err := json.Unmarshal([]byte(fields["values"]), &values); err != nil {
			continue
		}
		docID, _ := strconv.ParseInt(fields["document_id"], 10, 64)
		results = append(results, &SearchResult{
			ID:         id,
			DocumentID: docID,
			Content:    fields["content"],
			Score:      cosineSimilarity(query, values),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// DeleteByDocument 按 document_id 过滤删除；kbCode 非空时只删除该知识库下的向量
func (s *RedisStore) DeleteByDocument(ctx context.Context, name string, documentID int64, kbCode string) (int64, error) {
	ids, err := s.client.SMembers(ctx, docKey(name, documentID)).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	matched := ids
	if kbCode != "" {
		matched = make([]string, 0, len(ids))
		for _, id := range ids {
			code, err := s.client.HGet(ctx, vecKey(name, id), "kb_code").Result()
			if err != nil && err != redis.Nil {
				return 0, err
			}
			if code == kbCode {
				matched = append(matched, id)
			}
		}
		if len(matched) == 0 {
			return 0, nil
		}
	}

	pipe := s.client.TxPipeline()
	for _, id := range matched {
		pipe.Del(ctx, vecKey(name, id))
		pipe.SRem(ctx, idsKey(name), id)
		pipe.SRem(ctx, docKey(name, documentID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Close 关闭存储连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
