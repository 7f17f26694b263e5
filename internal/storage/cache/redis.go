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
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore Redis 产物缓存实现，产物以 JSON 序列化存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 产物缓存
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

func artifactKey(path string) string { return "artifact:" + path }

// Get 实现 Store
func (s *RedisStore) Get(ctx context.Context, path string) (*Artifact, error) {
	data, err := s.client.Get(ctx, artifactKey(path)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("解析产物 failed: %w", err)
	}
	return &artifact, nil
}

// Put 实现 Store
func (s *RedisStore) Put(ctx context.Context, path string, artifact *Artifact) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("序列化产物 failed: %w", err)
	}
	return s.client.Set(ctx, artifactKey(path), data, 0).Err()
}

// Delete 实现 Store
func (s *RedisStore) Delete(ctx context.Context, path string) error {
	return s.client.Del(ctx, artifactKey(path)).Err()
}

// Close 实现 Store
func (s *RedisStore) Close() error {
	return s.client.Close()
}
