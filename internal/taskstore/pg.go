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

package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"doc-ingest/internal/pipeline/common"
)

// PgStore PostgreSQL 任务注册表，使用 ingest_tasks 表。
// 任务全文以 JSON 存 payload 列，status 列冗余一份供队列查询。
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore 创建 PostgreSQL 任务注册表
func NewPgStore(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("连接任务存储 failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("任务存储 ping failed: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

// Put 实现 Store
func (s *PgStore) Put(ctx context.Context, task *common.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO ingest_tasks (id, batch_id, payload, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE SET
  payload = EXCLUDED.payload,
  status = EXCLUDED.status,
  updated_at = now()`,
		task.TaskID, task.BatchID, payload, string(task.Status), task.CreatedAt,
	)
	return err
}

// Get 实现 Store
func (s *PgStore) Get(ctx context.Context, taskID string) (*common.Task, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM ingest_tasks WHERE id = $1`, taskID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrTaskNotFound
		}
		return nil, err
	}
	return decodeTask(payload)
}

// ListByBatch 实现 Store
func (s *PgStore) ListByBatch(ctx context.Context, batchID string) ([]*common.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM ingest_tasks WHERE batch_id = $1 ORDER BY created_at`, batchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*common.Task
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		task, err := decodeTask(payload)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ClaimOne 实现 Store；原子认领一条 pending
func (s *PgStore) ClaimOne(ctx context.Context, workerID string) (*common.Task, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`WITH sel AS (
  SELECT id FROM ingest_tasks WHERE status = 'pending' ORDER BY created_at LIMIT 1 FOR UPDATE SKIP LOCKED
)
UPDATE ingest_tasks SET status = 'processing', worker_id = $1, claimed_at = now(), updated_at = now()
FROM sel WHERE ingest_tasks.id = sel.id
RETURNING ingest_tasks.payload`,
		workerID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	task, err := decodeTask(payload)
	if err != nil {
		return nil, err
	}
	task.Status = common.TaskProcessing
	return task, nil
}

// Close 实现 Store
func (s *PgStore) Close() error {
	s.pool.Close()
	return nil
}

func decodeTask(payload []byte) (*common.Task, error) {
	var task common.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("解析任务 payload failed: %w", err)
	}
	return &task, nil
}
