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

// Package worker 独立 Worker 进程：轮询认领任务并执行入库管线
package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"doc-ingest/internal/app"
	"doc-ingest/pkg/config"
	"doc-ingest/pkg/metrics"
)

// App Worker 应用
type App struct {
	bootstrap    *app.Bootstrap
	workerID     string
	pollInterval time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewApp 创建 Worker 应用
func NewApp(cfg *config.Config) (*App, error) {
	bootstrap, err := app.NewBootstrap(cfg, true)
	if err != nil {
		return nil, err
	}

	pollInterval := 2 * time.Second
	if cfg != nil && cfg.Worker.PollInterval != "" {
		if d, err := time.ParseDuration(cfg.Worker.PollInterval); err == nil && d > 0 {
			pollInterval = d
		}
	}

	return &App{
		bootstrap:    bootstrap,
		workerID:     DefaultWorkerID(),
		pollInterval: pollInterval,
		done:         make(chan struct{}),
	}, nil
}

// Start 启动认领循环
func (a *App) Start() error {
	a.bootstrap.Logger.Info("worker 启动",
		"worker_id", a.workerID, "poll_interval", a.pollInterval.String())

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go a.claimLoop(ctx)
	return nil
}

// claimLoop 轮询认领：有任务立即继续认领，队列空时按间隔等待
func (a *App) claimLoop(ctx context.Context) {
	defer close(a.done)
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		task, err := a.bootstrap.TaskStore.ClaimOne(ctx, a.workerID)
		if err != nil {
			a.bootstrap.Logger.Error("认领任务 failed", "error", err)
		} else if task != nil {
			busy := metrics.WorkerBusy.WithLabelValues(a.workerID)
			busy.Set(1)
			a.bootstrap.Orchestrator.Execute(ctx, task)
			busy.Set(0)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown 停止认领并释放组件
func (a *App) Shutdown(ctx context.Context) error {
	a.bootstrap.Logger.Info("worker 关闭中", "worker_id", a.workerID)
	if a.cancel != nil {
		a.cancel()
	}
	select {
	case <-a.done:
	case <-ctx.Done():
		a.bootstrap.Logger.Warn("等待当前任务结束超时")
	}
	a.bootstrap.Close()
	return nil
}

// DefaultWorkerID 主机名 + 进程号
func DefaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
