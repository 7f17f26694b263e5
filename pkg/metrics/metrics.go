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

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API/Worker 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		TaskDuration, TaskTotal, StageFailTotal,
		StageDuration, ChunksTotal,
		EmbeddingRequestsTotal, WorkerBusy,
	)
}

// TaskDuration 单文件任务执行耗时（秒）
var TaskDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "docingest_task_duration_seconds",
		Help:    "任务执行耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"extension"},
)

// TaskTotal 任务总数（按终态）
var TaskTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docingest_task_total",
		Help: "任务总数（按终态）",
	},
	[]string{"status"}, // completed | failed
)

// StageFailTotal 阶段失败总数
var StageFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docingest_stage_fail_total",
		Help: "阶段失败总数",
	},
	[]string{"stage"},
)

// StageDuration 单阶段耗时（秒）
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "docingest_stage_duration_seconds",
		Help:    "阶段耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"},
)

// ChunksTotal 产出切片总数（按策略）
var ChunksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docingest_chunks_total",
		Help: "产出切片总数（按策略）",
	},
	[]string{"chunk_type"},
)

// EmbeddingRequestsTotal 向量化请求总数
var EmbeddingRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "docingest_embedding_requests_total",
		Help: "向量化请求总数",
	},
	[]string{"outcome"}, // ok | error
)

// WorkerBusy 当前正在执行的任务数（每 Worker）
var WorkerBusy = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "docingest_worker_busy",
		Help: "当前正在执行的任务数",
	},
	[]string{"worker_id"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
