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

package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"doc-ingest/internal/pipeline/common"
	"doc-ingest/pkg/metrics"
)

// Options OpenAI 兼容向量化服务配置
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	BatchSize int     // 单次请求最大文本数，<=0 使用默认 16
	QPS       float64 // 请求限速，<=0 不限速
}

// OpenAIAdapter OpenAI 兼容 /embeddings 适配器
type OpenAIAdapter struct {
	opts    Options
	client  *resty.Client
	limiter *rate.Limiter
}

// NewOpenAIAdapter 创建 OpenAI 兼容向量化适配器
func NewOpenAIAdapter(opts Options) *OpenAIAdapter {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	if opts.Dimension <= 0 {
		opts.Dimension = 768
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	var limiter *rate.Limiter
	if opts.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.QPS), 1)
	}

	return &OpenAIAdapter{
		opts:    opts,
		client:  client,
		limiter: limiter,
	}
}

// Model 返回模型名称
func (a *OpenAIAdapter) Model() string {
	return a.opts.Model
}

// Dimension 返回向量维度
func (a *OpenAIAdapter) Dimension() int {
	return a.opts.Dimension
}

// Embed 分批调用 /embeddings，返回与 texts 一一对应的向量
func (a *OpenAIAdapter) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += a.opts.BatchSize {
		end := start + a.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := a.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// embedBatch 单次请求
func (a *OpenAIAdapter) embedBatch(ctx context.Context, texts []string) (result [][]float64, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(outcome).Inc()
	}()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	request := map[string]interface{}{
		"model": a.opts.Model,
		"input": texts,
	}

	response, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+a.opts.APIKey).
		SetBody(request).
		Post(a.opts.BaseURL + "/embeddings")

	if err != nil {
		return nil, common.NewExternalServiceError("embedding", "调用向量化服务失败", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, common.NewExternalServiceError("embedding",
			fmt.Sprintf("向量化服务返回错误: %s", response.String()), nil)
	}

	var apiResp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(response.Body(), &apiResp); err != nil {
		return nil, common.NewExternalServiceError("embedding", "解析向量化响应失败", err)
	}
	if len(apiResp.Data) != len(texts) {
		return nil, common.NewExternalServiceError("embedding",
			fmt.Sprintf("返回向量数 %d 与请求文本数 %d 不一致", len(apiResp.Data), len(texts)), nil)
	}

	vectors := make([][]float64, len(texts))
	for _, item := range apiResp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, common.NewExternalServiceError("embedding",
				fmt.Sprintf("返回向量 index %d 越界", item.Index), nil)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
