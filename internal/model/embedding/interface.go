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
	"math"
)

// Embedder 向量化接口：文本批 → 固定维度向量批
type Embedder interface {
	// Embed 对文本做向量化，返回与 texts 一一对应的向量
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension 返回向量维度
	Dimension() int

	// Model 返回模型名称
	Model() string
}

// FakeEmbedder 确定性向量化器，供测试与本地运行使用。
// 同一文本永远产生同一向量。
type FakeEmbedder struct {
	dimension int
}

// NewFakeEmbedder 创建确定性 Embedder
func NewFakeEmbedder(dimension int) *FakeEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &FakeEmbedder{dimension: dimension}
}

// Model 返回模型名称
func (f *FakeEmbedder) Model() string {
	return "fake-deterministic"
}

// Dimension 返回向量维度
func (f *FakeEmbedder) Dimension() int {
	return f.dimension
}

// Embed 基于字符统计生成确定性向量
func (f *FakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, f.dimension)
		runes := []rune(text)
		for j, r := range runes {
			vec[j%f.dimension] += float64(r) / float64(len(runes))
		}
		// 归一化，便于余弦相似度检索
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		out[i] = vec
	}
	return out, nil
}
