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

package splitter

import (
	"strings"

	"doc-ingest/internal/pipeline/common"
)

// ParagraphSplitter 段落切片器：按空行边界切分
type ParagraphSplitter struct {
	name  string
	cfg   Config
	fixed *FixedLengthSplitter
}

// NewParagraphSplitter 创建新的段落切片器
func NewParagraphSplitter(cfg Config, fixed *FixedLengthSplitter) *ParagraphSplitter {
	return &ParagraphSplitter{
		name:  "paragraph_splitter",
		cfg:   cfg,
		fixed: fixed,
	}
}

// Name 返回切片器名称
func (s *ParagraphSplitter) Name() string {
	return s.name
}

// Split 按空行切分段落；超长段落由定长切片器二次分解为 paragraph_split
func (s *ParagraphSplitter) Split(content string, params Params) ([]common.Chunk, error) {
	var chunks []common.Chunk

	for _, paragraph := range paragraphPattern.Split(content, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		chunks = append(chunks, s.fixed.processUnit(paragraph, params, common.ChunkParagraph)...)
	}

	return chunks, nil
}
