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
	"regexp"
	"strings"

	"doc-ingest/internal/pipeline/common"
)

// 句子终结符（中英文）后跟空白视为句子边界
var sentencePattern = regexp.MustCompile(`[.!?。！？]+[\s]+`)

// SemanticSplitter 语义切片器：按句子边界切分后贪心合并到 chunk_size
type SemanticSplitter struct {
	name  string
	cfg   Config
	fixed *FixedLengthSplitter
}

// NewSemanticSplitter 创建新的语义切片器
func NewSemanticSplitter(cfg Config, fixed *FixedLengthSplitter) *SemanticSplitter {
	return &SemanticSplitter{
		name:  "semantic_splitter",
		cfg:   cfg,
		fixed: fixed,
	}
}

// Name 返回切片器名称
func (s *SemanticSplitter) Name() string {
	return s.name
}

// Split 切分句子并贪心合并；超长单元由定长切片器二次分解为
// semantic_split。返回错误时由引擎退化为单个 full_text 切片。
func (s *SemanticSplitter) Split(content string, params Params) ([]common.Chunk, error) {
	sentences := splitSentences(content)

	var chunks []common.Chunk
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			chunks = append(chunks, s.fixed.processUnit(text, params, common.ChunkSemantic)...)
		}
		current.Reset()
	}

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(sentence))+1 > s.cfg.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks, nil
}

// splitSentences 按终结符边界切分，分隔符归属前一句
func splitSentences(content string) []string {
	bounds := sentencePattern.FindAllStringIndex(content, -1)
	if len(bounds) == 0 {
		return []string{content}
	}

	var sentences []string
	prev := 0
	for _, b := range bounds {
		sentences = append(sentences, content[prev:b[1]])
		prev = b[1]
	}
	if prev < len(content) {
		sentences = append(sentences, content[prev:])
	}
	return sentences
}
