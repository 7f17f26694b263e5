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
	"doc-ingest/internal/pipeline/common"
)

// separators 定长切片回扫时认可的边界字符（中英文）
var separators = map[rune]bool{
	' ': true, '\n': true,
	'.': true, '!': true, '?': true, ',': true, ';': true, ':': true,
	'，': true, '。': true, '！': true, '？': true, '；': true, '：': true,
}

// FixedLengthSplitter 定长切片器，也是其他策略超长单元的二次分解器
type FixedLengthSplitter struct {
	name string
	cfg  Config
}

// NewFixedLengthSplitter 创建新的定长切片器
func NewFixedLengthSplitter(cfg Config) *FixedLengthSplitter {
	return &FixedLengthSplitter{
		name: "fixed_length_splitter",
		cfg:  cfg,
	}
}

// Name 返回切片器名称
func (s *FixedLengthSplitter) Name() string {
	return s.name
}

// Split 执行定长切片
func (s *FixedLengthSplitter) Split(content string, params Params) ([]common.Chunk, error) {
	pieces := s.splitLongText(content)
	chunks := make([]common.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, newChunk(piece, params, common.ChunkFixedLength))
	}
	return chunks, nil
}

// processUnit 处理单个文本单元：超过 chunk_size 则定长二次分解并追加
// _split 后缀，否则原样作为一个切片。
func (s *FixedLengthSplitter) processUnit(unit string, params Params, baseType common.ChunkType) []common.Chunk {
	if len([]rune(unit)) <= s.cfg.ChunkSize {
		return []common.Chunk{newChunk(unit, params, baseType)}
	}
	splitType := common.ChunkType(string(baseType) + "_split")
	pieces := s.splitLongText(unit)
	chunks := make([]common.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, newChunk(piece, params, splitType))
	}
	return chunks
}

// splitLongText 按字符窗口切分长文本：窗口终点自 start+chunk_size 向
// start+min_chunk_size 回扫最近的边界字符，找不到则硬切；下一窗口自
// end+1-chunk_overlap 开始。配置违反 chunk_overlap < min_chunk_size 时
// 强制窗口起点前进，绝不死循环。
func (s *FixedLengthSplitter) splitLongText(text string) []string {
	runes := []rune(text)
	textLen := len(runes)
	var pieces []string

	start := 0
	for start < textLen {
		end := start + s.cfg.ChunkSize
		if end >= textLen {
			pieces = append(pieces, string(runes[start:]))
			break
		}

		for end > start+s.cfg.MinChunkSize {
			if separators[runes[end]] {
				break
			}
			end--
		}
		if end <= start+s.cfg.MinChunkSize {
			end = start + s.cfg.ChunkSize
		}

		pieces = append(pieces, string(runes[start:end+1]))

		next := end + 1 - s.cfg.ChunkOverlap
		if next <= start {
			next = end + 1
		}
		start = next
	}

	return pieces
}
