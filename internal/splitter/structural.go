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

var headingLinePattern = regexp.MustCompile(`^#{1,6}\s+.+$`)

// StructuralSplitter 结构切片器：按 Markdown 标题切分章节
type StructuralSplitter struct {
	name  string
	cfg   Config
	fixed *FixedLengthSplitter
}

// NewStructuralSplitter 创建新的结构切片器
func NewStructuralSplitter(cfg Config, fixed *FixedLengthSplitter) *StructuralSplitter {
	return &StructuralSplitter{
		name:  "structural_splitter",
		cfg:   cfg,
		fixed: fixed,
	}
}

// Name 返回切片器名称
func (s *StructuralSplitter) Name() string {
	return s.name
}

// Split 按标题边界切分；每个章节为 "标题\n\n正文"，首个标题之前的
// 正文单独成段。超长章节由定长切片器二次分解为 section_split。
func (s *StructuralSplitter) Split(content string, params Params) ([]common.Chunk, error) {
	var chunks []common.Chunk

	for _, section := range splitSections(content) {
		chunks = append(chunks, s.fixed.processUnit(section, params, common.ChunkSection)...)
	}

	return chunks, nil
}

// splitSections 把文本按标题行切分为章节文本列表
func splitSections(content string) []string {
	lines := strings.Split(content, "\n")

	var sections []string
	var heading string
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if heading != "" && text != "" {
			sections = append(sections, heading+"\n\n"+text)
		} else if heading != "" {
			sections = append(sections, heading)
		} else if text != "" {
			sections = append(sections, text)
		}
		heading = ""
		body = body[:0]
	}

	for _, line := range lines {
		if headingLinePattern.MatchString(strings.TrimRight(line, " ")) {
			if heading != "" || len(body) > 0 {
				flush()
			}
			heading = strings.TrimSpace(line)
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}
