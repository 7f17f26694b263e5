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
	"path/filepath"
	"regexp"
	"strings"

	"doc-ingest/internal/pipeline/common"
)

// Config 切片配置；不变式 ChunkOverlap < MinChunkSize <= ChunkSize
type Config struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	MinChunkSize int `mapstructure:"min_chunk_size"`
}

// DefaultConfig 默认切片配置
func DefaultConfig() Config {
	return Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		MinChunkSize: 50,
	}
}

// normalize 修正非法配置，保证切片器始终能前进
func (c Config) normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultConfig().ChunkSize
	}
	if c.MinChunkSize <= 0 || c.MinChunkSize > c.ChunkSize {
		c.MinChunkSize = c.ChunkSize / 10
		if c.MinChunkSize == 0 {
			c.MinChunkSize = 1
		}
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	return c
}

// Params 单次切片调用的来源信息
type Params struct {
	SourcePath string
	SourceID   int64
}

// Splitter 切片器接口
type Splitter interface {
	Split(content string, params Params) ([]common.Chunk, error)
	Name() string
}

// 切片策略名
const (
	StrategyStructural = "structural"
	StrategyParagraph  = "paragraph"
	StrategySemantic   = "semantic"
	StrategyFixed      = "fixed_length"
)

// Engine 切片引擎：预清理 → 纯分类器选择策略 → 执行切片
type Engine struct {
	name      string
	cfg       Config
	splitters map[string]Splitter
}

// NewEngine 创建新的切片引擎
func NewEngine(cfg Config) *Engine {
	cfg = cfg.normalize()
	engine := &Engine{
		name:      "splitter_engine",
		cfg:       cfg,
		splitters: make(map[string]Splitter),
	}
	engine.registerSplitters()
	return engine
}

// Name 返回引擎名称
func (e *Engine) Name() string {
	return e.name
}

// registerSplitters 注册内置切片器
func (e *Engine) registerSplitters() {
	fixed := NewFixedLengthSplitter(e.cfg)
	e.splitters[StrategyFixed] = fixed
	e.splitters[StrategyStructural] = NewStructuralSplitter(e.cfg, fixed)
	e.splitters[StrategyParagraph] = NewParagraphSplitter(e.cfg, fixed)
	e.splitters[StrategySemantic] = NewSemanticSplitter(e.cfg, fixed)
}

var (
	headingPattern    = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)
	paragraphPattern  = regexp.MustCompile(`\n\s*\n`)
	spaceRunPattern   = regexp.MustCompile(`[ \t]+`)
	newlineRunPattern = regexp.MustCompile(`\n{3,}`)
	controlPattern    = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
)

// Classify 纯分类器：根据扩展名与文本结构选择切片策略。
// .md/.markdown 优先结构切片；.txt/.text 直接检查段落；其余扩展名固定长度。
func Classify(content, sourcePath string) string {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	switch ext {
	case ".md", ".markdown":
		if hasMarkdownStructure(content) {
			return StrategyStructural
		}
		fallthrough
	case ".txt", ".text":
		if hasParagraphs(content) {
			return StrategyParagraph
		}
		return StrategySemantic
	default:
		return StrategyFixed
	}
}

// hasMarkdownStructure 至少两个 Markdown 标题才视为有结构
func hasMarkdownStructure(content string) bool {
	return len(headingPattern.FindAllString(content, 3)) >= 2
}

// hasParagraphs 按空行分割后至少两段才视为有段落结构
func hasParagraphs(content string) bool {
	return len(paragraphPattern.Split(content, 3)) >= 2
}

// cleanDocument 统一预清理：横向空白折叠为单个空格，三个以上连续换行
// 折叠为两个，剔除控制字符，保留所有可打印字符与中英文标点。
func cleanDocument(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = controlPattern.ReplaceAllString(content, "")
	content = spaceRunPattern.ReplaceAllString(content, " ")
	content = newlineRunPattern.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// Split 执行切片。空输入返回空列表，永不出错；相同输入输出逐字节一致。
// 语义切片失败时退化为单个 full_text 切片。
func (e *Engine) Split(content, sourcePath string, sourceID int64) []common.Chunk {
	content = cleanDocument(content)
	if content == "" {
		return []common.Chunk{}
	}

	params := Params{SourcePath: sourcePath, SourceID: sourceID}
	strategy := Classify(content, sourcePath)

	chunks, err := e.splitters[strategy].Split(content, params)
	if err != nil {
		chunks = []common.Chunk{newChunk(content, params, common.ChunkFullText)}
	}

	// 重排 chunk_index，保证 0..n-1 连续无洞
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

// GetSplitter 获取切片器
func (e *Engine) GetSplitter(name string) (Splitter, bool) {
	s, ok := e.splitters[name]
	return s, ok
}

// newChunk 创建切片，chunk_index 由引擎最终重排
func newChunk(content string, params Params, chunkType common.ChunkType) common.Chunk {
	return common.Chunk{
		FileID:     params.SourceID,
		Content:    content,
		Type:       chunkType,
		Source:     filepath.Base(params.SourcePath),
		SourcePath: params.SourcePath,
	}
}
