package splitter

import (
	"strings"
	"testing"

	"doc-ingest/internal/pipeline/common"
)

func newTestEngine() *Engine {
	return NewEngine(Config{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 50})
}

func TestSplit_EmptyInput(t *testing.T) {
	engine := newTestEngine()
	for _, input := range []string{"", "   ", "\n\n\n", "\t \n"} {
		chunks := engine.Split(input, "/data/a.txt", 1)
		if chunks == nil {
			t.Fatal("empty input should return empty list, not nil")
		}
		if len(chunks) != 0 {
			t.Fatalf("Split(%q) = %d chunks, want 0", input, len(chunks))
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	engine := newTestEngine()
	content := strings.Repeat("句子一。句子二！Sentence three. ", 80)
	first := engine.Split(content, "/data/a.txt", 7)
	second := engine.Split(content, "/data/a.txt", 7)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content || first[i].Type != second[i].Type || first[i].Index != second[i].Index {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_IndexContiguity(t *testing.T) {
	engine := newTestEngine()
	content := "# 甲\n\n正文一\n\n# 乙\n\n" + strings.Repeat("很长的正文。", 200) + "\n\n# 丙\n\n正文三"
	chunks := engine.Split(content, "/data/doc.md", 1)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk_index[%d] = %d, want %d", i, c.Index, i)
		}
	}
}

func TestSplit_FixedLength1200(t *testing.T) {
	engine := newTestEngine()
	// 1200 字符无结构文本，以空格为切分边界
	content := strings.Repeat("word ", 239) + "final"
	if len(content) != 1200 {
		t.Fatalf("fixture length = %d, want 1200", len(content))
	}

	chunks := engine.Split(content, "/data/blob.bin", 1)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if c.Type != common.ChunkFixedLength {
			t.Fatalf("chunk %d type = %s, want fixed_length", i, c.Type)
		}
		if n := len([]rune(c.Content)); n > 500 {
			t.Fatalf("chunk %d length = %d, exceeds chunk_size", i, n)
		}
	}

	// 相邻切片共享约 50 字符的重叠
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		cur := []rune(chunks[i].Content)
		tail := string(prev[len(prev)-50:])
		head := string(cur[:50])
		if tail != head {
			t.Fatalf("chunks %d/%d do not share 50-char overlap", i-1, i)
		}
	}
}

func TestSplit_FixedLengthCoverage(t *testing.T) {
	cfg := Config{ChunkSize: 500, ChunkOverlap: 50, MinChunkSize: 50}
	engine := NewEngine(cfg)
	content := strings.Repeat("word ", 239) + "final"

	chunks := engine.Split(content, "/data/blob.bin", 1)

	// 去除声明的重叠后拼接应精确还原原文
	var rebuilt strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Content)
		if i == 0 {
			rebuilt.WriteString(c.Content)
			continue
		}
		rebuilt.WriteString(string(runes[cfg.ChunkOverlap:]))
	}
	if rebuilt.String() != content {
		t.Fatalf("reassembled text does not match input:\nwant %d chars\ngot  %d chars", len(content), rebuilt.Len())
	}
}

func TestSplit_StructuralThreeSections(t *testing.T) {
	engine := newTestEngine()
	content := "# 第一章\n\n简短正文一。\n\n## 第二章\n\n简短正文二。\n\n### 第三章\n\n简短正文三。"
	chunks := engine.Split(content, "/data/doc.md", 1)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	headings := []string{"# 第一章", "## 第二章", "### 第三章"}
	for i, c := range chunks {
		if c.Type != common.ChunkSection {
			t.Fatalf("chunk %d type = %s, want section", i, c.Type)
		}
		if !strings.HasPrefix(c.Content, headings[i]) {
			t.Fatalf("chunk %d not prefixed by heading %q: %q", i, headings[i], c.Content)
		}
	}
}

func TestSplit_OversizedSectionDecomposed(t *testing.T) {
	engine := newTestEngine()
	content := "# 标题甲\n\n短正文。\n\n# 标题乙\n\n" + strings.Repeat("很长很长的句子。", 200)
	chunks := engine.Split(content, "/data/doc.md", 1)

	var sawSplit bool
	for _, c := range chunks {
		switch c.Type {
		case common.ChunkSection:
		case common.ChunkSectionSplit:
			sawSplit = true
		default:
			t.Fatalf("unexpected chunk type %s", c.Type)
		}
		if n := len([]rune(c.Content)); n > 501 {
			t.Fatalf("chunk length %d exceeds window", n)
		}
	}
	if !sawSplit {
		t.Fatal("oversized section should produce section_split chunks")
	}
}

func TestSplit_ParagraphPath(t *testing.T) {
	engine := newTestEngine()
	content := "第一段的内容。\n\n第二段的内容。\n\n第三段的内容。"
	chunks := engine.Split(content, "/data/notes.txt", 1)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for _, c := range chunks {
		if c.Type != common.ChunkParagraph {
			t.Fatalf("chunk type = %s, want paragraph", c.Type)
		}
	}
}

func TestSplit_SemanticMerge(t *testing.T) {
	engine := newTestEngine()
	// 无空行无标题：走语义路径，短句合并到 chunk_size 以内
	content := strings.TrimSpace(strings.Repeat("短句子。 ", 30))
	chunks := engine.Split(content, "/data/notes.txt", 1)

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 merged semantic chunk", len(chunks))
	}
	if chunks[0].Type != common.ChunkSemantic {
		t.Fatalf("chunk type = %s, want semantic", chunks[0].Type)
	}
}

func TestSplit_ClassifierDispatch(t *testing.T) {
	cases := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"markdown with headings", "# a\n\nx\n\n# b\n\ny", "/d/f.md", StrategyStructural},
		{"markdown single heading falls through", "# only\n\npara1\n\npara2", "/d/f.md", StrategyParagraph},
		{"txt ignores headings", "# a\n\nx\n\n# b\n\ny", "/d/f.txt", StrategyParagraph},
		{"txt single block", "one sentence. two sentence.", "/d/f.txt", StrategySemantic},
		{"unknown extension", "whatever content", "/d/f.pdf", StrategyFixed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.content, tc.path); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSplit_ChunkMetadata(t *testing.T) {
	engine := newTestEngine()
	chunks := engine.Split("一些内容。", "/data/kb/report.txt", 42)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	c := chunks[0]
	if c.FileID != 42 {
		t.Errorf("FileID = %d, want 42", c.FileID)
	}
	if c.Source != "report.txt" {
		t.Errorf("Source = %q, want report.txt", c.Source)
	}
	if c.SourcePath != "/data/kb/report.txt" {
		t.Errorf("SourcePath = %q", c.SourcePath)
	}
}

func TestSplitLongText_ForwardProgress(t *testing.T) {
	// 违反 chunk_overlap < min_chunk_size 的配置也必须终止
	s := NewFixedLengthSplitter(Config{ChunkSize: 100, ChunkOverlap: 100, MinChunkSize: 100}.normalize())
	text := strings.Repeat("x", 1000)
	pieces := s.splitLongText(text)
	if len(pieces) == 0 {
		t.Fatal("expected pieces")
	}
	total := 0
	for _, p := range pieces {
		total += len(p)
	}
	if total < len(text) {
		t.Fatalf("pieces cover %d of %d chars", total, len(text))
	}
}

func TestCleanDocument(t *testing.T) {
	in := "a  \t b\n\n\n\n c\x00\x1Fd。"
	got := cleanDocument(in)
	if strings.Contains(got, "\x00") || strings.Contains(got, "\x1F") {
		t.Error("control characters should be stripped")
	}
	if strings.Contains(got, "  ") {
		t.Error("whitespace runs should collapse to a single space")
	}
	if strings.Contains(got, "\n\n\n") {
		t.Error("3+ newlines should collapse to exactly 2")
	}
	if !strings.Contains(got, "。") {
		t.Error("CJK punctuation must be preserved")
	}
}
