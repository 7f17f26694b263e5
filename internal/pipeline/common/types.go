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

package common

import "time"

// DocumentStatus 文档状态码（存储为文本 '0'/'1'/'2'，单调不回退）
type DocumentStatus string

const (
	DocStatusUnparsed   DocumentStatus = "0" // 未解析
	DocStatusParsed     DocumentStatus = "1" // 已解析
	DocStatusVectorized DocumentStatus = "2" // 已向量化
)

// Rank 返回状态序号，用于单调性比较
func (s DocumentStatus) Rank() int {
	switch s {
	case DocStatusParsed:
		return 1
	case DocStatusVectorized:
		return 2
	default:
		return 0
	}
}

// Document 文档元数据（documents 表的一行）
type Document struct {
	ID                int64          `json:"id"`
	Path              string         `json:"path"` // 唯一标识
	Name              string         `json:"name"`
	Extension         string         `json:"extension"`
	ContentHash       string         `json:"content_hash"`
	Size              int64          `json:"size"`
	ModifiedTime      time.Time      `json:"modified_time"`
	Status            DocumentStatus `json:"status"`
	KnowledgeBaseCode string         `json:"knowledge_base_code,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ChunkType 切片来源策略；_split 后缀表示该单元经过定长二次切分
type ChunkType string

const (
	ChunkSection        ChunkType = "section"
	ChunkSectionSplit   ChunkType = "section_split"
	ChunkParagraph      ChunkType = "paragraph"
	ChunkParagraphSplit ChunkType = "paragraph_split"
	ChunkSemantic       ChunkType = "semantic"
	ChunkSemanticSplit  ChunkType = "semantic_split"
	ChunkFixedLength    ChunkType = "fixed_length"
	ChunkFullText       ChunkType = "full_text"
)

// Chunk 文档切片；Index 自 0 起连续，VectorID 仅在向量库确认写入后填充
type Chunk struct {
	DocumentID int64     `json:"document_id"`
	FileID     int64     `json:"file_id"` // 调用方标识，缺省等于 DocumentID
	Index      int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Type       ChunkType `json:"chunk_type"`
	Source     string    `json:"source"`    // 源文件名
	SourcePath string    `json:"file_path"` // 源文件完整路径
	VectorID   string    `json:"vector_id,omitempty"`
	Embedding  []float64 `json:"-"`
}

// Stage 管线阶段，固定顺序执行
type Stage string

const (
	StagePreprocessing Stage = "preprocessing"
	StageChunking      Stage = "chunking"
	StageVectorization Stage = "vectorization"
	StageIndexing      Stage = "indexing"
	StageStorage       Stage = "storage"
)

// Stages 阶段执行顺序
var Stages = []Stage{
	StagePreprocessing,
	StageChunking,
	StageVectorization,
	StageIndexing,
	StageStorage,
}

// StageStatus 单阶段状态
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
	StageSkipped    StageStatus = "skipped" // 该文件格式无需此阶段，非失败
	StageFailed     StageStatus = "failed"
)

// TaskStatus 任务状态，只向前转移，终态为 completed / failed
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal 任务是否处于终态
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskResult 任务成功后的摘要
type TaskResult struct {
	OriginalFile     string `json:"original_file"`
	PreprocessedFile string `json:"preprocessed_file,omitempty"`
	ChunkCount       int    `json:"chunk_count"`
	VectorizedCount  int    `json:"vectorized_count"`
	FileHash         string `json:"file_hash"`
	CacheHit         bool   `json:"cache_hit,omitempty"`
}

// Task 单文件处理任务
type Task struct {
	TaskID            string                `json:"task_id"`
	BatchID           string                `json:"batch_id,omitempty"`
	FilePath          string                `json:"file_path"`
	KnowledgeBaseCode string                `json:"knowledge_base_code,omitempty"`
	Status            TaskStatus            `json:"status"`
	Progress          map[Stage]StageStatus `json:"progress"`
	Result            *TaskResult           `json:"result,omitempty"`
	Error             string                `json:"error,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// NewTask 创建 pending 任务，所有阶段初始为 pending
func NewTask(taskID, batchID, filePath, kbCode string) *Task {
	progress := make(map[Stage]StageStatus, len(Stages))
	for _, st := range Stages {
		progress[st] = StagePending
	}
	now := time.Now()
	return &Task{
		TaskID:            taskID,
		BatchID:           batchID,
		FilePath:          filePath,
		KnowledgeBaseCode: kbCode,
		Status:            TaskPending,
		Progress:          progress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Clone 深拷贝，供注册表返回只读快照
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Progress = make(map[Stage]StageStatus, len(t.Progress))
	for k, v := range t.Progress {
		cp.Progress[k] = v
	}
	if t.Result != nil {
		r := *t.Result
		cp.Result = &r
	}
	return &cp
}

// Batch 批任务聚合视图；状态由成员任务投影得出，不独立维护
type Batch struct {
	BatchID      string             `json:"batch_id"`
	TotalFiles   int                `json:"total_files"`
	Status       TaskStatus         `json:"status"`
	StatusCounts map[TaskStatus]int `json:"status_counts"`
	Tasks        []*Task            `json:"tasks"`
	CreatedAt    time.Time          `json:"created_at"`
}

// AggregateBatchStatus 按成员任务聚合批状态：任一 failed 则 failed，
// 否则存在 pending/processing 则 processing，否则 completed。
func AggregateBatchStatus(tasks []*Task) TaskStatus {
	if len(tasks) == 0 {
		return TaskPending
	}
	anyRunning := false
	for _, t := range tasks {
		switch t.Status {
		case TaskFailed:
			return TaskFailed
		case TaskPending, TaskProcessing:
			anyRunning = true
		}
	}
	if anyRunning {
		return TaskProcessing
	}
	return TaskCompleted
}

// DeleteResult 单文件删除结果；批量删除永不因单文件失败而中断
type DeleteResult struct {
	FilePath        string `json:"file_path"`
	VectorDeleted   bool   `json:"vector_deleted"`
	MetadataDeleted bool   `json:"metadata_deleted"`
	MarkdownDeleted bool   `json:"md_file_deleted"`
	Error           string `json:"error,omitempty"`
}

// ParseBatch 预处理批次记录（外部转换服务的簿记）
type ParseBatch struct {
	BatchID        string    `json:"batch_id"`
	DocumentID     int64     `json:"document_id"`
	Status         string    `json:"status"`
	ExternalTaskID string    `json:"external_task_id"`
	SourceFilePath string    `json:"source_file_path"`
	SourceFileHash string    `json:"source_file_hash"`
	MarkdownPath   string    `json:"markdown_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
