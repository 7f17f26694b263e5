package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestStageError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		e := NewStageError(StageChunking, "failed", nil)
		s := e.Error()
		if s == "" || len(s) < 10 {
			t.Errorf("Error() = %q", s)
		}
		if !errors.As(e, new(*StageError)) {
			t.Error("should be *StageError")
		}
	})
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("io error")
		e := NewStageError(StagePreprocessing, "file", cause)
		if e.Error() == "" {
			t.Error("Error() should not be empty")
		}
		if e.Unwrap() != cause {
			t.Error("Unwrap() should return cause")
		}
	})
	t.Run("wrapped", func(t *testing.T) {
		e := fmt.Errorf("outer: %w", NewStageError(StageStorage, "msg", nil))
		got, ok := GetStageError(e)
		if !ok || got.Stage != StageStorage {
			t.Errorf("GetStageError: ok=%v got=%v", ok, got)
		}
	})
}

func TestValidationError(t *testing.T) {
	e := NewValidationError("file_path", "文件不存在")
	if e.Error() == "" {
		t.Error("Error() should not be empty")
	}
	if !IsValidationError(e) {
		t.Error("IsValidationError should be true")
	}
	if IsValidationError(errors.New("other")) {
		t.Error("IsValidationError(other) should be false")
	}
}

func TestExternalServiceError(t *testing.T) {
	cause := errors.New("connection refused")
	e := NewExternalServiceError("mineru", "提交失败", cause)
	if !IsExternalServiceError(e) {
		t.Error("IsExternalServiceError should be true")
	}
	if e.Unwrap() != cause {
		t.Error("Unwrap() should return cause")
	}
	if IsExternalServiceError(NewValidationError("f", "m")) {
		t.Error("ValidationError should not match")
	}
}

func TestStorageError(t *testing.T) {
	e := NewStorageError("metadata", "写入失败", errors.New("deadlock"))
	if !IsStorageError(e) {
		t.Error("IsStorageError should be true")
	}
	wrapped := fmt.Errorf("stage: %w", e)
	if !IsStorageError(wrapped) {
		t.Error("wrapped StorageError should match")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	cases := map[TaskStatus]bool{
		TaskPending:    false,
		TaskProcessing: false,
		TaskCompleted:  true,
		TaskFailed:     true,
	}
	for st, want := range cases {
		if got := st.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", st, got, want)
		}
	}
}

func TestAggregateBatchStatus(t *testing.T) {
	mk := func(statuses ...TaskStatus) []*Task {
		tasks := make([]*Task, len(statuses))
		for i, s := range statuses {
			tasks[i] = &Task{TaskID: fmt.Sprintf("t%d", i), Status: s}
		}
		return tasks
	}
	cases := []struct {
		name  string
		tasks []*Task
		want  TaskStatus
	}{
		{"empty", nil, TaskPending},
		{"all completed", mk(TaskCompleted, TaskCompleted), TaskCompleted},
		{"one failed wins", mk(TaskCompleted, TaskFailed, TaskProcessing), TaskFailed},
		{"processing over completed", mk(TaskCompleted, TaskProcessing), TaskProcessing},
		{"pending counts as running", mk(TaskCompleted, TaskPending), TaskProcessing},
		{"single failed", mk(TaskFailed), TaskFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregateBatchStatus(tc.tasks); got != tc.want {
				t.Errorf("AggregateBatchStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTaskClone(t *testing.T) {
	task := NewTask("t1", "b1", "/data/a.md", "kb1")
	task.Result = &TaskResult{ChunkCount: 3}
	cp := task.Clone()
	cp.Progress[StageChunking] = StageCompleted
	cp.Result.ChunkCount = 99
	if task.Progress[StageChunking] != StagePending {
		t.Error("Clone should not share Progress map")
	}
	if task.Result.ChunkCount != 3 {
		t.Error("Clone should not share Result")
	}
}

func TestDocumentStatusRank(t *testing.T) {
	if !(DocStatusUnparsed.Rank() < DocStatusParsed.Rank() && DocStatusParsed.Rank() < DocStatusVectorized.Rank()) {
		t.Error("status ranks should be strictly increasing")
	}
}
