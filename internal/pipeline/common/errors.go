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

import (
	"errors"
	"fmt"
)

// 定义 Pipeline 相关错误
var (
	ErrInvalidInput      = errors.New("无效的输入")
	ErrDocumentNotFound  = errors.New("文档不存在")
	ErrTaskNotFound      = errors.New("任务不存在")
	ErrBatchNotFound     = errors.New("批次不存在")
	ErrEmbeddingFailed   = errors.New("向量化失败")
	ErrIndexingFailed    = errors.New("索引失败")
	ErrSplittingFailed   = errors.New("切片失败")
	ErrParsingFailed     = errors.New("解析失败")
	ErrValidationFailed  = errors.New("验证失败")
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	ErrTimeout           = errors.New("超时")
	ErrInternal          = errors.New("内部错误")
)

// StageError 阶段执行错误，携带失败的阶段名
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[Pipeline] %s 阶段错误: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[Pipeline] %s 阶段错误: %s", e.Stage, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError 创建新的阶段错误
func NewStageError(stage Stage, message string, err error) *StageError {
	return &StageError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// GetStageError 获取阶段错误
func GetStageError(err error) (*StageError, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr, true
	}
	return nil, false
}

// ValidationError 验证错误，表示调用方输入不合法，不应重试
type ValidationError struct {
	Field   string
	Message string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("验证错误: %s: %s", e.Field, e.Message)
}

// NewValidationError 创建新的验证错误
func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// ExternalServiceError 外部服务错误（转换网关 / 向量化服务），可重试
type ExternalServiceError struct {
	Service string
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("外部服务错误: %s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("外部服务错误: %s: %s", e.Service, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// NewExternalServiceError 创建新的外部服务错误
func NewExternalServiceError(service string, message string, err error) *ExternalServiceError {
	return &ExternalServiceError{
		Service: service,
		Message: message,
		Err:     err,
	}
}

// IsExternalServiceError 检查是否为外部服务错误
func IsExternalServiceError(err error) bool {
	var extErr *ExternalServiceError
	return errors.As(err, &extErr)
}

// StorageError 存储层错误（元数据库 / 向量库），可能已产生部分写入
type StorageError struct {
	Store   string
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("存储错误: %s: %s: %v", e.Store, e.Message, e.Err)
	}
	return fmt.Sprintf("存储错误: %s: %s", e.Store, e.Message)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError 创建新的存储错误
func NewStorageError(store string, message string, err error) *StorageError {
	return &StorageError{
		Store:   store,
		Message: message,
		Err:     err,
	}
}

// IsStorageError 检查是否为存储错误
func IsStorageError(err error) bool {
	var stoErr *StorageError
	return errors.As(err, &stoErr)
}
