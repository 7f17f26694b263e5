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

// Package mineru 文档转换网关客户端：向 MinerU 兼容的 v4 批量接口提交
// office/PDF 文件，轮询解析结果并取回 markdown 产物。
package mineru

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"doc-ingest/internal/pipeline/common"
)

const serviceName = "mineru"

// Options 转换网关配置
type Options struct {
	BaseURL      string // 如 https://mineru.net；空则客户端不可用
	APIKey       string
	PollInterval time.Duration // 轮询间隔，<=0 默认 5s
	PollTimeout  time.Duration // 轮询总时限，<=0 默认 10m
	OutputDir    string        // markdown 落盘目录，空则与源文件同目录
}

// Client 转换网关客户端
type Client struct {
	opts   Options
	client *resty.Client
}

// NewClient 创建转换网关客户端
func NewClient(opts Options) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 10 * time.Minute
	}

	client := resty.New()
	client.SetTimeout(60 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &Client{opts: opts, client: client}
}

// Enabled 是否配置了远端转换服务
func (c *Client) Enabled() bool {
	return c != nil && c.opts.BaseURL != ""
}

// Result 单文件解析结果
type Result struct {
	FileName   string `json:"file_name"`
	DataID     string `json:"data_id"`
	State      string `json:"state"` // waiting | running | done | failed
	FullZipURL string `json:"full_zip_url"`
	ErrMsg     string `json:"err_msg"`
}

// Terminal 解析是否已到终态
func (r Result) Terminal() bool {
	return r.State == "done" || r.State == "failed"
}

// SubmitBatch 申请上传地址并上传文件，返回外部批次 ID
func (c *Client) SubmitBatch(ctx context.Context, filePaths []string) (string, error) {
	if !c.Enabled() {
		return "", common.NewExternalServiceError(serviceName, "未配置转换服务地址", nil)
	}

	files := make([]map[string]interface{}, 0, len(filePaths))
	for _, path := range filePaths {
		files = append(files, map[string]interface{}{
			"name":    filepath.Base(path),
			"is_ocr":  true,
			"data_id": DataID(path),
		})
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.opts.APIKey).
		SetBody(map[string]interface{}{
			"enable_formula": true,
			"enable_table":   true,
			"layout_model":   "doclayout_yolo",
			"files":          files,
		}).
		Post(c.opts.BaseURL + "/api/v4/file-urls/batch")
	if err != nil {
		return "", common.NewExternalServiceError(serviceName, "申请上传地址失败", err)
	}
	if response.StatusCode() != http.StatusOK {
		return "", common.NewExternalServiceError(serviceName,
			fmt.Sprintf("申请上传地址返回 %d: %s", response.StatusCode(), response.String()), nil)
	}

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			BatchID  string   `json:"batch_id"`
			FileURLs []string `json:"file_urls"`
		} `json:"data"`
	}
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return "", common.NewExternalServiceError(serviceName, "解析上传地址响应失败", err)
	}
	if result.Code != 0 {
		return "", common.NewExternalServiceError(serviceName,
			fmt.Sprintf("申请上传地址被拒绝: %s", result.Msg), nil)
	}
	if len(result.Data.FileURLs) != len(filePaths) {
		return "", common.NewExternalServiceError(serviceName,
			fmt.Sprintf("上传地址数 %d 与文件数 %d 不一致", len(result.Data.FileURLs), len(filePaths)), nil)
	}

	for i, uploadURL := range result.Data.FileURLs {
		if err := c.uploadFile(ctx, uploadURL, filePaths[i]); err != nil {
			return "", err
		}
	}

	return result.Data.BatchID, nil
}

// uploadFile PUT 上传单个文件
func (c *Client) uploadFile(ctx context.Context, uploadURL, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.NewExternalServiceError(serviceName, "读取待上传文件失败", err)
	}
	response, err := c.client.R().
		SetContext(ctx).
		SetBody(data).
		Put(uploadURL)
	if err != nil {
		return common.NewExternalServiceError(serviceName, "上传文件失败", err)
	}
	if code := response.StatusCode(); code != http.StatusOK && code != http.StatusCreated {
		return common.NewExternalServiceError(serviceName,
			fmt.Sprintf("上传 %s 返回 %d", filepath.Base(path), code), nil)
	}
	return nil
}

// GetBatchResults 查询批次解析进度
func (c *Client) GetBatchResults(ctx context.Context, batchID string) ([]Result, error) {
	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.opts.APIKey).
		Get(c.opts.BaseURL + "/api/v4/extract-results/batch/" + batchID)
	if err != nil {
		return nil, common.NewExternalServiceError(serviceName, "查询解析结果失败", err)
	}
	if response.StatusCode() != http.StatusOK {
		return nil, common.NewExternalServiceError(serviceName,
			fmt.Sprintf("查询解析结果返回 %d", response.StatusCode()), nil)
	}

	var result struct {
		Data struct {
			ExtractResult []Result `json:"extract_result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(response.Body(), &result); err != nil {
		return nil, common.NewExternalServiceError(serviceName, "解析结果响应格式错误", err)
	}
	return result.Data.ExtractResult, nil
}

// WaitForBatch 轮询直到所有文件到达终态或超时
func (c *Client) WaitForBatch(ctx context.Context, batchID string) ([]Result, error) {
	deadline := time.Now().Add(c.opts.PollTimeout)
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		results, err := c.GetBatchResults(ctx, batchID)
		if err != nil {
			return nil, err
		}
		done := len(results) > 0
		for _, r := range results {
			if !r.Terminal() {
				done = false
				break
			}
		}
		if done {
			return results, nil
		}
		if time.Now().After(deadline) {
			return results, common.NewExternalServiceError(serviceName,
				fmt.Sprintf("批次 %s 在 %s 内未完成", batchID, c.opts.PollTimeout), common.ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return results, ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchMarkdown 下载解析产物 zip 并抽出 full.md，写入目标路径后返回该路径
func (c *Client) FetchMarkdown(ctx context.Context, r Result, sourcePath string) (string, error) {
	if r.State != "done" || r.FullZipURL == "" {
		return "", common.NewExternalServiceError(serviceName,
			fmt.Sprintf("文件 %s 解析未成功: %s %s", r.FileName, r.State, r.ErrMsg), nil)
	}

	response, err := c.client.R().SetContext(ctx).Get(r.FullZipURL)
	if err != nil {
		return "", common.NewExternalServiceError(serviceName, "下载解析产物失败", err)
	}
	if response.StatusCode() != http.StatusOK {
		return "", common.NewExternalServiceError(serviceName,
			fmt.Sprintf("下载解析产物返回 %d", response.StatusCode()), nil)
	}

	markdown, err := extractFullMarkdown(response.Body())
	if err != nil {
		return "", err
	}

	outPath := c.MarkdownPath(sourcePath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", common.NewExternalServiceError(serviceName, "创建产物目录失败", err)
	}
	if err := os.WriteFile(outPath, markdown, 0o644); err != nil {
		return "", common.NewExternalServiceError(serviceName, "写入 markdown 产物失败", err)
	}
	return outPath, nil
}

// ConvertFile 单文件转换：提交、等待、取回 markdown
func (c *Client) ConvertFile(ctx context.Context, filePath string) (string, error) {
	batchID, err := c.SubmitBatch(ctx, []string{filePath})
	if err != nil {
		return "", err
	}
	results, err := c.WaitForBatch(ctx, batchID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", common.NewExternalServiceError(serviceName, "批次结果为空", nil)
	}
	return c.FetchMarkdown(ctx, results[0], filePath)
}

// DataID 提交时分配给单个文件的外部任务标识（文件名去扩展名）
func DataID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// MarkdownPath 计算转换产物的落盘路径；配置了 OutputDir 则落在该
// 目录下，否则与源文件同目录。级联删除按同一规则定位产物。
func (c *Client) MarkdownPath(sourcePath string) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)) + ".md"
	if c != nil && c.opts.OutputDir != "" {
		return filepath.Join(c.opts.OutputDir, base)
	}
	return filepath.Join(filepath.Dir(sourcePath), base)
}

// extractFullMarkdown 从产物 zip 中找到 full.md
func extractFullMarkdown(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.NewExternalServiceError(serviceName, "解析产物 zip 损坏", err)
	}
	for _, f := range zr.File {
		if filepath.Base(f.Name) != "full.md" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, common.NewExternalServiceError(serviceName, "读取 full.md 失败", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, common.NewExternalServiceError(serviceName, "产物 zip 中缺少 full.md", nil)
}
