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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("DOCINGEST_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
}

func submitBatch(filePaths []string, kbCode string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetBody(map[string]interface{}{
			"file_paths":          filePaths,
			"knowledge_base_code": kbCode,
		}).
		SetResult(&out).
		Post("/api/documents/batch-process")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST batch-process: %s", resp.String())
	}
	return out, nil
}

func getTask(taskID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/tasks/" + taskID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/tasks/%s: %s", taskID, resp.String())
	}
	return out, nil
}

func getBatch(batchID string) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/batches/" + batchID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/batches/%s: %s", batchID, resp.String())
	}
	return out, nil
}

// waitForTask 轮询任务直到终态或超出时限；与服务端管线超时相互独立
func waitForTask(taskID string, interval, timeout time.Duration) (map[string]interface{}, error) {
	deadline := time.Now().Add(timeout)
	for {
		task, err := getTask(taskID)
		if err != nil {
			return nil, err
		}
		if status, _ := task["status"].(string); status == "completed" || status == "failed" {
			return task, nil
		}
		if time.Now().After(deadline) {
			return task, fmt.Errorf("等待任务 %s 超时（%s）", taskID, timeout)
		}
		time.Sleep(interval)
	}
}

func deleteDocuments(filePaths []string, kbCode string) (map[string]interface{}, error) {
	var out map[string]interface{}
	body := map[string]interface{}{"file_paths": filePaths}
	if kbCode != "" {
		body["knowledge_base_code"] = kbCode
	}
	resp, err := newClient().R().
		SetBody(body).
		SetResult(&out).
		Delete("/api/documents/")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("DELETE /api/documents: %s", resp.String())
	}
	return out, nil
}

func getHealth() (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out, nil
}

func prettyJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
