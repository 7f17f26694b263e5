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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api:
  port: 9000
  host: "127.0.0.1"
chunker:
  chunk_size: 500
  chunk_overlap: 50
  min_chunk_size: 50
storage:
  vector:
    type: "memory"
    dimension: 768
log:
  level: "debug"
`
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port: got %d", cfg.API.Port)
	}
	if cfg.Chunker.ChunkSize != 500 || cfg.Chunker.ChunkOverlap != 50 {
		t.Errorf("Chunker: got %+v", cfg.Chunker)
	}
	if cfg.Storage.Vector.Dimension != 768 {
		t.Errorf("Vector.Dimension: got %d", cfg.Storage.Vector.Dimension)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_EnvExpansion(t *testing.T) {
	dir := t.TempDir()
	yaml := `
embedding:
  api_key: "${DOC_INGEST_TEST_KEY}"
conversion:
  api_key: "literal-key"
`
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	t.Setenv("DOC_INGEST_TEST_KEY", "secret-from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Embedding.APIKey != "secret-from-env" {
		t.Errorf("Embedding.APIKey: got %q", cfg.Embedding.APIKey)
	}
	if cfg.Conversion.APIKey != "literal-key" {
		t.Errorf("Conversion.APIKey should stay literal, got %q", cfg.Conversion.APIKey)
	}
}
