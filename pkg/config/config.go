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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Chunker    ChunkerConfig    `mapstructure:"chunker"`
	Storage    StorageConfig    `mapstructure:"storage"`
	TaskStore  TaskStoreConfig  `mapstructure:"task_store"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
	Timeout string `mapstructure:"timeout"`
}

// WorkerConfig Worker 服务配置
type WorkerConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`   // 进程内并发任务数，<=0 使用默认 4
	PollInterval string `mapstructure:"poll_interval"` // 任务认领轮询间隔，如 "2s"
}

// ChunkerConfig 切片配置
type ChunkerConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	MinChunkSize int `mapstructure:"min_chunk_size"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Metadata MetadataConfig `mapstructure:"metadata"`
	Vector   VectorConfig   `mapstructure:"vector"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// MetadataConfig 元数据存储配置
type MetadataConfig struct {
	Type     string `mapstructure:"type"` // memory | postgres
	DSN      string `mapstructure:"dsn"`
	PoolSize int    `mapstructure:"pool_size"`
}

// VectorConfig 向量存储配置
type VectorConfig struct {
	Type       string `mapstructure:"type"` // memory | redis
	Addr       string `mapstructure:"addr"`
	DB         int    `mapstructure:"db"`
	Collection string `mapstructure:"collection"`
	Password   string `mapstructure:"password"`
	Dimension  int    `mapstructure:"dimension"` // 固定向量维度，<=0 使用默认 768
}

// CacheConfig 切片产物缓存配置
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// TaskStoreConfig 任务注册表配置
type TaskStoreConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`
}

// ConversionConfig 文档转换网关配置（MinerU 兼容 API）
type ConversionConfig struct {
	BaseURL      string `mapstructure:"base_url"` // 空则 PDF 走本地抽取，office 格式报错
	APIKey       string `mapstructure:"api_key"`
	PollInterval string `mapstructure:"poll_interval"` // 如 "5s"
	PollTimeout  string `mapstructure:"poll_timeout"`  // 如 "10m"
	OutputDir    string `mapstructure:"output_dir"`    // 转换产物 markdown 落盘目录，空则与源文件同目录
}

// EmbeddingConfig 向量化服务配置（OpenAI 兼容 /embeddings）
type EmbeddingConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	APIKey    string  `mapstructure:"api_key"`
	Model     string  `mapstructure:"model"`
	Dimension int     `mapstructure:"dimension"`
	BatchSize int     `mapstructure:"batch_size"` // 单次请求最大文本数，<=0 使用默认 16
	QPS       float64 `mapstructure:"qps"`        // 请求限速，<=0 不限速
}

// SecretsConfig Secret Store 配置
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"` // vault | env | memory
	Config   map[string]string `mapstructure:"config"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)

	return &config, nil
}

// replaceEnvVars 替换配置中 ${ENV} 形式的敏感字段
func replaceEnvVars(config *Config) {
	config.Conversion.APIKey = expandEnv(config.Conversion.APIKey)
	config.Embedding.APIKey = expandEnv(config.Embedding.APIKey)
	config.Storage.Vector.Password = expandEnv(config.Storage.Vector.Password)
	config.Storage.Cache.Password = expandEnv(config.Storage.Cache.Password)
}

// expandEnv 将 ${VAR} 替换为对应环境变量的值，未设置时保持原样
func expandEnv(value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return value
}

// LoadAPIConfig 加载 API 配置（configs/api.yaml）
func LoadAPIConfig() (*Config, error) {
	return LoadConfig("configs/api.yaml")
}

// LoadWorkerConfig 加载 Worker 配置（configs/worker.yaml）
func LoadWorkerConfig() (*Config, error) {
	return LoadConfig("configs/worker.yaml")
}
