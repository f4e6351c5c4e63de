package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding" json:"embedding"`
	Analysis    AnalysisConfig    `yaml:"analysis" json:"analysis"`
	Log         LogConfig         `yaml:"log" json:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	DB          DBConfig          `yaml:"db" json:"db"`
	Server      ServerConfig      `yaml:"server" json:"server"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	Provider    string   `yaml:"provider" json:"provider"` // openai 或 anthropic
	BaseURL     string   `yaml:"base_url" json:"base_url"`
	APIKey      string   `yaml:"api_key" json:"api_key"`
	Model       string   `yaml:"model" json:"model"`
	Temperature *float32 `yaml:"temperature" json:"temperature"` // 未配置时为 0.1，可显式设为 0
	MaxTokens   int      `yaml:"max_tokens" json:"max_tokens"`
	MaxRetries  int      `yaml:"max_retries" json:"max_retries"` // 0 表示不重试
}

// EmbeddingConfig 向量服务配置，未配置的字段回退到 LLM 配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
	Model   string `yaml:"model" json:"model"`
}

// AnalysisConfig 分析流程配置
type AnalysisConfig struct {
	TopK              int    `yaml:"top_k" json:"top_k"`
	PrimaryLanguage   string `yaml:"primary_language" json:"primary_language"`
	SecondaryLanguage string `yaml:"secondary_language" json:"secondary_language"`
	FilterByCompany   bool   `yaml:"filter_by_company" json:"filter_by_company"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS            int    `yaml:"qps" json:"qps"`
	RPM            int    `yaml:"rpm" json:"rpm"`
	MaxInFlight    int    `yaml:"max_in_flight" json:"max_in_flight"`     // 0 表示不限制
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"` // 例如 "30s"，空表示不设超时
}

// Timeout 解析单次请求超时
func (c ConcurrencyConfig) Timeout() time.Duration {
	if c.RequestTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0
	}
	return d
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Name     string `yaml:"name" json:"name"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// LoadConfig 从指定路径加载配置，文件中的 ${VAR} 会被环境变量替换
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
		if strings.EqualFold(c.LLM.Provider, "anthropic") {
			c.LLM.Model = "claude-haiku-4-5-20251001"
		}
	}
	if c.LLM.Temperature == nil {
		t := float32(0.1)
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Analysis.TopK <= 0 {
		c.Analysis.TopK = 5
	}
	if c.Analysis.PrimaryLanguage == "" {
		c.Analysis.PrimaryLanguage = "English"
	}
	if c.Analysis.SecondaryLanguage == "" {
		c.Analysis.SecondaryLanguage = "Hindi"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 600
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 10
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:8000"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries cannot be negative")
	}
	if c.Concurrency.MaxInFlight < 0 {
		return fmt.Errorf("concurrency.max_in_flight cannot be negative")
	}
	if c.Concurrency.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Concurrency.RequestTimeout); err != nil {
			return fmt.Errorf("concurrency.request_timeout: %w", err)
		}
	}
	return nil
}
