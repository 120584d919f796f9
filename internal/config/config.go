package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const defaultSystemPrompt = `You are Mark Musk, a GenAI developer assistant bot designed to assist software engineers in integrating REST API products efficiently. You provide guidance and generate sample code in various programming languages, including Python, Node.js, PHP Laravel, and GoLang, among others. Your goal is to help developers integrate APIs 10 times faster.

Ensure that your responses are clear, concise, and tailored to the developer's needs.`

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	Index       IndexConfig      `json:"index"`
	Chat        ChatConfig       `json:"chat"`
	Corpus      CorpusConfig     `json:"corpus"`
	Crawler     CrawlerConfig    `json:"crawler"`
	Schedule    ScheduleConfig   `json:"schedule"`
	CORSOrigins []string         `json:"cors_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	EmbedModel      string      `json:"embed_model"`
	Temperature     float64     `json:"temperature"`
	MaxOutputTokens int         `json:"max_output_tokens"`
	TopP            float64     `json:"top_p"`
	TimeoutSeconds  int         `json:"timeout_seconds"`
	Data            interface{} `json:"data"`
}

type IndexConfig struct {
	Namespace    string `json:"namespace"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	TopK         int    `json:"top_k"`
	// Dimension must stay 768: the corpus_chunks and embedding_cache
	// columns are declared vector(768) in the migrations.
	Dimension   int  `json:"dimension"`
	ForceReload bool `json:"force_reload"`
}

type ChatConfig struct {
	MaxHistory          int    `json:"max_history"`
	IncludeSystemPrompt *bool  `json:"include_system_prompt"`
	SystemPrompt        string `json:"system_prompt"`
	RateLimitSeconds    int    `json:"rate_limit_seconds"`
}

type CorpusConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CrawlerConfig struct {
	Seeds          []string `json:"seeds"`
	MaxPages       int      `json:"max_pages"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

type ScheduleConfig struct {
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
	CacheKeepDays    int    `json:"cache_keep_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 24
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.Index.Namespace == "" {
		cfg.Index.Namespace = "web-extractions"
	}
	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = 1024
	}
	if cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = 20
	}
	if cfg.Index.ChunkOverlap >= cfg.Index.ChunkSize {
		return nil, fmt.Errorf("index.chunk_overlap must be smaller than index.chunk_size")
	}
	if cfg.Index.TopK == 0 {
		cfg.Index.TopK = 4
	}
	if cfg.Index.Dimension == 0 {
		cfg.Index.Dimension = 768
	}
	if cfg.Index.Dimension != 768 {
		return nil, fmt.Errorf("index.dimension must be 768 to match the vector(768) schema")
	}
	if strings.EqualFold(os.Getenv("FORCE_RELOAD_INDEX"), "true") {
		cfg.Index.ForceReload = true
	}
	if cfg.Chat.MaxHistory == 0 {
		cfg.Chat.MaxHistory = 5
	}
	if cfg.Chat.IncludeSystemPrompt == nil {
		include := true
		cfg.Chat.IncludeSystemPrompt = &include
	}
	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Corpus.Type != "" && cfg.Corpus.Type != "local" && cfg.Corpus.Type != "s3" {
		return nil, fmt.Errorf("corpus.type must be local or s3")
	}
	if cfg.Schedule.CacheCleanupSpec == "" {
		cfg.Schedule.CacheCleanupSpec = "0 4 * * *"
	}
	if cfg.Schedule.CacheKeepDays == 0 {
		cfg.Schedule.CacheKeepDays = 30
	}
	return &cfg, nil
}
