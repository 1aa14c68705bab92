package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"PressTopics/internal/domain"
)

const (
	configPathEnv     = "PRESS_TOPICS_CONFIG"
	databasePathEnv   = "DATABASE_PATH"
	logLevelEnv       = "LOG_LEVEL"
	serverAddrEnv     = "SERVER_ADDR"
	artifactsDirEnv   = "ARTIFACTS_DIR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Server        ServerConfig       `yaml:"server"`
	Crawler       CrawlerConfig      `yaml:"crawler"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Artifacts     ArtifactsConfig    `yaml:"artifacts"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the SQLite article store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the job-control HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// CrawlerConfig controls discovery endpoints and request pacing.
type CrawlerConfig struct {
	SearchURL      string        `yaml:"searchUrl"`
	BaseURL        string        `yaml:"baseUrl"`
	PageSize       int           `yaml:"pageSize"`
	MaxArticles    int           `yaml:"maxArticles"`
	MinDelay       time.Duration `yaml:"minDelay"`
	MaxDelay       time.Duration `yaml:"maxDelay"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// AnalysisConfig holds the defaults applied to job requests.
type AnalysisConfig struct {
	Query       string   `yaml:"query"`
	StopWords   []string `yaml:"stopWords"`
	NComponents int      `yaml:"nComponents"`
	NFeatures   int      `yaml:"nFeatures"`
	NTopWords   int      `yaml:"nTopWords"`
	NTopicWords int      `yaml:"nTopicWords"`
}

// ArtifactsConfig sets where exported tables and visualizations go.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.sanitize()

	return cfg
}

// JobDefaults fills zero-valued params with the configured analysis defaults.
func (a AnalysisConfig) JobDefaults(p domain.JobParams) domain.JobParams {
	if p.Query == "" {
		p.Query = a.Query
	}
	if p.StopWords == nil {
		p.StopWords = append([]string(nil), a.StopWords...)
	}
	if p.NComponents == 0 {
		p.NComponents = a.NComponents
	}
	if p.NFeatures == 0 {
		p.NFeatures = a.NFeatures
	}
	if p.NTopWords == 0 {
		p.NTopWords = a.NTopWords
	}
	if p.NTopicWords == 0 {
		p.NTopicWords = a.NTopicWords
	}
	return p
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(artifactsDirEnv); v != "" {
		c.Artifacts.Dir = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) sanitize() {
	def := defaultConfig()
	if c.Crawler.PageSize <= 0 {
		log.Printf("config: invalid crawler page size %d, reverting to %d", c.Crawler.PageSize, def.Crawler.PageSize)
		c.Crawler.PageSize = def.Crawler.PageSize
	}
	if c.Crawler.MinDelay < 0 || c.Crawler.MaxDelay < c.Crawler.MinDelay {
		log.Printf("config: invalid crawler delay range %s..%s, reverting to defaults", c.Crawler.MinDelay, c.Crawler.MaxDelay)
		c.Crawler.MinDelay, c.Crawler.MaxDelay = def.Crawler.MinDelay, def.Crawler.MaxDelay
	}
	if c.Crawler.MaxArticles < 0 {
		c.Crawler.MaxArticles = 0
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ShutdownTimeout != 0 {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	if override.Crawler.SearchURL != "" {
		base.Crawler.SearchURL = override.Crawler.SearchURL
	}
	if override.Crawler.BaseURL != "" {
		base.Crawler.BaseURL = override.Crawler.BaseURL
	}
	if override.Crawler.PageSize != 0 {
		base.Crawler.PageSize = override.Crawler.PageSize
	}
	if override.Crawler.MaxArticles != 0 {
		base.Crawler.MaxArticles = override.Crawler.MaxArticles
	}
	if override.Crawler.MinDelay != 0 || override.Crawler.MaxDelay != 0 {
		base.Crawler.MinDelay = override.Crawler.MinDelay
		base.Crawler.MaxDelay = override.Crawler.MaxDelay
	}
	if override.Crawler.RequestTimeout != 0 {
		base.Crawler.RequestTimeout = override.Crawler.RequestTimeout
	}

	if override.Analysis.Query != "" {
		base.Analysis.Query = override.Analysis.Query
	}
	if override.Analysis.StopWords != nil {
		base.Analysis.StopWords = override.Analysis.StopWords
	}
	if override.Analysis.NComponents != 0 {
		base.Analysis.NComponents = override.Analysis.NComponents
	}
	if override.Analysis.NFeatures != 0 {
		base.Analysis.NFeatures = override.Analysis.NFeatures
	}
	if override.Analysis.NTopWords != 0 {
		base.Analysis.NTopWords = override.Analysis.NTopWords
	}
	if override.Analysis.NTopicWords != 0 {
		base.Analysis.NTopicWords = override.Analysis.NTopicWords
	}

	if override.Artifacts.Dir != "" {
		base.Artifacts.Dir = override.Artifacts.Dir
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "data/press_release.db"},
		Server:   ServerConfig{Addr: ":5000", ShutdownTimeout: 10 * time.Second},
		Crawler: CrawlerConfig{
			SearchURL:      "https://www.nikkei.com/pressrelease/",
			BaseURL:        "https://www.nikkei.com/",
			PageSize:       30,
			MaxArticles:    0,
			MinDelay:       500 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			RequestTimeout: 20 * time.Second,
		},
		Analysis: AnalysisConfig{
			Query: "SELECT * FROM articles",
			StopWords: []string{
				"提供", "実現", "業務", "分析", "可能", "当社", "今後",
				"活用", "技術", "開発", "開始", "サービス", "システム", "データ",
			},
			NComponents: 5,
			NFeatures:   1000,
			NTopWords:   20,
			NTopicWords: 10,
		},
		Artifacts: ArtifactsConfig{Dir: "data/artifacts"},
	}
}
