package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Search    SearchConfig    `mapstructure:"search"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	JWTSecret    string   `mapstructure:"jwt_secret"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	BodyLimit    string   `mapstructure:"body_limit"`
}

// LLMConfig contains the model provider configuration consumed by the chat loop.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"` // gemini
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	ImageModel    string        `mapstructure:"image_model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxToolRounds int           `mapstructure:"max_tool_rounds"`
	SystemPrompt  string        `mapstructure:"system_prompt"`
}

// IngestConfig controls the channel ingestion pipeline.
type IngestConfig struct {
	FetcherType       string        `mapstructure:"fetcher_type"` // http or chromedp
	UserAgent         string        `mapstructure:"user_agent"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	ListingPath       string        `mapstructure:"listing_path"`
	DefaultMaxVideos  int           `mapstructure:"default_max_videos"`
	HardMaxVideos     int           `mapstructure:"hard_max_videos"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	TranscriptCommand string        `mapstructure:"transcript_command"`
	TranscriptTimeout time.Duration `mapstructure:"transcript_timeout"`
	TranscriptDir     string        `mapstructure:"transcript_dir"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// DatabasesConfig groups the backing stores.
type DatabasesConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig contains transcript search index settings.
type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

// SchedulerConfig controls background channel refresh.
type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (databases.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return host + ":" + port
}

// LoadConfig reads configuration from file and environment.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.allow_origins", []string{"*"})
	viper.SetDefault("server.body_limit", "2M")
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com")
	viper.SetDefault("llm.model", "gemini-2.0-flash")
	viper.SetDefault("llm.image_model", "gemini-2.0-flash-preview-image-generation")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("llm.max_tool_rounds", 8)
	viper.SetDefault("ingest.fetcher_type", "http")
	viper.SetDefault("ingest.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("ingest.accept_language", "en-US,en;q=0.9")
	viper.SetDefault("ingest.listing_path", "/videos")
	viper.SetDefault("ingest.default_max_videos", 10)
	viper.SetDefault("ingest.hard_max_videos", 100)
	viper.SetDefault("ingest.fetch_timeout", 30*time.Second)
	viper.SetDefault("ingest.transcript_command", "yt-dlp")
	viper.SetDefault("ingest.transcript_timeout", 20*time.Second)
	viper.SetDefault("ingest.cache_ttl", 15*time.Minute)
	viper.SetDefault("search.index_path", "data/transcripts.bleve")
	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.tick_interval", time.Hour)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("YTCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// config file is optional; env and defaults carry a dev setup
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return &config
}
