// Package config loads application configuration with Viper: defaults, then
// an optional YAML file, then POKE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvConfigPath names the environment variable holding an explicit config file path.
const EnvConfigPath = "POKE_CONFIG_PATH"

// Config is the root configuration struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	PokeAPI   PokeAPIConfig   `mapstructure:"pokeapi"`
	Sprites   SpritesConfig   `mapstructure:"sprites"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Export    ExportConfig    `mapstructure:"export"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PokeAPIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	IndexLimit int           `mapstructure:"index_limit"`
}

type SpritesConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type CacheConfig struct {
	// Staleness is how long a fetched response is served without re-fetching.
	Staleness time.Duration `mapstructure:"staleness"`
}

type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
	SpriteDir    string `mapstructure:"sprite_dir"`
}

type AuthConfig struct {
	// APIKeys empty means the public API needs no key.
	APIKeys   []string `mapstructure:"api_keys"`
	AdminKeys []string `mapstructure:"admin_keys"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LLMConfig struct {
	// ProviderOrder lists providers to try, first is primary. Providers
	// without an API key are skipped.
	ProviderOrder []string        `mapstructure:"provider_order"`
	Anthropic     AnthropicConfig `mapstructure:"anthropic"`
	OpenAI        OpenAIConfig    `mapstructure:"openai"`
	RatePerMinute int             `mapstructure:"rate_per_minute"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type SessionsConfig struct {
	// TTL expires a session after this long without a request.
	TTL time.Duration `mapstructure:"ttl"`
	Max int           `mapstructure:"max"`
}

type ExportConfig struct {
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Region string `mapstructure:"s3_region"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from configPath (or config.yaml in . or ./config
// when empty) and the environment. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("pokeapi.base_url", "https://pokeapi.co/api/v2/pokemon")
	v.SetDefault("pokeapi.timeout", 30*time.Second)
	v.SetDefault("pokeapi.index_limit", 1010)
	v.SetDefault("sprites.base_url", "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon")
	v.SetDefault("cache.staleness", 5*time.Minute)
	v.SetDefault("storage.database_path", "./storage/poke-finder.db")
	v.SetDefault("storage.sprite_dir", "./storage/sprites")
	v.SetDefault("auth.api_keys", []string{})
	v.SetDefault("auth.admin_keys", []string{})
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("llm.provider_order", []string{"anthropic", "openai"})
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4o")
	v.SetDefault("llm.rate_per_minute", 10)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("sessions.ttl", 30*time.Minute)
	v.SetDefault("sessions.max", 10000)
	v.SetDefault("export.s3_bucket", "")
	v.SetDefault("export.s3_region", "us-east-1")
	v.SetDefault("log.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// POKE_SERVER_PORT=9090 → server.port=9090
	v.SetEnvPrefix("POKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the rest of the program can't work with.
func (c *Config) Validate() error {
	switch {
	case c.PokeAPI.BaseURL == "":
		return errors.New("pokeapi.base_url must be set")
	case c.PokeAPI.IndexLimit < 1:
		return fmt.Errorf("pokeapi.index_limit must be positive, got %d", c.PokeAPI.IndexLimit)
	case c.Cache.Staleness <= 0:
		return fmt.Errorf("cache.staleness must be positive, got %s", c.Cache.Staleness)
	case c.RateLimit.RequestsPerSecond <= 0:
		return fmt.Errorf("rate_limit.requests_per_second must be positive, got %v", c.RateLimit.RequestsPerSecond)
	case c.Sessions.TTL <= 0:
		return fmt.Errorf("sessions.ttl must be positive, got %s", c.Sessions.TTL)
	case c.Sessions.Max < 1:
		return fmt.Errorf("sessions.max must be positive, got %d", c.Sessions.Max)
	}
	return nil
}

// Address returns the listen address string like "0.0.0.0:8080".
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
