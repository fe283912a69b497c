package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration for storycut.
type Config struct {
	DataDir string `mapstructure:"data_dir"`
	Listen  string `mapstructure:"listen"`

	LLM   LLMConfig   `mapstructure:"llm"`
	Image ImageConfig `mapstructure:"image"`
	Video VideoConfig `mapstructure:"video"`
	Voice VoiceConfig `mapstructure:"voice"`
	Grid  GridConfig  `mapstructure:"grid"`
}

// LLMConfig configures the chat model used for screenplay breakdown.
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// ImageConfig configures the image generation endpoint.
type ImageConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
}

// VideoConfig configures the video generation vendor and its polling behavior.
type VideoConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// VoiceConfig configures the external TTS command used for narration.
type VoiceConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// GridConfig holds the default storyboard contact-sheet grid.
type GridConfig struct {
	Rows int `mapstructure:"rows"`
	Cols int `mapstructure:"cols"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")
	v.SetDefault("listen", ":8686")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("image.base_url", "")
	v.SetDefault("image.model", "gpt-image-1")
	v.SetDefault("image.size", "1536x1024")
	v.SetDefault("video.poll_interval", 5*time.Second)
	v.SetDefault("video.poll_timeout", 10*time.Minute)
	v.SetDefault("video.max_retries", 3)
	v.SetDefault("voice.command", "say")
	v.SetDefault("grid.rows", 3)
	v.SetDefault("grid.cols", 3)
}

// Load reads configuration from the given yaml file (optional), the
// environment, and built-in defaults. A missing file is not an error
// unless the path was given explicitly.
func Load(path string) (*Config, error) {
	// Local dev convenience; CI and prod set real env vars.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STORYCUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Grid.Rows < 1 || cfg.Grid.Cols < 1 {
		return nil, fmt.Errorf("invalid grid %dx%d: rows and cols must be positive", cfg.Grid.Rows, cfg.Grid.Cols)
	}

	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	cfg.DataDir = abs

	return &cfg, nil
}

// EnsureDirs creates the on-disk layout under the data dir.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.AssetsDir(), c.AudioDir(), c.ExportDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) AssetsDir() string { return filepath.Join(c.DataDir, "assets") }
func (c *Config) AudioDir() string  { return filepath.Join(c.DataDir, "audio") }
func (c *Config) ExportDir() string { return filepath.Join(c.DataDir, "exports") }
func (c *Config) DBPath() string    { return filepath.Join(c.DataDir, "storycut.db") }
