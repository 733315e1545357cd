// Package config は起動時に一度だけ読み込む設定を扱います。
// 認証情報は環境変数（.env を含む）からのみ読み込み、その他の項目は任意の YAML ファイルで上書きできます。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shouni/prisma-image-kit/pkg/generator"
	"github.com/shouni/prisma-image-kit/pkg/preview"
)

const (
	// APIKeyEnv は Gemini API キーを読み込む環境変数名です。
	APIKeyEnv = "API_KEY"
	// PortEnv が設定されている場合は Server.Addr を上書きします。
	PortEnv = "PORT"

	DefaultAddr      = ":8080"
	DefaultOutputDir = "."
	DefaultLogLevel  = "info"
)

// ErrAPIKeyRequired は起動時に API キーが見つからなかったことを示します。
var ErrAPIKeyRequired = errors.New(APIKeyEnv + " is not set")

type Config struct {
	APIKey string `yaml:"-"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Models struct {
		Generation string `yaml:"generation"`
		Analysis   string `yaml:"analysis"`
	} `yaml:"models"`

	Preview struct {
		MaxSide int `yaml:"max_side"`
		Quality int `yaml:"quality"`
	} `yaml:"preview"`

	OutputDir string `yaml:"output_dir"`
	LogLevel  string `yaml:"log_level"`
}

// Default はファイルがない場合に使う設定を返します。
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = DefaultAddr
	cfg.Models.Generation = generator.DefaultGenerationModel
	cfg.Models.Analysis = generator.DefaultAnalysisModel
	cfg.Preview.MaxSide = preview.DefaultMaxSide
	cfg.Preview.Quality = preview.DefaultQuality
	cfg.OutputDir = DefaultOutputDir
	cfg.LogLevel = DefaultLogLevel
	return cfg
}

// Load は .env と YAML ファイルを読み込み、検証済みの設定を返します。
// path が空または存在しない場合はデフォルト値を使います。envFiles を省略するとカレントの .env を読みます。
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Debug(".env file not found, using environment variables", "error", err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if port := strings.TrimSpace(os.Getenv(PortEnv)); port != "" {
		cfg.Server.Addr = ":" + port
	}
	cfg.APIKey = strings.TrimSpace(os.Getenv(APIKeyEnv))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("設定ファイルの解析に失敗しました (%s): %w", path, err)
	}
	return nil
}

// Validate は必須項目と値の範囲を検証します。
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Preview.Quality < 0 || c.Preview.Quality > 100 {
		return fmt.Errorf("preview.quality は 0 から 100 の間である必要があります (入力値: %d)", c.Preview.Quality)
	}
	if c.Preview.MaxSide < 0 {
		return fmt.Errorf("preview.max_side は 0 以上である必要があります (入力値: %d)", c.Preview.MaxSide)
	}
	return nil
}

// GeneratorOptions は generator パッケージ用の設定に変換します。
func (c *Config) GeneratorOptions() generator.Options {
	return generator.Options{
		APIKey:          c.APIKey,
		GenerationModel: c.Models.Generation,
		AnalysisModel:   c.Models.Analysis,
	}
}

// SlogLevel は LogLevel を slog.Level に変換します。不明な値は Info として扱います。
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
