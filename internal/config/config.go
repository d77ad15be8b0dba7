package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Config holds the settings of partsdump.
type Config struct {
	// ContentType is the Content-Type header the bodies were sent with.
	ContentType string `mapstructure:"content_type"`
	// Boundary is used to build ContentType when it is not set.
	Boundary  string `mapstructure:"boundary"`
	UserAgent string `mapstructure:"user_agent"`

	FileParts []string `mapstructure:"file_parts"`
	TextParts []string `mapstructure:"text_parts"`
	Mandatory []string `mapstructure:"mandatory"`

	OutputDir     string `mapstructure:"output_dir"`
	Concurrency   int    `mapstructure:"concurrency"`
	MaxHeaderSize int    `mapstructure:"max_header_size"`
	TextEncoding  string `mapstructure:"text_encoding"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// InitConfig sets up viper to read the config file, environment variables and defaults.
func InitConfig(cfgFile string) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".partsdump")
	}

	viper.SetEnvPrefix("PARTSDUMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// Load returns the validated configuration.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("output_dir", "parts")
	viper.SetDefault("concurrency", 4)
	viper.SetDefault("max_header_size", 10*1024)
	viper.SetDefault("text_encoding", "utf-8")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "console")
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.ContentType == "" && cfg.Boundary == "" {
		errs = append(errs, errors.New("content_type or boundary is required"))
	}
	if len(cfg.FileParts) == 0 && len(cfg.TextParts) == 0 {
		errs = append(errs, errors.New("at least one of file_parts or text_parts is required"))
	}
	for _, name := range cfg.Mandatory {
		if !slices.Contains(cfg.FileParts, name) && !slices.Contains(cfg.TextParts, name) {
			errs = append(errs, fmt.Errorf("mandatory part %q is not listed in file_parts or text_parts", name))
		}
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency))
	}
	if cfg.MaxHeaderSize < 1 {
		errs = append(errs, fmt.Errorf("max_header_size must be positive, got %d", cfg.MaxHeaderSize))
	}
	if _, err := htmlindex.Get(cfg.TextEncoding); err != nil {
		errs = append(errs, fmt.Errorf("unsupported text_encoding %q: %w", cfg.TextEncoding, err))
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", cfg.LogFormat))
	}

	return errors.Join(errs...)
}

// ContentTypeHeader returns the Content-Type the bodies are decoded with.
func (c *Config) ContentTypeHeader() string {
	if c.ContentType != "" {
		return c.ContentType
	}

	return "multipart/form-data; boundary=" + c.Boundary
}

// Encoding returns the encoding text parts are decoded from.
func (c *Config) Encoding() (encoding.Encoding, error) {
	enc, err := htmlindex.Get(c.TextEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %q: %w", c.TextEncoding, err)
	}

	return enc, nil
}

// IsMandatory reports whether the part named name must be present.
func (c *Config) IsMandatory(name string) bool {
	return slices.Contains(c.Mandatory, name)
}
