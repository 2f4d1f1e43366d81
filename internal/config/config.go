package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-labeler/pkg/annotator"
	"github.com/menta2k/image-labeler/pkg/normalize"
	"github.com/menta2k/image-labeler/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. IMAGE_LABELER_DATASET_ROOT
const EnvPrefix = "IMAGE_LABELER"

// Config holds the application configuration
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset"`
	Scanner ScannerConfig `mapstructure:"scanner" yaml:"scanner"`
	Labels  LabelsConfig  `mapstructure:"labels" yaml:"labels"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DatasetConfig locates the destination store
type DatasetConfig struct {
	Root      string `mapstructure:"root" yaml:"root"`
	ImagesDir string `mapstructure:"images_dir" yaml:"images_dir"`
	LabelsDir string `mapstructure:"labels_dir" yaml:"labels_dir"`
}

// ScannerConfig holds the accepted image formats
type ScannerConfig struct {
	Formats []string `mapstructure:"formats" yaml:"formats"`
}

// LabelsConfig holds label normalization settings
type LabelsConfig struct {
	ExtentMode string `mapstructure:"extent_mode" yaml:"extent_mode"`
}

// OutputConfig holds image encoding settings for the dataset copies
type OutputConfig struct {
	JPEGQuality  int  `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	WebPLossless bool `mapstructure:"webp_lossless" yaml:"webp_lossless"`
	AtomicWrites bool `mapstructure:"atomic_writes" yaml:"atomic_writes"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Development bool   `mapstructure:"development" yaml:"development"`
	Level       string `mapstructure:"level" yaml:"level"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root:      "Dataset",
			ImagesDir: "Images",
			LabelsDir: "Labels",
		},
		Scanner: ScannerConfig{
			Formats: []string{"png", "jpg", "jpeg"},
		},
		Labels: LabelsConfig{
			ExtentMode: normalize.Absolute.String(),
		},
		Output: OutputConfig{
			JPEGQuality:  95,
			WebPLossless: false,
			AtomicWrites: true,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Development: false,
			Level:       "info",
		},
	}
}

// Load reads configuration from path (YAML) layered over the defaults and
// IMAGE_LABELER_* environment variables. An empty path looks for
// config.yaml in the default config directory and the working directory;
// a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Dir(GetConfigPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("dataset.root", d.Dataset.Root)
	v.SetDefault("dataset.images_dir", d.Dataset.ImagesDir)
	v.SetDefault("dataset.labels_dir", d.Dataset.LabelsDir)
	v.SetDefault("scanner.formats", d.Scanner.Formats)
	v.SetDefault("labels.extent_mode", d.Labels.ExtentMode)
	v.SetDefault("output.jpeg_quality", d.Output.JPEGQuality)
	v.SetDefault("output.webp_lossless", d.Output.WebPLossless)
	v.SetDefault("output.atomic_writes", d.Output.AtomicWrites)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Dataset.Root == "" {
		return fmt.Errorf("dataset.root cannot be empty")
	}

	if c.Dataset.ImagesDir == "" || c.Dataset.LabelsDir == "" {
		return fmt.Errorf("dataset.images_dir and dataset.labels_dir cannot be empty")
	}

	if filepath.Clean(c.ImagesPath()) == filepath.Clean(c.LabelsPath()) {
		return fmt.Errorf("dataset.images_dir and dataset.labels_dir must differ")
	}

	if len(c.Scanner.Formats) == 0 {
		return fmt.Errorf("scanner.formats cannot be empty")
	}

	if _, err := c.ExtentMode(); err != nil {
		return fmt.Errorf("labels.extent_mode: %w", err)
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}

	return nil
}

// ImagesPath returns the directory holding image copies
func (c *Config) ImagesPath() string {
	return filepath.Join(c.Dataset.Root, c.Dataset.ImagesDir)
}

// LabelsPath returns the directory holding label files
func (c *Config) LabelsPath() string {
	return filepath.Join(c.Dataset.Root, c.Dataset.LabelsDir)
}

// ExtentMode parses labels.extent_mode
func (c *Config) ExtentMode() (normalize.ExtentMode, error) {
	return normalize.ParseExtentMode(c.Labels.ExtentMode)
}

// Annotator converts the configuration into controller settings
func (c *Config) Annotator() (annotator.Config, error) {
	mode, err := c.ExtentMode()
	if err != nil {
		return annotator.Config{}, err
	}
	return annotator.Config{
		ImagesDir:  c.ImagesPath(),
		LabelsDir:  c.LabelsPath(),
		Formats:    c.Scanner.Formats,
		ExtentMode: mode,
		Save: types.SaveOptions{
			Quality:  c.Output.JPEGQuality,
			Lossless: c.Output.WebPLossless,
			Atomic:   c.Output.AtomicWrites,
		},
	}, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-labeler", "config.yaml")
}
