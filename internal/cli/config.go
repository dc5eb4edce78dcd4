package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/shoebox/internal/collab"
	"github.com/mesh-intelligence/shoebox/internal/logger"
	"github.com/mesh-intelligence/shoebox/internal/paths"
	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix is prepended to upper-cased keys, with dots as underscores:
	// SHOEBOX_QUOTA_BYTES, SHOEBOX_IMPORT_CONCURRENCY.
	envPrefix = "SHOEBOX"
)

// Config keys.
const (
	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyQuotaBytes   = "quota_bytes"
	cfgKeyLogLevel     = "log.level"
	cfgKeyLogFormat    = "log.format"
	cfgKeyConcurrency  = "import.concurrency"
	cfgKeyBatchSize    = "import.batch_size"
	cfgKeyMaxFileSize  = "import.max_file_size"
	cfgKeyAllowedTypes = "import.allowed_types"
)

// config is the decoded CLI configuration.
type config struct {
	Backend    string       `mapstructure:"backend" yaml:"backend"`
	DataDir    string       `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	QuotaBytes int64        `mapstructure:"quota_bytes" yaml:"quota_bytes"`
	Log        logConfig    `mapstructure:"log" yaml:"log"`
	Import     importConfig `mapstructure:"import" yaml:"import"`
}

type logConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type importConfig struct {
	Concurrency  int      `mapstructure:"concurrency" yaml:"concurrency"`
	BatchSize    int      `mapstructure:"batch_size" yaml:"batch_size"`
	MaxFileSize  int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
	AllowedTypes []string `mapstructure:"allowed_types" yaml:"allowed_types"`
}

// defaultConfig returns the configuration used when config.yaml and the
// environment leave a key unset.
func defaultConfig() config {
	return config{
		Backend: types.BackendSQLite,
		Log:     logConfig{Level: "warn", Format: logger.FormatText},
		Import: importConfig{
			Concurrency:  shoebox.DefaultImportConcurrency,
			BatchSize:    shoebox.DefaultBatchSize,
			MaxFileSize:  collab.DefaultMaxFileSize,
			AllowedTypes: collab.DefaultAllowedTypes,
		},
	}
}

// newViper returns a viper instance reading config.yaml from configDir and
// SHOEBOX_* environment variables, with every key defaulted.
func newViper(configDir string) *viper.Viper {
	def := defaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyQuotaBytes, def.QuotaBytes)
	v.SetDefault(cfgKeyLogLevel, def.Log.Level)
	v.SetDefault(cfgKeyLogFormat, def.Log.Format)
	v.SetDefault(cfgKeyConcurrency, def.Import.Concurrency)
	v.SetDefault(cfgKeyBatchSize, def.Import.BatchSize)
	v.SetDefault(cfgKeyMaxFileSize, def.Import.MaxFileSize)
	v.SetDefault(cfgKeyAllowedTypes, def.Import.AllowedTypes)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	return v
}

// readConfig loads the configuration from configDir. A missing config.yaml
// is not an error.
func readConfig(configDir string) (*config, error) {
	v := newViper(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.QuotaBytes < 0 {
		return nil, usagef("%s must not be negative", cfgKeyQuotaBytes)
	}
	return &cfg, nil
}

// loadConfig resolves the config directory and reads the configuration
// into a. It runs before every command except version.
func (a *app) loadConfig() error {
	configDir, err := a.configDir()
	if err != nil {
		return err
	}
	cfg, err := readConfig(configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// configDir returns the configuration directory: --config-dir flag,
// SHOEBOX_CONFIG_DIR, then the platform default.
func (a *app) configDir() (string, error) {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return dir, nil
}

// dataDir returns the library directory: --data-dir flag, data_dir from
// config.yaml or SHOEBOX_DATA_DIR, then the platform data directory.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return dir, nil
}
