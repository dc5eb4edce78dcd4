package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shoebox/pkg/sqlite"
)

const configHeader = "# Shoebox configuration. Every key can be overridden with a\n" +
	"# SHOEBOX_ environment variable, e.g. SHOEBOX_IMPORT_CONCURRENCY=8.\n\n"

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the photo library",
		Long:  "Create the configuration and library directories, write a default\nconfig.yaml if none exists, and initialize the library.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := a.configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, a.flags.dataDir); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	store, err := sqlite.Open(cfg)
	if err != nil {
		return err
	}
	if err := store.Detach(); err != nil {
		return fmt.Errorf("finalize library: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Shoebox initialized\nconfig:  %s\nlibrary: %s\n", configPath, cfg.DataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left alone.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfig()
	if dataDir != "" {
		abs, err := filepath.Abs(dataDir)
		if err != nil {
			return err
		}
		cfg.DataDir = abs
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
