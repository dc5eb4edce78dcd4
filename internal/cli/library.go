package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/internal/collab"
	"github.com/mesh-intelligence/shoebox/internal/logger"
	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/sqlite"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// storeConfig builds the store configuration from the resolved directories
// and config.yaml.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return types.Config{}, err
	}
	cfg := types.Config{
		Backend:    a.cfg.Backend,
		DataDir:    dataDir,
		QuotaBytes: a.cfg.QuotaBytes,
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, usagef("invalid configuration: %s", err)
	}
	return cfg, nil
}

// withLibrary attaches the library, runs fn with a service over it and
// detaches. Logs go to the command's stderr.
func (a *app) withLibrary(cmd *cobra.Command, fn func(ctx context.Context, svc *shoebox.Service) error) (err error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if derr := store.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detach library: %w", derr)
		}
	}()

	log := logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: a.cfg.Log.Format,
		Level:  logger.ParseLevel(a.cfg.Log.Level),
	})
	svc := shoebox.New(store,
		shoebox.WithLogger(log),
		shoebox.WithMetadataExtractor(collab.DimensionExtractor{}),
		shoebox.WithThumbnailGenerator(collab.NoThumbnails{}),
		shoebox.WithFileValidator(collab.NewTypeValidator(a.cfg.Import.AllowedTypes, a.cfg.Import.MaxFileSize)),
		shoebox.WithImportConcurrency(a.cfg.Import.Concurrency),
		shoebox.WithBatchSize(a.cfg.Import.BatchSize),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, svc)
}
