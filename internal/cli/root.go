// Package cli implements the shoebox command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app is the state shared by the commands of one root command.
type app struct {
	flags rootFlags
	cfg   *config
}

// NewRootCmd creates the top-level "shoebox" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "shoebox",
		Short: "A local-first photo library",
		Long: "Shoebox keeps photos, albums, tags and layouts in a local library.\n" +
			"Photos are filed into date albums automatically unless disabled.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "library directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newImportCmd(a),
		newPhotoCmd(a),
		newAlbumCmd(a),
		newTagCmd(a),
		newLayoutCmd(a),
		newSettingsCmd(a),
		newOrganizeCmd(a),
		newStatsCmd(a),
		newHealthCmd(a),
		newExportCmd(a),
		newRestoreCmd(a),
		newClearCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
// An interrupt cancels the running operation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// usageError marks a failure caused by how the command was invoked.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitCode maps err to a process exit code. Rejected input and missing or
// conflicting entities are user errors; everything else is a system error.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrQuotaExceeded):
		return exitUserError
	default:
		return exitSysError
	}
}
