package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library size and entity counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				st, err := svc.StorageStats(ctx)
				if err != nil {
					return err
				}
				return a.emit(cmd, st, func(w io.Writer) {
					fmt.Fprintf(w, "Photos:\t%d\t(%d bytes)\n", st.Photos, st.PhotoBytes)
					fmt.Fprintf(w, "Albums:\t%d\t(%d date, %d custom)\n", st.Albums, st.DateAlbums, st.CustomAlbums)
					fmt.Fprintf(w, "Tags:\t%d\n", st.Tags)
					fmt.Fprintf(w, "Library:\t%d bytes\n", st.Usage.TotalBytes)
					if st.Usage.QuotaBytes > 0 {
						fmt.Fprintf(w, "Quota:\t%d bytes\n", st.Usage.QuotaBytes)
					}
				})
			})
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the library for inconsistencies",
		Long: `Health verifies album and tag counts, cover photos, memberships and
layouts. With --repair, every issue that can be corrected is fixed.
Unresolved issues make the command fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				report, err := svc.HealthCheck(ctx, repair)
				if err != nil {
					return err
				}
				if err := a.emit(cmd, report, func(w io.Writer) { printHealth(w, report) }); err != nil {
					return err
				}
				return report.Err()
			})
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "correct the issues found")
	return cmd
}

func printHealth(w io.Writer, r *types.HealthReport) {
	fmt.Fprintf(w, "Checked %d photo(s), %d album(s), %d tag(s)\n", r.Photos, r.Albums, r.Tags)
	for _, is := range r.Issues {
		state := "problem"
		switch {
		case is.Repaired:
			state = "repaired"
		case is.Info:
			state = "info"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", state, is.Kind, is.EntityID, is.Detail)
	}
	if r.Healthy() {
		fmt.Fprintln(w, "Library is healthy")
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of the library",
		Long:  "Export writes the whole library as a JSON Lines backup to --output,\nor to standard output.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				if output == "" || output == "-" {
					return svc.Export(ctx, cmd.OutOrStdout())
				}
				return exportFile(ctx, svc, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "backup file (default: stdout)")
	return cmd
}

// exportFile writes the backup to a temporary file and renames it into
// place, so a failed export never leaves a truncated backup at path.
func exportFile(ctx context.Context, svc *shoebox.Service, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	w := bufio.NewWriter(f)
	err = svc.Export(ctx, w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the library with a backup",
		Long: `Restore verifies the backup and replaces the whole library with it.
A corrupt backup is rejected and the library is left as it was.
Use "-" to read the backup from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return usagef("open backup: %s", err)
				}
				defer f.Close()
				r = f
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				summary, err := svc.Restore(ctx, bufio.NewReader(r))
				if err != nil {
					return err
				}
				return a.emit(cmd, summary, func(w io.Writer) {
					fmt.Fprintf(w, "Restored %d photo(s), %d album(s), %d tag(s)\n", summary.Photos, summary.Albums, summary.Tags)
				})
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete everything in the library",
		Long:  "Clear deletes every photo, album, tag and layout and resets the\nsettings. It requires --yes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return usagef("refusing to clear the library without --yes")
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				if err := svc.ClearAll(ctx); err != nil {
					return err
				}
				return a.emit(cmd, map[string]bool{"cleared": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Library cleared")
				})
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the library")
	return cmd
}
