package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
)

func newOrganizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "organize [photo-id...]",
		Short: "File photos into date albums",
		Long: `Organize files each photo into the date album for its capture date,
creating missing albums. With no ids every photo is organized. Running it
again changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				result, err := svc.OrganizeByDate(ctx, args)
				if err != nil {
					return err
				}
				return a.emit(cmd, result, func(w io.Writer) {
					fmt.Fprintf(w, "Processed %d photo(s), filed %d\n", result.Processed, result.Attached)
					if len(result.AlbumsCreated) > 0 {
						printIDs(w, "Created albums", result.AlbumsCreated)
					}
					if result.Cancelled {
						fmt.Fprintln(w, "Organize cancelled")
					}
				})
			})
		},
	}
}
