package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// layoutFlags are the view settings shared by album and photo layouts.
type layoutFlags struct {
	columns   int
	viewMode  string
	sortKey   string
	sortOrder string
}

func (lf *layoutFlags) register(f *pflag.FlagSet) {
	f.IntVar(&lf.columns, "columns", types.DefaultLayoutColumns, "grid columns (1-12)")
	f.StringVar(&lf.viewMode, "view", types.ViewModeGrid, "view mode: grid or list")
	f.StringVar(&lf.sortKey, "sort", "", "sort key")
	f.StringVar(&lf.sortOrder, "order", "", "sort order: asc or desc")
}

// update returns the changes requested on the command line and whether
// there are any.
func (lf *layoutFlags) update(f *pflag.FlagSet) (types.LayoutUpdate, bool) {
	var upd types.LayoutUpdate
	if f.Changed("columns") {
		upd.Columns = &lf.columns
	}
	if f.Changed("view") {
		upd.ViewMode = &lf.viewMode
	}
	if f.Changed("sort") || f.Changed("order") {
		upd.Sort = &types.LayoutSort{Key: lf.sortKey, Order: lf.sortOrder}
	}
	return upd, upd.Columns != nil || upd.ViewMode != nil || upd.Sort != nil
}

func newLayoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show or change album and photo grid layouts",
		Long: `Layout shows a view layout, or changes it when any view flag is given.

Example:
  shoebox layout albums --columns 6 --view list
  shoebox layout photos ALBUM --sort dateTaken --order desc`,
	}
	cmd.AddCommand(newLayoutAlbumsCmd(a), newLayoutPhotosCmd(a))
	return cmd
}

func newLayoutAlbumsCmd(a *app) *cobra.Command {
	var lf layoutFlags
	cmd := &cobra.Command{
		Use:   "albums",
		Short: "The album grid layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upd, changed := lf.update(cmd.Flags())
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				var (
					layout *types.AlbumLayout
					err    error
				)
				if changed {
					layout, err = svc.UpdateAlbumLayout(ctx, upd)
				} else {
					layout, err = svc.GetAlbumLayout(ctx)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, layout, func(w io.Writer) {
					printLayout(w, layout.Columns, layout.ViewMode, layout.Sort, layout.AlbumIDs)
				})
			})
		},
	}
	lf.register(cmd.Flags())
	return cmd
}

func newLayoutPhotosCmd(a *app) *cobra.Command {
	var lf layoutFlags
	cmd := &cobra.Command{
		Use:   "photos <album-id>",
		Short: "The photo grid layout of an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd, changed := lf.update(cmd.Flags())
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				var (
					layout *types.PhotoLayout
					err    error
				)
				if changed {
					layout, err = svc.UpdatePhotoLayout(ctx, args[0], upd)
				} else {
					layout, err = svc.GetPhotoLayout(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, layout, func(w io.Writer) {
					printLayout(w, layout.Columns, layout.ViewMode, layout.Sort, layout.PhotoIDs)
				})
			})
		},
	}
	lf.register(cmd.Flags())
	return cmd
}

func printLayout(w io.Writer, columns int, viewMode string, sort types.LayoutSort, ids []string) {
	fmt.Fprintf(w, "Columns:\t%d\n", columns)
	fmt.Fprintf(w, "View:\t%s\n", viewMode)
	if sort.Key != "" {
		fmt.Fprintf(w, "Sort:\t%s %s\n", sort.Key, sort.Order)
	}
	for i, id := range ids {
		fmt.Fprintf(w, "  %d\t%s\n", i, id)
	}
}
