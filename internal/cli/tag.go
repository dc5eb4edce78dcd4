package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(
		newTagListCmd(a),
		newTagCreateCmd(a),
		newTagGetCmd(a),
		newTagUpdateCmd(a),
		newTagDeleteCmd(a),
		newTagCleanupCmd(a),
	)
	return cmd
}

func newTagListCmd(a *app) *cobra.Command {
	var q types.TagQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags with their photo counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				tags, err := svc.ListTags(ctx, q)
				if err != nil {
					return err
				}
				return a.emit(cmd, tags, func(w io.Writer) { printTags(w, tags) })
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.MinCount, "min-count", 0, "only tags on at least this many photos")
	f.StringVar(&q.SortBy, "sort", "", "sort key: name, count or lastUsed")
	f.StringVar(&q.Order, "order", "", "sort order: asc or desc")
	f.IntVar(&q.Limit, "limit", 0, "return at most this many tags (0 for all)")
	return cmd
}

func newTagCreateCmd(a *app) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				tag, err := svc.CreateTag(ctx, types.NewTag{Name: args[0], Color: color})
				if err != nil {
					return err
				}
				return a.emit(cmd, tag, func(w io.Writer) { printTags(w, []*types.Tag{tag}) })
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "display color")
	return cmd
}

func newTagGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name-or-id>",
		Short: "Show a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				tag, err := svc.GetTag(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, tag, func(w io.Writer) { printTags(w, []*types.Tag{tag}) })
			})
		},
	}
}

func newTagUpdateCmd(a *app) *cobra.Command {
	var display, color string
	cmd := &cobra.Command{
		Use:   "update <name-or-id>",
		Short: "Rename a tag or change its color",
		Long:  "Update renames a tag with --name, relabelling every photo that carries\nit, or changes its display color.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd types.TagUpdate
			if cmd.Flags().Changed("name") {
				upd.DisplayName = &display
			}
			if cmd.Flags().Changed("color") {
				upd.Color = &color
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				tag, err := svc.UpdateTag(ctx, args[0], upd)
				if err != nil {
					return err
				}
				return a.emit(cmd, tag, func(w io.Writer) { printTags(w, []*types.Tag{tag}) })
			})
		},
	}
	cmd.Flags().StringVar(&display, "name", "", "new tag name")
	cmd.Flags().StringVar(&color, "color", "", "new display color")
	return cmd
}

func newTagDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete a tag and remove it from every photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				if err := svc.DeleteTag(ctx, args[0]); err != nil {
					return err
				}
				return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted tag %s\n", args[0])
				})
			})
		},
	}
}

func newTagCleanupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete tags no photo carries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				removed, err := svc.CleanupUnusedTags(ctx)
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"deleted": removed}, func(w io.Writer) {
					printIDs(w, "Deleted", removed)
				})
			})
		},
	}
}
