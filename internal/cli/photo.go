package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func newPhotoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Search, inspect and edit photos",
	}
	cmd.AddCommand(
		newPhotoGetCmd(a),
		newPhotoSearchCmd(a),
		newPhotoUpdateCmd(a),
		newPhotoTagCmd(a, true),
		newPhotoTagCmd(a, false),
		newPhotoDeleteCmd(a),
		newPhotoDuplicatesCmd(a),
	)
	return cmd
}

func newPhotoGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <photo-id>",
		Short: "Show a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				p, err := svc.GetPhoto(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, p, func(w io.Writer) { printPhoto(w, p) })
			})
		},
	}
}

func newPhotoSearchCmd(a *app) *cobra.Command {
	var (
		q        types.PhotoQuery
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search photos by tag, date, album and text",
		Long: `Search lists photos matching every given criterion.

Tags match ANY of the given tags unless --match all is set or the library's
tag match setting says otherwise. Dates are inclusive.

Example:
  shoebox photo search --tag beach --tag sunset --match all
  shoebox photo search --from 2024-06-01 --to 2024-06-30 --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from != "" {
				t, err := parseDate(from, false)
				if err != nil {
					return err
				}
				q.DateFrom = &t
			}
			if to != "" {
				t, err := parseDate(to, true)
				if err != nil {
					return err
				}
				q.DateTo = &t
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				page, err := svc.SearchPhotos(ctx, q)
				if err != nil {
					return err
				}
				return a.emit(cmd, page, func(w io.Writer) {
					printPhotos(w, page.Photos)
					fmt.Fprintf(w, "%d of %d photo(s)\n", len(page.Photos), page.Total)
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&q.Tags, "tag", nil, "tag to match (repeatable)")
	f.StringVar(&q.TagMatch, "match", "", "tag match mode: any or all (default: library setting)")
	f.StringVar(&from, "from", "", "earliest capture date")
	f.StringVar(&to, "to", "", "latest capture date")
	f.StringVar(&q.AlbumID, "album", "", "only photos in this album")
	f.StringVar(&q.Text, "text", "", "substring of file name, caption or tag")
	f.StringVar(&q.SortBy, "sort", "", "sort key: dateTaken, dateAdded or fileName")
	f.StringVar(&q.Order, "order", "", "sort order: asc or desc")
	f.IntVar(&q.Offset, "offset", 0, "skip this many matches")
	f.IntVar(&q.Limit, "limit", 0, "return at most this many photos (0 for all)")
	return cmd
}

func newPhotoUpdateCmd(a *app) *cobra.Command {
	var (
		caption, camera, taken string
		tags                   []string
		clearLocation          bool
	)
	cmd := &cobra.Command{
		Use:   "update <photo-id>",
		Short: "Edit a photo's caption, camera, capture date or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd types.PhotoUpdate
			f := cmd.Flags()
			if f.Changed("caption") {
				upd.Caption = &caption
			}
			if f.Changed("camera") {
				upd.Camera = &camera
			}
			if f.Changed("tags") {
				upd.Tags = &tags
			}
			if f.Changed("taken") {
				t, err := parseDate(taken, false)
				if err != nil {
					return err
				}
				upd.DateTaken = &t
			}
			upd.ClearLocation = clearLocation
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				p, err := svc.UpdatePhoto(ctx, args[0], upd)
				if err != nil {
					return err
				}
				return a.emit(cmd, p, func(w io.Writer) { printPhoto(w, p) })
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&caption, "caption", "", "new caption")
	f.StringVar(&camera, "camera", "", "new camera model")
	f.StringVar(&taken, "taken", "", "new capture date")
	f.StringSliceVar(&tags, "tags", nil, "replace all tags (comma separated)")
	f.BoolVar(&clearLocation, "clear-location", false, "remove the capture location")
	return cmd
}

// newPhotoTagCmd builds "photo tag" when add is set and "photo untag"
// otherwise.
func newPhotoTagCmd(a *app, add bool) *cobra.Command {
	var photoIDs []string
	use, short := "untag", "Remove tags from photos"
	if add {
		use, short = "tag", "Add tags to photos"
	}
	cmd := &cobra.Command{
		Use:   use + " <tag>... --photo <photo-id>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(photoIDs) == 0 {
				return usagef("at least one --photo is required")
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				var err error
				if add {
					err = svc.AddTags(ctx, photoIDs, args)
				} else {
					err = svc.RemoveTags(ctx, photoIDs, args)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"photoIds": photoIDs, "tags": args}, func(w io.Writer) {
					fmt.Fprintf(w, "Updated %d photo(s)\n", len(photoIDs))
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&photoIDs, "photo", nil, "photo id (repeatable or comma separated)")
	return cmd
}

func newPhotoDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <photo-id>...",
		Short: "Delete photos from the library",
		Long:  "Delete removes the photos, their album memberships and layout entries.\nIf any id does not exist nothing is deleted.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				if err := svc.DeletePhotos(ctx, args); err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"deleted": args}, func(w io.Writer) {
					printIDs(w, "Deleted", args)
				})
			})
		},
	}
}

func newPhotoDuplicatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "List likely duplicate photos",
		Long:  "Duplicates groups photos with the same file size and dimensions.\nThe match is a heuristic; review the groups before deleting.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				groups, err := svc.FindDuplicatePhotos(ctx)
				if err != nil {
					return err
				}
				return a.emit(cmd, groups, func(w io.Writer) {
					for _, g := range groups {
						fmt.Fprintf(w, "%d bytes %dx%d\t%d photo(s)\n", g.Key.FileSize, g.Key.Width, g.Key.Height, len(g.PhotoIDs))
						for _, id := range g.PhotoIDs {
							fmt.Fprintf(w, "  %s\n", id)
						}
					}
				})
			})
		},
	}
}
