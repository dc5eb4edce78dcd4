package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func newAlbumCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "album",
		Short: "Manage albums and their photos",
	}
	cmd.AddCommand(
		newAlbumListCmd(a),
		newAlbumCreateCmd(a),
		newAlbumGetCmd(a),
		newAlbumStatsCmd(a),
		newAlbumUpdateCmd(a),
		newAlbumDeleteCmd(a),
		newAlbumAddCmd(a),
		newAlbumRemoveCmd(a),
		newAlbumMoveCmd(a),
		newAlbumOrderCmd(a),
		newAlbumMergeCmd(a),
		newAlbumCleanupCmd(a),
	)
	return cmd
}

func newAlbumListCmd(a *app) *cobra.Command {
	var q types.AlbumQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List albums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				albums, err := svc.ListAlbums(ctx, q)
				if err != nil {
					return err
				}
				return a.emit(cmd, albums, func(w io.Writer) { printAlbums(w, albums) })
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Type, "type", "", "album type: date or custom")
	f.IntVar(&q.Year, "year", 0, "date albums of this year")
	f.IntVar(&q.Month, "month", 0, "date albums of this month")
	f.StringVar(&q.Name, "name", "", "album name, matched ignoring case")
	f.StringVar(&q.SortBy, "sort", "", "sort key: position, name, date or dateCreated")
	f.StringVar(&q.Order, "order", "", "sort order: asc or desc")
	f.IntVar(&q.Limit, "limit", 0, "return at most this many albums (0 for all)")
	return cmd
}

func newAlbumCreateCmd(a *app) *cobra.Command {
	var (
		date     string
		position int
	)
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a custom or date album",
		Long: `Create makes a custom album with the given name, or a date album when
--date is given as YYYY-MM (a month) or YYYY (a year).

Example:
  shoebox album create "Summer Trip"
  shoebox album create --date 2024-06`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pos *int
			if cmd.Flags().Changed("position") {
				pos = &position
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if date == "" && name == "" {
				return usagef("an album name or --date is required")
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				var (
					album *types.Album
					err   error
				)
				if date != "" {
					key, perr := parseDateKey(date)
					if perr != nil {
						return perr
					}
					album, err = svc.CreateDateAlbum(ctx, types.NewDateAlbum{Year: key.Year, Month: key.Month, Name: name, Position: pos})
				} else {
					album, err = svc.CreateAlbum(ctx, types.NewAlbum{Name: name, Position: pos})
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, album, func(w io.Writer) { printAlbum(w, album) })
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "create a date album for YYYY-MM or YYYY")
	cmd.Flags().IntVar(&position, "position", 0, "grid position (default: last)")
	return cmd
}

// parseDateKey reads YYYY-MM as a month key and YYYY as a year key.
func parseDateKey(s string) (types.DateKey, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return types.DateKey{Year: t.Year(), Month: int(t.Month())}, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return types.DateKey{}, usagef("invalid date %q (want YYYY-MM or YYYY)", s)
	}
	return types.DateKey{Year: year}, nil
}

func newAlbumGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <album-id>",
		Short: "Show an album and its photos in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				album, err := svc.GetAlbum(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, album, func(w io.Writer) { printAlbum(w, album) })
			})
		},
	}
}

func newAlbumStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <album-id>",
		Short: "Summarize an album's photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				st, err := svc.AlbumStats(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(cmd, st, func(w io.Writer) {
					fmt.Fprintf(w, "Photos:\t%d\n", st.PhotoCount)
					fmt.Fprintf(w, "Bytes:\t%d\n", st.TotalBytes)
					if st.EarliestTaken != nil && st.LatestTaken != nil {
						fmt.Fprintf(w, "Taken:\t%s to %s\n", st.EarliestTaken.Format(time.DateOnly), st.LatestTaken.Format(time.DateOnly))
					}
					for _, mt := range slices.Sorted(maps.Keys(st.MimeTypes)) {
						fmt.Fprintf(w, "Type:\t%s\t%d\n", mt, st.MimeTypes[mt])
					}
					for _, tc := range st.TopTags {
						fmt.Fprintf(w, "Tag:\t%s\t%d\n", tc.Name, tc.Count)
					}
				})
			})
		},
	}
}

func newAlbumUpdateCmd(a *app) *cobra.Command {
	var name, cover string
	cmd := &cobra.Command{
		Use:   "update <album-id>",
		Short: "Rename an album or set its cover photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd types.AlbumUpdate
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("cover") {
				upd.CoverPhotoID = &cover
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				album, err := svc.UpdateAlbum(ctx, args[0], upd)
				if err != nil {
					return err
				}
				return a.emit(cmd, album, func(w io.Writer) { printAlbum(w, album) })
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new album name")
	cmd.Flags().StringVar(&cover, "cover", "", "cover photo id (empty clears it)")
	return cmd
}

func newAlbumDeleteCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <album-id>",
		Short: "Delete an album; its photos stay in the library",
		Long:  "Delete removes the album. A date album that still holds photos is\nonly deleted with --force.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				if err := svc.DeleteAlbum(ctx, args[0], force); err != nil {
					return err
				}
				return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted album %s\n", args[0])
				})
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete a date album that still holds photos")
	return cmd
}

func newAlbumAddCmd(a *app) *cobra.Command {
	var position int
	cmd := &cobra.Command{
		Use:   "add <album-id> <photo-id>...",
		Short: "Add photos to an album",
		Long:  "Add inserts the photos at --position, or appends them. Photos already\nin the album are skipped.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				added, err := svc.AddPhotosToAlbum(ctx, args[0], args[1:], position)
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"added": added}, func(w io.Writer) {
					printIDs(w, "Added", added)
				})
			})
		},
	}
	cmd.Flags().IntVar(&position, "position", -1, "insert position (-1 appends)")
	return cmd
}

func newAlbumRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <album-id> <photo-id>...",
		Short: "Remove photos from an album",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				removed, err := svc.RemovePhotosFromAlbum(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"removed": removed}, func(w io.Writer) {
					printIDs(w, "Removed", removed)
				})
			})
		},
	}
}

func newAlbumMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <album-id> <photo-id> <to>...",
		Short: "Move photos within an album",
		Long: `Move applies one or more moves in order. Each move is a photo id followed
by its new zero-based position.

Example:
  shoebox album move ALBUM PHOTO1 3 PHOTO4 0`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || (len(args)-1)%2 != 0 {
				return usagef("want an album id followed by photo-id position pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var moves []types.Move
			for i := 1; i < len(args); i += 2 {
				to, err := strconv.Atoi(args[i+1])
				if err != nil {
					return usagef("invalid position %q", args[i+1])
				}
				moves = append(moves, types.Move{PhotoID: args[i], From: -1, To: to})
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				order, err := svc.ReorderPhotosInAlbum(ctx, args[0], moves)
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"photoIds": order}, func(w io.Writer) {
					for i, id := range order {
						fmt.Fprintf(w, "%d\t%s\n", i, id)
					}
				})
			})
		},
	}
}

func newAlbumOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order <album-id>...",
		Short: "Set the grid order of all albums",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				if err := svc.ReorderAlbums(ctx, args); err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"albumIds": args}, func(w io.Writer) {
					fmt.Fprintf(w, "Reordered %d album(s)\n", len(args))
				})
			})
		},
	}
}

func newAlbumMergeCmd(a *app) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "merge <target-id> <source-id>...",
		Short: "Merge albums into a target album",
		Long:  "Merge appends the photos of each source album to the target, then\ndeletes the sources unless --keep-sources is set.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				album, err := svc.MergeAlbums(ctx, args[0], args[1:], !keep)
				if err != nil {
					return err
				}
				return a.emit(cmd, album, func(w io.Writer) { printAlbum(w, album) })
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep-sources", false, "keep the source albums")
	return cmd
}

func newAlbumCleanupCmd(a *app) *cobra.Command {
	var includeDate bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete empty albums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				removed, err := svc.CleanupEmptyAlbums(ctx, includeDate)
				if err != nil {
					return err
				}
				return a.emit(cmd, map[string]any{"deleted": removed}, func(w io.Writer) {
					printIDs(w, "Deleted", removed)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&includeDate, "include-date", true, "also delete empty date albums")
	return cmd
}
