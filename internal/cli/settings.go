package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func newSettingsCmd(a *app) *cobra.Command {
	var (
		s           types.Settings
		granularity string
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change library settings",
		Long: `Settings shows the library settings, or changes those given as flags.

Example:
  shoebox settings --tag-match all
  shoebox settings --auto-organize=false --granularity year`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			var upd types.SettingsUpdate
			if f.Changed("tag-match") {
				upd.TagMatch = &s.TagMatch
			}
			if f.Changed("auto-organize") {
				upd.AutoOrganize = &s.AutoOrganize
			}
			if f.Changed("granularity") {
				g := types.Granularity(granularity)
				upd.DateGranularity = &g
			}
			if f.Changed("prune-empty-tags") {
				upd.PruneEmptyTags = &s.PruneEmptyTags
			}
			if f.Changed("thumbnail-size") {
				upd.ThumbnailMaxSize = &s.ThumbnailMaxSize
			}
			if f.Changed("thumbnail-quality") {
				upd.ThumbnailQuality = &s.ThumbnailQuality
			}
			if f.Changed("theme") {
				upd.Theme = &s.Theme
			}
			changed := upd != (types.SettingsUpdate{})

			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				var (
					settings *types.Settings
					err      error
				)
				if changed {
					settings, err = svc.UpdateSettings(ctx, upd)
				} else {
					settings, err = svc.GetSettings(ctx)
				}
				if err != nil {
					return err
				}
				return a.emit(cmd, settings, func(w io.Writer) {
					fmt.Fprintf(w, "Tag match:\t%s\n", settings.TagMatch)
					fmt.Fprintf(w, "Auto organize:\t%t\n", settings.AutoOrganize)
					fmt.Fprintf(w, "Granularity:\t%s\n", settings.DateGranularity)
					fmt.Fprintf(w, "Prune empty tags:\t%t\n", settings.PruneEmptyTags)
					fmt.Fprintf(w, "Thumbnails:\t%dpx, quality %d\n", settings.ThumbnailMaxSize, settings.ThumbnailQuality)
					if settings.Theme != "" {
						fmt.Fprintf(w, "Theme:\t%s\n", settings.Theme)
					}
				})
			})
		},
	}
	def := types.DefaultSettings()
	f := cmd.Flags()
	f.StringVar(&s.TagMatch, "tag-match", def.TagMatch, "default tag match mode: any or all")
	f.BoolVar(&s.AutoOrganize, "auto-organize", def.AutoOrganize, "file new photos into date albums")
	f.StringVar(&granularity, "granularity", string(def.DateGranularity), "date album span: month or year")
	f.BoolVar(&s.PruneEmptyTags, "prune-empty-tags", def.PruneEmptyTags, "delete tags when their last photo goes")
	f.IntVar(&s.ThumbnailMaxSize, "thumbnail-size", def.ThumbnailMaxSize, "thumbnail edge in pixels")
	f.IntVar(&s.ThumbnailQuality, "thumbnail-quality", def.ThumbnailQuality, "thumbnail quality (1-100)")
	f.StringVar(&s.Theme, "theme", "", "UI theme")
	return cmd
}
