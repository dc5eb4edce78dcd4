package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// emit writes v as indented JSON in --json mode and calls text otherwise.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func printPhotos(w io.Writer, photos []*types.Photo) {
	fmt.Fprintln(w, "ID\tFILE\tTAKEN\tSIZE\tTAGS")
	for _, p := range photos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\n",
			p.PhotoID, p.FileName, p.DateTaken.Format(time.DateOnly), p.Width, p.Height, strings.Join(p.Tags, ", "))
	}
}

func printPhoto(w io.Writer, p *types.Photo) {
	fmt.Fprintf(w, "ID:\t%s\n", p.PhotoID)
	fmt.Fprintf(w, "File:\t%s\n", p.FileName)
	if p.FilePath != "" {
		fmt.Fprintf(w, "Path:\t%s\n", p.FilePath)
	}
	fmt.Fprintf(w, "Type:\t%s\n", p.MimeType)
	fmt.Fprintf(w, "Size:\t%d bytes, %dx%d\n", p.FileSize, p.Width, p.Height)
	fmt.Fprintf(w, "Taken:\t%s\n", p.DateTaken.Format(time.RFC3339))
	if p.Camera != "" {
		fmt.Fprintf(w, "Camera:\t%s\n", p.Camera)
	}
	if p.Location != nil {
		fmt.Fprintf(w, "Location:\t%.5f, %.5f\n", p.Location.Latitude, p.Location.Longitude)
	}
	if p.Caption != "" {
		fmt.Fprintf(w, "Caption:\t%s\n", p.Caption)
	}
	fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(p.Tags, ", "))
	fmt.Fprintf(w, "Albums:\t%s\n", strings.Join(p.AlbumIDs, ", "))
}

func printAlbums(w io.Writer, albums []*types.Album) {
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPHOTOS\tPOSITION")
	for _, al := range albums {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", al.AlbumID, al.Name, al.Type, al.PhotoCount, al.Position)
	}
}

func printAlbum(w io.Writer, al *types.Album) {
	fmt.Fprintf(w, "ID:\t%s\n", al.AlbumID)
	fmt.Fprintf(w, "Name:\t%s\n", al.Name)
	fmt.Fprintf(w, "Type:\t%s\n", al.Type)
	fmt.Fprintf(w, "Photos:\t%d\n", al.PhotoCount)
	if al.CoverPhotoID != "" {
		fmt.Fprintf(w, "Cover:\t%s\n", al.CoverPhotoID)
	}
	for i, id := range al.PhotoIDs {
		fmt.Fprintf(w, "  %d\t%s\n", i, id)
	}
}

func printTags(w io.Writer, tags []*types.Tag) {
	fmt.Fprintln(w, "NAME\tDISPLAY\tPHOTOS\tCOLOR")
	for _, t := range tags {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.Name, t.DisplayName, t.PhotoCount, t.Color)
	}
}

func printIDs(w io.Writer, verb string, ids []string) {
	fmt.Fprintf(w, "%s %d\n", verb, len(ids))
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. A bare date
// is midnight UTC; end moves it to the last instant of that day.
func parseDate(s string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, usagef("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
