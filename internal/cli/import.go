package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoebox/internal/collab"
	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func newImportCmd(a *app) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Import image files into the library",
		Long: `Import adds the given files to the library. Directories are scanned
for files; hidden files and directories are skipped.

Files are checked against import.allowed_types and import.max_file_size.
Rejected files are listed with the reason and do not stop the import.

Example:
  shoebox import ~/card/DCIM
  shoebox import --recursive=false beach.jpg sunset.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args, recursive)
			if err != nil {
				return err
			}
			return a.withLibrary(cmd, func(ctx context.Context, svc *shoebox.Service) error {
				result, err := svc.ImportFiles(ctx, files)
				if err != nil {
					return err
				}
				return a.emit(cmd, result, func(w io.Writer) { printImport(w, result) })
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "descend into subdirectories")
	return cmd
}

// collectFiles expands args into raw files. Content is not read here; the
// extractor reads each file's header from its path.
func collectFiles(args []string, recursive bool) ([]*types.RawFile, error) {
	var files []*types.RawFile
	for _, arg := range args {
		root, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, usagef("cannot import %s: %s", arg, err)
		}
		if !info.IsDir() {
			files = append(files, rawFile(root, info))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			hidden := strings.HasPrefix(d.Name(), ".") && path != root
			if d.IsDir() {
				if path != root && (hidden || !recursive) {
					return filepath.SkipDir
				}
				return nil
			}
			if hidden || !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			files = append(files, rawFile(path, info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
	}
	return files, nil
}

func rawFile(path string, info fs.FileInfo) *types.RawFile {
	f := &types.RawFile{
		Name:    info.Name(),
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
	}
	f.MimeType = collab.MimeType(f)
	return f
}

func printImport(w io.Writer, r *types.ImportResult) {
	fmt.Fprintf(w, "Imported %d photo(s)\n", len(r.Imported))
	if r.Organized != nil && len(r.Organized.AlbumsCreated) > 0 {
		fmt.Fprintf(w, "Created %d date album(s)\n", len(r.Organized.AlbumsCreated))
	}
	if len(r.Rejected) > 0 {
		fmt.Fprintf(w, "Rejected %d file(s):\n", len(r.Rejected))
		for _, rej := range r.Rejected {
			fmt.Fprintf(w, "  %s\t%s\n", rej.FileName, rej.Reason)
		}
	}
	if r.Cancelled {
		fmt.Fprintln(w, "Import cancelled")
	}
}
