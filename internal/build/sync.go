package build

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/zmkbuild/zmkbuild/internal/fault"
	"github.com/zmkbuild/zmkbuild/internal/paths"
)

// Overlays the project directory src onto the workspace directory dst.
//
// Files from src overwrite their counterparts in dst. Files that exist only
// in dst are kept.
func (p *Project) sync(label, src, dst string) error {
	files, err := countFiles(src)
	if err != nil {
		return fault.Wrap(ErrFileSystemOperation, err)
	}

	slog.Debug("syncing", "src", src, "dst", dst, "files", files)

	bar := p.progressBar(int64(files), "syncing "+label)
	defer bar.Finish()

	if err := overlay(src, dst, func() { bar.Add(1) }); err != nil {
		return fault.Wrap(ErrFileSystemOperation, err)
	}
	return nil
}

func (p *Project) progressBar(length int64, desc string) *progressbar.ProgressBar {
	if p.opts.Progress == nil {
		return progressbar.NewOptions64(length, progressbar.OptionSetVisibility(false))
	}

	w := p.opts.Progress
	return progressbar.NewOptions64(length,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}

// Copies the tree at src into dst, calling done after each regular file.
func overlay(src, dst string, done func()) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, paths.DefaultDirMode)
		case d.Type().IsRegular():
			if err := copyFile(path, target); err != nil {
				return err
			}
			done()
			return nil
		default:
			slog.Debug("skipping non-regular file", "path", path)
			return nil
		}
	})
}

// Returns the number of regular files under root.
func countFiles(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			n++
		}
		return nil
	})
	return n, err
}

// Copies the regular file src to dst, replacing dst and keeping the source
// permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), paths.DefaultDirMode); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
