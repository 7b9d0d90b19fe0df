package conversion

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// PackageOutput archives the directory-shaped conversion output into a
// single zip at zipPath. Entries are rooted at the directory's own name
// (archived from its parent, not flattened), so unpacking on the client
// reproduces the layout exactly.
func PackageOutput(outputDir, zipPath string) error {
	info, err := os.Stat(outputDir)
	if err != nil {
		return fmt.Errorf("%w: stat output: %v", ErrPackaging, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output %s is not a directory", ErrPackaging, outputDir)
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("%w: create archive: %v", ErrPackaging, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	root := filepath.Base(outputDir)

	err = filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		name := root
		if rel != "." {
			name = root + "/" + filepath.ToSlash(rel)
		}
		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		os.Remove(zipPath)
		return fmt.Errorf("%w: archive %s: %v", ErrPackaging, root, err)
	}
	if err := zw.Close(); err != nil {
		os.Remove(zipPath)
		return fmt.Errorf("%w: finalize archive: %v", ErrPackaging, err)
	}
	return nil
}

// entryRoot reports the top-level entry name of an archive path.
func entryRoot(name string) string {
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}
