package tilesetanim

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/nsmbw/tilesetanim/u8"
)

// List writes one line per entry in archive to w: the size and xxHash64
// digest of each file followed by its path. Directories are listed with a
// trailing slash.
func (t *Tool) List(archive string, w io.Writer) error {
	root, err := loadArchive(archive)
	if err != nil {
		return err
	}

	return root.Walk(func(path string, n u8.Node) error {
		var err error
		switch n := n.(type) {
		case *u8.File:
			_, err = fmt.Fprintf(w, "%10d  %016x  %s\n", len(n.Data), xxhash.Sum64(n.Data), path)
		case *u8.Directory:
			_, err = fmt.Fprintf(w, "%10s  %16s  %s/\n", "", "", path)
		}
		return err
	})
}

func safeName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Unpack extracts every entry in archive below dir.
func (t *Tool) Unpack(archive, dir string) error {
	root, err := loadArchive(archive)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return root.Walk(func(path string, n u8.Node) error {
		if !safeName(n.Name()) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, path)
		}

		target := filepath.Join(dir, filepath.FromSlash(path))
		switch n := n.(type) {
		case *u8.Directory:
			return os.MkdirAll(target, 0o755)
		case *u8.File:
			t.logger.Printf("Extracting %s\n", path)
			return os.WriteFile(target, n.Data, 0o644)
		}
		return nil
	})
}

// Pack builds an archive from the contents of dir.
func (t *Tool) Pack(dir, archive string) error {
	base, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	root := u8.NewDirectory("")
	dirs := map[string]*u8.Directory{".": root}

	if err := filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if file == base {
			return nil
		}

		// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
		if info.Name()[0] == '.' {
			if info.Mode().IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(base, file)
		if err != nil {
			return err
		}
		parent := dirs[filepath.Dir(rel)]

		switch {
		case info.Mode().IsDir():
			d := u8.NewDirectory(info.Name())
			parent.Set(d)
			dirs[rel] = d
		case info.Mode().IsRegular():
			b, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			parent.Set(u8.NewFile(info.Name(), b))
			t.logger.Printf("Adding %s\n", filepath.ToSlash(rel))
		}
		return nil
	}); err != nil {
		return err
	}

	return saveArchive(archive, root)
}
