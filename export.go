package tilesetanim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nsmbw/tilesetanim/u8"
)

// DefaultExportDir returns the directory animations are exported to when no
// directory is given.
func DefaultExportDir(tileset string) string {
	return tileset + "_anims"
}

func frameFilename(row, col, n int) string {
	return fmt.Sprintf("%02d_%02d_%02d.png", row, col, n)
}

func loadArchive(file string) (*u8.Directory, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	root, err := u8.Load(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return root, nil
}

func saveArchive(file string, root *u8.Directory) error {
	b, err := u8.Save(root)
	if err != nil {
		return err
	}
	return os.WriteFile(file, b, 0o644)
}

// Export writes every animation frame in tileset as a 24 by 24 PNG named
// "RR_CC_NN.png" (tile row, tile column, frame number) to dir, along with an
// info file recording the animation filename convention. dir is removed
// first if it already exists. An empty dir selects DefaultExportDir.
//
// The tileset number is not part of the frame filenames, so animations for
// the same row and column in different tilesets share frame files. The one
// stored last in the archive wins.
func (t *Tool) Export(tileset, dir string) error {
	root, err := loadArchive(tileset)
	if err != nil {
		return err
	}

	anims := AnimationFiles(root)
	if len(anims) == 0 {
		return fmt.Errorf("%w: %s", ErrNoAnimations, tileset)
	}

	// Keep archive order so that when two animations map to the same frame
	// files the later one always wins
	tex, _ := root.Directory(texDirectory)
	names := make([]string, 0, len(anims))
	for _, n := range tex.Entries() {
		if _, ok := anims[n.Name()]; ok {
			names = append(names, n.Name())
		}
	}

	prefix, upper := AnalyzeFilenames(names)

	if dir == "" {
		dir = DefaultExportDir(tileset)
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := WriteInfo(filepath.Join(dir, InfoFilename), Info{Prefix: prefix, Upper: upper}); err != nil {
		return err
	}

	var jobs []frameJob
	seen := make(map[string]int)
	for _, name := range names {
		tile, err := TileNumber(name)
		if err != nil {
			return err
		}
		row, col := tilePosition(tile)

		data := anims[name]
		if extra := len(data) % frameBytes; extra != 0 {
			t.logger.Printf("Ignoring %d trailing bytes in %s\n", extra, name)
		}

		for n := 0; n < len(data)/frameBytes; n++ {
			job := frameJob{
				file: filepath.Join(dir, frameFilename(row, col, n)),
				data: data[n*frameBytes : (n+1)*frameBytes],
			}
			if i, ok := seen[job.file]; ok {
				t.logger.Printf("Frame %d of %s overwrites %s\n", n, name, job.file)
				jobs[i] = job
				continue
			}
			seen[job.file] = len(jobs)
			jobs = append(jobs, job)
		}
	}

	t.logger.Printf("Exporting %d frames from %d animations\n", len(jobs), len(names))

	return t.runPipeline(jobs, t.exportWorker)
}
