package tilesetanim

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nsmbw/tilesetanim/u8"
)

// Case overrides for ImportOptions.
const (
	CaseUpper = "upper"
	CaseLower = "lower"
)

const defaultPa = 1

// ImportOptions configures Import. The zero value uses everything from the
// info file and the tileset filename.
type ImportOptions struct {
	// Output is where the updated tileset is written. Empty overwrites the
	// input tileset.
	Output string
	// Prefix overrides the animation filename prefix from the info file.
	Prefix string
	// Case overrides the tile number case from the info file, either
	// CaseUpper or CaseLower.
	Case string
	// Pa is the tileset number 0 to 3. Nil infers it from the third
	// character of the tileset filename, such as "Pa1_toride.arc".
	Pa *int
	// Add keeps the existing animations instead of replacing all of them.
	Add bool
	// MaxColors reduces every frame to at most this many colors.
	MaxColors int
	// Resize scales frames that aren't 24 by 24 instead of failing.
	Resize bool
}

var frameExtensions = map[string]bool{
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// paNumber infers the tileset number from a filename like "Pa1_toride.arc".
func paNumber(tileset string) int {
	name := filepath.Base(tileset)
	if len(name) > 2 && name[2] >= '0' && name[2] <= '3' {
		return int(name[2] - '0')
	}
	return defaultPa
}

// parseFrameFilename parses "RR_CC_NN.ext", reporting false for names that
// don't follow the pattern at all.
func parseFrameFilename(name string) (row, col, n int, ok bool, err error) {
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if !frameExtensions[ext] || len(stem) != 8 || stem[2] != '_' || stem[5] != '_' {
		return 0, 0, 0, false, nil
	}

	var v [3]int
	for i := range v {
		part := stem[i*3 : i*3+2]
		if part[0] < '0' || part[0] > '9' || part[1] < '0' || part[1] > '9' {
			return 0, 0, 0, false, nil
		}
		v[i], _ = strconv.Atoi(part)
	}

	if v[0] >= 16 || v[1] >= 16 {
		return 0, 0, 0, false, fmt.Errorf("%w: %s: row and column must be below 16", ErrFrameName, name)
	}
	return v[0], v[1], v[2], true, nil
}

// findFrames returns the frame files in dir keyed by tile number and frame
// number.
func findFrames(dir string, pa int) (map[int]map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	frames := make(map[int]map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		row, col, n, ok, err := parseFrameFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		tile := pa<<8 | row<<4 | col
		if frames[tile] == nil {
			frames[tile] = make(map[int]string)
		}
		frames[tile][n] = filepath.Join(dir, entry.Name())
	}
	return frames, nil
}

func (opts *ImportOptions) info(dir, tileset string) (Info, int, error) {
	info, err := ReadInfo(filepath.Join(dir, InfoFilename))
	if err != nil {
		return Info{}, 0, err
	}

	if opts.Prefix != "" {
		info.Prefix = opts.Prefix
	}
	if info.Prefix == "" {
		return Info{}, 0, fmt.Errorf("%w: empty prefix", ErrOption)
	}

	switch opts.Case {
	case "":
	case CaseUpper:
		info.Upper = true
	case CaseLower:
		info.Upper = false
	default:
		return Info{}, 0, fmt.Errorf("%w: case %q", ErrOption, opts.Case)
	}

	pa := paNumber(tileset)
	if opts.Pa != nil {
		if *opts.Pa < 0 || *opts.Pa > 3 {
			return Info{}, 0, fmt.Errorf("%w: pa %d", ErrOption, *opts.Pa)
		}
		pa = *opts.Pa
	}

	if opts.MaxColors != 0 && (opts.MaxColors < 2 || opts.MaxColors > 256) {
		return Info{}, 0, fmt.Errorf("%w: max colors %d", ErrOption, opts.MaxColors)
	}

	return info, pa, nil
}

// Import encodes the frames previously exported to dir, possibly edited,
// back into tileset. Frames for each tile are numbered from 00 and read
// until the first gap. Existing animations are removed unless opts.Add is
// set.
func (t *Tool) Import(tileset, dir string, opts ImportOptions) error {
	info, pa, err := opts.info(dir, tileset)
	if err != nil {
		return err
	}

	root, err := loadArchive(tileset)
	if err != nil {
		return err
	}

	frames, err := findFrames(dir, pa)
	if err != nil {
		return err
	}

	tiles := make([]int, 0, len(frames))
	for tile := range frames {
		tiles = append(tiles, tile)
	}
	sort.Ints(tiles)

	var jobs []frameJob
	encoded := make(map[int][][]byte)
	for _, tile := range tiles {
		var files []string
		for n := 0; ; n++ {
			file, ok := frames[tile][n]
			if !ok {
				break
			}
			files = append(files, file)
		}
		if len(files) == 0 {
			t.logger.Printf("Skipping tile %03x, there is no frame 00\n", tile)
			continue
		}

		encoded[tile] = make([][]byte, len(files))
		for n, file := range files {
			jobs = append(jobs, frameJob{file: file, dst: &encoded[tile][n]})
		}
	}

	t.logger.Printf("Importing %d frames for %d animations\n", len(jobs), len(encoded))

	if err := t.runPipeline(jobs, t.importWorker(encodeOptions{
		maxColors: opts.MaxColors,
		resize:    opts.Resize,
	})); err != nil {
		return err
	}

	tex, ok := root.Directory(texDirectory)
	if !ok {
		tex = u8.NewDirectory(texDirectory)
		root.Set(tex)
	}

	if !opts.Add {
		for name := range AnimationFiles(root) {
			tex.Remove(name)
		}
	}

	for tile, data := range encoded {
		name := AnimFilename(info.Prefix, tile, info.Upper)
		tex.Set(u8.NewFile(name, bytes.Join(data, nil)))
		t.logger.Printf("Added %s with %d frames\n", name, len(data))
	}

	output := opts.Output
	if output == "" {
		output = tileset
	}
	return saveArchive(output, root)
}
