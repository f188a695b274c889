package tilesetanim

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nsmbw/tilesetanim/u8"
)

const (
	texDirectory = "BG_tex"
	animSuffix   = ".bin"

	frameSize  = 32
	frameInner = 24
	frameInset = (frameSize - frameInner) / 2
	frameBytes = frameSize * frameSize * 2
)

// IsAnimFilename reports whether name follows the animation filename
// convention "xxxxx_nnn.bin", where "nnn" is a tile number between 000 and
// 3FF in either case and there is at least one prefix character.
func IsAnimFilename(name string) bool {
	if !strings.HasSuffix(strings.ToLower(name), animSuffix) || len(name) < 9 {
		return false
	}
	if name[len(name)-8] != '_' {
		return false
	}
	if !strings.ContainsRune("0123", rune(name[len(name)-7])) {
		return false
	}
	for _, c := range strings.ToLower(name[len(name)-6 : len(name)-4]) {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// TileNumber returns the tile number of an animation filename.
func TileNumber(name string) (int, error) {
	if !IsAnimFilename(name) {
		return 0, fmt.Errorf("not an animation filename: %q", name)
	}
	n, err := strconv.ParseUint(name[len(name)-7:len(name)-4], 16, 16)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AnimationFiles returns the animation files in the tileset's BG_tex
// directory, keyed by filename.
func AnimationFiles(root *u8.Directory) map[string][]byte {
	files := make(map[string][]byte)

	tex, ok := root.Directory(texDirectory)
	if !ok {
		return files
	}
	for _, n := range tex.Entries() {
		if f, ok := n.(*u8.File); ok && IsAnimFilename(f.Name()) {
			files[f.Name()] = f.Data
		}
	}
	return files
}

// AnalyzeFilenames returns the prefix shared by the animation filenames and
// whether their tile numbers are written in upper case. Upper case is
// assumed unless a lower case hex digit proves otherwise, as that is what
// most tilesets use.
func AnalyzeFilenames(names []string) (prefix string, upper bool) {
	if len(names) == 0 {
		return "", true
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	// The prefixes should all be the same, there's no sensible way to
	// handle them being different so just use the first
	prefix = sorted[0][:len(sorted[0])-8]

	for _, name := range sorted {
		for _, c := range name[len(name)-6 : len(name)-4] {
			if c >= 'a' && c <= 'f' {
				return prefix, false
			}
		}
	}
	return prefix, true
}

// AnimFilename returns the animation filename for a tile number.
func AnimFilename(prefix string, tile int, upper bool) string {
	n := fmt.Sprintf("%03x", tile)
	if upper {
		n = strings.ToUpper(n)
	}
	return prefix + "_" + n + animSuffix
}

// tilePosition returns the row and column of a tile within its tileset.
func tilePosition(tile int) (row, col int) {
	return tile >> 4 & 0xf, tile & 0xf
}
