package tilesetanim

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/nsmbw/tilesetanim/rgb4a3"
	"github.com/nsmbw/tilesetanim/u8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTool() *Tool {
	return New(log.New(io.Discard, "", 0), 4)
}

func encode(t *testing.T, m image.Image) []byte {
	t.Helper()

	b := new(bytes.Buffer)
	require.NoError(t, rgb4a3.Encode(b, m))
	return b.Bytes()
}

func animData(t *testing.T, seeds ...int) []byte {
	t.Helper()

	var data []byte
	for _, seed := range seeds {
		frame, err := Clamp(testTile(seed))
		require.NoError(t, err)
		data = append(data, encode(t, frame)...)
	}
	return data
}

func writeTileset(t *testing.T, file string, tex map[string][]byte) {
	t.Helper()

	root := u8.NewDirectory("")
	if tex != nil {
		d := u8.NewDirectory(texDirectory)
		for name, data := range tex {
			d.Set(u8.NewFile(name, data))
		}
		root.Set(d)
	}
	chk := u8.NewDirectory("BG_chk")
	chk.Set(u8.NewFile("d_bgchk_Pa1_toride.bin", []byte("collision")))
	root.Set(chk)

	require.NoError(t, saveArchive(file, root))
}

func readTex(t *testing.T, file string) *u8.Directory {
	t.Helper()

	root, err := loadArchive(file)
	require.NoError(t, err)
	tex, ok := root.Directory(texDirectory)
	require.True(t, ok)
	return tex
}

func texNames(tex *u8.Directory) []string {
	var names []string
	for _, n := range tex.Entries() {
		names = append(names, n.Name())
	}
	return names
}

func writePNG(t *testing.T, file string, m image.Image) {
	t.Helper()

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

func readPNG(t *testing.T, file string) image.Image {
	t.Helper()

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	m, err := png.Decode(f)
	require.NoError(t, err)
	return m
}

func writeFrames(t *testing.T, dir string, info Info, frames map[string]image.Image) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, WriteInfo(filepath.Join(dir, InfoFilename), info))
	for name, m := range frames {
		writePNG(t, filepath.Join(dir, name), m)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tileset := filepath.Join(dir, "Pa1_toride.arc")
	data := animData(t, 0, 1)
	writeTileset(t, tileset, map[string][]byte{
		"TR1_10a.bin":        data,
		"Pa1_toride_tex.bin": []byte("texture"),
	})

	tool := newTestTool()
	require.NoError(t, tool.Export(tileset, ""))

	anims := DefaultExportDir(tileset)
	info, err := os.ReadFile(filepath.Join(anims, InfoFilename))
	require.NoError(t, err)
	assert.Equal(t, "TR1\nlowercase", string(info))

	for n := 0; n < 2; n++ {
		m := readPNG(t, filepath.Join(anims, fmt.Sprintf("00_10_%02d.png", n)))
		require.Equal(t, image.Rect(0, 0, 24, 24), m.Bounds())
		assertSameImage(t, testTile(n), m)
	}

	output := filepath.Join(dir, "out.arc")
	require.NoError(t, tool.Import(tileset, anims, ImportOptions{Output: output}))

	tex := readTex(t, output)
	f, ok := tex.File("TR1_10a.bin")
	require.True(t, ok)
	assert.Equal(t, data, f.Data)

	f, ok = tex.File("Pa1_toride_tex.bin")
	require.True(t, ok)
	assert.Equal(t, []byte("texture"), f.Data)

	root, err := loadArchive(output)
	require.NoError(t, err)
	_, ok = root.Lookup("BG_chk/d_bgchk_Pa1_toride.bin")
	assert.True(t, ok)

	// The input tileset is untouched when an output is given
	orig, err := loadArchive(tileset)
	require.NoError(t, err)
	assert.Equal(t, data, AnimationFiles(orig)["TR1_10a.bin"])
}

func assertSameImage(t *testing.T, want, got image.Image) {
	t.Helper()

	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	wm, gm := want.Bounds().Min, got.Bounds().Min
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			r1, g1, b1, a1 := want.At(wm.X+x, wm.Y+y).RGBA()
			r2, g2, b2, a2 := got.At(gm.X+x, gm.Y+y).RGBA()
			if !assert.Equal(t, [4]uint32{r1, g1, b1, a1}, [4]uint32{r2, g2, b2, a2}, "pixel %d,%d", x, y) {
				return
			}
		}
	}
}

func TestExportSharedFrames(t *testing.T) {
	dir := t.TempDir()
	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, map[string][]byte{
		"TR1_10a.bin": animData(t, 0, 1, 2),
		"TR1_20a.bin": animData(t, 3, 4),
	})

	// TR1_20a.bin comes after TR1_10a.bin in the archive
	want := []int{3, 4, 2}

	out := filepath.Join(dir, "frames")
	tool := New(log.New(io.Discard, "", 0), 8)
	for i := 0; i < 5; i++ {
		require.NoError(t, tool.Export(tileset, out))

		entries, err := os.ReadDir(out)
		require.NoError(t, err)
		assert.Len(t, entries, len(want)+1)

		for n, seed := range want {
			m := readPNG(t, filepath.Join(out, fmt.Sprintf("00_10_%02d.png", n)))
			assertSameImage(t, testTile(seed), m)
		}
	}
}

func TestExportTrailingBytes(t *testing.T) {
	dir := t.TempDir()
	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, map[string][]byte{
		"AB_0FF.bin": append(animData(t, 0), 1, 2, 3),
	})

	out := filepath.Join(dir, "frames")
	require.NoError(t, newTestTool().Export(tileset, out))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"15_15_00.png", InfoFilename}, names)

	info, err := ReadInfo(filepath.Join(out, InfoFilename))
	require.NoError(t, err)
	assert.Equal(t, Info{Prefix: "AB", Upper: true}, info)
}

func TestExportClearsDirectory(t *testing.T) {
	dir := t.TempDir()
	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, map[string][]byte{"TR1_100.bin": animData(t, 0)})

	out := filepath.Join(dir, "frames")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "stale.png"), nil, 0o644))

	require.NoError(t, newTestTool().Export(tileset, out))

	_, err := os.Stat(filepath.Join(out, "stale.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(out, "00_00_00.png"))
	assert.NoError(t, err)
}

func TestExportNoAnimations(t *testing.T) {
	dir := t.TempDir()
	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, map[string][]byte{"Pa1_x_tex.bin": nil})

	err := newTestTool().Export(tileset, "")
	assert.ErrorIs(t, err, ErrNoAnimations)

	writeTileset(t, tileset, nil)
	err = newTestTool().Export(tileset, "")
	assert.ErrorIs(t, err, ErrNoAnimations)
}

func TestExportBadArchive(t *testing.T) {
	dir := t.TempDir()
	tileset := filepath.Join(dir, "Pa1_x.arc")
	require.NoError(t, os.WriteFile(tileset, []byte("not an archive"), 0o644))

	err := newTestTool().Export(tileset, "")
	assert.ErrorIs(t, err, u8.ErrFormat)
}

func TestImportReplace(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	writeFrames(t, frames, Info{Prefix: "TR1", Upper: true}, map[string]image.Image{
		"03_04_00.png": testTile(0),
		"03_04_01.png": testTile(1),
		"03_04_03.png": testTile(3),
		"05_05_01.png": testTile(5),
	})

	tests := []struct {
		name  string
		add   bool
		names []string
	}{
		{name: "replace", add: false, names: []string{"Pa2_x_tex.bin", "TR1_234.bin"}},
		{name: "add", add: true, names: []string{"Pa2_x_tex.bin", "TR1_234.bin", "TR1_2FF.bin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tileset := filepath.Join(t.TempDir(), "Pa2_x.arc")
			writeTileset(t, tileset, map[string][]byte{
				"TR1_2FF.bin":   animData(t, 9),
				"Pa2_x_tex.bin": []byte("texture"),
			})

			require.NoError(t, newTestTool().Import(tileset, frames, ImportOptions{Add: tt.add}))

			tex := readTex(t, tileset)
			assert.ElementsMatch(t, tt.names, texNames(tex))

			f, ok := tex.File("TR1_234.bin")
			require.True(t, ok)
			assert.Equal(t, animData(t, 0, 1), f.Data)
		})
	}
}

func TestImportOverrides(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	writeFrames(t, frames, Info{Prefix: "TR1", Upper: true}, map[string]image.Image{
		"03_10_00.png": testTile(0),
	})

	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, map[string][]byte{})

	pa := 0
	require.NoError(t, newTestTool().Import(tileset, frames, ImportOptions{
		Prefix: "ZZ",
		Case:   CaseLower,
		Pa:     &pa,
	}))

	assert.Equal(t, []string{"ZZ_03a.bin"}, texNames(readTex(t, tileset)))
}

func TestImportCreatesTexDirectory(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	writeFrames(t, frames, Info{Prefix: "TR1", Upper: true}, map[string]image.Image{
		"00_00_00.png": testTile(0),
	})

	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, nil)

	require.NoError(t, newTestTool().Import(tileset, frames, ImportOptions{}))
	assert.Equal(t, []string{"TR1_100.bin"}, texNames(readTex(t, tileset)))
}

func TestImportFrameOptions(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	tile := testTile(4)
	big := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			big.SetNRGBA(x, y, tile.NRGBAAt(x/2, y/2))
		}
	}
	writeFrames(t, frames, Info{Prefix: "TR1", Upper: true}, map[string]image.Image{
		"00_00_00.png": big,
	})

	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, nil)

	err := newTestTool().Import(tileset, frames, ImportOptions{})
	assert.ErrorIs(t, err, ErrFrameSize)

	require.NoError(t, newTestTool().Import(tileset, frames, ImportOptions{Resize: true, MaxColors: 4}))

	f, ok := readTex(t, tileset).File("TR1_100.bin")
	require.True(t, ok)
	assert.Len(t, f.Data, frameBytes)
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	writeFrames(t, frames, Info{Prefix: "TR1", Upper: true}, nil)

	tileset := filepath.Join(dir, "Pa1_x.arc")
	writeTileset(t, tileset, nil)

	bad := 4
	tests := []struct {
		name string
		opts ImportOptions
	}{
		{name: "case", opts: ImportOptions{Case: "title"}},
		{name: "pa", opts: ImportOptions{Pa: &bad}},
		{name: "colors", opts: ImportOptions{MaxColors: 1}},
	}
	for _, tt := range tests {
		err := newTestTool().Import(tileset, frames, tt.opts)
		assert.ErrorIs(t, err, ErrOption, tt.name)
	}

	require.NoError(t, os.WriteFile(filepath.Join(frames, InfoFilename), []byte("TR1"), 0o644))
	err := newTestTool().Import(tileset, frames, ImportOptions{})
	assert.ErrorIs(t, err, ErrInfo)

	require.NoError(t, WriteInfo(filepath.Join(frames, InfoFilename), Info{Prefix: "TR1", Upper: true}))
	writePNG(t, filepath.Join(frames, "20_00_00.png"), testTile(0))
	err = newTestTool().Import(tileset, frames, ImportOptions{})
	assert.ErrorIs(t, err, ErrFrameName)

	err = newTestTool().Import(filepath.Join(dir, "missing.arc"), frames, ImportOptions{})
	assert.True(t, os.IsNotExist(err))
}

func TestReadInfo(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, InfoFilename)

	tests := []struct {
		content string
		want    Info
	}{
		{content: "TR1\nuppercase", want: Info{Prefix: "TR1", Upper: true}},
		{content: "TR1\nlowercase\n", want: Info{Prefix: "TR1", Upper: false}},
		{content: "TR1\r\nLowercase\r\n", want: Info{Prefix: "TR1", Upper: false}},
		{content: "TR1\nwhatever", want: Info{Prefix: "TR1", Upper: true}},
	}
	for _, tt := range tests {
		require.NoError(t, os.WriteFile(file, []byte(tt.content), 0o644))
		got, err := ReadInfo(file)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q", tt.content)
	}
}

func TestPackUnpackList(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "BG_tex"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "BG_tex", "TR1_100.bin"), []byte("anim"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.bin"), []byte("top"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".DS_Store"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("junk"), 0o644))

	tool := newTestTool()
	archive := filepath.Join(dir, "test.arc")
	require.NoError(t, tool.Pack(src, archive))

	var out bytes.Buffer
	require.NoError(t, tool.List(archive, &out))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, fmt.Sprintf("%10s  %16s  BG_tex/", "", ""), lines[0])
	assert.Contains(t, lines[1], fmt.Sprintf("%016x  BG_tex/TR1_100.bin", xxhash.Sum64String("anim")))
	assert.Contains(t, lines[2], "top.bin")

	dst := filepath.Join(dir, "dst")
	require.NoError(t, tool.Unpack(archive, dst))

	b, err := os.ReadFile(filepath.Join(dst, "BG_tex", "TR1_100.bin"))
	require.NoError(t, err)
	assert.Equal(t, "anim", string(b))

	b, err = os.ReadFile(filepath.Join(dst, "top.bin"))
	require.NoError(t, err)
	assert.Equal(t, "top", string(b))

	_, err = os.Stat(filepath.Join(dst, ".DS_Store"))
	assert.True(t, os.IsNotExist(err))
}

func TestUnpackUnsafe(t *testing.T) {
	dir := t.TempDir()

	root := u8.NewDirectory("")
	root.Set(u8.NewFile("..", []byte("escape")))
	archive := filepath.Join(dir, "bad.arc")
	require.NoError(t, saveArchive(archive, root))

	err := newTestTool().Unpack(archive, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrUnsafePath)
}
