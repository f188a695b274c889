package tilesetanim

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/nsmbw/tilesetanim/rgb4a3"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func clampInt(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Clamp places a 24 by 24 tile in the middle of a 32 by 32 frame and fills
// the 4 pixel border by repeating the nearest edge pixel of the tile.
func Clamp(tile image.Image) (*image.NRGBA, error) {
	b := tile.Bounds()
	if b.Dx() != frameInner || b.Dy() != frameInner {
		return nil, fmt.Errorf("%w: %dx%d, expected %dx%d", ErrFrameSize, b.Dx(), b.Dy(), frameInner, frameInner)
	}

	const lo, hi = frameInset, frameInset + frameInner - 1

	m := image.NewNRGBA(image.Rect(0, 0, frameSize, frameSize))
	for y := 0; y < frameSize; y++ {
		for x := 0; x < frameSize; x++ {
			sx, sy := clampInt(x, lo, hi)-frameInset, clampInt(y, lo, hi)-frameInset
			m.SetNRGBA(x, y, color.NRGBAModel.Convert(tile.At(b.Min.X+sx, b.Min.Y+sy)).(color.NRGBA))
		}
	}
	return m, nil
}

// decodeFrame decodes one 32 by 32 frame and returns its visible 24 by 24
// interior.
func decodeFrame(b []byte) (image.Image, error) {
	m, err := rgb4a3.Decode(bytes.NewReader(b), frameSize, frameSize, true)
	if err != nil {
		return nil, err
	}
	return m.SubImage(image.Rect(frameInset, frameInset, frameInset+frameInner, frameInset+frameInner)), nil
}

// reduceColors maps m onto a palette of at most n colors chosen by median cut.
func reduceColors(m image.Image, n int) image.Image {
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{AddTransparent: true}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, n), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// resize scales m to a 24 by 24 tile.
func resize(m image.Image) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, frameInner, frameInner))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, m.Bounds(), draw.Src, nil)
	return dst
}

type encodeOptions struct {
	maxColors int
	resize    bool
}

// encodeFrame reads a frame image and returns it as 32 by 32 RGB4A3 data.
func encodeFrame(file string, opts encodeOptions) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	if opts.resize && (m.Bounds().Dx() != frameInner || m.Bounds().Dy() != frameInner) {
		m = resize(m)
	}
	if opts.maxColors > 0 {
		m = reduceColors(m, opts.maxColors)
	}

	frame, err := Clamp(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	b := new(bytes.Buffer)
	if err := rgb4a3.Encode(b, frame); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// writeFrame writes a decoded frame as a PNG file.
func writeFrame(file string, data []byte) error {
	m, err := decodeFrame(data)
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, m); err != nil {
		return err
	}
	return f.Close()
}
