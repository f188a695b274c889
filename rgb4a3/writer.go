package rgb4a3

import (
	"image"
	"image/color"
	"io"
)

type encoder struct {
	w io.Writer

	cache map[color.NRGBA]Word
}

func (e *encoder) quantize(c color.NRGBA) Word {
	if w, ok := e.cache[c]; ok {
		return w
	}
	w := Quantize(c)
	e.cache[c] = w
	return w
}

func (e *encoder) encode(m image.Image) error {
	b := m.Bounds()
	width, height := b.Dx(), b.Dy()

	nm, _ := m.(*image.NRGBA)
	at := func(x, y int) color.NRGBA {
		if nm != nil {
			return nm.NRGBAAt(b.Min.X+x, b.Min.Y+y)
		}
		return color.NRGBAModel.Convert(m.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
	}

	buf := make([]byte, 0, EncodedLen(width, height))
	for ty := 0; ty < height; ty += blockHeight {
		for tx := 0; tx < width; tx += blockWidth {
			for y := ty; y < ty+blockHeight; y++ {
				for x := tx; x < tx+blockWidth; x++ {
					// Partial blocks at the right and bottom edges only
					// store the pixels inside the image
					if x >= width || y >= height {
						continue
					}
					w := e.quantize(at(x, y))
					buf = append(buf, byte(w>>8), byte(w))
				}
			}
		}
	}

	_, err := e.w.Write(buf)
	return err
}

// Encode writes the Image m to w in RGB4A3 format. Colors with an alpha of
// 238 or more are stored as opaque RGB555.
func Encode(w io.Writer, m image.Image) error {
	e := encoder{
		w:     w,
		cache: make(map[color.NRGBA]Word),
	}
	return e.encode(m)
}
