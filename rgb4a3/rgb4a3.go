/*
Package rgb4a3 implements a decoder and encoder for the RGB4A3 texture format
used by Wii games.

Every pixel is stored as a big-endian 16-bit word. If the top bit is set the
remaining bits hold an opaque RGB555 color, otherwise they hold a 3-bit alpha
followed by 4 bits each of red, green and blue:

	1rrrrrgggggbbbbb
	0aaarrrrggggbbbb

Pixels are stored in 4 by 4 blocks, left to right and top to bottom, with the
pixels in each block also stored left to right and top to bottom.
*/
package rgb4a3

import "image/color"

const (
	blockWidth  = 4
	blockHeight = blockWidth

	opaqueBit = 0x8000

	// Colors with less alpha than this are stored as RGB4A3.
	opaqueThreshold = 238
)

// Word is a single packed pixel.
type Word uint16

var (
	alphaTable  = makeTable(true)
	opaqueTable = makeTable(false)
)

func expand5(c uint16) uint8 {
	return uint8(c<<3 | c>>2)
}

func makeTable(alpha bool) *[0x10000]color.NRGBA {
	t := new([0x10000]color.NRGBA)
	for i := range t {
		w := uint16(i)
		if w&opaqueBit != 0 {
			t[i] = color.NRGBA{
				R: expand5(w >> 10 & 0x1f),
				G: expand5(w >> 5 & 0x1f),
				B: expand5(w & 0x1f),
				A: 0xff,
			}
			continue
		}

		a := uint8(0xff)
		if alpha {
			a = uint8(w >> 12 & 0x07)
			a = a<<5 | a<<2 | a>>1
		}
		t[i] = color.NRGBA{
			R: uint8(w>>8&0x0f) * 17,
			G: uint8(w>>4&0x0f) * 17,
			B: uint8(w&0x0f) * 17,
			A: a,
		}
	}
	return t
}

// Color returns the color w decodes to. If alpha is false the alpha channel
// of RGB4A3 words is ignored and the color is fully opaque.
func (w Word) Color(alpha bool) color.NRGBA {
	if alpha {
		return alphaTable[w]
	}
	return opaqueTable[w]
}

// RGBA implements the color.Color interface.
func (w Word) RGBA() (r, g, b, a uint32) {
	return alphaTable[w].RGBA()
}

// Quantize returns the word that best represents c.
func Quantize(c color.NRGBA) Word {
	r, g, b, a := uint16(c.R), uint16(c.G), uint16(c.B), uint16(c.A)

	if a < opaqueThreshold {
		a = (a + 18) * 2 / 73
		r = (r + 8) / 17
		g = (g + 8) / 17
		b = (b + 8) / 17
		return Word(b | g<<4 | r<<8 | a<<12)
	}

	r = (r + 4) * 4 / 33
	g = (g + 4) * 4 / 33
	b = (b + 4) * 4 / 33
	return Word(b | g<<5 | r<<10 | opaqueBit)
}

// Model converts any color to the closest color that survives an encode and
// decode round trip.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	return Quantize(color.NRGBAModel.Convert(c).(color.NRGBA)).Color(true)
})

// EncodedLen returns the number of bytes needed to encode an image of the
// given dimensions. It does not check for overflow.
func EncodedLen(width, height int) int {
	return width * height * 2
}
