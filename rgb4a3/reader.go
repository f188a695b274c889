package rgb4a3

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
)

var (
	// ErrDimensions indicates the width or height is not a positive multiple
	// of the 4 pixel block size.
	ErrDimensions = errors.New("rgb4a3: dimensions are not a multiple of the block size")
	// ErrSizeMismatch indicates the amount of texture data does not match
	// the dimensions.
	ErrSizeMismatch = errors.New("rgb4a3: size mismatch")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r io.Reader

	width, height int
	table         *[0x10000]color.NRGBA

	image *image.NRGBA
	tmp   []byte
}

func (d *decoder) readPixels() error {
	d.tmp = make([]byte, EncodedLen(d.width, d.height))
	if err := readFull(d.r, d.tmp); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return fmt.Errorf("%w: not enough data for %dx%d", ErrSizeMismatch, d.width, d.height)
	}

	var one [1]byte
	switch _, err := io.ReadFull(d.r, one[:]); err {
	case io.EOF:
		return nil
	case nil:
		return fmt.Errorf("%w: too much data for %dx%d", ErrSizeMismatch, d.width, d.height)
	default:
		return err
	}
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r

	if d.width <= 0 || d.height <= 0 || d.width%blockWidth != 0 || d.height%blockHeight != 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensions, d.width, d.height)
	}
	// The decoded image needs 4 bytes per pixel
	if d.width > math.MaxInt/4/d.height {
		return fmt.Errorf("%w: %dx%d is too large", ErrDimensions, d.width, d.height)
	}

	if err := d.readPixels(); err != nil {
		return err
	}

	d.image = image.NewNRGBA(image.Rect(0, 0, d.width, d.height))

	i := 0
	for ty := 0; ty < d.height; ty += blockHeight {
		for tx := 0; tx < d.width; tx += blockWidth {
			for y := ty; y < ty+blockHeight; y++ {
				for x := tx; x < tx+blockWidth; x++ {
					w := uint16(d.tmp[i])<<8 | uint16(d.tmp[i+1])
					d.image.SetNRGBA(x, y, d.table[w])
					i += 2
				}
			}
		}
	}

	return nil
}

// Decode reads an RGB4A3 texture of the given dimensions from r, which must
// hold exactly width*height*2 bytes. If alpha is false every pixel is decoded
// as fully opaque.
func Decode(r io.Reader, width, height int, alpha bool) (*image.NRGBA, error) {
	d := decoder{
		width:  width,
		height: height,
		table:  opaqueTable,
	}
	if alpha {
		d.table = alphaTable
	}
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.image, nil
}
