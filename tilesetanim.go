/*
Package tilesetanim is a library for exporting and importing the tile
animations stored in Newer Super Mario Bros. Wii tilesets.

A tileset is a U8 archive. Animations live in its BG_tex directory as files
named like "TR1_10a.bin", where the last three hex digits are the animated
tile number. Each file is a sequence of 32 by 32 RGB4A3 frames; only the
inner 24 by 24 pixels are visible, the 4 pixel border around them repeats the
edge pixels so the console can filter the texture without seams.
*/
package tilesetanim

import (
	"errors"
	"log"
)

const defaultWorkers = 10

var (
	// ErrNoAnimations indicates the tileset has no animation files.
	ErrNoAnimations = errors.New("no animations found in tileset")
	// ErrFrameSize indicates a frame image has the wrong dimensions.
	ErrFrameSize = errors.New("frame is the wrong size")
	// ErrFrameName indicates a frame filename is out of range.
	ErrFrameName = errors.New("invalid frame filename")
	// ErrInfo indicates the info.txt file is malformed.
	ErrInfo = errors.New("invalid info file")
	// ErrOption indicates an invalid import option.
	ErrOption = errors.New("invalid option")
	// ErrUnsafePath indicates an archive entry name that cannot be written
	// to the filesystem safely.
	ErrUnsafePath = errors.New("unsafe path in archive")
)

// Tool exports and imports tileset animations.
type Tool struct {
	logger  *log.Logger
	workers int
}

// New returns a Tool that logs progress to logger and decodes or encodes
// frames with the given number of workers. A workers value below one selects
// the default.
func New(logger *log.Logger, workers int) *Tool {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Tool{
		logger:  logger,
		workers: workers,
	}
}
