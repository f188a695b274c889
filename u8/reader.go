package u8

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type decoder struct {
	b []byte

	numNodes    int
	stringTable int
}

// record returns the raw fields of node idx.
func (d *decoder) record(idx int) (kind byte, name string, a, b uint32, err error) {
	if idx >= d.numNodes {
		return 0, "", 0, 0, fmt.Errorf("%w: node %d beyond node count %d", ErrFormat, idx, d.numNodes)
	}
	offset := rootOffset + idx*recordSize
	r := d.b[offset : offset+recordSize]

	kind = r[0]
	nameOffset := int(r[1])<<16 | int(r[2])<<8 | int(r[3])
	a = binary.BigEndian.Uint32(r[4:])
	b = binary.BigEndian.Uint32(r[8:])

	start := d.stringTable + nameOffset
	if start >= len(d.b) {
		return 0, "", 0, 0, fmt.Errorf("%w: node %d name offset 0x%x", ErrSizeMismatch, idx, nameOffset)
	}
	end := bytes.IndexByte(d.b[start:], 0)
	if end < 0 {
		return 0, "", 0, 0, fmt.Errorf("%w: node %d name is not terminated", ErrFormat, idx)
	}
	name = string(d.b[start : start+end])

	return kind, name, a, b, nil
}

// readNode reads the node at idx and everything below it, returning the index
// of the next node to read.
func (d *decoder) readNode(idx int) (Node, int, error) {
	kind, name, a, b, err := d.record(idx)
	if err != nil {
		return nil, 0, err
	}

	switch kind {
	case typeFile:
		offset, size := uint64(a), uint64(b)
		if offset+size > uint64(len(d.b)) {
			return nil, 0, fmt.Errorf("%w: file %q at 0x%x+0x%x exceeds %d bytes", ErrSizeMismatch, name, offset, size, len(d.b))
		}
		data := make([]byte, size)
		copy(data, d.b[offset:offset+size])
		return NewFile(name, data), idx + 1, nil
	case typeDirectory:
		end := int(b)
		if uint64(b) > uint64(d.numNodes) || end <= idx {
			return nil, 0, fmt.Errorf("%w: directory %q ends at node %d", ErrFormat, name, b)
		}
		dir := NewDirectory(name)
		for idx++; idx < end; {
			var n Node
			if n, idx, err = d.readNode(idx); err != nil {
				return nil, 0, err
			}
			dir.Set(n)
		}
		return dir, idx, nil
	default:
		return nil, 0, fmt.Errorf("%w: node %d has unknown type %d", ErrFormat, idx, kind)
	}
}

func (d *decoder) decode(b []byte) (*Directory, error) {
	d.b = b

	if len(b) < len(Magic) || string(b[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	if len(b) < headerSize+recordSize {
		return nil, fmt.Errorf("%w: truncated header", ErrFormat)
	}
	if offset := binary.BigEndian.Uint32(b[4:]); offset != rootOffset {
		return nil, fmt.Errorf("%w: root node offset 0x%x", ErrFormat, offset)
	}

	// The root's subtree end is the total number of nodes
	n := uint64(binary.BigEndian.Uint32(b[rootOffset+8:]))
	if n == 0 || rootOffset+n*recordSize > uint64(len(b)) {
		return nil, fmt.Errorf("%w: %d nodes do not fit in %d bytes", ErrSizeMismatch, n, len(b))
	}
	d.numNodes = int(n)
	d.stringTable = rootOffset + d.numNodes*recordSize

	if b[rootOffset] != typeDirectory {
		return nil, fmt.Errorf("%w: root node is not a directory", ErrFormat)
	}

	root, _, err := d.readNode(0)
	if err != nil {
		return nil, err
	}
	return root.(*Directory), nil
}

// Load parses a U8 archive and returns its root directory. The returned tree
// does not share memory with b.
func Load(b []byte) (*Directory, error) {
	var d decoder
	return d.decode(b)
}

// UnmarshalBinary replaces the contents of d with the archive in b.
func (d *Directory) UnmarshalBinary(b []byte) error {
	root, err := Load(b)
	if err != nil {
		return err
	}
	d.entries, d.index = root.entries, root.index
	return nil
}
