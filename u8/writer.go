package u8

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// record is one entry of the node table before its final layout is known.
type record interface {
	put(b []byte, dataTable uint32)
}

type fileRecord struct {
	name   uint32
	offset uint32 // relative to the data table
	size   uint32
}

func (r fileRecord) put(b []byte, dataTable uint32) {
	putRecord(b, typeFile, r.name, dataTable+r.offset, r.size)
}

type directoryRecord struct {
	name  uint32
	depth int // -1 for the root
	end   uint32
}

func (r directoryRecord) put(b []byte, _ uint32) {
	var depth uint32
	if r.depth > 0 {
		depth = uint32(r.depth)
	}
	putRecord(b, typeDirectory, r.name, depth, r.end)
}

func putRecord(b []byte, kind byte, name, a, c uint32) {
	b[0] = kind
	b[1] = byte(name >> 16)
	b[2] = byte(name >> 8)
	b[3] = byte(name)
	binary.BigEndian.PutUint32(b[4:], a)
	binary.BigEndian.PutUint32(b[8:], c)
}

type encoder struct {
	records []record
	strings []byte
	data    []byte
}

func (e *encoder) addName(name string) (uint32, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return 0, fmt.Errorf("%w: name %q contains a null byte", ErrFormat, name)
	}
	offset := len(e.strings)
	if offset > maxNameOffset {
		return 0, fmt.Errorf("%w: string table exceeds 0x%x bytes", ErrTooLarge, maxNameOffset)
	}
	e.strings = append(e.strings, name...)
	e.strings = append(e.strings, 0)
	return uint32(offset), nil
}

func (e *encoder) addFile(f *File) error {
	name, err := e.addName(f.Name())
	if err != nil {
		return err
	}

	offset := align(len(e.data))
	if uint64(offset)+uint64(len(f.Data)) > math.MaxUint32 {
		return fmt.Errorf("%w: file %q does not fit", ErrTooLarge, f.Name())
	}
	e.data = append(e.data, make([]byte, offset-len(e.data))...)
	e.data = append(e.data, f.Data...)

	e.records = append(e.records, fileRecord{
		name:   name,
		offset: uint32(offset),
		size:   uint32(len(f.Data)),
	})
	return nil
}

func (e *encoder) addDirectory(d *Directory, name string, depth int) error {
	nameOffset, err := e.addName(name)
	if err != nil {
		return err
	}

	i := len(e.records)
	e.records = append(e.records, nil)

	for _, n := range d.sorted() {
		switch n := n.(type) {
		case *File:
			err = e.addFile(n)
		case *Directory:
			err = e.addDirectory(n, n.Name(), depth+1)
		default:
			err = fmt.Errorf("%w: unsupported node %T", ErrFormat, n)
		}
		if err != nil {
			return err
		}
	}

	e.records[i] = directoryRecord{
		name:  nameOffset,
		depth: depth,
		end:   uint32(len(e.records)),
	}
	return nil
}

func (e *encoder) encode(root *Directory) ([]byte, error) {
	if err := e.addDirectory(root, "", -1); err != nil {
		return nil, err
	}

	tables := len(e.records)*recordSize + len(e.strings)
	dataTable := align(headerSize + tables)
	if uint64(dataTable)+uint64(len(e.data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes of file data", ErrTooLarge, len(e.data))
	}

	b := make([]byte, dataTable+len(e.data))

	copy(b, Magic)
	binary.BigEndian.PutUint32(b[4:], rootOffset)
	binary.BigEndian.PutUint32(b[8:], uint32(tables))
	binary.BigEndian.PutUint32(b[12:], uint32(dataTable))

	for i, r := range e.records {
		offset := rootOffset + i*recordSize
		r.put(b[offset:offset+recordSize], uint32(dataTable))
	}
	copy(b[rootOffset+len(e.records)*recordSize:], e.strings)
	copy(b[dataTable:], e.data)

	return b, nil
}

// Save serializes the tree rooted at root into a U8 archive. The name of root
// is ignored and written as the empty string.
func Save(root *Directory) ([]byte, error) {
	if root == nil {
		root = NewDirectory("")
	}
	var e encoder
	return e.encode(root)
}

// MarshalBinary encodes d as the root of a U8 archive.
func (d *Directory) MarshalBinary() ([]byte, error) {
	return Save(d)
}
