package u8

import (
	"sort"
	"strings"
)

// Node is an entry in an archive, either a *File or a *Directory.
type Node interface {
	Name() string
	node()
}

// File is a named blob of bytes.
type File struct {
	name string
	Data []byte
}

// NewFile returns a file entry with the given name and contents.
func NewFile(name string, data []byte) *File {
	return &File{name: name, Data: data}
}

// Name returns the name of the file.
func (f *File) Name() string { return f.name }

func (*File) node() {}

// Directory is a named collection of uniquely named entries. Entries keep the
// order they were added in; the archive writer sorts them itself.
type Directory struct {
	name    string
	entries []Node
	index   map[string]int
}

// NewDirectory returns an empty directory with the given name. The root of an
// archive is a directory with an empty name.
func NewDirectory(name string) *Directory {
	return &Directory{name: name}
}

// Name returns the name of the directory.
func (d *Directory) Name() string { return d.name }

func (*Directory) node() {}

// Len returns the number of direct children.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Entries returns the direct children in insertion order.
func (d *Directory) Entries() []Node {
	return append([]Node(nil), d.entries...)
}

// Set adds n to the directory. An existing entry with the same name is
// replaced in place.
func (d *Directory) Set(n Node) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[n.Name()]; ok {
		d.entries[i] = n
		return
	}
	d.index[n.Name()] = len(d.entries)
	d.entries = append(d.entries, n)
}

// Get returns the direct child with the given name.
func (d *Directory) Get(name string) (Node, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.entries[i], true
}

// File returns the direct child with the given name if it is a file.
func (d *Directory) File(name string) (*File, bool) {
	n, _ := d.Get(name)
	f, ok := n.(*File)
	return f, ok
}

// Directory returns the direct child with the given name if it is a
// directory.
func (d *Directory) Directory(name string) (*Directory, bool) {
	n, _ := d.Get(name)
	sub, ok := n.(*Directory)
	return sub, ok
}

// Remove deletes the direct child with the given name, reporting whether it
// existed.
func (d *Directory) Remove(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, name)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Name()] = j
	}
	return true
}

// Lookup resolves a slash separated path relative to d.
func (d *Directory) Lookup(path string) (Node, bool) {
	var n Node = d
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		dir, ok := n.(*Directory)
		if !ok {
			return nil, false
		}
		if n, ok = dir.Get(part); !ok {
			return nil, false
		}
	}
	return n, true
}

// WalkFunc is called by Walk for every entry below the starting directory.
// path is the slash separated path of the entry relative to that directory.
type WalkFunc func(path string, n Node) error

// Walk visits every entry below d depth-first, in the same order the entries
// are written to an archive. It stops at the first error returned by fn.
func (d *Directory) Walk(fn WalkFunc) error {
	return d.walk("", fn)
}

func (d *Directory) walk(prefix string, fn WalkFunc) error {
	for _, n := range d.sorted() {
		path := prefix + n.Name()
		if err := fn(path, n); err != nil {
			return err
		}
		if sub, ok := n.(*Directory); ok {
			if err := sub.walk(path+"/", fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// sorted returns the children ordered case-insensitively by name, falling
// back to the raw bytes for names that only differ in case.
func (d *Directory) sorted() []Node {
	nodes := d.Entries()
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Name(), nodes[j].Name()
		la, lb := foldName(a), foldName(b)
		if la != lb {
			return la < lb
		}
		return a < b
	})
	return nodes
}

// foldName lower-cases a name treating each byte as a Latin-1 character.
// Names are stored byte-for-byte so no UTF-8 interpretation applies.
func foldName(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'A' && c <= 'Z':
			b[i] = c + 0x20
		case c >= 0xc0 && c <= 0xde && c != 0xd7:
			b[i] = c + 0x20
		}
	}
	return string(b)
}
