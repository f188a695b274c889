/*
Package u8 implements a reader and writer for the U8 archive format used by
Nintendo Wii games to bundle files and directories into a single blob.

An archive starts with a 32 byte header holding the magic bytes 55 AA 38 2D
followed by three big-endian 32-bit values: the offset of the root node
(always 0x20), the size of the node and string tables, and the offset of the
data table. The node table is a flat list of 12 byte records written in
depth-first order, followed by a table of null-terminated names. File data
follows, each entry aligned to 32 bytes.

Directory entries are always written sorted case-insensitively by name, which
is the order the console expects.
*/
package u8

const (
	// Magic is the byte string prefix of every U8 archive.
	Magic = "\x55\xaa\x38\x2d"

	headerSize = 0x20
	rootOffset = headerSize
	recordSize = 12
	alignment  = 0x20

	typeFile      = 0
	typeDirectory = 1

	maxNameOffset = 1<<24 - 1
)

func align(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}
