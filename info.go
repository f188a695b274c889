package tilesetanim

import (
	"fmt"
	"os"
	"strings"
)

// InfoFilename is the name of the file storing the animation filename
// convention alongside exported frames.
const InfoFilename = "info.txt"

const (
	caseUpper = "uppercase"
	caseLower = "lowercase"
)

// Info records how a tileset names its animation files.
type Info struct {
	Prefix string
	Upper  bool
}

func (i Info) String() string {
	c := caseLower
	if i.Upper {
		c = caseUpper
	}
	return i.Prefix + "\n" + c
}

// ReadInfo reads an info file. The case line is upper case unless it says
// otherwise.
func ReadInfo(file string) (Info, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return Info{}, err
	}

	lines := strings.Split(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return Info{}, fmt.Errorf("%w: %s: expected prefix and case lines", ErrInfo, file)
	}

	return Info{
		Prefix: lines[0],
		Upper:  strings.ToLower(strings.TrimSpace(lines[1])) != caseLower,
	}, nil
}

// WriteInfo writes an info file.
func WriteInfo(file string, info Info) error {
	return os.WriteFile(file, []byte(info.String()), 0o644)
}
