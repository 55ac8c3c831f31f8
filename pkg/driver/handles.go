package driver

import (
	"bufio"
	"io"

	"pscript/pkg/extern"
)

// RuntimeHandles are the per-execution handles passed alongside a Script:
// input/output/error sinks, the extern library chain, and the ordered
// module search roots (spec §6.2).
type RuntimeHandles struct {
	In          *bufio.Reader
	Out         io.Writer
	Err         io.Writer
	Externs     *extern.Library
	ModuleRoots []string
}

// DefaultModuleRoots is the search path used when a manifest does not
// override it (spec §6.1: "default includes pscript-modules/").
var DefaultModuleRoots = []string{"pscript-modules/"}

// NewRuntimeHandles builds handles with the default module search roots and
// no extern bridge configured.
func NewRuntimeHandles(in io.Reader, out, errOut io.Writer) *RuntimeHandles {
	return &RuntimeHandles{
		In:          bufio.NewReader(in),
		Out:         out,
		Err:         errOut,
		ModuleRoots: append([]string(nil), DefaultModuleRoots...),
	}
}

// ReadLine reads one line from the input sink, stripping the trailing
// newline, for the __readln built-in (spec §4.3.4).
func (h *RuntimeHandles) ReadLine() (string, error) {
	line, err := h.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}
