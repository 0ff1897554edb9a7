package exec

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileProgramLoader resolves a binary id to a compiled module's bytes on
// local disk, at <Dir>/<binaryID>.wasm. Downloading from a remote program
// store is an external collaborator (spec.md §1) and out of scope; this is
// the simplest ProgramLoader a deployment can start from.
type FileProgramLoader struct {
	Dir string
}

func (l *FileProgramLoader) Load(binaryID uint32) ([]byte, error) {
	path := filepath.Join(l.Dir, fmt.Sprintf("%d.wasm", binaryID))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoSuchProgram, path, err)
	}
	return data, nil
}
