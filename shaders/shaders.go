// Package shaders embeds the SPIR-V for the fixed triangle pipeline.
//
// The blobs are triangle.vert and triangle.frag compiled by hand into the
// instruction listings of listing_test.go. go generate rewrites them from the
// listings and the test fails when they drift. Nothing is read from disk at
// runtime.
package shaders

//go:generate go test -run TestListingsMatchEmbedded -update

import (
	"embed"
	"encoding/binary"

	"github.com/pkg/errors"
)

//go:embed vert.spv frag.spv
var FS embed.FS

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

// ErrMalformed is returned for bytecode that cannot be a SPIR-V module.
var ErrMalformed = errors.New("shaders: malformed SPIR-V")

const headerWords = 5

// Validate checks the size, word alignment and magic number of code.
func Validate(code []byte) error {
	if len(code) < headerWords*4 {
		return errors.Wrapf(ErrMalformed, "%d bytes is shorter than the header", len(code))
	}
	if len(code)%4 != 0 {
		return errors.Wrapf(ErrMalformed, "%d bytes is not a whole number of words", len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != Magic {
		return errors.Wrapf(ErrMalformed, "bad magic 0x%08x", magic)
	}
	return nil
}

// Vertex returns the vertex stage bytecode.
func Vertex() ([]byte, error) {
	return load("vert.spv")
}

// Fragment returns the fragment stage bytecode.
func Fragment() ([]byte, error) {
	return load("frag.spv")
}

func load(name string) ([]byte, error) {
	code, err := FS.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "shaders: read %s", name)
	}
	if err := Validate(code); err != nil {
		return nil, errors.Wrap(err, name)
	}
	return code, nil
}
