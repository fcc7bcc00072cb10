package shaders

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedStages(t *testing.T) {
	vert, err := Vertex()
	require.NoError(t, err)
	frag, err := Fragment()
	require.NoError(t, err)

	for _, code := range [][]byte{vert, frag} {
		assert.Zero(t, len(code)%4)
		assert.Equal(t, Magic, binary.LittleEndian.Uint32(code))
		// bound is the fourth header word and must be non-zero
		assert.NotZero(t, binary.LittleEndian.Uint32(code[12:]))
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	header := make([]byte, 20)
	binary.LittleEndian.PutUint32(header, Magic)
	require.NoError(t, Validate(header))

	cases := map[string][]byte{
		"empty":     nil,
		"short":     header[:8],
		"unaligned": append(append([]byte{}, header...), 0x01),
		"magic":     make([]byte, 20),
	}
	for name, code := range cases {
		err := Validate(code)
		assert.True(t, errors.Is(err, ErrMalformed), name)
	}
}
