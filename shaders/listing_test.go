package shaders

import (
	"encoding/binary"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "rewrite vert.spv and frag.spv from the listings")

// Opcodes used by the listings, from the SPIR-V unified specification.
const (
	opMemoryModel        = 14
	opEntryPoint         = 15
	opExecutionMode      = 16
	opCapability         = 17
	opTypeVoid           = 19
	opTypeInt            = 21
	opTypeFloat          = 22
	opTypeVector         = 23
	opTypeArray          = 28
	opTypePointer        = 32
	opTypeFunction       = 33
	opConstant           = 43
	opConstantComposite  = 44
	opFunction           = 54
	opFunctionEnd        = 56
	opVariable           = 59
	opLoad               = 61
	opStore              = 62
	opAccessChain        = 65
	opDecorate           = 71
	opCompositeConstruct = 80
	opCompositeExtract   = 81
	opLabel              = 248
	opReturn             = 253
)

type instruction struct {
	op       uint32
	operands []uint32
}

func asm(op uint32, operands ...uint32) instruction {
	return instruction{op: op, operands: operands}
}

// literal encodes a nul-terminated UTF-8 string padded to whole words.
func literal(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

func entryPoint(model, fn uint32, name string, iface ...uint32) instruction {
	operands := append([]uint32{model, fn}, literal(name)...)
	return asm(opEntryPoint, append(operands, iface...)...)
}

// assemble writes a SPIR-V 1.0 module with generator 0 and schema 0.
func assemble(bound uint32, listing []instruction) []byte {
	words := []uint32{Magic, 0x00010000, 0, bound, 0}
	for _, in := range listing {
		words = append(words, uint32(len(in.operands)+1)<<16|in.op)
		words = append(words, in.operands...)
	}
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// The listings are triangle.vert and triangle.frag compiled by hand. Ids
// follow declaration order; gl_Position is a plain BuiltIn output.
const vertexBound = 46

var vertexListing = []instruction{
	asm(opCapability, 1),
	asm(opMemoryModel, 0, 1),
	entryPoint(0, 1, "main", 2, 3, 4),
	asm(opDecorate, 2, 11, 42),
	asm(opDecorate, 3, 11, 0),
	asm(opDecorate, 4, 30, 0),
	asm(opTypeVoid, 5),
	asm(opTypeFunction, 6, 5),
	asm(opTypeFloat, 7, 32),
	asm(opTypeInt, 8, 32, 1),
	asm(opTypeInt, 9, 32, 0),
	asm(opTypeVector, 10, 7, 2),
	asm(opTypeVector, 11, 7, 3),
	asm(opTypeVector, 12, 7, 4),
	asm(opConstant, 9, 13, 3),
	asm(opTypeArray, 14, 10, 13),
	asm(opTypeArray, 15, 11, 13),
	asm(opTypePointer, 16, 6, 14),
	asm(opTypePointer, 17, 6, 15),
	asm(opTypePointer, 18, 6, 10),
	asm(opTypePointer, 19, 6, 11),
	asm(opTypePointer, 20, 1, 8),
	asm(opTypePointer, 21, 3, 12),
	asm(opTypePointer, 22, 3, 11),
	asm(opConstant, 7, 23, 0),
	asm(opConstant, 7, 24, 0x3f000000),
	asm(opConstant, 7, 25, 0xbf000000),
	asm(opConstant, 7, 26, 0x3f800000),
	asm(opConstantComposite, 10, 27, 23, 25),
	asm(opConstantComposite, 10, 28, 24, 24),
	asm(opConstantComposite, 10, 29, 25, 24),
	asm(opConstantComposite, 14, 30, 27, 28, 29),
	asm(opConstantComposite, 11, 31, 26, 23, 23),
	asm(opConstantComposite, 11, 32, 23, 26, 23),
	asm(opConstantComposite, 11, 33, 23, 23, 26),
	asm(opConstantComposite, 15, 34, 31, 32, 33),
	asm(opVariable, 16, 35, 6, 30),
	asm(opVariable, 17, 36, 6, 34),
	asm(opVariable, 20, 2, 1),
	asm(opVariable, 21, 3, 3),
	asm(opVariable, 22, 4, 3),
	asm(opFunction, 5, 1, 0, 6),
	asm(opLabel, 37),
	asm(opLoad, 8, 38, 2),
	asm(opAccessChain, 18, 39, 35, 38),
	asm(opLoad, 10, 40, 39),
	asm(opCompositeExtract, 7, 41, 40, 0),
	asm(opCompositeExtract, 7, 42, 40, 1),
	asm(opCompositeConstruct, 12, 43, 41, 42, 23, 26),
	asm(opStore, 3, 43),
	asm(opAccessChain, 19, 44, 36, 38),
	asm(opLoad, 11, 45, 44),
	asm(opStore, 4, 45),
	asm(opReturn),
	asm(opFunctionEnd),
}

const fragmentBound = 18

var fragmentListing = []instruction{
	asm(opCapability, 1),
	asm(opMemoryModel, 0, 1),
	entryPoint(4, 1, "main", 2, 3),
	asm(opExecutionMode, 1, 7),
	asm(opDecorate, 2, 30, 0),
	asm(opDecorate, 3, 30, 0),
	asm(opTypeVoid, 4),
	asm(opTypeFunction, 5, 4),
	asm(opTypeFloat, 6, 32),
	asm(opTypeVector, 7, 6, 3),
	asm(opTypeVector, 8, 6, 4),
	asm(opTypePointer, 9, 1, 7),
	asm(opTypePointer, 10, 3, 8),
	asm(opConstant, 6, 11, 0x3f800000),
	asm(opVariable, 9, 2, 1),
	asm(opVariable, 10, 3, 3),
	asm(opFunction, 4, 1, 0, 5),
	asm(opLabel, 12),
	asm(opLoad, 7, 13, 2),
	asm(opCompositeExtract, 6, 14, 13, 0),
	asm(opCompositeExtract, 6, 15, 13, 1),
	asm(opCompositeExtract, 6, 16, 13, 2),
	asm(opCompositeConstruct, 8, 17, 14, 15, 16, 11),
	asm(opStore, 3, 17),
	asm(opReturn),
	asm(opFunctionEnd),
}

func TestListingsMatchEmbedded(t *testing.T) {
	for _, tc := range []struct {
		file  string
		code  []byte
		stage func() ([]byte, error)
	}{
		{file: "vert.spv", code: assemble(vertexBound, vertexListing), stage: Vertex},
		{file: "frag.spv", code: assemble(fragmentBound, fragmentListing), stage: Fragment},
	} {
		t.Run(tc.file, func(t *testing.T) {
			require.NoError(t, Validate(tc.code))
			if *update {
				require.NoError(t, os.WriteFile(tc.file, tc.code, 0o644))
				return
			}
			embedded, err := tc.stage()
			require.NoError(t, err)
			assert.Equal(t, tc.code, embedded, "run go generate to refresh %s", tc.file)
		})
	}
}
