package vkframe

import (
	"cmp"
	"encoding/binary"
)

const nul = "\x00"

// safeString terminates s for the C side of the bindings.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + nul
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// sliceUint32 reinterprets SPIR-V bytes as little-endian words. Embedded data
// carries no alignment guarantee so the words are copied out.
func sliceUint32(data []byte) []uint32 {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words
}

func clamp[T cmp.Ordered](val, lo, hi T) T {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// distinct returns values in first-seen order without repeats.
func distinct[T comparable](values ...T) []T {
	out := make([]T, 0, len(values))
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
