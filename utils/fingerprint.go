// Package utils holds the FNV-1a fingerprints used as cache keys.
package utils

import (
	"hash"
	"hash/fnv"
)

func U64ToBytes(u uint64) []byte {
	return []byte{
		byte(u >> 56), byte(u >> 48), byte(u >> 40), byte(u >> 32),
		byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u),
	}
}

func FingerprintString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// Mix64 combines two fingerprints. The result depends on argument order.
func Mix64(a, b uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(U64ToBytes(a))
	_, _ = h.Write(U64ToBytes(b))
	return h.Sum64()
}

// Hasher accumulates a fingerprint from tagged parts. Each string part is length
// prefixed so ("ab","c") and ("a","bc") hash differently.
type Hasher struct {
	h hash.Hash64
}

func NewHasher(tag string) *Hasher {
	h := &Hasher{h: fnv.New64a()}
	return h.String(tag)
}

func (h *Hasher) String(s string) *Hasher {
	_, _ = h.h.Write(U64ToBytes(uint64(len(s))))
	_, _ = h.h.Write([]byte(s))
	return h
}

func (h *Hasher) Strings(ss []string) *Hasher {
	_, _ = h.h.Write(U64ToBytes(uint64(len(ss))))
	for _, s := range ss {
		h.String(s)
	}
	return h
}

func (h *Hasher) U64(u uint64) *Hasher {
	_, _ = h.h.Write(U64ToBytes(u))
	return h
}

func (h *Hasher) Bool(b bool) *Hasher {
	if b {
		_, _ = h.h.Write([]byte{1})
	} else {
		_, _ = h.h.Write([]byte{0})
	}
	return h
}

func (h *Hasher) Sum() uint64 { return h.h.Sum64() }
