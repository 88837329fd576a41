// Package binary contains little-endian helpers for laying out instruction
// and account data. Every helper advances offset by the number of bytes it
// consumed or produced.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst, src)
	*offset += ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

// PutString writes a string the way the system program's bincode layout
// expects it: a u64 length followed by the raw bytes.
func PutString(dst []byte, v string, offset *int) {
	binary.LittleEndian.PutUint64(dst, uint64(len(v)))
	copy(dst[8:], v)
	*offset += 8 + len(v)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

// GetString reads a u64 length prefixed string. ok is false when src is too
// short to hold the declared length.
func GetString(src []byte, dst *string, offset *int) (ok bool) {
	if len(src) < 8 {
		return false
	}

	length := binary.LittleEndian.Uint64(src)
	if uint64(len(src)-8) < length {
		return false
	}

	*dst = string(src[8 : 8+length])
	*offset += 8 + int(length)
	return true
}
