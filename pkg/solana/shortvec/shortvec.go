// Package shortvec implements the compact-u16 length prefix used throughout
// the transaction wire format: 7 bits per byte, least significant group
// first, with the high bit set on every byte but the last.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxEncodedLen is the size of the longest encoding, that of math.MaxUint16.
const MaxEncodedLen = 3

var (
	ErrOverflow     = errors.New("shortvec: length out of u16 range")
	ErrNonCanonical = errors.New("shortvec: non-canonical encoding")
)

// AppendLen appends the encoding of length to dst.
func AppendLen(dst []byte, length int) ([]byte, error) {
	if length < 0 || length > math.MaxUint16 {
		return dst, errors.Wrapf(ErrOverflow, "%d", length)
	}

	for length >= 0x80 {
		dst = append(dst, byte(length)|0x80)
		length >>= 7
	}
	return append(dst, byte(length)), nil
}

// EncodeLen writes the encoding of length to w and returns the number of
// bytes written.
func EncodeLen(w io.Writer, length int) (int, error) {
	encoded, err := AppendLen(make([]byte, 0, MaxEncodedLen), length)
	if err != nil {
		return 0, err
	}
	return w.Write(encoded)
}

// DecodeLen reads one encoded length from r. It returns io.EOF when r is
// empty and io.ErrUnexpectedEOF when r ends inside an encoding.
func DecodeLen(r io.Reader) (int, error) {
	var (
		length int
		b      [1]byte
	)

	for i := 0; i < MaxEncodedLen; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			if i > 0 && err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}

		// A trailing zero group could have been omitted.
		if i > 0 && b[0] == 0 {
			return 0, ErrNonCanonical
		}

		length |= int(b[0]&0x7f) << (7 * i)
		if b[0]&0x80 == 0 {
			if length > math.MaxUint16 {
				return 0, errors.Wrapf(ErrOverflow, "%d", length)
			}
			return length, nil
		}
	}

	return 0, errors.Wrapf(ErrOverflow, "continuation past %d bytes", MaxEncodedLen)
}
