package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// pdaMarker is appended to the hash input of program derived addresses. An
// owner ending with it could be used to forge a PDA through CreateWithSeed.
var pdaMarker = []byte("ProgramDerivedAddress")

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrIllegalOwner          = errors.New("owner cannot end with the program derived address marker")
	ErrInvalidPublicKey      = errors.New("invalid public key")
)

// CreateWithSeed derives an address from a base key, a text seed and an
// owning program, following the Solana SDK's Pubkey::create_with_seed:
//
//	sha256(base || seed || owner)
//
// The result is deterministic and requires no network access. Unlike a
// program derived address, the result may lie on the curve; only the base key
// can authorize creation of an account at it.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L127
func CreateWithSeed(base ed25519.PublicKey, seed string, owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(seed) > MaxSeedLength {
		return nil, ErrMaxSeedLengthExceeded
	}
	if len(base) != ed25519.PublicKeySize || len(owner) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	if bytes.HasSuffix(owner, pdaMarker) {
		return nil, ErrIllegalOwner
	}

	h := sha256.New()
	for _, v := range [][]byte{base, []byte(seed), owner} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	return h.Sum(nil), nil
}

// CreateProgramAddress derives a program address that is guaranteed to be off
// the ed25519 curve, so no private key exists for it. ErrInvalidPublicKey is
// returned when the hash happens to be a valid point.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, pdaMarker} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	var pub [32]byte
	copy(pub[:], h.Sum(nil))

	// The standard library keeps its edwards point decoding internal, so the
	// on-curve check goes through the jdgcs fork.
	var A edwards25519.ExtendedGroupElement
	if A.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump searches bump seeds from 255 downwards and returns
// the first off-curve address together with its bump.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bump := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bump)...)
		if err == nil {
			return pub, bump[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bump[0]--
	}

	return nil, 0, errors.New("unable to find a viable program address bump seed")
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}
