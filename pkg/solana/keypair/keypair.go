// Package keypair reads and writes keypair files in the format produced by
// solana-keygen: a JSON array of the 64 bytes of an ed25519 private key
// (seed followed by public key).
package keypair

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrInvalidKeypair = errors.New("invalid keypair")

// Load reads the keypair file at path.
func Load(path string) (ed25519.PrivateKey, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	key, err := Parse(contents)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse keypair file %s", path)
	}
	return key, nil
}

// Parse decodes the JSON byte array form of a keypair. The embedded public
// key must match the one derived from the seed.
func Parse(contents []byte) (ed25519.PrivateKey, error) {
	var raw []byte
	var ints []int
	if err := json.Unmarshal(contents, &ints); err != nil {
		return nil, errors.Wrap(ErrInvalidKeypair, err.Error())
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidKeypair, "expected %d bytes, got %d", ed25519.PrivateKeySize, len(ints))
	}

	raw = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidKeypair, "byte %d out of range: %d", i, v)
		}
		raw[i] = byte(v)
	}

	key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(key[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, errors.Wrap(ErrInvalidKeypair, "public key does not match seed")
	}

	return key, nil
}

// Marshal encodes key in the solana-keygen JSON format.
func Marshal(key ed25519.PrivateKey) ([]byte, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeypair
	}

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// Write stores key at path with owner-only permissions, creating parent
// directories as needed.
func Write(path string, key ed25519.PrivateKey) error {
	contents, err := Marshal(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create keypair directory")
	}
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write keypair file %s", path)
	}
	return nil
}
