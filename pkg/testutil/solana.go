package testutil

import (
	"crypto/ed25519"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/solana/keypair"
)

// GenerateSolanaKeypair returns a random private key.
func GenerateSolanaKeypair(t testing.TB) ed25519.PrivateKey {
	_, key, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return key
}

// GenerateSolanaKeys returns n random public keys.
func GenerateSolanaKeys(t testing.TB, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, 0, n)
	for len(keys) < n {
		keys = append(keys, GenerateSolanaKeypair(t).Public().(ed25519.PublicKey))
	}
	return keys
}

// WriteSolanaKeypair generates a keypair and stores it under dir in the
// solana-keygen file format, returning the key and the file path.
func WriteSolanaKeypair(t testing.TB, dir, name string) (ed25519.PrivateKey, string) {
	key := GenerateSolanaKeypair(t)
	path := filepath.Join(dir, name)
	require.NoError(t, keypair.Write(path, key))
	return key, path
}
