package cliconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `---
json_rpc_url: "https://api.devnet.solana.com"
websocket_url: ""
keypair_path: /home/alice/.config/solana/id.json
address_labels:
  "11111111111111111111111111111111": System Program
commitment: confirmed
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", config.JSONRPCURL)
	assert.Empty(t, config.WebsocketURL)
	assert.Equal(t, "/home/alice/.config/solana/id.json", config.KeypairPath)
	assert.Equal(t, "confirmed", config.Commitment)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("json_rpc_url: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandHome("~/.config/solana/id.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "solana", "id.json"), expanded)

	expanded, err = ExpandHome("/tmp/id.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/id.json", expanded)

	expanded, err = ExpandHome("~bob/id.json")
	require.NoError(t, err)
	assert.Equal(t, "~bob/id.json", expanded)
}

func TestDefaultPaths(t *testing.T) {
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "config.yml", filepath.Base(path))

	keypairPath, err := DefaultKeypairPath()
	require.NoError(t, err)
	assert.Equal(t, "id.json", filepath.Base(keypairPath))
}
