// Package cliconfig reads the configuration file maintained by the Solana
// command line tools.
package cliconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	jsonRPCURLKey   = "json_rpc_url"
	websocketURLKey = "websocket_url"
	keypairPathKey  = "keypair_path"
	commitmentKey   = "commitment"
)

// Config is the subset of the Solana CLI configuration used by this module.
type Config struct {
	JSONRPCURL   string
	WebsocketURL string
	KeypairPath  string
	Commitment   string
}

// DefaultPath returns ~/.config/solana/cli/config.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine home directory")
	}
	return filepath.Join(home, ".config", "solana", "cli", "config.yml"), nil
}

// DefaultKeypairPath returns ~/.config/solana/id.json, the keypair the Solana
// CLI uses when none is configured.
func DefaultKeypairPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine home directory")
	}
	return filepath.Join(home, ".config", "solana", "id.json"), nil
}

// Load reads the CLI configuration at path. A missing file is reported with
// an error satisfying errors.Is(err, os.ErrNotExist).
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "solana cli config %s", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read solana cli config %s", path)
	}

	keypairPath, err := ExpandHome(v.GetString(keypairPathKey))
	if err != nil {
		return nil, err
	}

	return &Config{
		JSONRPCURL:   v.GetString(jsonRPCURLKey),
		WebsocketURL: v.GetString(websocketURLKey),
		KeypairPath:  keypairPath,
		Commitment:   v.GetString(commitmentKey),
	}, nil
}

// ExpandHome replaces a leading "~" in path with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
