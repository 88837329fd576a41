package greeter

import (
	"crypto/ed25519"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/solana/cliconfig"
	"github.com/code-payments/greeter/pkg/solana/keypair"
)

// KeyMaterial loads the keys a session signs with.
type KeyMaterial interface {
	// LoadPayerKey returns the key that pays for fees and rent.
	LoadPayerKey() (ed25519.PrivateKey, error)

	// LoadProgramKeyFromFile returns the program keypair stored at path.
	LoadProgramKeyFromFile(path string) (ed25519.PrivateKey, error)
}

const defaultPayerPath = "~/.config/solana/id.json"

type fileKeyMaterial struct {
	log           *logrus.Entry
	payerPath     string
	cliConfigPath string
}

// NewFileKeyMaterial returns KeyMaterial reading solana-keygen files. The
// payer is read from payerPath when set, then from the keypair configured in
// the Solana CLI config at cliConfigPath, then from ~/.config/solana/id.json.
func NewFileKeyMaterial(payerPath, cliConfigPath string) KeyMaterial {
	return &fileKeyMaterial{
		log:           logrus.StandardLogger().WithField("type", "greeter/keys"),
		payerPath:     payerPath,
		cliConfigPath: cliConfigPath,
	}
}

func (k *fileKeyMaterial) LoadPayerKey() (ed25519.PrivateKey, error) {
	path, err := k.resolvePayerPath()
	if err != nil {
		return nil, &KeyLoadError{Path: path, Err: err}
	}
	return loadKeyFile(path)
}

func (k *fileKeyMaterial) LoadProgramKeyFromFile(path string) (ed25519.PrivateKey, error) {
	return loadKeyFile(path)
}

// resolvePayerPath returns the unexpanded path alongside any error so the
// caller can still report which file it tried.
func (k *fileKeyMaterial) resolvePayerPath() (string, error) {
	if len(k.payerPath) > 0 {
		path, err := cliconfig.ExpandHome(k.payerPath)
		if err != nil {
			return k.payerPath, err
		}
		return path, nil
	}

	if len(k.cliConfigPath) > 0 {
		config, err := cliconfig.Load(k.cliConfigPath)
		switch {
		case err == nil && len(config.KeypairPath) > 0:
			return config.KeypairPath, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			k.log.WithError(err).Warn("failed to read keypair path from solana cli config, falling back to default")
		}
	}

	path, err := cliconfig.DefaultKeypairPath()
	if err != nil {
		return defaultPayerPath, err
	}
	return path, nil
}

func loadKeyFile(path string) (ed25519.PrivateKey, error) {
	key, err := keypair.Load(path)
	if err != nil {
		return nil, &KeyLoadError{Path: path, Err: err}
	}
	return key, nil
}
