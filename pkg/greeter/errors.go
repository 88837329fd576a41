package greeter

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrKeyLoad matches every *KeyLoadError.
	ErrKeyLoad = errors.New("failed to load key")

	ErrProgramNotDeployed   = errors.New("program is not deployed")
	ErrProgramNotExecutable = errors.New("program account is not executable")
	ErrInsufficientFunds    = errors.New("payer has insufficient funds")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotImplemented  = errors.New("not implemented")
)

// KeyLoadError is a keypair file that could not be read or decoded.
type KeyLoadError struct {
	Path string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("failed to load keypair from %s: %v", e.Path, e.Err)
}

func (e *KeyLoadError) Unwrap() error {
	return e.Err
}

func (e *KeyLoadError) Is(target error) bool {
	return target == ErrKeyLoad
}
