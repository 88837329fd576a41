// Package ledger defines access to the remote ledger the greeting program
// lives on.
package ledger

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/greeter/pkg/solana"
)

var (
	// ErrAccountNotFound is returned when an account does not exist on the
	// ledger.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRemoteUnavailable classifies transport and RPC failures. Errors of
	// this kind are *RemoteError values.
	ErrRemoteUnavailable = errors.New("remote ledger unavailable")

	// ErrNotConfirmed is returned when a submitted transaction does not reach
	// the requested commitment before the confirmation deadline.
	ErrNotConfirmed = errors.New("transaction not confirmed")
)

// RemoteError is a failed call to the remote ledger.
type RemoteError struct {
	Method string
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRemoteUnavailable.Error(), e.Method, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports ErrRemoteUnavailable as a match.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}

// Ledger is the set of ledger operations a greeting session needs.
//
// Transactions rejected by the ledger are returned as *solana.TransactionError.
type Ledger interface {
	// Endpoint describes where the ledger is reached.
	Endpoint() string

	// GetVersion returns the version of the node serving requests.
	GetVersion(ctx context.Context) (solana.Version, error)

	// GetBalance returns the balance of account in lamports. Accounts that
	// don't exist have a zero balance.
	GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error)

	// GetMinimumBalanceForRentExemption returns the lamports an account of
	// size bytes must hold to be rent exempt.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// GetSignatureFee returns the fee charged per transaction signature.
	GetSignatureFee(ctx context.Context, payer ed25519.PublicKey) (uint64, error)

	// RequestAirdrop credits account with lamports and waits until the
	// credit is confirmed.
	RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) (solana.Signature, error)

	// GetAccountInfo returns the state of account, or ErrAccountNotFound.
	GetAccountInfo(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error)

	// SubmitAndConfirm builds a transaction from instructions, paid for by
	// the first signer, and waits until it is confirmed.
	SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Signature, error)
}

// ErrNoSigners is returned by SubmitAndConfirm when called without a payer.
var ErrNoSigners = errors.New("at least one signer is required")
