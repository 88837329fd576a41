package memory

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/system"
)

// Custom error codes of the system program.
//
// Reference: https://github.com/solana-labs/solana/blob/v1.18.26/sdk/program/src/system_instruction.rs
const (
	systemErrAccountAlreadyInUse        solana.CustomError = 0
	systemErrResultWithNegativeLamports solana.CustomError = 1
	systemErrMaxSeedLengthExceeded      solana.CustomError = 4
	systemErrAddressWithSeedMismatch    solana.CustomError = 5
)

// maxPermittedDataLength is the largest account the system program allocates.
const maxPermittedDataLength = 10 * 1024 * 1024

func executeSystem(state map[string]*solana.AccountInfo, m solana.Message, index int) error {
	if v, err := system.DecompileCreateAccountWithSeed(m, index); err == nil {
		if len(v.Seed) > solana.MaxSeedLength {
			return systemErrMaxSeedLengthExceeded
		}

		expected, err := solana.CreateWithSeed(v.Base, v.Seed, v.Owner)
		if err != nil || !bytes.Equal(expected, v.Address) {
			return systemErrAddressWithSeedMismatch
		}
		if !isSigner(m, v.Base) {
			return instructionError(solana.InstructionErrorMissingRequiredSignature)
		}

		return createAccount(state, v.Funder, v.Address, v.Lamports, v.Size, v.Owner)
	}

	if v, err := system.DecompileCreateAccount(m, index); err == nil {
		if !isSigner(m, v.Address) {
			return instructionError(solana.InstructionErrorMissingRequiredSignature)
		}

		return createAccount(state, v.Funder, v.Address, v.Lamports, v.Size, v.Owner)
	}

	if v, err := system.DecompileTransfer(m, index); err == nil {
		sender, ok := state[string(v.Sender)]
		if !ok || len(sender.Data) > 0 {
			return instructionError(solana.InstructionErrorInvalidArgument)
		}
		if sender.Lamports < v.Lamports {
			return systemErrResultWithNegativeLamports
		}

		sender.Lamports -= v.Lamports
		receiverAccount(state, v.Receiver).Lamports += v.Lamports
		return nil
	}

	return instructionError(solana.InstructionErrorInvalidInstructionData)
}

func createAccount(state map[string]*solana.AccountInfo, funder, address ed25519.PublicKey, lamports, size uint64, owner ed25519.PublicKey) error {
	if size > maxPermittedDataLength {
		return instructionError(solana.InstructionErrorInvalidArgument)
	}

	if existing, ok := state[string(address)]; ok {
		if existing.Lamports > 0 || len(existing.Data) > 0 || !bytes.Equal(existing.Owner, system.ProgramKey) {
			return systemErrAccountAlreadyInUse
		}
	}

	funderAccount, ok := state[string(funder)]
	if !ok || funderAccount.Lamports < lamports {
		return systemErrResultWithNegativeLamports
	}

	funderAccount.Lamports -= lamports
	state[string(address)] = &solana.AccountInfo{
		Data:     make([]byte, size),
		Owner:    append(ed25519.PublicKey{}, owner...),
		Lamports: lamports,
	}
	return nil
}

func receiverAccount(state map[string]*solana.AccountInfo, address ed25519.PublicKey) *solana.AccountInfo {
	info, ok := state[string(address)]
	if !ok {
		info = &solana.AccountInfo{Owner: system.ProgramKey}
		state[string(address)] = info
	}
	return info
}

func isSigner(m solana.Message, account ed25519.PublicKey) bool {
	for i := 0; i < int(m.Header.NumSignatures) && i < len(m.Accounts); i++ {
		if bytes.Equal(m.Accounts[i], account) {
			return true
		}
	}
	return false
}
