package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/binary"
)

// ProgramKey is the system program address, 11111111111111111111111111111111.
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
	commandCreateAccountWithSeed
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// Accounts:
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// Data: u32 command | u64 lamports | u64 space | [32]byte owner
	data := make([]byte, 4+2*8+32)

	var offset int
	binary.PutUint32(data[offset:], commandCreateAccount, &offset)
	binary.PutUint64(data[offset:], lamports, &offset)
	binary.PutUint64(data[offset:], size, &offset)
	binary.PutKey32(data[offset:], owner, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// CreateAccountWithSeed allocates size bytes at address, which must equal
// solana.CreateWithSeed(base, seed, owner), and funds it with lamports. The
// new account does not sign; base does.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L96-L117
func CreateAccountWithSeed(funder, address, base ed25519.PublicKey, seed string, lamports, size uint64, owner ed25519.PublicKey) solana.Instruction {
	// Accounts:
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Created account
	//   2. [SIGNER] (optional) Base account, when it differs from the funder
	//
	// Data: u32 command | [32]byte base | u64 len + seed | u64 lamports | u64 space | [32]byte owner
	data := make([]byte, 4+32+8+len(seed)+2*8+32)

	var offset int
	binary.PutUint32(data[offset:], commandCreateAccountWithSeed, &offset)
	binary.PutKey32(data[offset:], base, &offset)
	binary.PutString(data[offset:], seed, &offset)
	binary.PutUint64(data[offset:], lamports, &offset)
	binary.PutUint64(data[offset:], size, &offset)
	binary.PutKey32(data[offset:], owner, &offset)

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, false),
	}
	if !bytes.Equal(base, funder) {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(base, true))
	}

	return solana.NewInstruction(ProgramKey, data, accounts...)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L84-L90
func Transfer(sender, receiver ed25519.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, 4+8)

	var offset int
	binary.PutUint32(data[offset:], commandTransfer, &offset)
	binary.PutUint64(data[offset:], lamports, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(sender, true),
		solana.NewAccountMeta(receiver, false),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, err := getSystemInstruction(m, index, commandCreateAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 52 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
	}

	offset := 4
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	binary.GetUint64(i.Data[offset:], &v.Size, &offset)
	binary.GetKey32(i.Data[offset:], &v.Owner, &offset)

	return v, nil
}

type DecompiledCreateAccountWithSeed struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey
	Base    ed25519.PublicKey

	Seed     string
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccountWithSeed(m solana.Message, index int) (*DecompiledCreateAccountWithSeed, error) {
	i, err := getSystemInstruction(m, index, commandCreateAccountWithSeed)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 && len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < 4+32+8 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccountWithSeed{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
	}

	offset := 4
	binary.GetKey32(i.Data[offset:], &v.Base, &offset)
	if !binary.GetString(i.Data[offset:], &v.Seed, &offset) {
		return nil, errors.New("invalid seed length")
	}
	if len(i.Data) != offset+2*8+32 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)
	binary.GetUint64(i.Data[offset:], &v.Size, &offset)
	binary.GetKey32(i.Data[offset:], &v.Owner, &offset)

	if len(i.Accounts) == 3 && !bytes.Equal(m.Accounts[i.Accounts[2]], v.Base) {
		return nil, errors.New("base account does not match instruction data")
	}

	return v, nil
}

type DecompiledTransfer struct {
	Sender   ed25519.PublicKey
	Receiver ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := getSystemInstruction(m, index, commandTransfer)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 12 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledTransfer{
		Sender:   m.Accounts[i.Accounts[0]],
		Receiver: m.Accounts[i.Accounts[1]],
	}
	offset := 4
	binary.GetUint64(i.Data[offset:], &v.Lamports, &offset)

	return v, nil
}

func getSystemInstruction(m solana.Message, index int, command uint32) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return solana.CompiledInstruction{}, solana.ErrIncorrectProgram
	}

	prefix := make([]byte, 4)
	var offset int
	binary.PutUint32(prefix, command, &offset)
	if !bytes.HasPrefix(i.Data, prefix) {
		return solana.CompiledInstruction{}, solana.ErrIncorrectInstruction
	}

	return i, nil
}
