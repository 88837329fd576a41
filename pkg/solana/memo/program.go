package memo

import (
	"bytes"
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/code-payments/greeter/pkg/solana"
)

// ProgramKey is the SPL memo program, MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr.
var ProgramKey = ed25519.PublicKey{5, 74, 83, 90, 153, 41, 33, 6, 77, 36, 232, 113, 96, 218, 56, 124, 124, 53, 181, 221, 188, 146, 187, 129, 228, 31, 168, 64, 65, 5, 68, 141}

// MaxLength keeps a memo well inside a single transaction alongside a couple
// of small instructions.
const MaxLength = 566

var ErrInvalidMemo = errors.New("memo must be valid utf-8 and at most 566 bytes")

// Reference: https://github.com/solana-labs/solana-program-library/blob/master/memo/program/src/entrypoint.rs
func Instruction(data string) (solana.Instruction, error) {
	if len(data) > MaxLength || !utf8.ValidString(data) {
		return solana.Instruction{}, ErrInvalidMemo
	}

	return solana.NewInstruction(ProgramKey, []byte(data)), nil
}

type DecompiledMemo struct {
	Data []byte
}

func DecompileMemo(m solana.Message, index int) (*DecompiledMemo, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}

	return &DecompiledMemo{Data: i.Data}, nil
}
