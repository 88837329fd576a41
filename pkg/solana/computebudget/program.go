package computebudget

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/binary"
)

// ProgramKey is ComputeBudget111111111111111111111111111111.
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

func SetComputeUnitLimit(limit uint32) solana.Instruction {
	data := make([]byte, 1+4)

	var offset int
	binary.PutUint8(data[offset:], commandSetComputeUnitLimit, &offset)
	binary.PutUint32(data[offset:], limit, &offset)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the priority fee in micro-lamports per compute
// unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)

	var offset int
	binary.PutUint8(data[offset:], commandSetComputeUnitPrice, &offset)
	binary.PutUint64(data[offset:], microLamports, &offset)

	return solana.NewInstruction(ProgramKey, data)
}

// IsComputeBudgetInstruction reports whether the compiled instruction at index
// targets the compute budget program.
func IsComputeBudgetInstruction(m solana.Message, index int) bool {
	if index >= len(m.Instructions) {
		return false
	}
	return bytes.Equal(m.Accounts[m.Instructions[index].ProgramIndex], ProgramKey)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, errors.New("invalid length")
	}
	if data[0] != commandSetComputeUnitLimit {
		return 0, solana.ErrIncorrectInstruction
	}

	var limit uint32
	var offset int
	binary.GetUint32(data[1:], &limit, &offset)
	return limit, nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, errors.New("invalid length")
	}
	if data[0] != commandSetComputeUnitPrice {
		return 0, solana.ErrIncorrectInstruction
	}

	var price uint64
	var offset int
	binary.GetUint64(data[1:], &price, &offset)
	return price, nil
}
