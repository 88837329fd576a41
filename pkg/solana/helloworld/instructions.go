package helloworld

import (
	"crypto/ed25519"
	"math"
	"strings"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/binary"
)

const (
	// DefaultName is the name sent when a caller doesn't provide one.
	DefaultName = "hello"

	IncrementInstructionDataSize = 1     // opcode
	SetAgeInstructionDataSize    = 1 + 4 // opcode + age
)

// GreetingInstructionAccounts are the accounts every greeting instruction
// touches.
type GreetingInstructionAccounts struct {
	Program  ed25519.PublicKey
	Greeting ed25519.PublicKey
}

// IncrementInstructionData encodes [0x00].
func IncrementInstructionData() []byte {
	data := make([]byte, IncrementInstructionDataSize)

	var offset int
	binary.PutUint8(data[offset:], uint8(OpcodeIncrement), &offset)

	return data
}

// SetNameInstructionData encodes [0x01] followed by name and a NUL terminator.
// A name containing NUL cannot be terminated unambiguously and is rejected.
func SetNameInstructionData(name string) ([]byte, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return nil, ErrInvalidOperand
	}

	data := make([]byte, 1+len(name)+1)

	var offset int
	binary.PutUint8(data[offset:], uint8(OpcodeSetName), &offset)
	offset += copy(data[offset:], name)
	binary.PutUint8(data[offset:], 0, &offset)

	return data, nil
}

// SetAgeInstructionData encodes [0x02] followed by age as a little-endian u32.
// Ages outside [0, 2^32-1] are rejected.
func SetAgeInstructionData(age int64) ([]byte, error) {
	if age < 0 || age > math.MaxUint32 {
		return nil, ErrInvalidOperand
	}

	data := make([]byte, SetAgeInstructionDataSize)

	var offset int
	binary.PutUint8(data[offset:], uint8(OpcodeSetAge), &offset)
	binary.PutUint32(data[offset:], uint32(age), &offset)

	return data, nil
}

func NewIncrementInstruction(accounts *GreetingInstructionAccounts) solana.Instruction {
	return newGreetingInstruction(accounts, IncrementInstructionData())
}

func NewSetNameInstruction(accounts *GreetingInstructionAccounts, name string) (solana.Instruction, error) {
	data, err := SetNameInstructionData(name)
	if err != nil {
		return solana.Instruction{}, err
	}
	return newGreetingInstruction(accounts, data), nil
}

func NewSetAgeInstruction(accounts *GreetingInstructionAccounts, age int64) (solana.Instruction, error) {
	data, err := SetAgeInstructionData(age)
	if err != nil {
		return solana.Instruction{}, err
	}
	return newGreetingInstruction(accounts, data), nil
}

func newGreetingInstruction(accounts *GreetingInstructionAccounts, data []byte) solana.Instruction {
	return solana.Instruction{
		Program: accounts.Program,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Greeting,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}

// DecompiledGreetingInstruction is a greeting instruction recovered from a
// message.
type DecompiledGreetingInstruction struct {
	Greeting ed25519.PublicKey
	Opcode   Opcode
	Name     string
	Age      uint32
}

// DecompileGreetingInstruction parses the instruction at index, which must
// target program.
func DecompileGreetingInstruction(m solana.Message, index int, program ed25519.PublicKey) (*DecompiledGreetingInstruction, error) {
	ix, err := solana.DecompileInstruction(m, index)
	if err != nil {
		return nil, err
	}
	if !ix.Program.Equal(program) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(ix.Accounts) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}

	decoded, err := ParseGreetingInstructionData(ix.Data)
	if err != nil {
		return nil, err
	}
	decoded.Greeting = ix.Accounts[0].PublicKey
	return decoded, nil
}

// ParseGreetingInstructionData is the inverse of the *InstructionData
// encoders.
func ParseGreetingInstructionData(data []byte) (*DecompiledGreetingInstruction, error) {
	if len(data) == 0 {
		return nil, solana.ErrIncorrectInstruction
	}

	var offset int
	var opcode uint8
	binary.GetUint8(data, &opcode, &offset)

	decoded := &DecompiledGreetingInstruction{Opcode: Opcode(opcode)}
	switch decoded.Opcode {
	case OpcodeIncrement:
		if len(data) != IncrementInstructionDataSize {
			return nil, solana.ErrIncorrectInstruction
		}
	case OpcodeSetName:
		terminator := strings.IndexByte(string(data[offset:]), 0)
		if terminator < 0 || terminator != len(data)-offset-1 {
			return nil, solana.ErrIncorrectInstruction
		}
		decoded.Name = string(data[offset : offset+terminator])
	case OpcodeSetAge:
		if len(data) != SetAgeInstructionDataSize {
			return nil, solana.ErrIncorrectInstruction
		}
		binary.GetUint32(data[offset:], &decoded.Age, &offset)
	default:
		return nil, solana.ErrIncorrectInstruction
	}

	return decoded, nil
}
