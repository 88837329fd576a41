package greeter

import (
	"crypto/ed25519"
	"fmt"

	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/helloworld"
)

// Greeting is the instruction a session sends to the greeting account. The
// zero value increments the counter.
type Greeting struct {
	opcode helloworld.Opcode
	name   string
	age    int64
}

// Increment bumps the greeting counter.
func Increment() Greeting {
	return Greeting{opcode: helloworld.OpcodeIncrement}
}

// SetName records name. Names containing NUL are rejected with
// helloworld.ErrInvalidOperand.
func SetName(name string) (Greeting, error) {
	if _, err := helloworld.SetNameInstructionData(name); err != nil {
		return Greeting{}, err
	}
	return Greeting{opcode: helloworld.OpcodeSetName, name: name}, nil
}

// SetAge records age. Ages outside the u32 range are rejected with
// helloworld.ErrInvalidOperand.
func SetAge(age int64) (Greeting, error) {
	if _, err := helloworld.SetAgeInstructionData(age); err != nil {
		return Greeting{}, err
	}
	return Greeting{opcode: helloworld.OpcodeSetAge, age: age}, nil
}

func (g Greeting) String() string {
	switch g.opcode {
	case helloworld.OpcodeSetName:
		return fmt.Sprintf("%s(%q)", g.opcode, g.name)
	case helloworld.OpcodeSetAge:
		return fmt.Sprintf("%s(%d)", g.opcode, g.age)
	default:
		return g.opcode.String()
	}
}

func (g Greeting) instruction(program, greeting ed25519.PublicKey) (solana.Instruction, error) {
	accounts := &helloworld.GreetingInstructionAccounts{
		Program:  program,
		Greeting: greeting,
	}

	switch g.opcode {
	case helloworld.OpcodeIncrement:
		return helloworld.NewIncrementInstruction(accounts), nil
	case helloworld.OpcodeSetName:
		return helloworld.NewSetNameInstruction(accounts, g.name)
	case helloworld.OpcodeSetAge:
		return helloworld.NewSetAgeInstruction(accounts, g.age)
	default:
		return solana.Instruction{}, helloworld.ErrInvalidOperand
	}
}
