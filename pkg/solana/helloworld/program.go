// Package helloworld encodes and decodes the wire formats of the on-chain
// greeting program: its 4-byte greeting account and its opcode-tagged
// instructions. The program itself is deployed separately, so its address is
// always supplied by the caller.
package helloworld

import (
	"errors"
)

var (
	ErrMalformedRecord     = errors.New("malformed greeting record")
	ErrInvalidOperand      = errors.New("invalid instruction operand")
	ErrInvalidAccountOwner = errors.New("greeting account is not owned by the program")
)

// Opcode is the first byte of every instruction.
type Opcode uint8

const (
	OpcodeIncrement Opcode = iota
	OpcodeSetName
	OpcodeSetAge
)

func (o Opcode) String() string {
	switch o {
	case OpcodeIncrement:
		return "increment"
	case OpcodeSetName:
		return "set_name"
	case OpcodeSetAge:
		return "set_age"
	}
	return "unknown"
}
