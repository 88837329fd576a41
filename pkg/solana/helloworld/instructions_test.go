package helloworld

import (
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/solana"
)

func TestIncrementInstructionData(t *testing.T) {
	assert.Equal(t, []byte{0x00}, IncrementInstructionData())
}

func TestSetAgeInstructionData(t *testing.T) {
	for _, tc := range []struct {
		age      int64
		expected []byte
	}{
		{0, []byte{0x02, 0x00, 0x00, 0x00, 0x00}},
		{7, []byte{0x02, 0x07, 0x00, 0x00, 0x00}},
		{300, []byte{0x02, 0x2c, 0x01, 0x00, 0x00}},
		{math.MaxUint32, []byte{0x02, 0xff, 0xff, 0xff, 0xff}},
	} {
		data, err := SetAgeInstructionData(tc.age)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, data)
		assert.Len(t, data, SetAgeInstructionDataSize)
	}

	for _, age := range []int64{-1, math.MaxUint32 + 1, math.MaxInt64} {
		_, err := SetAgeInstructionData(age)
		assert.Equal(t, ErrInvalidOperand, err, "age %d", age)
	}
}

func TestSetNameInstructionData(t *testing.T) {
	data, err := SetNameInstructionData(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 'h', 'e', 'l', 'l', 'o', 0x00}, data)
	assert.Len(t, data, 2+len(DefaultName))

	data, err = SetNameInstructionData("")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00}, data)

	_, err = SetNameInstructionData("hel\x00lo")
	assert.Equal(t, ErrInvalidOperand, err)
}

func TestParseGreetingInstructionData(t *testing.T) {
	decoded, err := ParseGreetingInstructionData(IncrementInstructionData())
	require.NoError(t, err)
	assert.Equal(t, OpcodeIncrement, decoded.Opcode)

	data, err := SetNameInstructionData("greeter")
	require.NoError(t, err)
	decoded, err = ParseGreetingInstructionData(data)
	require.NoError(t, err)
	assert.Equal(t, OpcodeSetName, decoded.Opcode)
	assert.Equal(t, "greeter", decoded.Name)

	data, err = SetAgeInstructionData(42)
	require.NoError(t, err)
	decoded, err = ParseGreetingInstructionData(data)
	require.NoError(t, err)
	assert.Equal(t, OpcodeSetAge, decoded.Opcode)
	assert.EqualValues(t, 42, decoded.Age)

	for _, invalid := range [][]byte{
		nil,
		{0x00, 0x00},
		{0x01},
		{0x01, 'a'},
		{0x01, 'a', 0x00, 'b', 0x00},
		{0x02, 0x01},
		{0x03},
	} {
		_, err := ParseGreetingInstructionData(invalid)
		assert.Equal(t, solana.ErrIncorrectInstruction, err, "%x", invalid)
	}
}

func TestNewGreetingInstructions(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, program, greeting := keys[0], keys[1], keys[2]

	accounts := &GreetingInstructionAccounts{
		Program:  program,
		Greeting: greeting,
	}

	setAge, err := NewSetAgeInstruction(accounts, 9)
	require.NoError(t, err)
	setName, err := NewSetNameInstruction(accounts, "world")
	require.NoError(t, err)

	_, err = NewSetAgeInstruction(accounts, -5)
	assert.Equal(t, ErrInvalidOperand, err)
	_, err = NewSetNameInstruction(accounts, "\x00")
	assert.Equal(t, ErrInvalidOperand, err)

	for _, ix := range []solana.Instruction{NewIncrementInstruction(accounts), setAge, setName} {
		assert.Equal(t, program, ix.Program)
		require.Len(t, ix.Accounts, 1)
		assert.Equal(t, greeting, ix.Accounts[0].PublicKey)
		assert.True(t, ix.Accounts[0].IsWritable)
		assert.False(t, ix.Accounts[0].IsSigner)
	}

	txn := solana.NewTransaction(payer, NewIncrementInstruction(accounts), setAge, setName)

	decoded, err := DecompileGreetingInstruction(txn.Message, 0, program)
	require.NoError(t, err)
	assert.Equal(t, OpcodeIncrement, decoded.Opcode)
	assert.EqualValues(t, greeting, decoded.Greeting)

	decoded, err = DecompileGreetingInstruction(txn.Message, 1, program)
	require.NoError(t, err)
	assert.Equal(t, OpcodeSetAge, decoded.Opcode)
	assert.EqualValues(t, 9, decoded.Age)

	decoded, err = DecompileGreetingInstruction(txn.Message, 2, program)
	require.NoError(t, err)
	assert.Equal(t, "world", decoded.Name)

	_, err = DecompileGreetingInstruction(txn.Message, 0, payer)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
	_, err = DecompileGreetingInstruction(txn.Message, 3, program)
	assert.Error(t, err)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "increment", OpcodeIncrement.String())
	assert.Equal(t, "set_name", OpcodeSetName.String())
	assert.Equal(t, "set_age", OpcodeSetAge.String())
	assert.Equal(t, "unknown", Opcode(9).String())
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}
	return keys
}
