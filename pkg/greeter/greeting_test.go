package greeter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/solana/helloworld"
	"github.com/code-payments/greeter/pkg/testutil"
)

func TestGreeting_Instruction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	program, greeting := keys[0], keys[1]

	name, err := SetName("hello")
	require.NoError(t, err)
	age, err := SetAge(7)
	require.NoError(t, err)

	for _, tc := range []struct {
		greeting Greeting
		str      string
		data     []byte
	}{
		{Greeting{}, "increment", []byte{0}},
		{Increment(), "increment", []byte{0}},
		{name, `set_name("hello")`, []byte{1, 'h', 'e', 'l', 'l', 'o', 0}},
		{age, "set_age(7)", []byte{2, 7, 0, 0, 0}},
	} {
		assert.Equal(t, tc.str, tc.greeting.String())

		ix, err := tc.greeting.instruction(program, greeting)
		require.NoError(t, err)
		assert.EqualValues(t, program, ix.Program)
		assert.Equal(t, tc.data, ix.Data)
		require.Len(t, ix.Accounts, 1)
		assert.EqualValues(t, greeting, ix.Accounts[0].PublicKey)
		assert.True(t, ix.Accounts[0].IsWritable)
		assert.False(t, ix.Accounts[0].IsSigner)
	}
}

func TestGreeting_InvalidOperands(t *testing.T) {
	_, err := SetName("hel\x00lo")
	assert.Equal(t, helloworld.ErrInvalidOperand, err)

	for _, age := range []int64{-1, math.MaxUint32 + 1} {
		_, err = SetAge(age)
		assert.Equal(t, helloworld.ErrInvalidOperand, err)
	}

	g, err := SetAge(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, "set_age(4294967295)", g.String())
}
