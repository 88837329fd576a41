package computebudget

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/solana"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "ComputeBudget111111111111111111111111111111", base58.Encode(ProgramKey))
}

func TestSetComputeUnitPrice(t *testing.T) {
	ix := SetComputeUnitPrice(1_000)
	assert.Equal(t, []byte{3, 0xe8, 0x03, 0, 0, 0, 0, 0, 0}, ix.Data)

	price, err := ParseSetComputeUnitPriceIxnData(ix.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, price)

	_, err = ParseSetComputeUnitLimitIxnData(ix.Data)
	assert.Error(t, err)
}

func TestSetComputeUnitLimit(t *testing.T) {
	ix := SetComputeUnitLimit(200_000)
	assert.Equal(t, []byte{2, 0x40, 0x0d, 0x03, 0}, ix.Data)

	limit, err := ParseSetComputeUnitLimitIxnData(ix.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 200_000, limit)

	_, err = ParseSetComputeUnitPriceIxnData(ix.Data)
	assert.Error(t, err)
}

func TestIsComputeBudgetInstruction(t *testing.T) {
	payer, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	other, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	tx := solana.NewTransaction(payer, SetComputeUnitPrice(1), solana.NewInstruction(other, nil))
	assert.True(t, IsComputeBudgetInstruction(tx.Message, 0))
	assert.False(t, IsComputeBudgetInstruction(tx.Message, 1))
	assert.False(t, IsComputeBudgetInstruction(tx.Message, 2))
}
