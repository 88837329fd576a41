// Package tests is a conformance suite run against every ledger.Ledger
// implementation.
package tests

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/ledger"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/computebudget"
	"github.com/code-payments/greeter/pkg/solana/helloworld"
	"github.com/code-payments/greeter/pkg/solana/memo"
	"github.com/code-payments/greeter/pkg/solana/system"
	"github.com/code-payments/greeter/pkg/testutil"
)

const airdropAmount = 1_000_000_000

func RunTests(t *testing.T, l ledger.Ledger, teardown func()) {
	for _, tf := range []func(t *testing.T, l ledger.Ledger){
		testVersion,
		testBalanceAndAirdrop,
		testRentAndFees,
		testAccountNotFound,
		testCreateAccountWithSeed,
		testTransferWithMemoAndPriorityFee,
		testNoSigners,
		testCanceledContext,
	} {
		tf(t, l)
		teardown()
	}
}

func testVersion(t *testing.T, l ledger.Ledger) {
	assert.NotEmpty(t, l.Endpoint())

	version, err := l.GetVersion(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, version.SolanaCore)
}

func testBalanceAndAirdrop(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()
	account := testutil.GenerateSolanaKeys(t, 1)[0]

	balance, err := l.GetBalance(ctx, account)
	require.NoError(t, err)
	assert.Zero(t, balance)

	sig, err := l.RequestAirdrop(ctx, account, airdropAmount)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	balance, err = l.GetBalance(ctx, account)
	require.NoError(t, err)
	assert.EqualValues(t, airdropAmount, balance)
}

func testRentAndFees(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()

	small, err := l.GetMinimumBalanceForRentExemption(ctx, helloworld.GreetingAccountSize)
	require.NoError(t, err)
	large, err := l.GetMinimumBalanceForRentExemption(ctx, 1024)
	require.NoError(t, err)
	assert.NotZero(t, small)
	assert.Greater(t, large, small)

	fee, err := l.GetSignatureFee(ctx, testutil.GenerateSolanaKeys(t, 1)[0])
	require.NoError(t, err)
	assert.NotZero(t, fee)
}

func testAccountNotFound(t *testing.T, l ledger.Ledger) {
	info, err := l.GetAccountInfo(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0])
	assert.Nil(t, info)
	assert.True(t, errors.Is(err, ledger.ErrAccountNotFound))
}

func testCreateAccountWithSeed(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	owner := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := l.RequestAirdrop(ctx, payerKey, airdropAmount)
	require.NoError(t, err)

	rent, err := l.GetMinimumBalanceForRentExemption(ctx, helloworld.GreetingAccountSize)
	require.NoError(t, err)
	fee, err := l.GetSignatureFee(ctx, payerKey)
	require.NoError(t, err)

	address, err := solana.CreateWithSeed(payerKey, helloworld.GreetingSeed, owner)
	require.NoError(t, err)

	create := system.CreateAccountWithSeed(payerKey, address, payerKey, helloworld.GreetingSeed, rent, helloworld.GreetingAccountSize, owner)

	_, err = l.SubmitAndConfirm(ctx, []solana.Instruction{create}, payer)
	require.NoError(t, err)

	info, err := l.GetAccountInfo(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, helloworld.GreetingAccountSize), info.Data)
	assert.EqualValues(t, owner, info.Owner)
	assert.Equal(t, rent, info.Lamports)
	assert.False(t, info.Executable)

	balance, err := l.GetBalance(ctx, payerKey)
	require.NoError(t, err)
	assert.EqualValues(t, airdropAmount-rent-fee, balance)

	// A second creator loses the race in the system program
	_, err = l.SubmitAndConfirm(ctx, []solana.Instruction{create}, payer)
	require.Error(t, err)

	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok, "unexpected error type: %v", err)
	require.NotNil(t, txErr.InstructionError())
	require.NotNil(t, txErr.InstructionError().CustomError())
	assert.Equal(t, solana.CustomError(0), *txErr.InstructionError().CustomError())

	balance, err = l.GetBalance(ctx, payerKey)
	require.NoError(t, err)
	assert.EqualValues(t, airdropAmount-rent-fee, balance)
}

func testTransferWithMemoAndPriorityFee(t *testing.T, l ledger.Ledger) {
	ctx := context.Background()

	sender := testutil.GenerateSolanaKeypair(t)
	senderKey := sender.Public().(ed25519.PublicKey)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := l.RequestAirdrop(ctx, senderKey, airdropAmount)
	require.NoError(t, err)

	amount, err := l.GetMinimumBalanceForRentExemption(ctx, 0)
	require.NoError(t, err)

	memoIx, err := memo.Instruction("greeter conformance")
	require.NoError(t, err)

	sig, err := l.SubmitAndConfirm(
		ctx,
		[]solana.Instruction{
			computebudget.SetComputeUnitPrice(1),
			memoIx,
			system.Transfer(senderKey, receiver, amount),
		},
		sender,
	)
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	balance, err := l.GetBalance(ctx, receiver)
	require.NoError(t, err)
	assert.Equal(t, amount, balance)
}

func testNoSigners(t *testing.T, l ledger.Ledger) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(keys[0], keys[1], 1)})
	assert.Equal(t, ledger.ErrNoSigners, err)
}

func testCanceledContext(t *testing.T, l ledger.Ledger) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.GetBalance(ctx, testutil.GenerateSolanaKeys(t, 1)[0])
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = l.GetAccountInfo(ctx, testutil.GenerateSolanaKeys(t, 1)[0])
	assert.True(t, errors.Is(err, context.Canceled))
}
