package memory

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/ledger"
	"github.com/code-payments/greeter/pkg/ledger/tests"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/helloworld"
	"github.com/code-payments/greeter/pkg/solana/system"
	"github.com/code-payments/greeter/pkg/testutil"
)

func TestMemoryLedger(t *testing.T) {
	tests.RunTests(t, New(), func() {})
}

// counterProgram increments the first byte of its only account.
func counterProgram(ix solana.Instruction, accounts []*solana.AccountInfo) error {
	if len(accounts) != 1 || accounts[0] == nil {
		return errors.New(string(solana.InstructionErrorNotEnoughAccountKeys))
	}
	if len(ix.Data) > 0 && ix.Data[0] == 0xff {
		return solana.CustomError(42)
	}
	accounts[0].Data[0]++
	return nil
}

type fixture struct {
	ledger   *Ledger
	payer    ed25519.PrivateKey
	payerKey ed25519.PublicKey
	program  ed25519.PublicKey
}

func setup(t *testing.T, opts ...Option) fixture {
	f := fixture{
		ledger:  New(opts...),
		payer:   testutil.GenerateSolanaKeypair(t),
		program: testutil.GenerateSolanaKeys(t, 1)[0],
	}
	f.payerKey = f.payer.Public().(ed25519.PublicKey)

	f.ledger.Deploy(f.program, counterProgram)

	_, err := f.ledger.RequestAirdrop(context.Background(), f.payerKey, 1_000_000_000)
	require.NoError(t, err)
	return f
}

func (f fixture) createOwned(t *testing.T, owner ed25519.PublicKey) ed25519.PublicKey {
	address, err := solana.CreateWithSeed(f.payerKey, helloworld.GreetingSeed, owner)
	require.NoError(t, err)

	_, err = f.ledger.SubmitAndConfirm(context.Background(), []solana.Instruction{
		system.CreateAccountWithSeed(f.payerKey, address, f.payerKey, helloworld.GreetingSeed, rentExemptBalance(4), 4, owner),
	}, f.payer)
	require.NoError(t, err)
	return address
}

func TestDeployedProgram(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	info, err := f.ledger.GetAccountInfo(ctx, f.program)
	require.NoError(t, err)
	assert.True(t, info.Executable)
	assert.EqualValues(t, LoaderKey, info.Owner)

	address := f.createOwned(t, f.program)

	for i := 0; i < 3; i++ {
		_, err = f.ledger.SubmitAndConfirm(ctx, []solana.Instruction{
			solana.NewInstruction(f.program, []byte{0}, solana.NewAccountMeta(address, false)),
		}, f.payer)
		require.NoError(t, err)
	}

	info, err = f.ledger.GetAccountInfo(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 0, 0}, info.Data)
}

func TestProgramErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	address := f.createOwned(t, f.program)

	balance, err := f.ledger.GetBalance(ctx, f.payerKey)
	require.NoError(t, err)
	processed := f.ledger.Signatures()

	increment := solana.NewInstruction(f.program, []byte{0}, solana.NewAccountMeta(address, false))
	fail := solana.NewInstruction(f.program, []byte{0xff}, solana.NewAccountMeta(address, false))

	_, err = f.ledger.SubmitAndConfirm(ctx, []solana.Instruction{increment, fail}, f.payer)
	require.Error(t, err)

	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 1, txErr.InstructionError().Index)
	assert.Equal(t, solana.CustomError(42), *txErr.InstructionError().CustomError())

	info, err := f.ledger.GetAccountInfo(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, info.Data)

	after, err := f.ledger.GetBalance(ctx, f.payerKey)
	require.NoError(t, err)
	assert.Equal(t, balance, after)
	assert.Equal(t, processed, f.ledger.Signatures())
}

func TestExternalAccountDataModified(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	// Owned by another program, so the counter program can't write to it
	address := f.createOwned(t, testutil.GenerateSolanaKeys(t, 1)[0])

	_, err := f.ledger.SubmitAndConfirm(ctx, []solana.Instruction{
		solana.NewInstruction(f.program, []byte{0}, solana.NewAccountMeta(address, false)),
	}, f.payer)
	require.Error(t, err)

	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.InstructionErrorExternalDataModified, txErr.InstructionError().ErrorKey())
}

func TestReadonlyAccountModified(t *testing.T) {
	f := setup(t)
	address := f.createOwned(t, f.program)

	_, err := f.ledger.SubmitAndConfirm(context.Background(), []solana.Instruction{
		solana.NewInstruction(f.program, []byte{0}, solana.NewReadonlyAccountMeta(address, false)),
	}, f.payer)
	require.Error(t, err)

	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.InstructionErrorExternalDataModified, txErr.InstructionError().ErrorKey())
}

func TestUndeployedProgram(t *testing.T) {
	f := setup(t)
	keys := testutil.GenerateSolanaKeys(t, 2)

	_, err := f.ledger.SubmitAndConfirm(context.Background(), []solana.Instruction{
		solana.NewInstruction(keys[0], []byte{0}, solana.NewAccountMeta(keys[1], false)),
	}, f.payer)
	require.Error(t, err)

	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorProgramAccountNotFound, txErr.ErrorKey())
}

func TestNonExecutableProgram(t *testing.T) {
	f := setup(t)
	address := f.createOwned(t, f.program)

	f.ledger.SetAccount(f.program, solana.AccountInfo{Owner: LoaderKey, Lamports: 1})

	_, err := f.ledger.SubmitAndConfirm(context.Background(), []solana.Instruction{
		solana.NewInstruction(f.program, []byte{0}, solana.NewAccountMeta(address, false)),
	}, f.payer)
	require.Error(t, err)

	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.InstructionErrorAccountNotExecutable, txErr.InstructionError().ErrorKey())
}

func TestCreateAccountWithSeed_Errors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	other := testutil.GenerateSolanaKeys(t, 1)[0]

	address, err := solana.CreateWithSeed(f.payerKey, helloworld.GreetingSeed, f.program)
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		ix       solana.Instruction
		expected solana.CustomError
	}{
		{
			name:     "address mismatch",
			ix:       system.CreateAccountWithSeed(f.payerKey, other, f.payerKey, helloworld.GreetingSeed, 1, 4, f.program),
			expected: systemErrAddressWithSeedMismatch,
		},
		{
			name:     "wrong seed",
			ix:       system.CreateAccountWithSeed(f.payerKey, address, f.payerKey, "goodbye", 1, 4, f.program),
			expected: systemErrAddressWithSeedMismatch,
		},
		{
			name:     "insufficient lamports",
			ix:       system.CreateAccountWithSeed(f.payerKey, address, f.payerKey, helloworld.GreetingSeed, 10_000_000_000, 4, f.program),
			expected: systemErrResultWithNegativeLamports,
		},
	} {
		_, err := f.ledger.SubmitAndConfirm(ctx, []solana.Instruction{tc.ix}, f.payer)
		require.Error(t, err, tc.name)

		txErr, ok := err.(*solana.TransactionError)
		require.True(t, ok, tc.name)
		require.NotNil(t, txErr.InstructionError().CustomError(), tc.name)
		assert.Equal(t, tc.expected, *txErr.InstructionError().CustomError(), tc.name)
	}

	_, err = f.ledger.GetAccountInfo(ctx, address)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestInsufficientFundsForFee(t *testing.T) {
	l := New()
	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, receiver, 1)}, payer)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorAccountNotFound, txErr.ErrorKey())

	_, err = l.RequestAirdrop(context.Background(), payerKey, DefaultSignatureFee-1)
	require.NoError(t, err)

	_, err = l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, receiver, 1)}, payer)
	txErr, ok = err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, txErr.ErrorKey())
}

func TestMissingSignature(t *testing.T) {
	f := setup(t)
	base := testutil.GenerateSolanaKeypair(t)
	baseKey := base.Public().(ed25519.PublicKey)

	address, err := solana.CreateWithSeed(baseKey, helloworld.GreetingSeed, f.program)
	require.NoError(t, err)

	ixs := []solana.Instruction{
		system.CreateAccountWithSeed(f.payerKey, address, baseKey, helloworld.GreetingSeed, rentExemptBalance(4), 4, f.program),
	}

	_, err = f.ledger.SubmitAndConfirm(context.Background(), ixs, f.payer)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorSignatureFailure, txErr.ErrorKey())

	_, err = f.ledger.SubmitAndConfirm(context.Background(), ixs, f.payer, base)
	require.NoError(t, err)
}

func TestAirdropCap(t *testing.T) {
	ctx := context.Background()
	account := testutil.GenerateSolanaKeys(t, 1)[0]

	l := New(WithAirdropCap(1000))
	_, err := l.RequestAirdrop(ctx, account, 5000)
	require.NoError(t, err)

	balance, err := l.GetBalance(ctx, account)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, balance)

	l = New(WithAirdropCap(0))
	_, err = l.RequestAirdrop(ctx, account, 5000)
	assert.True(t, errors.Is(err, ledger.ErrRemoteUnavailable))
}

func TestSignatureFee(t *testing.T) {
	fee, err := New(WithSignatureFee(10)).GetSignatureFee(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0])
	require.NoError(t, err)
	assert.EqualValues(t, 10, fee)
}

func TestRentExemptBalance(t *testing.T) {
	assert.EqualValues(t, 890880, rentExemptBalance(0))
	assert.EqualValues(t, 918720, rentExemptBalance(4))
}

func TestUnavailable(t *testing.T) {
	l := New()
	l.SetUnavailable(true)

	_, err := l.GetVersion(context.Background())
	assert.True(t, errors.Is(err, ledger.ErrRemoteUnavailable))

	var remoteErr *ledger.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "getVersion", remoteErr.Method)

	l.SetUnavailable(false)
	_, err = l.GetVersion(context.Background())
	assert.NoError(t, err)
}
