package solana

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/greeter/pkg/ledger"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/system"
	"github.com/code-payments/greeter/pkg/testutil"
)

// fakeClient is a scripted solana.Client.
type fakeClient struct {
	sync.Mutex

	accounts map[string]solana.AccountInfo
	err      error
	block    chan struct{}

	submitErr   error
	submitted   []solana.Transaction
	statuses    []*solana.SignatureStatus
	statusCalls int
	feeMessages []solana.Message
}

func newFakeClient() *fakeClient {
	return &fakeClient{accounts: make(map[string]solana.AccountInfo)}
}

func (c *fakeClient) wait() error {
	if c.block != nil {
		<-c.block
	}
	return c.err
}

func (c *fakeClient) GetVersion() (solana.Version, error) {
	if err := c.wait(); err != nil {
		return solana.Version{}, err
	}
	return solana.Version{SolanaCore: "1.18.26"}, nil
}

func (c *fakeClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	if err := c.wait(); err != nil {
		return solana.AccountInfo{}, err
	}

	c.Lock()
	defer c.Unlock()

	info, ok := c.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *fakeClient) GetBalance(account ed25519.PublicKey, _ solana.Commitment) (uint64, error) {
	if err := c.wait(); err != nil {
		return 0, err
	}

	c.Lock()
	defer c.Unlock()

	info, ok := c.accounts[string(account)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return info.Lamports, nil
}

func (c *fakeClient) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return (128 + size) * 6960, c.wait()
}

func (c *fakeClient) GetLatestBlockhash() (solana.Blockhash, error) {
	return solana.Blockhash{1, 2, 3}, c.wait()
}

func (c *fakeClient) GetFeeForMessage(m solana.Message, _ solana.Commitment) (uint64, error) {
	c.Lock()
	c.feeMessages = append(c.feeMessages, m)
	c.Unlock()

	return 5000 * uint64(m.Header.NumSignatures), c.wait()
}

func (c *fakeClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	if err := c.wait(); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()

	status := c.statuses[len(c.statuses)-1]
	if c.statusCalls < len(c.statuses) {
		status = c.statuses[c.statusCalls]
	}
	c.statusCalls++

	return []*solana.SignatureStatus{status}, nil
}

func (c *fakeClient) RequestAirdrop(account ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	if err := c.wait(); err != nil {
		return solana.Signature{}, err
	}

	c.Lock()
	defer c.Unlock()

	info := c.accounts[string(account)]
	info.Lamports += lamports
	c.accounts[string(account)] = info
	return solana.Signature{9}, nil
}

func (c *fakeClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	if err := c.wait(); err != nil {
		return solana.Signature{}, err
	}

	c.Lock()
	defer c.Unlock()

	c.submitted = append(c.submitted, txn)
	return txn.Signature(), c.submitErr
}

func confirmed() *solana.SignatureStatus {
	zero := 0
	return &solana.SignatureStatus{Slot: 1, Confirmations: &zero, ConfirmationStatus: "confirmed"}
}

func processed() *solana.SignatureStatus {
	zero := 0
	return &solana.SignatureStatus{Slot: 1, Confirmations: &zero, ConfirmationStatus: "processed"}
}

func newTestLedger(client solana.Client) ledger.Ledger {
	return New(
		"http://localhost:8899",
		client,
		WithPollInterval(time.Millisecond),
		WithConfirmationTimeout(200*time.Millisecond),
	)
}

func TestEndpointAndVersion(t *testing.T) {
	l := newTestLedger(newFakeClient())
	assert.Equal(t, "http://localhost:8899", l.Endpoint())

	version, err := l.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.18.26", version.SolanaCore)
}

func TestGetAccountInfo(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client)

	keys := testutil.GenerateSolanaKeys(t, 2)
	client.accounts[string(keys[0])] = solana.AccountInfo{Data: []byte{1, 0, 0, 0}, Owner: keys[1], Lamports: 10}

	info, err := l.GetAccountInfo(context.Background(), keys[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, info.Data)

	info, err = l.GetAccountInfo(context.Background(), keys[1])
	assert.Nil(t, info)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestGetBalance_MissingAccount(t *testing.T) {
	balance, err := newTestLedger(newFakeClient()).GetBalance(context.Background(), testutil.GenerateSolanaKeys(t, 1)[0])
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestGetSignatureFee(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client)
	payer := testutil.GenerateSolanaKeys(t, 1)[0]

	fee, err := l.GetSignatureFee(context.Background(), payer)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, fee)

	require.Len(t, client.feeMessages, 1)
	m := client.feeMessages[0]
	assert.EqualValues(t, 1, m.Header.NumSignatures)
	assert.EqualValues(t, payer, m.Accounts[0])
	assert.Equal(t, solana.Blockhash{1, 2, 3}, m.RecentBlockhash)
}

func TestRemoteErrors(t *testing.T) {
	client := newFakeClient()
	client.err = errors.New("connection refused")
	l := newTestLedger(client)
	account := testutil.GenerateSolanaKeys(t, 1)[0]

	for method, fn := range map[string]func() error{
		"getVersion": func() error {
			_, err := l.GetVersion(context.Background())
			return err
		},
		"getBalance": func() error {
			_, err := l.GetBalance(context.Background(), account)
			return err
		},
		"getAccountInfo": func() error {
			_, err := l.GetAccountInfo(context.Background(), account)
			return err
		},
		"getMinimumBalanceForRentExemption": func() error {
			_, err := l.GetMinimumBalanceForRentExemption(context.Background(), 4)
			return err
		},
		"requestAirdrop": func() error {
			_, err := l.RequestAirdrop(context.Background(), account, 1)
			return err
		},
	} {
		err := fn()
		require.Error(t, err, method)
		assert.True(t, errors.Is(err, ledger.ErrRemoteUnavailable), method)

		var remoteErr *ledger.RemoteError
		require.True(t, errors.As(err, &remoteErr), method)
		assert.Equal(t, method, remoteErr.Method)
	}
}

func TestRequestAirdrop(t *testing.T) {
	client := newFakeClient()
	client.statuses = []*solana.SignatureStatus{nil, processed(), confirmed()}
	l := newTestLedger(client)
	account := testutil.GenerateSolanaKeys(t, 1)[0]

	sig, err := l.RequestAirdrop(context.Background(), account, 1000)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{9}, sig)
	assert.Equal(t, 3, client.statusCalls)

	balance, err := l.GetBalance(context.Background(), account)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, balance)
}

func TestSubmitAndConfirm(t *testing.T) {
	client := newFakeClient()
	client.statuses = []*solana.SignatureStatus{nil, confirmed()}
	l := newTestLedger(client)

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	receiver := testutil.GenerateSolanaKeys(t, 1)[0]

	sig, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, receiver, 10)}, payer)
	require.NoError(t, err)

	require.Len(t, client.submitted, 1)
	txn := client.submitted[0]
	assert.Equal(t, txn.Signature(), sig)
	assert.NoError(t, txn.Verify())
	assert.Equal(t, solana.Blockhash{1, 2, 3}, txn.Message.RecentBlockhash)
	assert.EqualValues(t, payerKey, txn.Message.Accounts[0])
}

func TestSubmitAndConfirm_Rejected(t *testing.T) {
	client := newFakeClient()
	client.statuses = []*solana.SignatureStatus{confirmed()}
	client.submitErr = solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	l := newTestLedger(client)

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, payerKey, 0)}, payer)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, txErr.ErrorKey())
	assert.Zero(t, client.statusCalls)
}

func TestSubmitAndConfirm_FailedOnChain(t *testing.T) {
	client := newFakeClient()
	failed := confirmed()
	failed.ErrorResult = solana.NewTransactionError(solana.TransactionErrorAccountInUse)
	client.statuses = []*solana.SignatureStatus{processed(), failed}
	l := newTestLedger(client)

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, payerKey, 0)}, payer)
	txErr, ok := err.(*solana.TransactionError)
	require.True(t, ok)
	assert.Equal(t, solana.TransactionErrorAccountInUse, txErr.ErrorKey())
}

func TestSubmitAndConfirm_NotConfirmed(t *testing.T) {
	client := newFakeClient()
	client.statuses = []*solana.SignatureStatus{processed()}
	l := newTestLedger(client)

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, payerKey, 0)}, payer)
	assert.True(t, errors.Is(err, ledger.ErrNotConfirmed))
}

func TestSubmitAndConfirm_UnknownSigner(t *testing.T) {
	client := newFakeClient()
	l := newTestLedger(client)

	payer := testutil.GenerateSolanaKeypair(t)
	payerKey := payer.Public().(ed25519.PublicKey)
	stranger := testutil.GenerateSolanaKeypair(t)

	_, err := l.SubmitAndConfirm(context.Background(), []solana.Instruction{system.Transfer(payerKey, payerKey, 0)}, payer, stranger)
	assert.Error(t, err)
	assert.Empty(t, client.submitted)

	_, err = l.SubmitAndConfirm(context.Background(), nil)
	assert.Equal(t, ledger.ErrNoSigners, err)
}

func TestContextCancellation(t *testing.T) {
	client := newFakeClient()
	client.block = make(chan struct{})
	defer close(client.block)
	l := newTestLedger(client)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := l.GetVersion(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.Less(t, time.Since(start), time.Second)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.GetBalance(canceled, testutil.GenerateSolanaKeys(t, 1)[0])
	assert.Equal(t, context.Canceled, err)
}
