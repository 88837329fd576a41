// Package solana implements ledger.Ledger against a Solana JSON-RPC node.
package solana

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/ledger"
	"github.com/code-payments/greeter/pkg/metrics"
	"github.com/code-payments/greeter/pkg/retry"
	"github.com/code-payments/greeter/pkg/retry/backoff"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/system"
)

const (
	metricsStructName = "ledger.solana"

	confirmationLatencyMetricName = "ledger.solana.confirmation_latency"

	defaultConfirmationTimeout = 30 * time.Second
	defaultPollInterval        = 500 * time.Millisecond
)

var errPending = errors.New("signature not yet at requested commitment")

// Option configures the ledger.
type Option func(*rpcLedger)

// WithCommitment sets the commitment level reads and confirmations wait for.
func WithCommitment(commitment solana.Commitment) Option {
	return func(l *rpcLedger) {
		l.commitment = commitment
	}
}

// WithConfirmationTimeout bounds how long SubmitAndConfirm and
// RequestAirdrop wait for a signature to reach the commitment level.
func WithConfirmationTimeout(timeout time.Duration) Option {
	return func(l *rpcLedger) {
		l.confirmationTimeout = timeout
	}
}

// WithPollInterval sets the delay between signature status checks.
func WithPollInterval(interval time.Duration) Option {
	return func(l *rpcLedger) {
		l.pollInterval = interval
	}
}

type rpcLedger struct {
	log      *logrus.Entry
	endpoint string
	client   solana.Client

	commitment          solana.Commitment
	confirmationTimeout time.Duration
	pollInterval        time.Duration
}

// New returns a ledger.Ledger backed by client, which talks to endpoint.
func New(endpoint string, client solana.Client, opts ...Option) ledger.Ledger {
	l := &rpcLedger{
		log:                 logrus.StandardLogger().WithField("type", "ledger/solana"),
		endpoint:            endpoint,
		client:              client,
		commitment:          solana.CommitmentConfirmed,
		confirmationTimeout: defaultConfirmationTimeout,
		pollInterval:        defaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *rpcLedger) Endpoint() string {
	return l.endpoint
}

func (l *rpcLedger) GetVersion(ctx context.Context) (solana.Version, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetVersion")
	defer tracer.End()

	version, err := call(ctx, "getVersion", l.client.GetVersion)
	tracer.OnError(err)
	return version, err
}

func (l *rpcLedger) GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetBalance")
	defer tracer.End()

	balance, err := call(ctx, "getBalance", func() (uint64, error) {
		balance, err := l.client.GetBalance(account, l.commitment)
		if err == solana.ErrNoBalance {
			return 0, nil
		}
		return balance, err
	})
	tracer.OnError(err)
	return balance, err
}

func (l *rpcLedger) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetMinimumBalanceForRentExemption")
	defer tracer.End()

	lamports, err := call(ctx, "getMinimumBalanceForRentExemption", func() (uint64, error) {
		return l.client.GetMinimumBalanceForRentExemption(size)
	})
	tracer.OnError(err)
	return lamports, err
}

// GetSignatureFee prices a single signature zero lamport self transfer from
// payer, which carries exactly one signature.
func (l *rpcLedger) GetSignatureFee(ctx context.Context, payer ed25519.PublicKey) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetSignatureFee")
	defer tracer.End()

	blockhash, err := call(ctx, "getLatestBlockhash", l.client.GetLatestBlockhash)
	if err != nil {
		tracer.OnError(err)
		return 0, err
	}

	txn := solana.NewTransaction(payer, system.Transfer(payer, payer, 0))
	txn.SetBlockhash(blockhash)

	fee, err := call(ctx, "getFeeForMessage", func() (uint64, error) {
		return l.client.GetFeeForMessage(txn.Message, l.commitment)
	})
	tracer.OnError(err)
	return fee, err
}

func (l *rpcLedger) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "RequestAirdrop")
	tracer.AddAttribute("lamports", lamports)
	defer tracer.End()

	log := l.log.WithFields(logrus.Fields{
		"method":   "RequestAirdrop",
		"account":  base58.Encode(account),
		"lamports": lamports,
	})

	sig, err := call(ctx, "requestAirdrop", func() (solana.Signature, error) {
		return l.client.RequestAirdrop(account, lamports, l.commitment)
	})
	if err != nil {
		log.WithError(err).Warn("airdrop request failed")
		tracer.OnError(err)
		return sig, err
	}

	if err := l.waitForConfirmation(ctx, sig); err != nil {
		log.WithError(err).WithField("signature", sig.String()).Warn("airdrop not confirmed")
		tracer.OnError(err)
		return sig, err
	}

	log.WithField("signature", sig.String()).Debug("airdrop confirmed")
	return sig, nil
}

func (l *rpcLedger) GetAccountInfo(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetAccountInfo")
	defer tracer.End()

	info, err := call(ctx, "getAccountInfo", func() (solana.AccountInfo, error) {
		return l.client.GetAccountInfo(account, l.commitment)
	})
	if err != nil {
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			tracer.OnError(err)
		}
		return nil, err
	}
	return &info, nil
}

func (l *rpcLedger) SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	if len(signers) == 0 {
		return solana.Signature{}, ledger.ErrNoSigners
	}

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SubmitAndConfirm")
	tracer.AddAttribute("instructions", len(instructions))
	defer tracer.End()

	sig, err := l.submitAndConfirm(ctx, instructions, signers)
	tracer.OnError(err)
	return sig, err
}

func (l *rpcLedger) submitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers []ed25519.PrivateKey) (solana.Signature, error) {
	payer := signers[0].Public().(ed25519.PublicKey)
	log := l.log.WithFields(logrus.Fields{
		"method": "SubmitAndConfirm",
		"payer":  base58.Encode(payer),
	})

	blockhash, err := call(ctx, "getLatestBlockhash", l.client.GetLatestBlockhash)
	if err != nil {
		return solana.Signature{}, err
	}

	txn := solana.NewTransaction(payer, instructions...)
	txn.SetBlockhash(blockhash)
	if err := txn.Sign(signers...); err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
	}

	log = log.WithField("signature", txn.Signature().String())

	start := time.Now()
	sig, err := call(ctx, "sendTransaction", func() (solana.Signature, error) {
		return l.client.SubmitTransaction(txn, l.commitment)
	})
	if err != nil {
		log.WithError(err).Warn("transaction submission failed")
		return sig, err
	}

	log.Debug("transaction submitted, waiting for confirmation")

	if err := l.waitForConfirmation(ctx, sig); err != nil {
		log.WithError(err).Warn("transaction not confirmed")
		return sig, err
	}

	metrics.RecordDuration(ctx, confirmationLatencyMetricName, time.Since(start))
	log.Debug("transaction confirmed")
	return sig, nil
}

// waitForConfirmation polls the signature status until it reaches the
// configured commitment, fails, or the confirmation timeout elapses.
func (l *rpcLedger) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	pollCtx, cancel := context.WithTimeout(ctx, l.confirmationTimeout)
	defer cancel()

	_, err := retry.Retry(
		func() error {
			statuses, err := call(pollCtx, "getSignatureStatuses", func() ([]*solana.SignatureStatus, error) {
				return l.client.GetSignatureStatuses([]solana.Signature{sig})
			})
			if err != nil {
				return err
			}

			if len(statuses) == 0 || statuses[0] == nil {
				return errPending
			}
			if statuses[0].ErrorResult != nil {
				return statuses[0].ErrorResult
			}
			if !statuses[0].Satisfies(l.commitment) {
				return errPending
			}
			return nil
		},
		retry.RetriableErrors(errPending),
		retry.WhileActive(pollCtx),
		retry.Backoff(backoff.Constant(l.pollInterval), l.pollInterval),
	)

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case err == errPending || errors.Is(err, context.DeadlineExceeded):
		return errors.Wrapf(ledger.ErrNotConfirmed, "%s after %v", sig.String(), l.confirmationTimeout)
	default:
		return err
	}
}

// call runs fn, a blocking RPC round-trip, so that the caller can abandon it
// when ctx is done. Results are classified into the ledger error taxonomy.
func call[T any](ctx context.Context, method string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		value T
		err   error
	}

	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return zero, classify(method, r.err)
		}
		return r.value, nil
	}
}

func classify(method string, err error) error {
	if err == solana.ErrNoAccountInfo {
		return ledger.ErrAccountNotFound
	}
	if txErr, ok := err.(*solana.TransactionError); ok {
		return txErr
	}
	return &ledger.RemoteError{Method: method, Err: err}
}
