// Package memory provides an in-process ledger for tests. It executes the
// system, memo and compute budget programs itself and delegates instructions
// for deployed programs to Go implementations registered with Deploy.
package memory

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/greeter/pkg/ledger"
	"github.com/code-payments/greeter/pkg/solana"
	"github.com/code-payments/greeter/pkg/solana/computebudget"
	"github.com/code-payments/greeter/pkg/solana/memo"
	"github.com/code-payments/greeter/pkg/solana/system"
)

const (
	// DefaultSignatureFee matches the fee charged by mainnet per signature.
	DefaultSignatureFee = 5000

	// Rent exemption requires two years of rent at the default
	// 3480 lamports per byte-year, with 128 bytes of account overhead.
	accountStorageOverhead  = 128
	lamportsPerByteYear     = 3480
	exemptionThresholdYears = 2

	version = "memory"
)

// LoaderKey owns accounts created by Deploy, BPFLoaderUpgradeab1e11111111111111111111111.
var LoaderKey = ed25519.PublicKey{2, 168, 246, 145, 78, 136, 161, 176, 226, 16, 21, 62, 247, 99, 174, 43, 0, 194, 185, 61, 22, 193, 36, 210, 192, 83, 122, 16, 4, 128, 0, 0}

var errAirdropsDisabled = errors.New("airdrops are disabled")

// Program executes an instruction addressed to a deployed program. accounts
// holds the state of each account the instruction references, in order, and
// is nil for accounts that don't exist. A program may only modify the data of
// writable accounts it owns.
type Program func(ix solana.Instruction, accounts []*solana.AccountInfo) error

// Option configures a Ledger.
type Option func(*Ledger)

// WithSignatureFee overrides the per-signature fee.
func WithSignatureFee(lamports uint64) Option {
	return func(l *Ledger) {
		l.signatureFee = lamports
	}
}

// WithAirdropCap limits each airdrop to at most lamports, like a public
// faucet. A cap of zero rejects airdrops entirely.
func WithAirdropCap(lamports uint64) Option {
	return func(l *Ledger) {
		l.airdropCap = &lamports
	}
}

// Ledger is an in memory ledger.Ledger. It is safe for concurrent use.
type Ledger struct {
	log *logrus.Entry

	signatureFee uint64
	airdropCap   *uint64

	mu          sync.Mutex
	accounts    map[string]*solana.AccountInfo
	programs    map[string]Program
	signatures  map[solana.Signature]struct{}
	slot        uint64
	unavailable bool
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		log:          logrus.StandardLogger().WithField("type", "ledger/memory"),
		signatureFee: DefaultSignatureFee,
		accounts:     make(map[string]*solana.AccountInfo),
		programs:     make(map[string]Program),
		signatures:   make(map[solana.Signature]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Deploy creates an executable account at address whose instructions are
// handled by program.
func (l *Ledger) Deploy(address ed25519.PublicKey, program Program) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(address)] = &solana.AccountInfo{
		Owner:      LoaderKey,
		Lamports:   rentExemptBalance(36),
		Executable: true,
	}
	l.programs[string(address)] = program
}

// SetAccount stores info at address, replacing any existing account.
func (l *Ledger) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(address)] = cloneAccount(&info)
}

// SetUnavailable makes every call fail with a *ledger.RemoteError, simulating
// an unreachable node.
func (l *Ledger) SetUnavailable(unavailable bool) {
	l.mu.Lock()
	l.unavailable = unavailable
	l.mu.Unlock()
}

// Signatures returns the number of transactions that have been processed.
func (l *Ledger) Signatures() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.signatures)
}

func (l *Ledger) Endpoint() string {
	return "memory://"
}

func (l *Ledger) GetVersion(ctx context.Context) (solana.Version, error) {
	if err := l.checkAvailable(ctx, "getVersion"); err != nil {
		return solana.Version{}, err
	}
	return solana.Version{SolanaCore: version}, nil
}

func (l *Ledger) GetBalance(ctx context.Context, account ed25519.PublicKey) (uint64, error) {
	if err := l.checkAvailable(ctx, "getBalance"); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if info, ok := l.accounts[string(account)]; ok {
		return info.Lamports, nil
	}
	return 0, nil
}

func (l *Ledger) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	if err := l.checkAvailable(ctx, "getMinimumBalanceForRentExemption"); err != nil {
		return 0, err
	}
	return rentExemptBalance(size), nil
}

func (l *Ledger) GetSignatureFee(ctx context.Context, _ ed25519.PublicKey) (uint64, error) {
	if err := l.checkAvailable(ctx, "getFeeForMessage"); err != nil {
		return 0, err
	}
	return l.signatureFee, nil
}

func (l *Ledger) RequestAirdrop(ctx context.Context, account ed25519.PublicKey, lamports uint64) (solana.Signature, error) {
	if err := l.checkAvailable(ctx, "requestAirdrop"); err != nil {
		return solana.Signature{}, err
	}

	if l.airdropCap != nil {
		if *l.airdropCap == 0 {
			return solana.Signature{}, &ledger.RemoteError{Method: "requestAirdrop", Err: errAirdropsDisabled}
		}
		if lamports > *l.airdropCap {
			lamports = *l.airdropCap
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.accounts[string(account)]
	if !ok {
		info = &solana.AccountInfo{Owner: system.ProgramKey}
		l.accounts[string(account)] = info
	}
	info.Lamports += lamports

	sig := l.nextSignature(account)
	l.log.WithFields(logrus.Fields{
		"account":  base58.Encode(account),
		"lamports": lamports,
	}).Debug("airdrop credited")

	return sig, nil
}

func (l *Ledger) GetAccountInfo(ctx context.Context, account ed25519.PublicKey) (*solana.AccountInfo, error) {
	if err := l.checkAvailable(ctx, "getAccountInfo"); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.accounts[string(account)]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return cloneAccount(info), nil
}

// SubmitAndConfirm executes the transaction atomically. Rejected transactions
// leave the ledger untouched and are not charged a fee.
func (l *Ledger) SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction, signers ...ed25519.PrivateKey) (solana.Signature, error) {
	if len(signers) == 0 {
		return solana.Signature{}, ledger.ErrNoSigners
	}
	if err := l.checkAvailable(ctx, "sendTransaction"); err != nil {
		return solana.Signature{}, err
	}

	payer := signers[0].Public().(ed25519.PublicKey)
	txn := solana.NewTransaction(payer, instructions...)

	l.mu.Lock()
	defer l.mu.Unlock()

	txn.SetBlockhash(l.nextBlockhash())
	if err := txn.Sign(signers...); err != nil {
		return solana.Signature{}, err
	}
	if err := txn.Verify(); err != nil {
		return txn.Signature(), solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}

	payerAccount, ok := l.accounts[string(payer)]
	if !ok {
		return txn.Signature(), solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	fee := l.signatureFee * uint64(txn.Message.Header.NumSignatures)
	if payerAccount.Lamports < fee {
		return txn.Signature(), solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}

	state := cloneState(l.accounts)
	state[string(payer)].Lamports -= fee

	for i := range txn.Message.Instructions {
		if err := l.execute(state, txn.Message, i); err != nil {
			if txErr, ok := err.(*solana.TransactionError); ok {
				return txn.Signature(), txErr
			}

			txErr, convErr := solana.TransactionErrorFromInstructionError(&solana.InstructionError{Index: i, Err: err})
			if convErr != nil {
				return txn.Signature(), convErr
			}
			return txn.Signature(), txErr
		}
	}

	l.accounts = state
	l.signatures[txn.Signature()] = struct{}{}

	l.log.WithFields(logrus.Fields{
		"signature":    txn.Signature().String(),
		"instructions": len(instructions),
	}).Debug("transaction processed")

	return txn.Signature(), nil
}

func (l *Ledger) execute(state map[string]*solana.AccountInfo, m solana.Message, index int) error {
	program := m.Accounts[m.Instructions[index].ProgramIndex]

	switch {
	case bytes.Equal(program, system.ProgramKey):
		return executeSystem(state, m, index)
	case bytes.Equal(program, memo.ProgramKey):
		if _, err := memo.DecompileMemo(m, index); err != nil {
			return instructionError(solana.InstructionErrorInvalidInstructionData)
		}
		return nil
	case computebudget.IsComputeBudgetInstruction(m, index):
		return nil
	}

	impl, ok := l.programs[string(program)]
	if !ok {
		return solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound)
	}
	if info, ok := state[string(program)]; !ok || !info.Executable {
		return instructionError(solana.InstructionErrorAccountNotExecutable)
	}

	ix, err := solana.DecompileInstruction(m, index)
	if err != nil {
		return instructionError(solana.InstructionErrorNotEnoughAccountKeys)
	}

	accounts := make([]*solana.AccountInfo, len(ix.Accounts))
	before := make([][]byte, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		if info, ok := state[string(meta.PublicKey)]; ok {
			accounts[i] = info
			before[i] = append([]byte{}, info.Data...)
		}
	}

	if err := impl(ix, accounts); err != nil {
		return err
	}

	for i, meta := range ix.Accounts {
		if accounts[i] == nil || bytes.Equal(before[i], accounts[i].Data) {
			continue
		}
		if !bytes.Equal(accounts[i].Owner, program) || !meta.IsWritable {
			return instructionError(solana.InstructionErrorExternalDataModified)
		}
		if len(before[i]) != len(accounts[i].Data) {
			return instructionError(solana.InstructionErrorInvalidAccountData)
		}
	}

	return nil
}

func (l *Ledger) checkAvailable(ctx context.Context, method string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.unavailable {
		return &ledger.RemoteError{Method: method, Err: errors.New("connection refused")}
	}
	return nil
}

func (l *Ledger) nextBlockhash() solana.Blockhash {
	l.slot++

	var slot [8]byte
	binary.LittleEndian.PutUint64(slot[:], l.slot)
	return solana.Blockhash(sha256.Sum256(slot[:]))
}

// nextSignature derives a unique signature for ledger-originated
// transactions such as airdrops.
func (l *Ledger) nextSignature(account ed25519.PublicKey) solana.Signature {
	bh := l.nextBlockhash()

	var sig solana.Signature
	first := sha256.Sum256(append(bh[:], account...))
	second := sha256.Sum256(first[:])
	copy(sig[:32], first[:])
	copy(sig[32:], second[:])

	l.signatures[sig] = struct{}{}
	return sig
}

func rentExemptBalance(size uint64) uint64 {
	return (accountStorageOverhead + size) * lamportsPerByteYear * exemptionThresholdYears
}

func cloneAccount(info *solana.AccountInfo) *solana.AccountInfo {
	return &solana.AccountInfo{
		Data:       append([]byte{}, info.Data...),
		Owner:      append(ed25519.PublicKey{}, info.Owner...),
		Lamports:   info.Lamports,
		Executable: info.Executable,
	}
}

func cloneState(accounts map[string]*solana.AccountInfo) map[string]*solana.AccountInfo {
	cloned := make(map[string]*solana.AccountInfo, len(accounts))
	for k, v := range accounts {
		cloned[k] = cloneAccount(v)
	}
	return cloned
}

func instructionError(key solana.InstructionErrorKey) error {
	return errors.New(string(key))
}
