package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

var ErrNotSignedIn = market.ErrNotSignedIn

// Contracts are the accounts of the marketplace contracts.
type Contracts struct {
	Network   string `json:"network"`
	Crowdfund string `json:"crowdfund"`
	Items     string `json:"items"`
	USDC      string `json:"usdc"`
}

// CallRequest describes a single function call. Zero gas and a nil deposit
// fall back to DefaultGas and no deposit.
type CallRequest struct {
	ContractID string
	Method     string
	Args       any
	Gas        uint64
	Deposit    *market.Amount
}

// Wallet is the single entry point to the chain: reading contract state,
// signing in and out, and sending function calls as the signed in account.
type Wallet struct {
	provider market.Provider
	signer   market.Signer
	keys     Keys
	sessions SessionStore
	log      *zap.Logger

	mu        sync.RWMutex
	session   *market.Session
	contracts Contracts
	started   bool
}

func New(provider market.Provider, signer market.Signer, keys Keys, sessions SessionStore, contracts Contracts, log *zap.Logger) *Wallet {
	if log == nil {
		log = zap.NewNop()
	}

	return &Wallet{
		provider:  provider,
		signer:    signer,
		keys:      keys,
		sessions:  sessions,
		contracts: contracts,
		log:       log.Named("wallet"),
	}
}

// StartUp restores a persisted session and reports whether someone is
// signed in.
func (w *Wallet) StartUp(ctx context.Context) (bool, error) {
	s, err := w.sessions.Load()
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.started = true

	if s == nil || (s.Network != "" && s.Network != w.contracts.Network) {
		w.session = nil
		return false, nil
	}

	w.session = s

	w.log.Info("session restored", zap.String("account", s.AccountID))

	return true, nil
}

func (w *Wallet) SignedIn() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.started && w.session != nil
}

// AccountID returns the signed in account, or an empty string.
func (w *Wallet) AccountID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.session == nil {
		return ""
	}
	return w.session.AccountID
}

func (w *Wallet) Session() *market.Session {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.session == nil {
		return nil
	}

	s := *w.session
	return &s
}

func (w *Wallet) Contracts() Contracts {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.contracts
}

// SignIn selects accountID as the signing account. The account needs a local
// key that is registered as an access key on chain.
func (w *Wallet) SignIn(ctx context.Context, accountID string) (*market.Session, error) {
	kp, err := w.keys.KeyPair(accountID)
	if err != nil {
		return nil, err
	}

	pub := kp.Public.String()

	if _, err := w.provider.ViewAccessKey(ctx, accountID, pub); err != nil {
		return nil, fmt.Errorf("access key %s of %s: %w", pub, accountID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s := &market.Session{
		Network:    w.contracts.Network,
		AccountID:  accountID,
		PublicKey:  pub,
		SignedInAt: time.Now().UTC(),
	}

	if err := w.sessions.Save(s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	w.session = s
	w.started = true

	w.log.Info("signed in", zap.String("account", accountID))

	s2 := *s
	return &s2, nil
}

// SignOut forgets the session. Views keep working against the configured
// contracts.
func (w *Wallet) SignOut() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.sessions.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	if w.session != nil {
		w.log.Info("signed out", zap.String("account", w.session.AccountID))
	}

	w.session = nil

	return nil
}

// ViewMethod runs a read only method and decodes its JSON result into out.
// Nil args are sent as an empty object.
func (w *Wallet) ViewMethod(ctx context.Context, contractID, method string, args any, out any) error {
	if args == nil {
		args = struct{}{}
	}

	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%s: marshal args: %w", method, err)
	}

	res, err := w.provider.CallFunction(ctx, contractID, method, b, market.FinalityOptimistic)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", contractID, method, err)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(res.Result, out); err != nil {
		return fmt.Errorf("%s.%s: decode result: %w", contractID, method, err)
	}

	return nil
}

// CallMethod signs and sends a single function call as the signed in account.
func (w *Wallet) CallMethod(ctx context.Context, req CallRequest) (*market.TxOutcome, error) {
	signer := w.AccountID()
	if signer == "" {
		return nil, ErrNotSignedIn
	}

	args := req.Args
	if args == nil {
		args = struct{}{}
	}

	b, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal args: %w", req.Method, err)
	}

	gas := req.Gas
	if gas == 0 {
		gas = near.DefaultGas
	}

	deposit := near.NoDeposit
	if req.Deposit != nil {
		deposit = *req.Deposit
	}

	w.log.Debug("call", zap.String("contract", req.ContractID), zap.String("method", req.Method), zap.Uint64("gas", gas), zap.Stringer("deposit", deposit))

	out, err := w.signer.SignAndSendTransaction(ctx, signer, req.ContractID, []market.FunctionCall{
		{
			MethodName: req.Method,
			Args:       b,
			Gas:        gas,
			Deposit:    deposit,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", req.ContractID, req.Method, err)
	}

	return out, nil
}

// TransactionResult fetches the outcome of a transaction and returns the value
// of its last receipt.
func (w *Wallet) TransactionResult(ctx context.Context, hash string) (json.RawMessage, error) {
	sender := w.AccountID()
	if sender == "" {
		// the node only uses the sender to pick a shard
		sender = "unused"
	}

	out, err := w.provider.TxStatus(ctx, hash, sender)
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", hash, err)
	}

	return out.LastResult()
}
