package wallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/internal/storage"
	"github.com/wehave/market/pkg/market"
)

type viewCall struct {
	contract string
	method   string
	args     string
}

type fakeProvider struct {
	views     []viewCall
	results   map[string]string
	nonce     uint64
	blockHash string
	sent      [][]byte
	keyErr    error
}

func (f *fakeProvider) CallFunction(ctx context.Context, contractID, method string, args []byte, finality string) (*market.CallResult, error) {
	if finality != market.FinalityOptimistic {
		return nil, fmt.Errorf("unexpected finality %s", finality)
	}

	f.views = append(f.views, viewCall{contractID, method, string(args)})

	res, ok := f.results[contractID+"."+method]
	if !ok {
		return nil, errors.New("no result")
	}

	return &market.CallResult{Result: []byte(res)}, nil
}

func (f *fakeProvider) ViewAccessKey(ctx context.Context, accountID, publicKey string) (*market.AccessKeyView, error) {
	if f.keyErr != nil {
		return nil, f.keyErr
	}
	return &market.AccessKeyView{Nonce: f.nonce}, nil
}

func (f *fakeProvider) Block(ctx context.Context, finality string) (*market.BlockView, error) {
	return &market.BlockView{Header: market.BlockHeader{Hash: f.blockHash}}, nil
}

func (f *fakeProvider) BroadcastTxCommit(ctx context.Context, signedTx []byte) (*market.TxOutcome, error) {
	f.sent = append(f.sent, signedTx)
	return &market.TxOutcome{}, nil
}

func (f *fakeProvider) TxStatus(ctx context.Context, hash, senderID string) (*market.TxOutcome, error) {
	v := base64.StdEncoding.EncodeToString([]byte(`"` + senderID + `"`))
	return &market.TxOutcome{Status: market.ExecutionStatus{SuccessValue: &v}}, nil
}

func (f *fakeProvider) Status(ctx context.Context) (*market.StatusView, error) {
	return &market.StatusView{ChainID: "testnet"}, nil
}

type sentTx struct {
	signer   string
	receiver string
	actions  []market.FunctionCall
}

type fakeSigner struct {
	sent []sentTx
}

func (f *fakeSigner) SignAndSendTransaction(ctx context.Context, signerID, receiverID string, actions []market.FunctionCall) (*market.TxOutcome, error) {
	f.sent = append(f.sent, sentTx{signerID, receiverID, actions})
	return &market.TxOutcome{}, nil
}

var testContracts = Contracts{
	Network:   "testnet",
	Crowdfund: "crowdfunds.wehave.testnet",
	Items:     "items.wehave.testnet",
	USDC:      "usdc.fakes.testnet",
}

func newTestWallet(t *testing.T) (*Wallet, *fakeProvider, *fakeSigner, *KeyStore) {
	t.Helper()

	ks := NewKeyStore(t.TempDir(), "testnet")

	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, ks.Save("alice.testnet", kp))

	p := &fakeProvider{results: map[string]string{}}
	s := &fakeSigner{}

	return New(p, s, ks, &MemorySessionStore{}, testContracts, nil), p, s, ks
}

func signIn(t *testing.T, w *Wallet) {
	t.Helper()

	_, err := w.SignIn(context.Background(), "alice.testnet")
	require.NoError(t, err)
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	w, p, _, _ := newTestWallet(t)

	ok, err := w.StartUp(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, w.SignedIn())
	require.Equal(t, "", w.AccountID())

	_, err = w.SignIn(ctx, "bob.testnet")
	require.ErrorIs(t, err, ErrKeyNotFound)

	p.keyErr = errors.New("access key does not exist")
	_, err = w.SignIn(ctx, "alice.testnet")
	require.Error(t, err)
	require.False(t, w.SignedIn())

	p.keyErr = nil
	s, err := w.SignIn(ctx, "alice.testnet")
	require.NoError(t, err)
	require.Equal(t, "alice.testnet", s.AccountID)
	require.Equal(t, "testnet", s.Network)
	require.True(t, w.SignedIn())
	require.Equal(t, "alice.testnet", w.AccountID())

	require.NoError(t, w.SignOut())
	require.False(t, w.SignedIn())
	require.Equal(t, "", w.AccountID())
	require.Equal(t, testContracts, w.Contracts())
}

func TestViewAfterSignOut(t *testing.T) {
	ctx := context.Background()
	w, p, _, _ := newTestWallet(t)

	p.results["crowdfunds.wehave.testnet.get_current_items"] = `[{"title":"Tesla","extra":"tesla"}]`

	_, err := w.SignIn(ctx, "alice.testnet")
	require.NoError(t, err)

	_, err = w.CurrentCrowdfunds(ctx)
	require.NoError(t, err)

	require.NoError(t, w.SignOut())

	items, err := w.CurrentCrowdfunds(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "crowdfunds.wehave.testnet", p.views[len(p.views)-1].contract)

	_, err = w.SignIn(ctx, "alice.testnet")
	require.NoError(t, err)
	require.Equal(t, testContracts, w.Contracts())

	_, err = w.CurrentCrowdfunds(ctx)
	require.NoError(t, err)
	require.Equal(t, "crowdfunds.wehave.testnet", p.views[len(p.views)-1].contract)
}

func TestStartUpRestoresSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewFileSessionStore(path)
	require.NoError(t, store.Save(&market.Session{Network: "testnet", AccountID: "alice.testnet"}))

	w := New(&fakeProvider{}, &fakeSigner{}, NewKeyStore(t.TempDir(), "testnet"), store, testContracts, nil)

	ok, err := w.StartUp(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice.testnet", w.AccountID())

	require.NoError(t, w.SignOut())

	s, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, s)

	// a session of another network is ignored
	require.NoError(t, store.Save(&market.Session{Network: "mainnet", AccountID: "alice.near"}))

	w = New(&fakeProvider{}, &fakeSigner{}, NewKeyStore(t.TempDir(), "testnet"), store, testContracts, nil)
	ok, err = w.StartUp(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestViewMethod(t *testing.T) {
	ctx := context.Background()
	w, p, _, _ := newTestWallet(t)

	p.results["crowdfunds.wehave.testnet.get_crowdfund_goal"] = `5000`
	p.results["crowdfunds.wehave.testnet.get_crowdfund_progress"] = `"1200"`
	p.results["crowdfunds.wehave.testnet.get_current_items"] = `[{"title":"Tesla","extra":"tesla"}]`
	p.results["items.wehave.testnet.nft_token"] = `{"token_id":"0","owner_id":"tesla.items.wehave.testnet"}`
	p.results["dao-tesla.items.wehave.testnet.get_proposals"] = `["Sell it?", ["Paint it?", ["yes", "no"]]]`
	p.results["dao-tesla.items.wehave.testnet.get_proposal_votes"] = `[["alice.testnet", 1]]`

	goal, err := w.CrowdfundGoal(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "5000", goal.String())
	require.Equal(t, `{"item_index":3}`, p.views[0].args)

	progress, err := w.CrowdfundProgress(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "1200", progress.String())

	items, err := w.CurrentCrowdfunds(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "{}", p.views[2].args)

	tok, err := w.SingleTokenFromNFT(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "dao-tesla.items.wehave.testnet", tok.DAOAccount())
	require.Equal(t, `{"token_id":"0"}`, p.views[3].args)

	ps, err := w.Proposals(ctx, tok.DAOAccount())
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, uint64(1), ps[1].Index)
	require.Equal(t, []string{"yes", "no"}, ps[1].Options)

	votes, err := w.ProposalVotes(ctx, tok.DAOAccount(), 1)
	require.NoError(t, err)
	require.Equal(t, []market.Vote{{AccountID: "alice.testnet", Option: 1}}, votes)

	_, err = w.FTTotalSupply(ctx, "missing.testnet")
	require.Error(t, err)
}

func TestCallMethodRequiresSignIn(t *testing.T) {
	w, _, s, _ := newTestWallet(t)

	_, err := w.FundUSDC(context.Background(), 1, market.NewAmount(10))
	require.ErrorIs(t, err, ErrNotSignedIn)

	_, err = w.ClaimTokens(context.Background(), "tesla")
	require.ErrorIs(t, err, ErrNotSignedIn)

	require.Empty(t, s.sent)
}

func TestContractCalls(t *testing.T) {
	ctx := context.Background()
	w, _, s, _ := newTestWallet(t)
	signIn(t, w)

	_, err := w.FundUSDC(ctx, 2, market.NewAmount(250))
	require.NoError(t, err)

	_, err = w.ClaimTokens(ctx, "tesla")
	require.NoError(t, err)

	_, err = w.VoteForProposal(ctx, "dao-tesla.items.wehave.testnet", 0, 1)
	require.NoError(t, err)

	_, err = w.CreateProposal(ctx, "dao-tesla.items.wehave.testnet", "Sell it?", []string{"yes", "no"})
	require.NoError(t, err)

	_, err = w.CreateCrowdfund(ctx, "Tesla Model 3", "teslamodel3", "A car", market.NewAmount(5000), "https://ipfs.io/ipfs/cid/image.jpg", "https://ipfs.io/ipfs/cid/information.json")
	require.NoError(t, err)

	require.Len(t, s.sent, 5)

	cases := []struct {
		receiver string
		method   string
		args     string
		gas      uint64
		deposit  string
	}{
		{"usdc.fakes.testnet", "ft_transfer_call", `{"amount":"250","memo":"funding","msg":"2","receiver_id":"crowdfunds.wehave.testnet"}`, near.MaxGas, "1"},
		{"tesla.items.wehave.testnet", "storage_deposit", `{"account_id":"alice.testnet"}`, near.MaxGas, "1250000000000000000000"},
		{"dao-tesla.items.wehave.testnet", "cast_vote", `{"answer_index":1,"proposal_index":0}`, near.MaxGas, "0"},
		{"dao-tesla.items.wehave.testnet", "new_proposal", `{"options":["yes","no"],"question":"Sell it?"}`, near.DefaultGas, "0"},
		{"crowdfunds.wehave.testnet", "new_item", `{"goal":5000,"item_metadata":{"title":"Tesla Model 3","description":"A car","media":"https://ipfs.io/ipfs/cid/image.jpg","extra":"teslamodel3","reference":"https://ipfs.io/ipfs/cid/information.json"}}`, near.DefaultGas, "0"},
	}

	for i, tc := range cases {
		tx := s.sent[i]
		require.Equal(t, "alice.testnet", tx.signer)
		require.Equal(t, tc.receiver, tx.receiver)
		require.Len(t, tx.actions, 1)

		a := tx.actions[0]
		require.Equal(t, tc.method, a.MethodName)
		require.JSONEq(t, tc.args, string(a.Args))
		require.Equal(t, tc.gas, a.Gas)
		require.Equal(t, tc.deposit, a.Deposit.String())
	}
}

func TestTransactionResult(t *testing.T) {
	w, _, _, _ := newTestWallet(t)

	r, err := w.TransactionResult(context.Background(), "hash")
	require.NoError(t, err)
	require.Equal(t, `"unused"`, string(r))

	signIn(t, w)

	r, err = w.TransactionResult(context.Background(), "hash")
	require.NoError(t, err)
	require.Equal(t, `"alice.testnet"`, string(r))
}

func TestKeySigner(t *testing.T) {
	ks := NewKeyStore(t.TempDir(), "testnet")

	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, ks.Save("alice.testnet", kp))

	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = byte(i)
	}

	p := &fakeProvider{nonce: 41, blockHash: base58.Encode(hash)}
	s := NewKeySigner(p, ks, nil)

	_, err = s.SignAndSendTransaction(context.Background(), "alice.testnet", "crowdfunds.wehave.testnet", []market.FunctionCall{
		{MethodName: "new_item", Args: []byte(`{}`), Gas: near.DefaultGas, Deposit: near.NoDeposit},
	})
	require.NoError(t, err)
	require.Len(t, p.sent, 1)

	raw := p.sent[0]
	body, sig := raw[:len(raw)-65], raw[len(raw)-64:]
	require.Equal(t, byte(0), raw[len(raw)-65])

	digest := sha256.Sum256(body)
	require.True(t, ed25519.Verify(kp.Public.Data[:], digest[:], sig))

	var blockHash [32]byte
	copy(blockHash[:], hash)

	expected, err := (&near.Transaction{
		SignerID:   "alice.testnet",
		PublicKey:  kp.Public,
		Nonce:      42,
		ReceiverID: "crowdfunds.wehave.testnet",
		BlockHash:  blockHash,
		Actions:    []market.FunctionCall{{MethodName: "new_item", Args: []byte(`{}`), Gas: near.DefaultGas, Deposit: near.NoDeposit}},
	}).Serialize()
	require.NoError(t, err)
	require.Equal(t, expected, body)

	_, err = s.SignAndSendTransaction(context.Background(), "bob.testnet", "x.testnet", nil)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyStore(t *testing.T) {
	dir := t.TempDir()
	ks := NewKeyStore(dir, "testnet")

	accounts, err := ks.Accounts()
	require.NoError(t, err)
	require.Empty(t, accounts)

	kp, err := near.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, ks.Save("bob.testnet", kp))
	require.NoError(t, ks.Save("alice.testnet", kp))

	accounts, err = ks.Accounts()
	require.NoError(t, err)
	require.Equal(t, []string{"alice.testnet", "bob.testnet"}, accounts)

	got, err := ks.KeyPair("alice.testnet")
	require.NoError(t, err)
	require.Equal(t, kp.Public, got.Public)

	// credentials with a mismatching public key are rejected
	other, err := near.GenerateKeyPair()
	require.NoError(t, err)

	b, err := json.Marshal(&Credentials{AccountID: "carol.testnet", PublicKey: other.Public.String(), PrivateKey: kp.PrivateString()})
	require.NoError(t, err)
	require.NoError(t, storage.Save(filepath.Join(dir, "testnet", "carol.testnet.json"), b, 0600))

	_, err = ks.KeyPair("carol.testnet")
	require.ErrorIs(t, err, near.ErrInvalidKey)

	_, err = ks.KeyPair("Not An Account")
	require.Error(t, err)
}
