package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/wehave/market/internal/near"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

// KeySigner signs function calls with keys from a local key store and
// submits them with broadcast_tx_commit.
type KeySigner struct {
	provider market.Provider
	keys     Keys
	log      *zap.Logger

	// one transaction in flight per signer keeps access key nonces in order
	mu sync.Mutex
}

func NewKeySigner(provider market.Provider, keys Keys, log *zap.Logger) *KeySigner {
	if log == nil {
		log = zap.NewNop()
	}

	return &KeySigner{
		provider: provider,
		keys:     keys,
		log:      log.Named("signer"),
	}
}

func (s *KeySigner) SignAndSendTransaction(ctx context.Context, signerID, receiverID string, actions []market.FunctionCall) (*market.TxOutcome, error) {
	kp, err := s.keys.KeyPair(signerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ak, err := s.provider.ViewAccessKey(ctx, signerID, kp.Public.String())
	if err != nil {
		return nil, fmt.Errorf("access key of %s: %w", signerID, err)
	}

	blk, err := s.provider.Block(ctx, market.FinalityFinal)
	if err != nil {
		return nil, fmt.Errorf("latest block: %w", err)
	}

	hash, err := near.DecodeBlockHash(blk.Header.Hash)
	if err != nil {
		return nil, err
	}

	tx := &near.Transaction{
		SignerID:   signerID,
		PublicKey:  kp.Public,
		Nonce:      ak.Nonce + 1,
		ReceiverID: receiverID,
		BlockHash:  hash,
		Actions:    actions,
	}

	stx, err := tx.Sign(kp)
	if err != nil {
		return nil, err
	}

	s.log.Info("sending transaction",
		zap.String("hash", stx.HashString()),
		zap.String("signer", signerID),
		zap.String("receiver", receiverID),
		zap.Int("actions", len(actions)),
	)

	return s.provider.BroadcastTxCommit(ctx, stx.Serialize())
}
