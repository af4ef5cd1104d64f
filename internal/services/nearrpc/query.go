package nearrpc

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/wehave/market/pkg/market"
)

// CallFunction runs a view method of a contract. The result bytes are the raw
// value returned by the contract.
func (s *NearService) CallFunction(ctx context.Context, contractID, method string, args []byte, finality string) (*market.CallResult, error) {
	if finality == "" {
		finality = market.FinalityOptimistic
	}

	params := map[string]any{
		"request_type": "call_function",
		"finality":     finality,
		"account_id":   contractID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(args),
	}

	var res market.CallResult
	err := s.call(ctx, NEARQuery, params, &res)
	if err != nil {
		return nil, err
	}

	// older nodes report contract panics inside a successful response
	if res.Error != "" {
		return nil, fmt.Errorf("%w: %s.%s: %s", ErrQuery, contractID, method, res.Error)
	}

	return &res, nil
}

func (s *NearService) ViewAccessKey(ctx context.Context, accountID, publicKey string) (*market.AccessKeyView, error) {
	params := map[string]any{
		"request_type": "view_access_key",
		"finality":     market.FinalityFinal,
		"account_id":   accountID,
		"public_key":   publicKey,
	}

	var res struct {
		market.AccessKeyView
		Error string `json:"error"`
	}
	err := s.call(ctx, NEARQuery, params, &res)
	if err != nil {
		return nil, err
	}

	if res.Error != "" {
		return nil, fmt.Errorf("%w: access key %s for %s: %s", ErrQuery, publicKey, accountID, res.Error)
	}

	return &res.AccessKeyView, nil
}

func (s *NearService) Block(ctx context.Context, finality string) (*market.BlockView, error) {
	if finality == "" {
		finality = market.FinalityFinal
	}

	var blk market.BlockView
	err := s.call(ctx, NEARBlock, map[string]any{"finality": finality}, &blk)
	if err != nil {
		return nil, err
	}

	return &blk, nil
}

// BroadcastTxCommit submits a borsh encoded signed transaction and waits for
// its final outcome.
func (s *NearService) BroadcastTxCommit(ctx context.Context, signedTx []byte) (*market.TxOutcome, error) {
	var out market.TxOutcome
	err := s.call(ctx, NEARBroadcastTxCommit, []string{base64.StdEncoding.EncodeToString(signedTx)}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *NearService) TxStatus(ctx context.Context, hash, senderID string) (*market.TxOutcome, error) {
	var out market.TxOutcome
	err := s.call(ctx, NEARTx, []string{hash, senderID}, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *NearService) Status(ctx context.Context) (*market.StatusView, error) {
	var st market.StatusView
	err := s.call(ctx, NEARStatus, []any{}, &st)
	if err != nil {
		return nil, err
	}

	return &st, nil
}
