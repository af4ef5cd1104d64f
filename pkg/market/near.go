package market

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	FinalityOptimistic = "optimistic"
	FinalityFinal      = "final"
)

// Provider is the read side of a NEAR node, reached over JSON-RPC.
type Provider interface {
	CallFunction(ctx context.Context, contractID, method string, args []byte, finality string) (*CallResult, error)
	ViewAccessKey(ctx context.Context, accountID, publicKey string) (*AccessKeyView, error)
	Block(ctx context.Context, finality string) (*BlockView, error)
	BroadcastTxCommit(ctx context.Context, signedTx []byte) (*TxOutcome, error)
	TxStatus(ctx context.Context, hash, senderID string) (*TxOutcome, error)
	Status(ctx context.Context) (*StatusView, error)
}

// FunctionCall is the only transaction action this application produces.
type FunctionCall struct {
	MethodName string `json:"method_name"`
	Args       []byte `json:"args"`
	Gas        uint64 `json:"gas"`
	Deposit    Amount `json:"deposit"`
}

// Signer signs transactions on behalf of an account and submits them.
type Signer interface {
	SignAndSendTransaction(ctx context.Context, signerID, receiverID string, actions []FunctionCall) (*TxOutcome, error)
}

type CallResult struct {
	Result      []byte   `json:"result"`
	Logs        []string `json:"logs"`
	BlockHeight uint64   `json:"block_height"`
	BlockHash   string   `json:"block_hash"`
	Error       string   `json:"error,omitempty"`
}

// UnmarshalJSON decodes the result as the node sends it: an array of byte
// values rather than a base64 string.
func (c *CallResult) UnmarshalJSON(b []byte) error {
	var raw struct {
		Result      []int    `json:"result"`
		Logs        []string `json:"logs"`
		BlockHeight uint64   `json:"block_height"`
		BlockHash   string   `json:"block_hash"`
		Error       string   `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	c.Result = make([]byte, len(raw.Result))
	for i, v := range raw.Result {
		if v < 0 || v > 255 {
			return fmt.Errorf("invalid result byte %d at %d", v, i)
		}
		c.Result[i] = byte(v)
	}
	c.Logs = raw.Logs
	c.BlockHeight = raw.BlockHeight
	c.BlockHash = raw.BlockHash
	c.Error = raw.Error

	return nil
}

type AccessKeyView struct {
	Nonce       uint64          `json:"nonce"`
	Permission  json.RawMessage `json:"permission"`
	BlockHeight uint64          `json:"block_height"`
	BlockHash   string          `json:"block_hash"`
}

type BlockHeader struct {
	Height    uint64 `json:"height"`
	Hash      string `json:"hash"`
	Timestamp uint64 `json:"timestamp"`
}

type BlockView struct {
	Author string      `json:"author"`
	Header BlockHeader `json:"header"`
}

type StatusView struct {
	ChainID string `json:"chain_id"`
	Version struct {
		Version string `json:"version"`
		Build   string `json:"build"`
	} `json:"version"`
	SyncInfo struct {
		LatestBlockHash   string `json:"latest_block_hash"`
		LatestBlockHeight uint64 `json:"latest_block_height"`
		Syncing           bool   `json:"syncing"`
	} `json:"sync_info"`
}

// ExecutionStatus is either a plain state ("NotStarted", "Started",
// "Unknown") or one of the SuccessValue / SuccessReceiptId / Failure variants.
type ExecutionStatus struct {
	State            string          `json:"state,omitempty"`
	SuccessValue     *string         `json:"SuccessValue,omitempty"`
	SuccessReceiptID *string         `json:"SuccessReceiptId,omitempty"`
	Failure          json.RawMessage `json:"Failure,omitempty"`
}

func (s *ExecutionStatus) UnmarshalJSON(b []byte) error {
	var state string
	if err := json.Unmarshal(b, &state); err == nil {
		*s = ExecutionStatus{State: state}
		return nil
	}

	type status ExecutionStatus
	var obj status
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}

	*s = ExecutionStatus(obj)
	return nil
}

type TxOutcome struct {
	Status      ExecutionStatus `json:"status"`
	Transaction struct {
		Hash       string `json:"hash"`
		SignerID   string `json:"signer_id"`
		ReceiverID string `json:"receiver_id"`
		Nonce      uint64 `json:"nonce"`
	} `json:"transaction"`
	TransactionOutcome json.RawMessage `json:"transaction_outcome,omitempty"`
	ReceiptsOutcome    json.RawMessage `json:"receipts_outcome,omitempty"`
}

var ErrTxFailed = errors.New("transaction failed")

// LastResult returns the JSON value returned by the last receipt of the
// transaction, or nil when the call returned nothing.
func (o *TxOutcome) LastResult() (json.RawMessage, error) {
	if len(o.Status.Failure) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrTxFailed, string(o.Status.Failure))
	}

	if o.Status.SuccessValue == nil {
		return nil, nil
	}

	b, err := base64.StdEncoding.DecodeString(*o.Status.SuccessValue)
	if err != nil {
		return nil, fmt.Errorf("decode success value: %w", err)
	}

	if len(b) == 0 {
		return nil, nil
	}

	if !json.Valid(b) {
		// plain bytes, return them as a JSON string
		return json.Marshal(string(b))
	}

	return b, nil
}
