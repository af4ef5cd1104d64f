package nearrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

const (
	NEARQuery             = "query"
	NEARBlock             = "block"
	NEARBroadcastTxCommit = "broadcast_tx_commit"
	NEARTx                = "tx"
	NEARStatus            = "status"
)

var (
	ErrQuery          = errors.New("query failed")
	ErrUnknownNetwork = errors.New("unknown network")
)

type Network struct {
	ID          string
	NodeURL     string
	WalletURL   string
	ExplorerURL string
}

var Networks = map[string]Network{
	"testnet": {
		ID:          "testnet",
		NodeURL:     "https://rpc.testnet.near.org",
		WalletURL:   "https://testnet.mynearwallet.com",
		ExplorerURL: "https://testnet.nearblocks.io",
	},
	"mainnet": {
		ID:          "mainnet",
		NodeURL:     "https://rpc.mainnet.near.org",
		WalletURL:   "https://app.mynearwallet.com",
		ExplorerURL: "https://nearblocks.io",
	},
}

func GetNetwork(id string) (Network, error) {
	n, ok := Networks[id]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, id)
	}
	return n, nil
}

// NearService talks JSON-RPC 2.0 to a NEAR node. Calls are not retried,
// errors are returned to the caller as they come.
type NearService struct {
	endpoint string
	client   *http.Client
	id       atomic.Uint64
	log      *zap.Logger
	metrics  *Metrics
}

type Option func(*NearService)

func WithHTTPClient(c *http.Client) Option {
	return func(s *NearService) {
		s.client = c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *NearService) {
		s.log = l
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *NearService) {
		s.metrics = m
	}
}

func NewNearService(endpoint string, opts ...Option) *NearService {
	s := &NearService{
		endpoint: endpoint,
		client:   http.DefaultClient,
		log:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *NearService) Endpoint() string {
	return s.endpoint
}

func (s *NearService) call(ctx context.Context, method string, params any, result any) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.observe(method, start, err)
	}()

	body, err := json.Marshal(&market.JsonRPCRequest{
		Version: "2.0",
		ID:      strconv.FormatUint(s.id.Add(1), 10),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var rpcResp market.JsonRPCResponse
	if err := json.Unmarshal(b, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status %d: %s", method, resp.StatusCode, string(b))
		}
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if rpcResp.Error != nil {
		s.log.Debug("rpc error", zap.String("method", method), zap.Int("code", rpcResp.Error.Code), zap.String("message", rpcResp.Error.Message))
		return rpcResp.Error
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	if result == nil || len(rpcResp.Result) == 0 {
		return nil
	}

	return json.Unmarshal(rpcResp.Result, result)
}
