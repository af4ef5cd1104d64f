package nearrpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/wehave/market/pkg/market"
)

type rpcRequest struct {
	Version string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

func newNode(t *testing.T, handle func(req rpcRequest) (any, *market.JSONRPCError)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		result, rpcErr := handle(req)

		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func bytesAsInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func TestCallFunction(t *testing.T) {
	node := newNode(t, func(req rpcRequest) (any, *market.JSONRPCError) {
		require.Equal(t, NEARQuery, req.Method)

		var params map[string]string
		require.NoError(t, json.Unmarshal(req.Params, &params))
		require.Equal(t, "call_function", params["request_type"])
		require.Equal(t, "optimistic", params["finality"])
		require.Equal(t, "crowdfunds.testnet", params["account_id"])
		require.Equal(t, "get_crowdfund_goal", params["method_name"])

		args, err := base64.StdEncoding.DecodeString(params["args_base64"])
		require.NoError(t, err)
		require.JSONEq(t, `{"item_index":3}`, string(args))

		return map[string]any{
			"result":       bytesAsInts([]byte("1000")),
			"logs":         []string{},
			"block_height": 42,
			"block_hash":   "abc",
		}, nil
	})

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := NewNearService(node.URL, WithMetrics(m))

	res, err := s.CallFunction(context.Background(), "crowdfunds.testnet", "get_crowdfund_goal", []byte(`{"item_index":3}`), "")
	require.NoError(t, err)
	require.Equal(t, "1000", string(res.Result))
	require.Equal(t, uint64(42), res.BlockHeight)

	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(NEARQuery, "ok")))
}

func TestCallFunctionErrors(t *testing.T) {
	t.Run("rpc error", func(t *testing.T) {
		node := newNode(t, func(req rpcRequest) (any, *market.JSONRPCError) {
			return nil, &market.JSONRPCError{Code: -32000, Message: "Server error", Data: json.RawMessage(`"account does not exist"`)}
		})

		s := NewNearService(node.URL)

		_, err := s.CallFunction(context.Background(), "missing.testnet", "nft_token", []byte(`{}`), "")
		require.Error(t, err)

		var rpcErr *market.JSONRPCError
		require.True(t, errors.As(err, &rpcErr))
		require.Equal(t, -32000, rpcErr.Code)
		require.Contains(t, err.Error(), "account does not exist")
	})

	t.Run("contract panic", func(t *testing.T) {
		node := newNode(t, func(req rpcRequest) (any, *market.JSONRPCError) {
			return map[string]any{
				"error":        "wasm execution failed with error: Incorrect item index!",
				"logs":         []string{},
				"block_height": 1,
				"block_hash":   "abc",
			}, nil
		})

		s := NewNearService(node.URL)

		_, err := s.CallFunction(context.Background(), "crowdfunds.testnet", "get_crowdfund_goal", []byte(`{"item_index":99}`), "")
		require.ErrorIs(t, err, ErrQuery)
		require.Contains(t, err.Error(), "Incorrect item index!")
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("bad gateway"))
		}))
		defer srv.Close()

		s := NewNearService(srv.URL)

		_, err := s.Block(context.Background(), "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "502")
	})
}

func TestBroadcastAndStatus(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte(`{"ok":true}`))

	node := newNode(t, func(req rpcRequest) (any, *market.JSONRPCError) {
		switch req.Method {
		case NEARBroadcastTxCommit:
			var params []string
			require.NoError(t, json.Unmarshal(req.Params, &params))
			require.Len(t, params, 1)

			raw, err := base64.StdEncoding.DecodeString(params[0])
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, raw)

			return map[string]any{
				"status":      map[string]any{"SuccessValue": value},
				"transaction": map[string]any{"hash": "txhash", "signer_id": "alice.testnet", "receiver_id": "bob.testnet"},
			}, nil
		case NEARTx:
			var params []string
			require.NoError(t, json.Unmarshal(req.Params, &params))
			require.Equal(t, []string{"txhash", "alice.testnet"}, params)

			return map[string]any{
				"status":      map[string]any{"Failure": map[string]any{"ActionError": "boom"}},
				"transaction": map[string]any{"hash": "txhash"},
			}, nil
		case NEARStatus:
			return map[string]any{"chain_id": "testnet"}, nil
		}

		t.Fatalf("unexpected method %s", req.Method)
		return nil, nil
	})

	s := NewNearService(node.URL)
	ctx := context.Background()

	out, err := s.BroadcastTxCommit(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, "txhash", out.Transaction.Hash)

	last, err := out.LastResult()
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(last))

	out, err = s.TxStatus(ctx, "txhash", "alice.testnet")
	require.NoError(t, err)

	_, err = out.LastResult()
	require.ErrorIs(t, err, market.ErrTxFailed)

	st, err := s.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "testnet", st.ChainID)
}

func TestGetNetwork(t *testing.T) {
	n, err := GetNetwork("testnet")
	require.NoError(t, err)
	require.Equal(t, "https://rpc.testnet.near.org", n.NodeURL)

	_, err = GetNetwork("devnet")
	require.ErrorIs(t, err, ErrUnknownNetwork)
}
