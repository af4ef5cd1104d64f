package chain

import (
	"context"
	"net/http"

	com "github.com/wehave/market/internal/common"
	"github.com/wehave/market/internal/services/nearrpc"
	"github.com/wehave/market/internal/wallet"
	"github.com/wehave/market/pkg/market"
)

type StatusReader interface {
	Status(ctx context.Context) (*market.StatusView, error)
}

type Service struct {
	node      StatusReader
	network   nearrpc.Network
	contracts func() wallet.Contracts
}

// NewService
func NewService(node StatusReader, network nearrpc.Network, contracts func() wallet.Contracts) *Service {
	return &Service{
		node,
		network,
		contracts,
	}
}

type statusResponse struct {
	Network     string           `json:"network"`
	ChainID     string           `json:"chain_id"`
	NodeVersion string           `json:"node_version"`
	BlockHash   string           `json:"latest_block_hash"`
	BlockHeight uint64           `json:"latest_block_height"`
	Syncing     bool             `json:"syncing"`
	WalletURL   string           `json:"wallet_url"`
	ExplorerURL string           `json:"explorer_url"`
	Contracts   wallet.Contracts `json:"contracts"`
}

// Status returns the state of the node and the contracts in use
func (s *Service) Status(w http.ResponseWriter, r *http.Request) {
	st, err := s.node.Status(r.Context())
	if err != nil {
		com.Error(w, http.StatusBadGateway, err)
		return
	}

	err = com.Body(w, &statusResponse{
		Network:     s.network.ID,
		ChainID:     st.ChainID,
		NodeVersion: st.Version.Version,
		BlockHash:   st.SyncInfo.LatestBlockHash,
		BlockHeight: st.SyncInfo.LatestBlockHeight,
		Syncing:     st.SyncInfo.Syncing,
		WalletURL:   s.network.WalletURL,
		ExplorerURL: s.network.ExplorerURL,
		Contracts:   s.contracts(),
	}, nil)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
