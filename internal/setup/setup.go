package setup

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wehave/market/internal/config"
	"github.com/wehave/market/internal/crowdfunds"
	"github.com/wehave/market/internal/governance"
	"github.com/wehave/market/internal/services/bucket"
	"github.com/wehave/market/internal/services/nearrpc"
	"github.com/wehave/market/internal/wallet"
	"go.uber.org/zap"
)

// Market holds the services shared by the api server and the cli.
type Market struct {
	Network    nearrpc.Network
	Provider   *nearrpc.NearService
	Keys       *wallet.KeyStore
	Wallet     *wallet.Wallet
	Media      *bucket.Store
	Crowdfunds *crowdfunds.Service
	Governance *governance.Service
}

// New wires the marketplace from cfg and restores the saved session. reg may
// be nil.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, log *zap.Logger) (*Market, error) {
	network := cfg.Network()

	opts := []nearrpc.Option{nearrpc.WithLogger(log.Named("rpc"))}
	if reg != nil {
		opts = append(opts, nearrpc.WithMetrics(nearrpc.NewMetrics(reg)))
	}

	provider := nearrpc.NewNearService(network.NodeURL, opts...)

	keys := wallet.NewKeyStore(cfg.CredentialsDir, network.ID)
	sessions := wallet.NewFileSessionStore(cfg.SessionPath)

	w := wallet.New(provider, wallet.NewKeySigner(provider, keys, log), keys, sessions, wallet.Contracts{
		Network:   network.ID,
		Crowdfund: cfg.CrowdfundsContract,
		Items:     cfg.ItemsContract,
		USDC:      cfg.USDCContract,
	}, log)

	_, err := w.StartUp(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	var backend bucket.Backend
	switch cfg.StorageBackend {
	case config.StorageBackendNFTStorage:
		backend = bucket.NewNFTStorage(cfg.NFTStorageURL, cfg.NFTStorageToken)
	default:
		backend = bucket.NewBucket(cfg.PinataBaseURL, cfg.PinataAPIKey, cfg.PinataAPISecret)
	}

	media := bucket.NewStore(backend, cfg.IPFSGateway, log)

	scan := crowdfunds.ScanRange{From: cfg.ScanFrom, To: cfg.ScanTo}

	return &Market{
		Network:    network,
		Provider:   provider,
		Keys:       keys,
		Wallet:     w,
		Media:      media,
		Crowdfunds: crowdfunds.NewService(w, media, scan, log),
		Governance: governance.NewService(w, scan, cfg.BalanceLimit, log),
	}, nil
}
