package config

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/wehave/market/internal/services/nearrpc"
)

type StorageBackend string

const (
	StorageBackendPinata     StorageBackend = "pinata"
	StorageBackendNFTStorage StorageBackend = "nftstorage"
)

type Config struct {
	NearNetwork        string `env:"NEAR_NETWORK,default=testnet"`
	NearRPCURL         string `env:"NEAR_RPC_URL"`
	CrowdfundsContract string `env:"CROWDFUNDS_CONTRACT,required"`
	ItemsContract      string `env:"ITEMS_CONTRACT,required"`
	USDCContract       string `env:"USDC_CONTRACT,required"`

	CredentialsDir string `env:"CREDENTIALS_DIR,default=~/.near-credentials"`
	SessionPath    string `env:"SESSION_PATH,default=~/.wehave/session.json"`

	StorageBackend  StorageBackend `env:"STORAGE_BACKEND,default=pinata"`
	PinataBaseURL   string         `env:"PINATA_BASE_URL,default=https://api.pinata.cloud"`
	PinataAPIKey    string         `env:"PINATA_API_KEY"`
	PinataAPISecret string         `env:"PINATA_API_SECRET"`
	NFTStorageURL   string         `env:"NFT_STORAGE_URL"`
	NFTStorageToken string         `env:"NFT_STORAGE_TOKEN"`
	IPFSGateway     string         `env:"IPFS_GATEWAY,default=https://ipfs.io/ipfs/"`

	ScanFrom     uint64 `env:"SCAN_FROM,default=0"`
	ScanTo       uint64 `env:"SCAN_TO,default=10"`
	BalanceLimit int    `env:"BALANCE_LIMIT,default=1"`

	APIKEY                  string `env:"API_KEY"`
	SentryURL               string `env:"SENTRY_URL"`
	DiscordURL              string `env:"DISCORD_URL"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH,default=firebase.json"`
}

func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		log.Default().Println("loading env from file: ", envpath)
		err := godotenv.Load(envpath)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := envconfig.Process(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	network, err := nearrpc.GetNetwork(c.NearNetwork)
	if err != nil && c.NearRPCURL == "" {
		return fmt.Errorf("%w: set NEAR_RPC_URL for custom networks", err)
	}

	if c.NearRPCURL == "" {
		c.NearRPCURL = network.NodeURL
	}

	if c.ScanTo < c.ScanFrom {
		return fmt.Errorf("SCAN_TO (%d) is below SCAN_FROM (%d)", c.ScanTo, c.ScanFrom)
	}

	switch c.StorageBackend {
	case StorageBackendPinata:
		if c.PinataAPIKey == "" || c.PinataAPISecret == "" {
			return fmt.Errorf("PINATA_API_KEY and PINATA_API_SECRET are required for the pinata backend")
		}
	case StorageBackendNFTStorage:
		if c.NFTStorageToken == "" {
			return fmt.Errorf("NFT_STORAGE_TOKEN is required for the nftstorage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	return nil
}

// Network returns the network to connect to, custom networks only carry the
// rpc url.
func (c *Config) Network() nearrpc.Network {
	network, err := nearrpc.GetNetwork(c.NearNetwork)
	if err != nil {
		network = nearrpc.Network{ID: c.NearNetwork}
	}

	network.NodeURL = c.NearRPCURL
	return network
}
