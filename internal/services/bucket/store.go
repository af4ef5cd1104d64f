package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/wehave/market/internal/common"
	"github.com/wehave/market/pkg/market"
	"go.uber.org/zap"
)

const (
	DefaultGateway = "https://ipfs.io/ipfs/"

	MetadataFile = "information.json"
	ImageFile    = "image.jpg"
)

type information struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Store keeps campaign media on a storage backend and hands out gateway urls.
type Store struct {
	backend Backend
	gateway string
	log     *zap.Logger
}

func NewStore(backend Backend, gateway string, log *zap.Logger) *Store {
	if gateway == "" {
		gateway = DefaultGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{
		backend: backend,
		gateway: gateway,
		log:     log.Named("bucket"),
	}
}

// URLs returns the retrieval urls of a campaign directory.
func (s *Store) URLs(c string) *market.Media {
	return &market.Media{
		CID:         c,
		ImageURL:    s.gateway + c + "/" + ImageFile,
		MetadataURL: s.gateway + c + "/" + MetadataFile,
	}
}

// StoreCampaignMedia uploads information.json and image.jpg as one
// directory. The picture is re-encoded as jpeg first.
func (s *Store) StoreCampaignMedia(ctx context.Context, name, description string, picture []byte) (*market.Media, error) {
	img, err := common.NormalizeImage(bytes.NewReader(picture), common.MaxImageSide)
	if err != nil {
		return nil, err
	}

	info, err := json.Marshal(&information{Title: name, Description: description})
	if err != nil {
		return nil, err
	}

	raw, err := s.backend.StoreDirectory(ctx, DirName(name), []File{
		{Name: MetadataFile, ContentType: "application/json", Data: info},
		{Name: ImageFile, ContentType: "image/jpeg", Data: img},
	})
	if err != nil {
		return nil, err
	}

	c, err := cid.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("storage returned invalid cid %q: %w", raw, err)
	}

	s.log.Info("stored campaign media", zap.String("cid", c.String()), zap.String("name", name), zap.Int("image_bytes", len(img)))

	return s.URLs(c.String()), nil
}

// RemoveCampaignMedia unpins a directory stored earlier.
func (s *Store) RemoveCampaignMedia(ctx context.Context, c string) error {
	return s.backend.Unpin(ctx, c)
}
