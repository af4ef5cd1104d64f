package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

const NFTStorageBaseURL = "https://api.nft.storage"

// NFTStorage uploads directories to nft.storage.
type NFTStorage struct {
	BaseURL string
	Token   string

	client *http.Client
}

func NewNFTStorage(baseURL, token string) *NFTStorage {
	if baseURL == "" {
		baseURL = NFTStorageBaseURL
	}

	return &NFTStorage{
		BaseURL: baseURL,
		Token:   token,
		client:  http.DefaultClient,
	}
}

type nftStorageResponse struct {
	OK    bool `json:"ok"`
	Value struct {
		CID string `json:"cid"`
	} `json:"value"`
	Error *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (n *NFTStorage) do(req *http.Request) (*nftStorageResponse, error) {
	req.Header.Set("Authorization", "Bearer "+n.Token)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var r nftStorageResponse
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, string(b))
	}

	if !r.OK || resp.StatusCode != http.StatusOK {
		if r.Error != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrUpload, r.Error.Name, r.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUpload, resp.StatusCode)
	}

	return &r, nil
}

// StoreDirectory uploads the files as one directory. nft.storage does not
// keep the directory name, only the file names.
func (n *NFTStorage) StoreDirectory(ctx context.Context, dir string, files []File) (string, error) {
	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, f.Name))
		h.Set("Content-Type", f.ContentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return "", err
		}

		if _, err := part.Write(f.Data); err != nil {
			return "", err
		}
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/upload", payload)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	r, err := n.do(req)
	if err != nil {
		return "", err
	}

	return r.Value.CID, nil
}

func (n *NFTStorage) Unpin(ctx context.Context, cid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, n.BaseURL+"/"+cid, nil)
	if err != nil {
		return err
	}

	_, err = n.do(req)
	return err
}
