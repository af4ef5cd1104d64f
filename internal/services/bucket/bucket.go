package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"
	"strings"
)

const (
	PinFileURL = "/pinning/pinFileToIPFS"
	UnpinURL   = "/pinning/unpin"
)

var ErrUpload = errors.New("error pinning to ipfs")

const DefaultDirName = "campaign"

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9 _.-]+`)

// DirName turns a campaign name into a single path segment that is safe to
// quote in a multipart filename.
func DirName(name string) string {
	d := strings.Trim(unsafeDirChars.ReplaceAllString(name, "-"), " .-")
	if d == "" {
		return DefaultDirName
	}
	return d
}

// File is one entry of an uploaded directory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Backend stores a set of files as one content addressed directory.
type Backend interface {
	StoreDirectory(ctx context.Context, dir string, files []File) (string, error)
	Unpin(ctx context.Context, cid string) error
}

type PinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int    `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Bucket pins content on Pinata.
type Bucket struct {
	BaseURL   string
	APIKey    string
	APISecret string

	client *http.Client
}

func NewBucket(baseURL, apiKey, apiSecret string) *Bucket {
	return &Bucket{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		APISecret: apiSecret,
		client:    http.DefaultClient,
	}
}

func (b *Bucket) auth(req *http.Request) {
	req.Header.Add("pinata_api_key", b.APIKey)
	req.Header.Add("pinata_secret_api_key", b.APISecret)
}

func (b *Bucket) pin(req *http.Request) (string, error) {
	b.auth(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, string(msg))
	}

	var pinResp PinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinResp); err != nil {
		return "", err
	}

	return pinResp.IpfsHash, nil
}

// StoreDirectory pins files under dir/ in a single request. Pinata wraps
// them in a directory named after the common path prefix and returns the
// CID of that directory.
func (b *Bucket) StoreDirectory(ctx context.Context, dir string, files []File) (string, error) {
	dir = DirName(dir)

	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s/%s"`, dir, f.Name))
		h.Set("Content-Type", f.ContentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return "", err
		}

		if _, err := part.Write(f.Data); err != nil {
			return "", err
		}
	}

	meta, err := json.Marshal(map[string]any{"name": dir})
	if err != nil {
		return "", err
	}

	if err := writer.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}

	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+PinFileURL, payload)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	return b.pin(req)
}

func (b *Bucket) Unpin(ctx context.Context, hash string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.BaseURL+UnpinURL+"/"+hash, nil)
	if err != nil {
		return err
	}

	b.auth(req)

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error unpinning %s from ipfs: status %d", hash, resp.StatusCode)
	}

	return nil
}
