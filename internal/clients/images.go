package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ImageUpload — результат загрузки картинки во внешний хостинг.
type ImageUpload struct {
	URL      string
	PublicID string
}

// ImageStore описывает внешний хостинг картинок.
type ImageStore interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*ImageUpload, error)
	Destroy(ctx context.Context, publicID string) error
}

type httpImageStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewImageStore(baseURL, apiKey string) ImageStore {
	return &httpImageStore{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *httpImageStore) Upload(ctx context.Context, filename string, file io.Reader) (*ImageUpload, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/image/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image host returned status %d", resp.StatusCode)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &ImageUpload{URL: out.SecureURL, PublicID: out.PublicID}, nil
}

func (c *httpImageStore) Destroy(ctx context.Context, publicID string) error {
	payload, err := json.Marshal(map[string]string{"public_id": publicID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/image/destroy", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image host returned status %d", resp.StatusCode)
	}
	return nil
}
