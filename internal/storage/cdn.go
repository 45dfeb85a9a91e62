package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
)

// CDNUploader posts objects to an HTTP upload endpoint authenticated by an API key.
// The endpoint takes a multipart form with "file" and "object_path" and
// answers {"file_url": "..."}.
type CDNUploader struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewCDNUploader(endpoint, apiKey string, client *http.Client) *CDNUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &CDNUploader{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (u *CDNUploader) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, path.Base(objectPath)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("cdn form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("cdn form: %w", err)
	}
	if err := mw.WriteField("object_path", objectPath); err != nil {
		return "", fmt.Errorf("cdn form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("cdn form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("cdn request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Authorization", u.apiKey)

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cdn upload %s: %w", objectPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("cdn upload %s: status %d: %s", objectPath, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out struct {
		FileURL string `json:"file_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("cdn response: %w", err)
	}
	if out.FileURL == "" {
		return "", fmt.Errorf("cdn response: missing file_url")
	}
	return out.FileURL, nil
}
