// Package moderation asks an external classifier whether text is profane.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Classifier decides whether a comment must be rejected.
type Classifier interface {
	IsProfane(ctx context.Context, text string) (bool, error)
}

// HTTPClassifier posts {"message": text} and reads {"isProfanity": bool}.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPClassifier(endpoint string, client *http.Client) *HTTPClassifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClassifier{endpoint: strings.TrimRight(endpoint, "/"), client: client}
}

type verdict struct {
	IsProfanity bool    `json:"isProfanity"`
	Score       float64 `json:"score"`
}

func (c *HTTPClassifier) IsProfane(ctx context.Context, text string) (bool, error) {
	body, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("classifier call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("classifier status %d", resp.StatusCode)
	}

	var v verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return false, fmt.Errorf("classifier response: %w", err)
	}
	return v.IsProfanity, nil
}
