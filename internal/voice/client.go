package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/config"
)

const defaultTimeout = 5 * time.Second

// Client provisions voice sessions on the external voice provider.
// With no base URL or API key configured the client is disabled and
// every call reports that no voice room is available.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(params config.VoiceParams) *Client {
	timeout := defaultTimeout
	if params.TimeoutSeconds > 0 {
		timeout = time.Duration(params.TimeoutSeconds) * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(params.BaseURL, "/"),
		apiKey:     params.APIKey,
	}
}

// Enabled reports whether the provider is configured
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.apiKey != ""
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type createRoomResponse struct {
	URL string `json:"url"`
}

// CreateVoiceRoom asks the provider for a session and returns its join
// URL. Callers treat any error as "no voice room"; room creation never
// depends on this call succeeding.
func (c *Client) CreateVoiceRoom(ctx context.Context, name string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	payload, err := json.Marshal(createRoomRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to marshal voice room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build voice room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, body)
	}

	var room createRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return "", fmt.Errorf("failed to decode voice room response: %w", err)
	}

	if room.URL == "" {
		return "", fmt.Errorf("voice provider returned empty room url")
	}

	return room.URL, nil
}
