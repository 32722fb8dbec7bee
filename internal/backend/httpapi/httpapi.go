// HTTP implementation of the processing backend contract.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/backend"
	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// Client talks to the remote processing service over HTTP. Every request
// carries the bearer token obtained from the token source.
type Client struct {
	client         *http.Client
	endpoint       string // base URL including trailing slash
	tokens         backend.TokenSource
	maxUploadBytes int64
}

// New creates a client against the given endpoint. The endpoint is expected
// to end with a slash, matching the route layout "{endpoint}upload",
// "{endpoint}getAll" and "{endpoint}get/{id}".
func New(endpoint string, tokens backend.TokenSource, maxUploadBytes int64) *Client {
	if maxUploadBytes <= 0 {
		maxUploadBytes = backend.DefaultMaxUploadBytes
	}
	return &Client{
		client:         &http.Client{Timeout: 60 * time.Second},
		endpoint:       endpoint,
		tokens:         tokens,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadAudio posts the raw WAV bytes and decodes the created item. The size
// ceiling is enforced before the request is built, so oversized artifacts
// never reach the network.
func (c *Client) UploadAudio(ctx context.Context, audio []byte) (models.ProcessingItem, error) {
	var item models.ProcessingItem

	if err := backend.CheckPayloadSize(len(audio), c.maxUploadBytes); err != nil {
		return item, err
	}
	authHeader, err := c.tokens.AuthorizationHeader()
	if err != nil {
		return item, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"upload", bytes.NewReader(audio))
	if err != nil {
		return item, fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return item, fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return item, fmt.Errorf("%w: %s", backend.ErrUploadFailed, responseMessage(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return item, fmt.Errorf("%w: %v", backend.ErrUploadFailed, err)
	}
	return item, nil
}

// GetAllItems fetches the full item list for the authenticated principal.
func (c *Client) GetAllItems(ctx context.Context) ([]models.ProcessingItem, error) {
	var response models.GetAllResponse
	if err := c.getJSON(ctx, c.endpoint+"getAll", &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

// GetItemDetails fetches the detail payload for one item.
func (c *Client) GetItemDetails(ctx context.Context, id string) (models.ItemDetails, error) {
	var details models.ItemDetails
	if err := c.getJSON(ctx, c.endpoint+"get/"+id, &details); err != nil {
		return models.ItemDetails{}, err
	}
	return details, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	authHeader, err := c.tokens.AuthorizationHeader()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrFetchFailed, err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", backend.ErrFetchFailed, responseMessage(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", backend.ErrFetchFailed, err)
	}
	return nil
}

// responseMessage extracts the error message from a standardized JSON error
// body, falling back to the HTTP status line.
func responseMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return payload.Error
		}
	}
	return resp.Status
}
