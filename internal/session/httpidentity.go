package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tomtuamnuq/speak2see-go/internal/models"
)

// HTTPIdentity implements IdentityProvider against the identity endpoints
// of the processing service. Issued tokens are cached in a file so a later
// invocation can resume an existing session, the CLI equivalent of a
// browser keeping its session in local storage.
type HTTPIdentity struct {
	client    *http.Client
	endpoint  string // base URL including trailing slash
	tokenFile string
}

func NewHTTPIdentity(endpoint, tokenFile string) *HTTPIdentity {
	return &HTTPIdentity{
		client:    &http.Client{Timeout: 20 * time.Second},
		endpoint:  endpoint,
		tokenFile: tokenFile,
	}
}

// FetchSession returns the cached token if the server still accepts it.
// A stale cache entry is removed and reported as "no session".
func (p *HTTPIdentity) FetchSession(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.tokenFile)
	if err != nil {
		return "", nil // no cached session
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", nil
	}

	if _, err := p.fetchUser(ctx, token); err != nil {
		os.Remove(p.tokenFile)
		return "", nil
	}
	return token, nil
}

// SignIn exchanges credentials for a fresh token and caches it.
func (p *HTTPIdentity) SignIn(ctx context.Context, username, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected: %s", resp.Status)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}

	if err := p.storeToken(body.Token); err != nil {
		return "", err
	}
	return body.Token, nil
}

// SignOut invalidates the remote session and drops the cached token either way.
func (p *HTTPIdentity) SignOut(ctx context.Context) error {
	token := p.cachedToken()
	defer os.Remove(p.tokenFile)
	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint+"logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// CurrentUsername asks the identity service who the cached token belongs to.
func (p *HTTPIdentity) CurrentUsername(ctx context.Context) (string, error) {
	token := p.cachedToken()
	if token == "" {
		return "", fmt.Errorf("no session token cached")
	}
	user, err := p.fetchUser(ctx, token)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (p *HTTPIdentity) fetchUser(ctx context.Context, token string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.endpoint+"me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session check failed: %s", resp.Status)
	}
	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *HTTPIdentity) cachedToken() string {
	data, err := os.ReadFile(p.tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (p *HTTPIdentity) storeToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(p.tokenFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(p.tokenFile, []byte(token), 0600)
}
