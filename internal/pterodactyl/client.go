package pterodactyl

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError is a non-success response from the panel. The orchestration
// layer only cares whether a command succeeded, but the status code and
// body are kept so failures can be logged with enough detail to tell a
// rate limit from an auth problem.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("panel API error: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is a wrapper for the Pterodactyl panel API
type Client struct {
	baseURL    string
	pubkey     string
	privkey    []byte
	httpClient *http.Client
}

// NewClient creates a new panel client. pubkey and privkey are the public
// and private halves of a generated API keypair; baseURL is the panel's
// API root without a trailing slash.
func NewClient(pubkey, privkey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		pubkey:  pubkey,
		// The private key is only ever used as bytes for the HMAC.
		privkey: []byte(privkey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// token builds the bearer token for a request. The panel authenticates
// requests with `<pubkey>.<base64 HMAC-SHA256>` where the HMAC covers the
// concatenation of the full target URL and the request body.
func (c *Client) token(path, body string) string {
	msg := c.baseURL + path + body

	mac := hmac.New(sha256.New, c.privkey)
	mac.Write([]byte(msg))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return c.pubkey + "." + sig
}

// do performs an authenticated request against a panel endpoint
func (c *Client) do(ctx context.Context, method, path, body string) (*http.Response, error) {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token(path, body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// Server is one server instance visible to the API keypair
type Server struct {
	ID   string `json:"identifier"`
	Name string `json:"name"`
}

// ListServers lists the servers the keypair has access to, including as a
// subuser. It does NOT list every server on the panel.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	resp, err := c.do(ctx, http.MethodGet, "/user", "")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Data []struct {
			Attributes Server `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	servers := make([]Server, 0, len(payload.Data))
	for _, entry := range payload.Data {
		servers = append(servers, entry.Attributes)
	}
	return servers, nil
}

// SendCommand executes a console command on the specified server. serverID
// is the server's short identifier, e.g. `a8f39zb7`. The panel replies
// 204 No Content when the command was relayed; any other status (other
// 2xx included) is returned as an *APIError.
func (c *Client) SendCommand(ctx context.Context, serverID, command string) error {
	body, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	path := fmt.Sprintf("/user/server/%s/command", serverID)

	resp, err := c.do(ctx, http.MethodPost, path, string(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}
