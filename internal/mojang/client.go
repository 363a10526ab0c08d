package mojang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const (
	// BaseURL is the Mojang public API.
	BaseURL = "https://api.mojang.com"
)

// ErrNoSuchProfile indicates that no account exists for the requested name
// at the requested point in time.
var ErrNoSuchProfile = errors.New("no profile found for that username")

// Client resolves Minecraft usernames to account UUIDs
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Mojang API client
func NewClient() *Client {
	return &Client{
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithBaseURL creates a client against a non-default API base URL
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// profile is the response body of the username lookup endpoint. The id is
// an undashed UUID.
type profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolve looks up the account UUID that owned the given username at the
// given time. Usernames are reassignable, so the lookup is time-scoped;
// pass time.Now() for the current owner. The returned UUID is in canonical
// dashed form and is stable across name changes.
func (c *Client) Resolve(ctx context.Context, username string, at time.Time) (string, error) {
	endpoint := fmt.Sprintf("%s/users/profiles/minecraft/%s?at=%d",
		c.baseURL, url.PathEscape(username), at.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// The API answers 204/404 for unknown names; treat anything that is
	// not a 200 as "no profile".
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", ErrNoSuchProfile
	}

	var p profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	id, err := uuid.Parse(p.ID)
	if err != nil {
		return "", fmt.Errorf("malformed profile id %q: %w", p.ID, err)
	}

	return id.String(), nil
}
