// Package wildapricot is a minimal client for the Wild Apricot membership
// platform: OAuth client-credentials token flow, account discovery, and
// contact-detail lookups. Any upstream failure surfaces as a coded
// Unavailable error so callers can abort cleanly.
package wildapricot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	dErrors "studbook/pkg/domain-errors"
)

// ContactDetails is the subset of a Wild Apricot contact the registry needs
// to seed a local member record.
type ContactDetails struct {
	ID        int64  `json:"Id"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
}

// TokenCache stores the short-lived access token between requests. The Redis
// implementation shares one token across replicas; the in-memory one is per
// process.
type TokenCache interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, ttl time.Duration)
}

// Client talks to the Wild Apricot API.
type Client struct {
	baseURL string
	authURL string
	apiKey  string

	http   *http.Client
	tokens TokenCache
	logger *slog.Logger

	mu        sync.Mutex
	accountID int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenCache installs a shared token cache.
func WithTokenCache(cache TokenCache) Option {
	return func(c *Client) { c.tokens = cache }
}

func New(baseURL, authURL, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		authURL: authURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		tokens:  NewMemoryTokenCache(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(ctx); ok {
		return token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}, "scope": {"auto"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build token request")
	}
	credentials := base64.StdEncoding.EncodeToString([]byte("APIKEY:" + c.apiKey))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "membership platform unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("membership platform token request failed with status %d", resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "decode token response")
	}
	if tr.AccessToken == "" {
		return "", dErrors.New(dErrors.CodeUnavailable, "membership platform returned empty token")
	}

	// Refresh slightly early so a token never expires mid-request.
	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl > time.Minute {
		ttl -= 30 * time.Second
	}
	c.tokens.Set(ctx, tr.AccessToken, ttl)
	return tr.AccessToken, nil
}

// account discovers and caches the Wild Apricot account id for this API key.
func (c *Client) account(ctx context.Context, token string) (int64, error) {
	c.mu.Lock()
	cached := c.accountID
	c.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	var accounts []struct {
		ID int64 `json:"Id"`
	}
	if err := c.getJSON(ctx, token, c.baseURL+"/accounts", &accounts); err != nil {
		return 0, err
	}
	if len(accounts) == 0 {
		return 0, dErrors.New(dErrors.CodeUnavailable, "membership platform returned no accounts")
	}

	c.mu.Lock()
	c.accountID = accounts[0].ID
	c.mu.Unlock()
	return accounts[0].ID, nil
}

// Contact fetches the contact details for one external contact id.
func (c *Client) Contact(ctx context.Context, contactID int64) (*ContactDetails, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	accountID, err := c.account(ctx, token)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/accounts/%d/contacts/%d?getExtendedMembershipInfo=true",
		c.baseURL, accountID, contactID)
	var details ContactDetails
	if err := c.getJSON(ctx, token, endpoint, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		details.ID = contactID
	}
	return &details, nil
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "membership platform unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "membership platform request failed",
			slog.String("endpoint", endpoint),
			slog.String("status", strconv.Itoa(resp.StatusCode)))
		return dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("membership platform request failed with status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode membership platform response")
	}
	return nil
}
