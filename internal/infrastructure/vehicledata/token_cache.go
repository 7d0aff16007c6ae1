package vehicledata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultExpirySkew is how long before expiry a cached token is treated as stale
const DefaultExpirySkew = 60 * time.Second

// Token is an access token with its absolute expiry
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenSource fetches a fresh token from the identity provider
type TokenSource interface {
	FetchToken(ctx context.Context) (Token, error)
}

// TokenCache holds the current access token and refreshes it through the source
// when it is missing or within skew of expiry. Safe for concurrent use; callers
// that arrive during a refresh wait for it rather than fetching their own.
type TokenCache struct {
	source TokenSource
	skew   time.Duration
	now    func() time.Time

	mu    sync.Mutex
	token Token
}

// NewTokenCache creates a cache in front of source. A skew <= 0 means DefaultExpirySkew.
func NewTokenCache(source TokenSource, skew time.Duration) *TokenCache {
	if skew <= 0 {
		skew = DefaultExpirySkew
	}
	return &TokenCache{
		source: source,
		skew:   skew,
		now:    time.Now,
	}
}

// AccessToken returns a usable bearer token, fetching one if needed
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.AccessToken != "" && c.now().Add(c.skew).Before(c.token.ExpiresAt) {
		return c.token.AccessToken, nil
	}

	token, err := c.source.FetchToken(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch vehicle data token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("fetch vehicle data token: empty access token")
	}
	c.token = token
	return token.AccessToken, nil
}

// Invalidate drops the cached token if it is still the one given.
// Passing the token that was rejected keeps a concurrent refresh from being thrown away.
func (c *TokenCache) Invalidate(rejected string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.AccessToken == rejected {
		c.token = Token{}
	}
}

// ClientCredentialsSource implements TokenSource with the OAuth2 client credentials grant
type ClientCredentialsSource struct {
	httpClient   *retryablehttp.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time
}

// NewClientCredentialsSource creates a source posting to tokenURL
func NewClientCredentialsSource(httpClient *retryablehttp.Client, tokenURL, clientID, clientSecret string) *ClientCredentialsSource {
	return &ClientCredentialsSource{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// FetchToken requests a new access token
func (s *ClientCredentialsSource) FetchToken(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}

	return Token{
		AccessToken: body.AccessToken,
		ExpiresAt:   s.now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}
