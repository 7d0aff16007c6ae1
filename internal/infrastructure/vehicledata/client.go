// Package vehicledata looks up vehicle details by registration mark (VRM) from an
// external provider secured with OAuth2 client credentials.
package vehicledata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/hashicorp/go-retryablehttp"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrVehicleNotFound = shared.NewDomainError("NOT_FOUND", "Vehicle not found")
	ErrInvalidVRM      = shared.NewDomainError("INVALID_INPUT", "Vehicle registration is required")
	ErrUnavailable     = shared.NewDomainError("VEHICLE_DATA_UNAVAILABLE", "Vehicle data provider is unavailable")
)

// Vehicle is the provider's view of a registered vehicle
type Vehicle struct {
	VRM               string `json:"registrationNumber"`
	Make              string `json:"make"`
	Model             string `json:"model"`
	Colour            string `json:"colour"`
	FuelType          string `json:"fuelType"`
	YearOfManufacture int    `json:"yearOfManufacture"`
	EngineCapacity    int    `json:"engineCapacity"`
	MOTExpiryDate     string `json:"motExpiryDate,omitempty"`
}

// Config holds client settings
type Config struct {
	BaseURL        string
	TokenURL       string
	ClientID       string
	ClientSecret   string
	Timeout        time.Duration
	RetryMax       int
	LookupCacheTTL time.Duration
}

// Client performs vehicle lookups. Results are cached per normalised VRM.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	tokens  *TokenCache
	lookups *gocache.Cache
	logger  *zap.Logger
}

// NewClient builds a client that authenticates with the client credentials grant
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := newRetryableClient(cfg, log)
	source := NewClientCredentialsSource(httpClient, cfg.TokenURL, cfg.ClientID, cfg.ClientSecret)
	return NewClientWithTokens(cfg, NewTokenCache(source, DefaultExpirySkew), httpClient, log)
}

// NewClientWithTokens builds a client around an existing token cache and HTTP client
func NewClientWithTokens(cfg Config, tokens *TokenCache, httpClient *retryablehttp.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = newRetryableClient(cfg, log)
	}
	ttl := cfg.LookupCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		lookups: gocache.New(ttl, 2*ttl),
		logger:  log,
	}
}

func newRetryableClient(cfg Config, log *zap.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = retryLogger{log.Sugar().Named("vehicledata")}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	return client
}

// Lookup returns the vehicle registered as vrm
func (c *Client) Lookup(ctx context.Context, vrm string) (*Vehicle, error) {
	normalized := sales.NormalizeVRM(vrm)
	if normalized == "" {
		return nil, ErrInvalidVRM
	}

	if cached, ok := c.lookups.Get(normalized); ok {
		v := cached.(Vehicle)
		return &v, nil
	}

	vehicle, err := c.fetch(ctx, normalized, true)
	if err != nil {
		return nil, err
	}

	c.lookups.SetDefault(normalized, *vehicle)
	return vehicle, nil
}

func (c *Client) fetch(ctx context.Context, vrm string, retryUnauthorized bool) (*Vehicle, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		logger.L(ctx).Error("Vehicle data authentication failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/vehicles/"+url.PathEscape(vrm), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.L(ctx).Warn("Vehicle data request failed", zap.String("vrm", vrm), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var vehicle Vehicle
		if err := json.NewDecoder(resp.Body).Decode(&vehicle); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
		if vehicle.VRM == "" {
			vehicle.VRM = vrm
		}
		return &vehicle, nil
	case http.StatusUnauthorized:
		c.tokens.Invalidate(token)
		if retryUnauthorized {
			logger.L(ctx).Info("Vehicle data token rejected, refreshing")
			return c.fetch(ctx, vrm, false)
		}
		return nil, fmt.Errorf("%w: token rejected after refresh", ErrUnavailable)
	case http.StatusNotFound:
		return nil, ErrVehicleNotFound
	default:
		return nil, fmt.Errorf("%w: provider returned %d", ErrUnavailable, resp.StatusCode)
	}
}

// IsUnavailable reports whether err came from the provider being unreachable or failing
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// retryLogger adapts zap to retryablehttp.LeveledLogger
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
