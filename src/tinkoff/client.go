package tinkoff

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/username/investbot/src/logger"
	"github.com/username/investbot/src/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// apiResponse is the envelope every brokerage OpenAPI endpoint wraps its
// payload in.
type apiResponse struct {
	TrackingID string              `json:"trackingId"`
	Status     string              `json:"status"`
	Payload    jsoniter.RawMessage `json:"payload"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type operationsPayload struct {
	Operations []models.Operation `json:"operations"`
}

type portfolioPayload struct {
	Positions []models.PortfolioPosition `json:"positions"`
}

// ClientFactory builds per-token session clients. The instrument name cache
// is shared across sessions: instrument metadata is not token-specific.
type ClientFactory struct {
	baseURL         string
	httpClient      *http.Client
	instrumentCache *cache.Cache
}

func NewClientFactory(baseURL string, timeout, instrumentCacheTTL time.Duration) *ClientFactory {
	return &ClientFactory{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: timeout},
		instrumentCache: cache.New(instrumentCacheTTL, 2*instrumentCacheTTL),
	}
}

// WithToken returns a session client authenticated with the given access
// token. The token is never validated locally; an invalid token surfaces as
// an error from the first API call.
func (f *ClientFactory) WithToken(token string) *Client {
	return &Client{
		baseURL:         f.baseURL,
		token:           token,
		httpClient:      f.httpClient,
		instrumentCache: f.instrumentCache,
	}
}

// Client is a session against the brokerage OpenAPI for a single access token.
type Client struct {
	baseURL         string
	token           string
	httpClient      *http.Client
	instrumentCache *cache.Cache
}

// Operations lists account operations in the [from, to] range.
func (c *Client) Operations(ctx context.Context, from, to time.Time) ([]models.Operation, error) {
	query := url.Values{}
	query.Set("from", from.Format(time.RFC3339))
	query.Set("to", to.Format(time.RFC3339))

	var payload operationsPayload
	if err := c.get(ctx, "/operations", query, &payload); err != nil {
		return nil, fmt.Errorf("fetching operations: %w", err)
	}
	return payload.Operations, nil
}

// Portfolio lists currently held positions.
func (c *Client) Portfolio(ctx context.Context) ([]models.PortfolioPosition, error) {
	var payload portfolioPayload
	if err := c.get(ctx, "/portfolio", nil, &payload); err != nil {
		return nil, fmt.Errorf("fetching portfolio: %w", err)
	}
	return payload.Positions, nil
}

// InstrumentByFIGI resolves instrument metadata by its FIGI, consulting the
// shared cache first. One market-search call per unresolved FIGI.
func (c *Client) InstrumentByFIGI(ctx context.Context, figi string) (models.Instrument, error) {
	if cached, found := c.instrumentCache.Get(figi); found {
		return cached.(models.Instrument), nil
	}

	query := url.Values{}
	query.Set("figi", figi)

	var instrument models.Instrument
	if err := c.get(ctx, "/market/search/by-figi", query, &instrument); err != nil {
		return models.Instrument{}, fmt.Errorf("resolving instrument %s: %w", figi, err)
	}

	c.instrumentCache.SetDefault(figi, instrument)
	return instrument, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response for %s: %w", path, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decoding response envelope for %s (HTTP %d): %w", path, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(envelope.Payload, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("brokerage API %s: %s (code %s, HTTP %d)", path, apiErr.Message, apiErr.Code, resp.StatusCode)
		}
		return fmt.Errorf("brokerage API %s: HTTP %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(envelope.Payload, out); err != nil {
		return fmt.Errorf("decoding payload for %s: %w", path, err)
	}

	if logger.L != nil {
		logger.L.Debug("Brokerage API call succeeded", "path", path, "trackingId", envelope.TrackingID)
	}
	return nil
}
