// Package transport is the fetch capability for the rules-and-regulations API:
// authenticated GETs, status interpretation and JSON decoding.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/rtrarchive/internal/cache"
	"github.com/ppiankov/rtrarchive/internal/logging"
	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/ppiankov/rtrarchive/internal/throttle"
	"github.com/ppiankov/rtrarchive/internal/util"
)

// APIKeyHeader carries the API key on every request
const APIKeyHeader = "x-api-key"

// Fetcher performs GET requests against the API. It never retries: a failed
// request is reported to the caller, which decides what to skip.
type Fetcher struct {
	httpClient *http.Client
	apiKey     string
	accept     string
	userAgent  string
	maxBytes   int64
	limiter    *throttle.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a Fetcher from configuration
func NewFetcher(cfg *model.Config, apiKey string) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		apiKey:    apiKey,
		accept:    cfg.API.Accept,
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		limiter:   throttle.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
	}

	if cfg.Cache.Enabled {
		f.cache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		f.cacheTTL = cfg.Cache.TTL
	}

	return f
}

// FetchResult contains a response body and its metadata
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Cached      bool
}

// Fetch retrieves the body at rawURL. Non-2xx responses return a *StatusError;
// a body larger than the configured limit fails with ErrBodyTooLarge.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	log := logging.FromContext(ctx)

	if f.cache != nil {
		if body, ok := f.cache.Get(cache.CacheKey(rawURL)); ok {
			log.Debug().Str("url", rawURL).Msg("cache hit")
			return &FetchResult{URL: rawURL, StatusCode: http.StatusOK, Body: body, Cached: true}, nil
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", f.accept)
	req.Header.Set(APIKeyHeader, f.apiKey)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	log.Debug().Str("url", rawURL).Msg("GET")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, rawURL, f.maxBytes)
	}

	if f.cache != nil {
		_ = f.cache.Set(cache.CacheKey(rawURL), body, f.cacheTTL)
	}

	return &FetchResult{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchJSON fetches rawURL and decodes the JSON body into v
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string, v any) error {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(result.Body, v); err != nil {
		if f.cache != nil {
			_ = f.cache.Delete(cache.CacheKey(rawURL))
		}
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}

	return nil
}
