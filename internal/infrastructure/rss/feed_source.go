package rss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"rssreader/internal/domain/entity"
	"rssreader/internal/domain/repository"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "rssreader/1.0"
	maxFeedBytes     = int64(5 * 1024 * 1024)
)

// ErrFeedTooLarge is wrapped together with entity.ErrRSS when a response
// exceeds the size limit.
var ErrFeedTooLarge = errors.New("feed too large")

type Config struct {
	// ProxyURL is an allorigins-style endpoint. Empty means feeds are fetched directly.
	ProxyURL  string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	UserAgent string
}

type feedSource struct {
	client    *http.Client
	proxyURL  string
	limiter   *rate.Limiter
	userAgent string
	maxBytes  int64
}

type proxyResponse struct {
	Contents string `json:"contents"`
	Status   struct {
		HTTPCode int `json:"http_code"`
	} `json:"status"`
}

func NewFeedSource(cfg Config) repository.FeedSource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &feedSource{
		client:    &http.Client{Timeout: timeout},
		proxyURL:  cfg.ProxyURL,
		limiter:   limiter,
		userAgent: userAgent,
		maxBytes:  maxFeedBytes,
	}
}

func (s *feedSource) Fetch(ctx context.Context, feedURL string) (*entity.FeedResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", entity.ErrUnknown, err)
		}
	}

	var (
		content string
		err     error
	)
	if s.proxyURL == "" {
		content, err = s.fetchDirect(ctx, feedURL)
	} else {
		content, err = s.fetchViaProxy(ctx, feedURL)
	}
	if err != nil {
		return nil, err
	}

	return parseFeed(feedURL, content)
}

func (s *feedSource) fetchDirect(ctx context.Context, feedURL string) (string, error) {
	body, err := s.get(ctx, feedURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *feedSource) fetchViaProxy(ctx context.Context, feedURL string) (string, error) {
	target, err := proxiedURL(s.proxyURL, feedURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid proxy url: %w", entity.ErrUnknown, err)
	}

	body, err := s.get(ctx, target)
	if err != nil {
		return "", err
	}

	var resp proxyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: failed to decode proxy response: %w", entity.ErrUnknown, err)
	}
	if resp.Status.HTTPCode != 0 && resp.Status.HTTPCode != http.StatusOK {
		return "", fmt.Errorf("%w: feed returned status %d", entity.ErrNetwork, resp.Status.HTTPCode)
	}
	if resp.Contents == "" {
		return "", fmt.Errorf("%w: no content received", entity.ErrRSS)
	}

	return resp.Contents, nil
}

func (s *feedSource) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", entity.ErrUnknown, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch url: %w", entity.ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: unexpected status code: %s", entity.ErrNetwork, resp.Status)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%w: unexpected status code: %s", entity.ErrUnknown, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", entity.ErrNetwork, err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %w: more than %d bytes", entity.ErrRSS, ErrFeedTooLarge, s.maxBytes)
	}

	return body, nil
}

func proxiedURL(proxy, feedURL string) (string, error) {
	u, err := url.Parse(proxy)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", feedURL)
	q.Set("disableCache", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
