package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const (
	DefaultEventsPath = "/api/events"

	// The gateway clamps limit to 1..128.
	MaxLimit = 128
)

// Fetcher pulls a bounded window of historical events. It never mutates any
// client-side cursor; callers commit the returned events themselves.
type Fetcher interface {
	Fetch(ctx context.Context, since uint64, limit int) (*data.EventPage, error)
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	eventsPath string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

var _ Fetcher = (*HTTPClient)(nil)

func NewClient(baseURL, eventsPath string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eventsPath == "" {
		eventsPath = DefaultEventsPath
	}
	if ratePerSec < 1 {
		ratePerSec = 1
	}

	transport := &http.Transport{
		MaxIdleConns:       10,
		MaxConnsPerHost:    2,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		eventsPath: "/" + strings.TrimLeft(eventsPath, "/"),
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Fetch returns events with id > since in ascending id order, at most limit of
// them, plus the gateway's highest id at the time of the request. An empty
// page is a valid answer.
func (c *HTTPClient) Fetch(ctx context.Context, since uint64, limit int) (*data.EventPage, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Since: since, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	q := url.Values{}
	q.Set("since", strconv.FormatUint(since, 10))
	q.Set("limit", strconv.Itoa(limit))
	reqURL := c.baseURL + c.eventsPath + "?" + q.Encode()
	c.logger.Debug("requesting", zap.String("url", reqURL))

	var lastErr error
	var lastStatus int
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, &FetchError{Since: since, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, &FetchError{Since: since, Err: fmt.Errorf("creating request: %w", err)}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &FetchError{Since: since, Err: ctx.Err()}
			}
			lastErr = err
			lastStatus = 0
			continue
		}

		// Read body before closing for error messages
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		lastStatus = resp.StatusCode

		if resp.StatusCode == http.StatusNotFound {
			return nil, &FetchError{Since: since, StatusCode: resp.StatusCode, Err: ErrNotFound}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = ErrRateLimited
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", strings.TrimSpace(string(body)))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, &FetchError{
				Since:      since,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
			}
		}

		var page data.EventPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &FetchError{Since: since, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
		}

		normalizePage(&page, since, limit)

		c.logger.Debug("fetched events",
			zap.Uint64("since", since),
			zap.Int("count", len(page.Events)),
			zap.Uint64("last_id", page.LastID),
		)
		return &page, nil
	}

	return nil, &FetchError{Since: since, StatusCode: lastStatus, Err: fmt.Errorf("max retries exceeded: %w", lastErr)}
}

// normalizePage drops anything at or below since, orders by id and enforces
// limit, so callers can rely on the contract even if the gateway is sloppy.
func normalizePage(page *data.EventPage, since uint64, limit int) {
	kept := page.Events[:0]
	for _, e := range page.Events {
		if e.ID > since {
			kept = append(kept, e)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	if len(kept) > limit {
		kept = kept[:limit]
	}
	page.Events = kept
	if max := page.MaxID(); max > page.LastID {
		page.LastID = max
	}
}
