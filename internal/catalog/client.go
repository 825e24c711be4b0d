// Package catalog fetches the store listing from the remote catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Houeta/heidi/internal/models"
	"github.com/tidwall/gjson"
)

const (
	storePath = "/api/v1/store"
	userAgent = "Mozilla/5.0 (compatible; heidi/1.0)"

	// maxErrorBody caps how much of a failed response body ends up in the error.
	maxErrorBody = 512
)

// ErrMalformedCatalog is returned when the response is not a JSON array of entries with ids.
var ErrMalformedCatalog = errors.New("malformed catalog response")

type Client struct {
	log     *slog.Logger
	client  *http.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

func NewClient(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		now:     time.Now,
	}
}

// FetchEntries downloads and decodes the current catalog listing.
func (c *Client) FetchEntries(ctx context.Context) ([]models.CatalogEntry, error) {
	const opn = "catalog.FetchEntries"

	body, err := c.getStoreResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get store response: %w", opn, err)
	}

	entries, err := c.decodeEntries(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return entries, nil
}

func (c *Client) getStoreResponse(ctx context.Context) ([]byte, error) {
	reqURL, err := url.Parse(c.baseURL + storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog URL %s: %w", c.baseURL, err)
	}
	query := reqURL.Query()
	query.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", reqURL.String(), err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL.Redacted())

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", reqURL.Redacted(), err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: [%d] %s: %s",
			res.StatusCode, res.Status, strings.TrimSpace(clip(string(body), maxErrorBody)))
	}

	c.log.InfoContext(ctx, "Successfully received catalog response", "status code", res.StatusCode, "bytes", len(body))

	return body, nil
}

func (c *Client) decodeEntries(ctx context.Context, body []byte) ([]models.CatalogEntry, error) {
	if err := validateShape(body); err != nil {
		return nil, err
	}

	var entries []models.CatalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCatalog, err)
	}

	c.log.DebugContext(ctx, "Decoded catalog entries", "count", len(entries))

	return entries, nil
}

// validateShape checks that body is a JSON array whose elements are objects carrying an id.
func validateShape(body []byte) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformedCatalog)
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return fmt.Errorf("%w: expected array, got %s", ErrMalformedCatalog, root.Type)
	}

	var err error
	idx := 0
	root.ForEach(func(_, value gjson.Result) bool {
		switch {
		case !value.IsObject():
			err = fmt.Errorf("%w: element %d is not an object", ErrMalformedCatalog, idx)
		case !value.Get("id").Exists():
			err = fmt.Errorf("%w: element %d has no id", ErrMalformedCatalog, idx)
		}
		idx++
		return err == nil
	})

	return err
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
