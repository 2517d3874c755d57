// Package source fetches original pages and their assets from the remote site.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/hs-ru/pagesync/internal/config"
	"github.com/hs-ru/pagesync/internal/logger"
	"github.com/hs-ru/pagesync/internal/models"
	"github.com/hs-ru/pagesync/internal/parser"
)

// notFoundMarker in a response body means the page does not exist; the site
// answers missing pages with an error document
const notFoundMarker = "404 Not Found"

var utf8BOM = []byte("\xef\xbb\xbf")

const (
	maxPageBytes  = 1 << 20
	maxAssetBytes = 64 << 20
)

// Client fetches pages over HTTP
type Client struct {
	baseURL      string
	assetBaseURL string
	userAgent    string
	httpClient   *http.Client
	log          *logrus.Entry
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The caller is responsible for its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client from the source configuration
func New(cfg config.Source, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		assetBaseURL: strings.TrimRight(cfg.AssetBaseURL, "/"),
		userAgent:    cfg.UserAgent,
		httpClient:   &http.Client{Timeout: cfg.Timeout()},
		log:          logger.WithComponent("source"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL returns the address of page number
func (c *Client) PageURL(number string) string {
	return c.baseURL + "/" + number + ".txt"
}

// FetchPage downloads page number and returns its text with line endings
// normalized to "\n". A missing page returns models.ErrNotFound.
func (c *Client) FetchPage(ctx context.Context, number string) (string, error) {
	if !models.ValidPageNumber(number) {
		return "", fmt.Errorf("invalid page number %q", number)
	}

	c.log.WithField("page", number).Debug("Fetching page")

	body, err := c.get(ctx, c.PageURL(number), maxPageBytes)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page %s: %w", number, err)
	}

	decoded, err := decodeBody(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode page %s: %w", number, err)
	}

	text := string(decoded)
	if strings.Contains(text, notFoundMarker) {
		return "", fmt.Errorf("remote page %s: %w", number, models.ErrNotFound)
	}
	return NormalizeEOL(text), nil
}

// FetchPageRecord downloads and parses page number
func (c *Client) FetchPageRecord(ctx context.Context, number string) (models.Record, error) {
	text, err := c.FetchPage(ctx, number)
	if err != nil {
		return models.Record{}, err
	}

	rec, err := parser.Parse(text)
	if err != nil {
		return models.Record{}, fmt.Errorf("remote page %s: %w", number, err)
	}
	return rec, nil
}

// AssetURL resolves a content link to an absolute URL. Flash links are
// expanded first; relative links resolve against the asset base URL.
func (c *Client) AssetURL(link string) (string, error) {
	expanded := parser.ExpandSpecialLink(link)

	u, err := url.Parse(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", link, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}

	base, err := url.Parse(c.assetBaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid asset base url: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

// FetchAsset downloads the file a content link points to
func (c *Client) FetchAsset(ctx context.Context, link string) ([]byte, error) {
	assetURL, err := c.AssetURL(link)
	if err != nil {
		return nil, err
	}

	c.log.WithField("url", assetURL).Debug("Fetching asset")

	data, err := c.get(ctx, assetURL, maxAssetBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset %s: %w", link, err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, models.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s: response larger than %d bytes", rawURL, limit)
	}
	return data, nil
}

// decodeBody drops a UTF-8 byte order mark and otherwise passes the bytes
// through unchanged, invalid UTF-8 included. A UTF-16 byte order mark
// switches to UTF-16 decoding.
func decodeBody(body []byte) ([]byte, error) {
	if rest, ok := bytes.CutPrefix(body, utf8BOM); ok {
		return rest, nil
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), body)
	return decoded, err
}

// NormalizeEOL converts "\r\n" and "\r" line endings to "\n" and drops a
// single trailing line break
func NormalizeEOL(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSuffix(text, "\n")
}
