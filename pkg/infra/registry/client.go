package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/bdifget/pkg/domain/interfaces"
	"github.com/m-mizutani/bdifget/pkg/domain/model"
	"github.com/m-mizutani/bdifget/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultBaseURL is the public BDIF API root
	DefaultBaseURL = "https://bdif.amf-france.org/back/api/v1"

	// DefaultReferer is sent with every request, as the web front end does
	DefaultReferer = "https://bdif.amf-france.org/en"

	// DefaultUserAgent mimics a desktop browser; the API rejects bare clients
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36"

	listingPath  = "/informations"
	documentPath = "/documents/"
)

var (
	_ interfaces.RegistryClient  = (*Client)(nil)
	_ interfaces.DocumentFetcher = (*Client)(nil)
)

// DefaultHeaders returns the header template applied to every request
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "en")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Referer", DefaultReferer)
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("User-Agent", DefaultUserAgent)
	h.Set("Sec-Ch-Ua", `"Not(A:Brand";v="8", "Chromium";v="144", "Google Chrome";v="144"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	return h
}

// Client talks to the listing and document endpoints of the registry
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithBaseURL sets the API root, without trailing slash
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeaders overrides or adds header values on top of DefaultHeaders
func WithHeaders(headers http.Header) Option {
	return func(c *Client) {
		for key, values := range headers {
			c.headers[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
}

// NewClient creates a registry client. The header template is fixed once the
// client is built.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		headers:    DefaultHeaders(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// listingResponse keeps total as a pointer to tell a missing field from zero
type listingResponse struct {
	Total  *int               `json:"total"`
	Result []model.ResultItem `json:"result"`
}

// FetchTotal returns the total hit count reported by the listing endpoint
func (c *Client) FetchTotal(ctx context.Context, offset, pageSize int, spec model.SearchSpec) (int, error) {
	page, err := c.FetchPage(ctx, offset, pageSize, spec)
	if err != nil {
		return 0, err
	}
	return page.TotalCount, nil
}

// FetchPage issues one listing request and decodes the response body
func (c *Client) FetchPage(ctx context.Context, offset, pageSize int, spec model.SearchSpec) (*model.PageResult, error) {
	reqURL := c.baseURL + listingPath + "?" + BuildParams(offset, pageSize, spec).Encode()

	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read listing response",
			goerr.V("url", reqURL),
			goerr.T(types.ErrTagTransport),
		)
	}

	var raw listingResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, goerr.Wrap(err, "malformed listing response",
			goerr.V("url", reqURL),
			goerr.T(types.ErrTagProtocol),
		)
	}

	if raw.Total == nil {
		return nil, goerr.New("listing response has no total field",
			goerr.V("url", reqURL),
			goerr.T(types.ErrTagProtocol),
		)
	}
	if *raw.Total < 0 {
		return nil, goerr.New("listing response has a negative total",
			goerr.V("url", reqURL),
			goerr.V("total", *raw.Total),
			goerr.T(types.ErrTagProtocol),
		)
	}

	return &model.PageResult{
		TotalCount: *raw.Total,
		Items:      raw.Result,
	}, nil
}

// OpenDocument starts a streaming download of a document. The caller must
// close the returned body.
func (c *Client) OpenDocument(ctx context.Context, retrievalPath string) (io.ReadCloser, int64, error) {
	reqURL := c.baseURL + documentPath + strings.TrimPrefix(retrievalPath, "/")

	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

// get sends a GET with the header template. Any status outside 2xx is
// reported as a transport failure and the body is closed.
func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request",
			goerr.V("url", reqURL),
			goerr.T(types.ErrTagTransport),
		)
	}
	req.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed",
			goerr.V("url", reqURL),
			goerr.T(types.ErrTagTransport),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, goerr.New("unexpected status code",
			goerr.V("url", reqURL),
			goerr.V("status", resp.StatusCode),
			goerr.T(types.ErrTagTransport),
		)
	}

	return resp, nil
}
