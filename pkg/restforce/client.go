package restforce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/9re/restforce/internal/httpx"
)

const (
	// DefaultAPIVersion is used when no explicit version is configured.
	DefaultAPIVersion = "26.0"

	defaultAPIRoot = "/services/data"
)

// Response is the uniform result of one HTTP exchange: status, headers and
// the raw body. Raw verb calls return it for any status; operations consume
// it exactly once.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Record parses the response body as a single record.
func (r *Response) Record() (Record, error) {
	var rec Record
	if err := r.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Decode unmarshals the response body into out. Empty bodies decode as JSON
// null.
func (r *Response) Decode(out any) error {
	body := r.Body
	if len(body) == 0 {
		body = []byte("null")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("restforce: decode response body: %w", err)
	}
	return nil
}

// Dispatcher issues one HTTP exchange against the remote API. It reports an
// error only for transport-level failures; rejected requests come back as a
// Response carrying the error status, so classification stays with the
// operation layer.
type Dispatcher interface {
	Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion selects the remote API version used for all resource paths.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = strings.TrimPrefix(strings.TrimSpace(version), "v")
	}
}

// WithAPIRoot overrides the fixed path prefix ahead of the version segment.
func WithAPIRoot(root string) Option {
	return func(c *Client) {
		root = strings.TrimSpace(root)
		if root != "" {
			c.apiRoot = "/" + strings.Trim(root, "/")
		}
	}
}

// WithAccessToken attaches a bearer token to every request.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = strings.TrimSpace(token)
	}
}

// WithRawResults disables the collection wrapper: Query and Search return
// the bare records of the response instead of a paginating Collection. The
// flag is fixed for the lifetime of the client.
func WithRawResults() Option {
	return func(c *Client) {
		c.rawResults = true
	}
}

// WithLogger assigns a structured logger; operations trace at Debug level.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransportOptions forwards options to the underlying HTTP transport.
// Ignored when the client is built around a custom Dispatcher.
func WithTransportOptions(opts ...httpx.Option) Option {
	return func(c *Client) {
		c.transportOpts = append(c.transportOpts, opts...)
	}
}

// Client exposes the record operations of one remote org. All configuration
// is fixed at construction; a Client is safe for concurrent use.
type Client struct {
	dispatcher Dispatcher

	apiRoot     string
	apiVersion  string
	accessToken string
	rawResults  bool

	logger        hclog.Logger
	transportOpts []httpx.Option
}

// New constructs a Client for the org reachable at instanceURL.
func New(instanceURL string, opts ...Option) (*Client, error) {
	c := newClient(opts)
	if c.apiVersion == "" {
		return nil, errors.New("restforce: API version is required")
	}

	headers := make(http.Header)
	if c.accessToken != "" {
		headers.Set("Authorization", "Bearer "+c.accessToken)
	}

	transportOpts := append([]httpx.Option{
		httpx.WithHeaders(headers),
		httpx.WithLogger(c.logger.Named("httpx")),
	}, c.transportOpts...)

	httpClient, err := httpx.NewClient(instanceURL, transportOpts...)
	if err != nil {
		return nil, err
	}
	c.dispatcher = &httpDispatcher{client: httpClient}
	return c, nil
}

// NewWithDispatcher wraps a caller-supplied Dispatcher, typically a mock.
func NewWithDispatcher(d Dispatcher, opts ...Option) *Client {
	c := newClient(opts)
	c.dispatcher = d
	return c
}

func newClient(opts []Option) *Client {
	c := &Client{
		apiRoot:    defaultAPIRoot,
		apiVersion: DefaultAPIVersion,
		logger:     hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIVersion reports the configured remote API version.
func (c *Client) APIVersion() string {
	return c.apiVersion
}

// versionPath builds "<root>/v<version>/<suffix>". Root and version come
// from configuration only; callers control nothing but the suffix.
func (c *Client) versionPath(suffix string) string {
	return c.apiRoot + "/v" + c.apiVersion + "/" + strings.TrimPrefix(suffix, "/")
}

func (c *Client) sobjectPath(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, "sobjects")
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return c.versionPath(strings.Join(escaped, "/"))
}

// dispatch runs one exchange and applies error classification: transport
// failures and non-2xx statuses surface as errors, everything else returns
// the response for the caller to decode.
func (c *Client) dispatch(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	if c == nil || c.dispatcher == nil {
		return nil, errors.New("restforce: client is not initialised")
	}
	resp, err := c.dispatcher.Do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, classifyResponse(resp)
	}
	return resp, nil
}

// Get performs a raw GET against an arbitrary API path.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.raw(ctx, http.MethodGet, path, query, nil)
}

// Post performs a raw POST with a JSON body against an arbitrary API path.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.raw(ctx, http.MethodPost, path, nil, body)
}

// Put performs a raw PUT with a JSON body against an arbitrary API path.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.raw(ctx, http.MethodPut, path, nil, body)
}

// Patch performs a raw PATCH with a JSON body against an arbitrary API path.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.raw(ctx, http.MethodPatch, path, nil, body)
}

// Delete performs a raw DELETE against an arbitrary API path.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.raw(ctx, http.MethodDelete, path, query, nil)
}

// Head performs a raw HEAD against an arbitrary API path.
func (c *Client) Head(ctx context.Context, path string) (*Response, error) {
	return c.raw(ctx, http.MethodHead, path, nil, nil)
}

// raw exchanges without classification: the caller gets the Response even
// for error statuses.
func (c *Client) raw(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	if c == nil || c.dispatcher == nil {
		return nil, errors.New("restforce: client is not initialised")
	}
	return c.dispatcher.Do(ctx, method, path, query, body)
}

// httpDispatcher adapts the httpx transport to the Dispatcher contract.
type httpDispatcher struct {
	client *httpx.Client
}

func (d *httpDispatcher) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	req := &httpx.Request{
		Method: method,
		Path:   path,
		Query:  query,
	}
	if body != nil {
		reader, contentType, err := httpx.WithJSONBody(body)
		if err != nil {
			return nil, fmt.Errorf("restforce: encode request body: %w", err)
		}
		req.Body = reader
		req.Header = http.Header{"Content-Type": []string{contentType}}
	}

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		var httpErr *httpx.HTTPError
		if errors.As(err, &httpErr) {
			// The request reached the server; hand the rejection back as
			// a Response so classification stays in one place.
			return &Response{
				StatusCode: httpErr.StatusCode,
				Header:     httpErr.Header,
				Body:       httpErr.Body,
			}, nil
		}
		return nil, err
	}

	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("restforce: read response body: %w", err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
