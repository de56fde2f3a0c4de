package restforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/9re/restforce/internal/devseed"
	"github.com/9re/restforce/pkg/restforce/mock"
)

const (
	envMode        = "RESTFORCE_MODE"
	envInstanceURL = "SALESFORCE_INSTANCE_URL"
	envAccessToken = "SALESFORCE_ACCESS_TOKEN"
	envAPIVersion  = "SALESFORCE_API_VERSION"
	envRawResults  = "RESTFORCE_RAW_RESULTS"
	envMockSeed    = "RESTFORCE_MOCK_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client based on environment variables and returns
// the resolved mode ("http" or "mock"). Without an explicit mode, an
// instance URL selects HTTP and its absence falls back to an in-memory mock
// org, optionally seeded from a JSON fixture file.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	instanceURL := strings.TrimSpace(os.Getenv(envInstanceURL))

	opts = append(envOptions(), opts...)

	switch mode {
	case "", modeAuto:
		if instanceURL != "" {
			return newEnvHTTPClient(instanceURL, opts)
		}
		return newEnvMockClient(opts)
	case modeHTTP:
		if instanceURL == "" {
			return nil, "", fmt.Errorf("restforce: HTTP mode requires %s", envInstanceURL)
		}
		return newEnvHTTPClient(instanceURL, opts)
	case modeMock:
		return newEnvMockClient(opts)
	default:
		return nil, "", fmt.Errorf("restforce: unsupported %s value %q", envMode, mode)
	}
}

func envOptions() []Option {
	var opts []Option
	if version := strings.TrimSpace(os.Getenv(envAPIVersion)); version != "" {
		opts = append(opts, WithAPIVersion(version))
	}
	if token := strings.TrimSpace(os.Getenv(envAccessToken)); token != "" {
		opts = append(opts, WithAccessToken(token))
	}
	if raw := strings.TrimSpace(os.Getenv(envRawResults)); raw != "" {
		if enabled, err := strconv.ParseBool(raw); err == nil && enabled {
			opts = append(opts, WithRawResults())
		}
	}
	return opts
}

func newEnvHTTPClient(instanceURL string, opts []Option) (*Client, string, error) {
	client, err := New(instanceURL, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("restforce: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newEnvMockClient(opts []Option) (*Client, string, error) {
	org := mock.New()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.LoadSObjectSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("restforce: load mock seed: %w", err)
		}
		if err := org.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("restforce: apply mock seed: %w", err)
		}
	}
	return NewWithDispatcher(NewOrgDispatcher(org), opts...), modeMock, nil
}

// NewOrgDispatcher adapts a mock org to the Dispatcher contract so it can
// back a Client in tests and local development.
func NewOrgDispatcher(org *mock.Org) Dispatcher {
	return &orgDispatcher{org: org}
}

type orgDispatcher struct {
	org *mock.Org
}

func (d *orgDispatcher) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	fields, err := toFieldMap(body)
	if err != nil {
		return nil, err
	}
	resp, err := d.org.Do(ctx, method, path, query, fields)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

func toFieldMap(body any) (map[string]any, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case Record:
		return v, nil
	case map[string]any:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("restforce: encode mock request body: %w", err)
		}
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("restforce: mock request body must be an object: %w", err)
		}
		return fields, nil
	}
}
