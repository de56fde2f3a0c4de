package restforce

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/9re/restforce/internal/sfapi"
)

// Results is the normalized shape of Query and Search output. Collection
// mode (the default) yields a *Collection; raw mode yields RawRecords. Both
// expose the same records in the same order for a given response.
type Results interface {
	// Records returns the materialized records of the current page.
	Records() []Record
}

// RawRecords is the raw-mode result: the bare records of one response, with
// no pagination or wrapping.
type RawRecords []Record

// Records implements Results.
func (r RawRecords) Records() []Record { return r }

// Collection wraps one page of query results and follows the server's
// continuation URL on demand. It is read-only once constructed.
type Collection struct {
	client         *Client
	records        []Record
	totalSize      int
	done           bool
	nextRecordsURL string
}

// Records implements Results, returning the current page.
func (c *Collection) Records() []Record { return c.records }

// TotalSize reports the server-side size of the full result set.
func (c *Collection) TotalSize() int { return c.totalSize }

// Done reports whether this page is the last one.
func (c *Collection) Done() bool { return c.done }

// NextPage fetches the following page, or nil when the collection is done.
func (c *Collection) NextPage(ctx context.Context) (*Collection, error) {
	if c.done || c.nextRecordsURL == "" {
		return nil, nil
	}
	resp, err := c.client.dispatch(ctx, http.MethodGet, c.nextRecordsURL, nil, nil)
	if err != nil {
		return nil, err
	}
	return c.client.newCollection(resp.Body)
}

// Each walks every record of the collection, fetching continuation pages
// lazily. Iteration stops at the first error from fn.
func (c *Collection) Each(ctx context.Context, fn func(Record) error) error {
	page := c
	for page != nil {
		for _, rec := range page.records {
			if err := fn(rec); err != nil {
				return err
			}
		}
		next, err := page.NextPage(ctx)
		if err != nil {
			return err
		}
		page = next
	}
	return nil
}

// All materializes the whole collection, following continuation pages.
func (c *Collection) All(ctx context.Context) ([]Record, error) {
	out := make([]Record, 0, c.totalSize)
	err := c.Each(ctx, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Query runs a structured query and returns its normalized results: a
// *Collection in collection mode, RawRecords in raw mode. Transport and API
// failures propagate; there is no lenient form for reads.
func (c *Client) Query(ctx context.Context, soql string) (Results, error) {
	return c.queryEndpoint(ctx, "query", soql)
}

// QueryAll runs a structured query that also spans deleted and archived
// records.
func (c *Client) QueryAll(ctx context.Context, soql string) (Results, error) {
	return c.queryEndpoint(ctx, "queryAll", soql)
}

func (c *Client) queryEndpoint(ctx context.Context, endpoint, soql string) (Results, error) {
	if strings.TrimSpace(soql) == "" {
		return nil, errors.New("restforce: query expression is required")
	}
	// The result shape is fixed before the request goes out.
	raw := c.rawResults
	c.logger.Debug("query", "endpoint", endpoint, "soql", soql)

	resp, err := c.dispatch(ctx, http.MethodGet, c.versionPath(endpoint), url.Values{"q": {soql}}, nil)
	if err != nil {
		return nil, err
	}
	if raw {
		page, err := sfapi.ParseQueryPage(resp.Body)
		if err != nil {
			return nil, err
		}
		records, err := decodeRecords(page.Records)
		if err != nil {
			return nil, err
		}
		return RawRecords(records), nil
	}
	return c.newCollection(resp.Body)
}

// Search runs a free-text search. Result-shape handling matches Query.
func (c *Client) Search(ctx context.Context, sosl string) (Results, error) {
	if strings.TrimSpace(sosl) == "" {
		return nil, errors.New("restforce: search expression is required")
	}
	raw := c.rawResults
	c.logger.Debug("search", "sosl", sosl)

	resp, err := c.dispatch(ctx, http.MethodGet, c.versionPath("search"), url.Values{"q": {sosl}}, nil)
	if err != nil {
		return nil, err
	}
	rawRecords, err := sfapi.ParseSearchRecords(resp.Body)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(rawRecords)
	if err != nil {
		return nil, err
	}
	if raw {
		return RawRecords(records), nil
	}
	return &Collection{
		client:    c,
		records:   records,
		totalSize: len(records),
		done:      true,
	}, nil
}

func (c *Client) newCollection(body []byte) (*Collection, error) {
	page, err := sfapi.ParseQueryPage(body)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(page.Records)
	if err != nil {
		return nil, err
	}
	return &Collection{
		client:         c,
		records:        records,
		totalSize:      page.TotalSize,
		done:           page.Done,
		nextRecordsURL: page.NextRecordsURL,
	}, nil
}
