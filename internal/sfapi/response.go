// Package sfapi decodes the wire envelopes used by the Salesforce REST API:
// query result pages, search result bodies and error payloads. It works on
// raw JSON so the public package decides how records are materialized.
package sfapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// QueryPage is one page of a query result set.
type QueryPage struct {
	TotalSize      int               `json:"totalSize"`
	Done           bool              `json:"done"`
	NextRecordsURL string            `json:"nextRecordsUrl"`
	Records        []json.RawMessage `json:"records"`
}

// ParseQueryPage decodes a query or queryAll response body.
func ParseQueryPage(body []byte) (*QueryPage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &QueryPage{}, nil
	}
	var page QueryPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("sfapi: decode query page: %w", err)
	}
	return &page, nil
}

// ParseSearchRecords decodes a search response body. Newer API versions wrap
// the hits in a searchRecords object; older ones return a bare array. Both
// shapes are accepted.
func ParseSearchRecords(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("sfapi: decode search records: %w", err)
		}
		return records, nil
	}
	var envelope struct {
		SearchRecords []json.RawMessage `json:"searchRecords"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("sfapi: decode search response: %w", err)
	}
	return envelope.SearchRecords, nil
}

// ErrorDetail is one entry of an error response body.
type ErrorDetail struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields"`
}

// ParseErrors extracts error details from a rejection body. The API reports
// errors as an array of detail objects; a single object is tolerated as well.
// Unparseable bodies yield no details rather than an error, since the caller
// already knows the request failed from the status code.
func ParseErrors(body []byte) []ErrorDetail {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var details []ErrorDetail
	if err := json.Unmarshal(trimmed, &details); err == nil {
		return details
	}
	var single ErrorDetail
	if err := json.Unmarshal(trimmed, &single); err == nil && (single.Message != "" || single.ErrorCode != "") {
		return []ErrorDetail{single}
	}
	return nil
}

// CreateResult is the body returned by record creation and by upserts that
// created a new record.
type CreateResult struct {
	ID      string            `json:"id"`
	Success bool              `json:"success"`
	Errors  []json.RawMessage `json:"errors"`
}

// ParseCreateResult decodes a creation response body. An empty body yields a
// zero result, which upsert relies on to detect that an existing record was
// updated in place.
func ParseCreateResult(body []byte) (*CreateResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &CreateResult{}, nil
	}
	var result CreateResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("sfapi: decode create result: %w", err)
	}
	return &result, nil
}
