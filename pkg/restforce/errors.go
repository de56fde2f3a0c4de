package restforce

import (
	"errors"
	"fmt"

	"github.com/9re/restforce/internal/sfapi"
)

var (
	// ErrMissingID is returned by Update when the fields carry no
	// case-insensitive Id entry. No request is issued in that case.
	ErrMissingID = errors.New("restforce: fields must include an Id value")
	// ErrMissingExternalID is returned by Upsert when the fields carry no
	// entry for the designated external id field.
	ErrMissingExternalID = errors.New("restforce: fields must include the external id value")
)

// APIError represents a request the remote API rejected (HTTP 4xx). The
// lenient Try* operations convert exactly this error into their false
// result; everything else propagates.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Fields     []string
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.ErrorCode == "" {
		return fmt.Sprintf("restforce: request rejected (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("restforce: %s: %s (status %d)", e.ErrorCode, e.Message, e.StatusCode)
}

// ServerError represents a non-2xx response outside the client-error class,
// typically a 5xx after the transport exhausted its retries.
type ServerError struct {
	StatusCode int
	Body       []byte
}

func (e *ServerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("restforce: server error (status %d): %s", e.StatusCode, string(e.Body))
}

// AsAPIError reports whether err belongs to the client-error class and
// returns the typed error when it does.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// classifyResponse turns a non-2xx Response into a domain error. This is the
// single place deciding what counts as a recoverable client error.
func classifyResponse(resp *Response) error {
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if details := sfapi.ParseErrors(resp.Body); len(details) > 0 {
			apiErr.ErrorCode = details[0].ErrorCode
			apiErr.Message = details[0].Message
			apiErr.Fields = details[0].Fields
		}
		return apiErr
	}
	return &ServerError{StatusCode: resp.StatusCode, Body: resp.Body}
}
