package restforce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/9re/restforce/internal/sfapi"
)

// UpsertResult reports the outcome of an Upsert. Created is true when the
// call created a new record, in which case ID carries its identifier; a
// matched-and-updated record leaves ID empty.
type UpsertResult struct {
	ID      string
	Created bool
}

// Create inserts a new record and returns its identifier.
func (c *Client) Create(ctx context.Context, sobject string, fields Record) (string, error) {
	if err := validateSObject(sobject); err != nil {
		return "", err
	}
	c.logger.Debug("create", "sobject", sobject)

	resp, err := c.dispatch(ctx, http.MethodPost, c.sobjectPath(sobject), nil, fields)
	if err != nil {
		return "", err
	}
	result, err := sfapi.ParseCreateResult(resp.Body)
	if err != nil {
		return "", err
	}
	return result.ID, nil
}

// TryCreate is the lenient form of Create: a rejection by the API yields
// ok=false with no error, anything else propagates.
func (c *Client) TryCreate(ctx context.Context, sobject string, fields Record) (id string, ok bool, err error) {
	id, err = c.Create(ctx, sobject, fields)
	if err != nil {
		if _, clientErr := AsAPIError(err); clientErr {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// Update modifies an existing record. The record id is taken from the
// case-insensitive Id entry of fields and removed from the payload; when
// absent, Update fails with ErrMissingID before any request is issued.
func (c *Client) Update(ctx context.Context, sobject string, fields Record) error {
	if err := validateSObject(sobject); err != nil {
		return err
	}
	id, payload, found := extractField(fields, "Id")
	if !found || id == "" {
		return ErrMissingID
	}
	c.logger.Debug("update", "sobject", sobject, "id", id)

	_, err := c.dispatch(ctx, http.MethodPatch, c.sobjectPath(sobject, id), nil, payload)
	return err
}

// TryUpdate is the lenient form of Update. Local validation failures such as
// a missing id still propagate.
func (c *Client) TryUpdate(ctx context.Context, sobject string, fields Record) (bool, error) {
	if err := c.Update(ctx, sobject, fields); err != nil {
		if _, clientErr := AsAPIError(err); clientErr {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upsert creates or updates a record matched by the designated external id
// field. The field value is taken case-insensitively from fields and removed
// from the payload; when absent, Upsert fails with ErrMissingExternalID
// before any request is issued.
func (c *Client) Upsert(ctx context.Context, sobject, externalField string, fields Record) (UpsertResult, error) {
	if err := validateSObject(sobject); err != nil {
		return UpsertResult{}, err
	}
	if strings.TrimSpace(externalField) == "" {
		return UpsertResult{}, errors.New("restforce: external id field name is required")
	}
	value, payload, found := extractField(fields, externalField)
	if !found || value == "" {
		return UpsertResult{}, ErrMissingExternalID
	}
	c.logger.Debug("upsert", "sobject", sobject, "field", externalField, "value", value)

	resp, err := c.dispatch(ctx, http.MethodPatch, c.sobjectPath(sobject, externalField, value), nil, payload)
	if err != nil {
		return UpsertResult{}, err
	}
	result, err := sfapi.ParseCreateResult(resp.Body)
	if err != nil {
		return UpsertResult{}, err
	}
	// A body carrying an id means a new record was created; an empty body
	// means an existing record was matched and updated.
	if result.ID != "" {
		return UpsertResult{ID: result.ID, Created: true}, nil
	}
	return UpsertResult{}, nil
}

// TryUpsert is the lenient form of Upsert.
func (c *Client) TryUpsert(ctx context.Context, sobject, externalField string, fields Record) (UpsertResult, bool, error) {
	result, err := c.Upsert(ctx, sobject, externalField, fields)
	if err != nil {
		if _, clientErr := AsAPIError(err); clientErr {
			return UpsertResult{}, false, nil
		}
		return UpsertResult{}, false, err
	}
	return result, true, nil
}

// Destroy deletes the record with the given id.
func (c *Client) Destroy(ctx context.Context, sobject, id string) error {
	if err := validateSObject(sobject); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("restforce: record id is required")
	}
	c.logger.Debug("destroy", "sobject", sobject, "id", id)

	_, err := c.dispatch(ctx, http.MethodDelete, c.sobjectPath(sobject, id), nil, nil)
	return err
}

// TryDestroy is the lenient form of Destroy.
func (c *Client) TryDestroy(ctx context.Context, sobject, id string) (bool, error) {
	if err := c.Destroy(ctx, sobject, id); err != nil {
		if _, clientErr := AsAPIError(err); clientErr {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Find fetches a single record by its primary id. A missing record surfaces
// as an *APIError with status 404; there is no lenient form.
func (c *Client) Find(ctx context.Context, sobject, id string) (Record, error) {
	if err := validateSObject(sobject); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("restforce: record id is required")
	}
	resp, err := c.dispatch(ctx, http.MethodGet, c.sobjectPath(sobject, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Record()
}

// FindByField fetches a single record matched by an external id field.
func (c *Client) FindByField(ctx context.Context, sobject, field, value string) (Record, error) {
	if err := validateSObject(sobject); err != nil {
		return nil, err
	}
	if strings.TrimSpace(field) == "" || strings.TrimSpace(value) == "" {
		return nil, errors.New("restforce: external field name and value are required")
	}
	resp, err := c.dispatch(ctx, http.MethodGet, c.sobjectPath(sobject, field, value), nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Record()
}

func validateSObject(sobject string) error {
	if strings.TrimSpace(sobject) == "" {
		return fmt.Errorf("restforce: sobject type is required")
	}
	return nil
}
