package restforce

import (
	"context"
	"net/http"
)

// DescribeGlobal lists the metadata summaries of every object type exposed
// by the org, in the order the server reports them.
func (c *Client) DescribeGlobal(ctx context.Context) ([]Record, error) {
	resp, err := c.dispatch(ctx, http.MethodGet, c.versionPath("sobjects"), nil, nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		SObjects []Record `json:"sobjects"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return body.SObjects, nil
}

// Describe fetches the full metadata of one object type.
func (c *Client) Describe(ctx context.Context, sobject string) (Record, error) {
	if err := validateSObject(sobject); err != nil {
		return nil, err
	}
	resp, err := c.dispatch(ctx, http.MethodGet, c.sobjectPath(sobject)+"/describe", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Record()
}

// ListSObjects returns the object type names of the org, one per
// DescribeGlobal summary, preserving server order.
func (c *Client) ListSObjects(ctx context.Context) ([]string, error) {
	summaries, err := c.DescribeGlobal(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		names = append(names, summary.StringField("name"))
	}
	return names, nil
}
