package sfapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryPage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		total    int
		done     bool
		nextURL  string
		nRecords int
	}{
		{
			name:     "single page",
			body:     `{"totalSize":2,"done":true,"records":[{"Name":"a"},{"Name":"b"}]}`,
			total:    2,
			done:     true,
			nRecords: 2,
		},
		{
			name:     "paginated",
			body:     `{"totalSize":3000,"done":false,"nextRecordsUrl":"/services/data/v26.0/query/01g-2000","records":[{"Name":"a"}]}`,
			total:    3000,
			nextURL:  "/services/data/v26.0/query/01g-2000",
			nRecords: 1,
		},
		{
			name: "empty body",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			page, err := ParseQueryPage([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.total, page.TotalSize)
			assert.Equal(t, tc.done, page.Done)
			assert.Equal(t, tc.nextURL, page.NextRecordsURL)
			assert.Len(t, page.Records, tc.nRecords)
		})
	}

	_, err := ParseQueryPage([]byte(`not json`))
	require.Error(t, err)
}

func TestParseSearchRecords(t *testing.T) {
	wrapped, err := ParseSearchRecords([]byte(`{"searchRecords":[{"Id":"1"},{"Id":"2"}]}`))
	require.NoError(t, err)
	assert.Len(t, wrapped, 2)

	bare, err := ParseSearchRecords([]byte(`[{"Id":"1"}]`))
	require.NoError(t, err)
	assert.Len(t, bare, 1)

	empty, err := ParseSearchRecords(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestParseErrors(t *testing.T) {
	details := ParseErrors([]byte(`[{"message":"Required fields are missing: [Name]","errorCode":"REQUIRED_FIELD_MISSING","fields":["Name"]}]`))
	require.Len(t, details, 1)
	assert.Equal(t, "REQUIRED_FIELD_MISSING", details[0].ErrorCode)
	assert.Equal(t, []string{"Name"}, details[0].Fields)

	single := ParseErrors([]byte(`{"message":"Session expired","errorCode":"INVALID_SESSION_ID"}`))
	require.Len(t, single, 1)
	assert.Equal(t, "INVALID_SESSION_ID", single[0].ErrorCode)

	assert.Nil(t, ParseErrors([]byte(`<html>gateway timeout</html>`)))
	assert.Nil(t, ParseErrors(nil))
}

func TestParseCreateResult(t *testing.T) {
	created, err := ParseCreateResult([]byte(`{"id":"0016000000MRatd","success":true,"errors":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "0016000000MRatd", created.ID)
	assert.True(t, created.Success)

	empty, err := ParseCreateResult(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.ID)

	_, err = ParseCreateResult([]byte(`[`))
	require.Error(t, err)
}
