package restforce_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeGlobal(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v26.0/sobjects", r.URL.Path)
		writeJSON(w, http.StatusOK,
			`{"encoding":"UTF-8","sobjects":[{"name":"Account"},{"name":"Contact"},{"name":"Asset__c"}]}`)
	}))

	summaries, err := client.DescribeGlobal(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Account", summaries[0].StringField("name"))
}

func TestDescribe(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v26.0/sobjects/Account/describe", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"name":"Account","fields":[{"name":"Id"},{"name":"Name"}]}`)
	}))

	meta, err := client.Describe(context.Background(), "Account")
	require.NoError(t, err)
	assert.Equal(t, "Account", meta.StringField("name"))
}

func TestListSObjectsPreservesServerOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Deliberately unsorted; the order must survive as-is.
		writeJSON(w, http.StatusOK,
			`{"sobjects":[{"name":"Contact"},{"name":"Account"},{"name":"Asset__c"}]}`)
	}))

	names, err := client.ListSObjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact", "Account", "Asset__c"}, names)
}
