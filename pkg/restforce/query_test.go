package restforce_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9re/restforce/pkg/restforce"
)

const (
	pageOne = `{"totalSize":3,"done":false,"nextRecordsUrl":"/services/data/v26.0/query/01g-next","records":[{"Id":"1","Name":"a"},{"Id":"2","Name":"b"}]}`
	pageTwo = `{"totalSize":3,"done":true,"records":[{"Id":"3","Name":"c"}]}`
)

func queryHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/data/v26.0/query":
			assert.Equal(t, "SELECT Id, Name FROM Account", r.URL.Query().Get("q"))
			writeJSON(w, http.StatusOK, pageOne)
		case "/services/data/v26.0/query/01g-next":
			writeJSON(w, http.StatusOK, pageTwo)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func TestQueryCollectionMode(t *testing.T) {
	client := newTestClient(t, queryHandler(t))

	results, err := client.Query(context.Background(), "SELECT Id, Name FROM Account")
	require.NoError(t, err)

	coll, ok := results.(*restforce.Collection)
	require.True(t, ok, "collection mode returns *Collection")
	assert.Equal(t, 3, coll.TotalSize())
	assert.False(t, coll.Done())
	assert.Len(t, coll.Records(), 2)

	all, err := coll.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].StringField("Name"))
	assert.Equal(t, "c", all[2].StringField("Name"))
}

func TestQueryRawMode(t *testing.T) {
	client := newTestClient(t, queryHandler(t), restforce.WithRawResults())

	results, err := client.Query(context.Background(), "SELECT Id, Name FROM Account")
	require.NoError(t, err)

	raw, ok := results.(restforce.RawRecords)
	require.True(t, ok, "raw mode returns RawRecords")
	require.Len(t, raw, 2)
	assert.Equal(t, "1", raw[0].ID())
	assert.Equal(t, "2", raw[1].ID())
}

func TestQueryModesAgreeOnPageContent(t *testing.T) {
	collClient := newTestClient(t, queryHandler(t))
	rawClient := newTestClient(t, queryHandler(t), restforce.WithRawResults())

	collResults, err := collClient.Query(context.Background(), "SELECT Id, Name FROM Account")
	require.NoError(t, err)
	rawResults, err := rawClient.Query(context.Background(), "SELECT Id, Name FROM Account")
	require.NoError(t, err)

	assert.Equal(t, rawResults.Records(), collResults.Records())
}

func TestCollectionEachStopsOnError(t *testing.T) {
	client := newTestClient(t, queryHandler(t))

	results, err := client.Query(context.Background(), "SELECT Id, Name FROM Account")
	require.NoError(t, err)
	coll := results.(*restforce.Collection)

	seen := 0
	err = coll.Each(context.Background(), func(restforce.Record) error {
		seen++
		if seen == 1 {
			return context.Canceled
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, seen)
}

func TestQueryAllUsesQueryAllEndpoint(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v26.0/queryAll", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"totalSize":0,"done":true,"records":[]}`)
	}))

	results, err := client.QueryAll(context.Background(), "SELECT Id FROM Account WHERE IsDeleted = true")
	require.NoError(t, err)
	assert.Empty(t, results.Records())
}

func TestQueryErrorPropagates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `[{"message":"unexpected token","errorCode":"MALFORMED_QUERY"}]`)
	}))

	_, err := client.Query(context.Background(), "SELECT bogus")
	apiErr, ok := restforce.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "MALFORMED_QUERY", apiErr.ErrorCode)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/v26.0/search", r.URL.Path)
		assert.Equal(t, "FIND {bar}", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, `{"searchRecords":[{"Id":"1","Name":"bar co"}]}`)
	}))

	results, err := client.Search(context.Background(), "FIND {bar}")
	require.NoError(t, err)

	coll, ok := results.(*restforce.Collection)
	require.True(t, ok)
	assert.True(t, coll.Done())
	require.Len(t, coll.Records(), 1)
	assert.Equal(t, "bar co", coll.Records()[0].StringField("Name"))
}

func TestSearchRawModeLegacyShape(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"Id":"1"},{"Id":"2"}]`)
	}), restforce.WithRawResults())

	results, err := client.Search(context.Background(), "FIND {bar}")
	require.NoError(t, err)

	raw, ok := results.(restforce.RawRecords)
	require.True(t, ok)
	assert.Len(t, raw, 2)
}

func TestQueryRequiresExpression(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))

	_, err := client.Query(context.Background(), "  ")
	assert.Error(t, err)
	_, err = client.Search(context.Background(), "")
	assert.Error(t, err)
}
