package restforce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldCaseInsensitive(t *testing.T) {
	fields := Record{"Id": "001A", "Name": "Foobar Inc."}

	id, rest, ok := extractField(fields, "id")
	require.True(t, ok)
	assert.Equal(t, "001A", id)
	assert.Equal(t, Record{"Name": "Foobar Inc."}, rest)

	// The caller's record is untouched.
	assert.Equal(t, Record{"Id": "001A", "Name": "Foobar Inc."}, fields)
}

func TestExtractFieldMissing(t *testing.T) {
	_, _, ok := extractField(Record{"Name": "x"}, "Id")
	assert.False(t, ok)

	_, _, ok = extractField(nil, "Id")
	assert.False(t, ok)
}

func TestExtractFieldDeterministicTieBreak(t *testing.T) {
	// Lexicographic scan: "ID" sorts before "Id" before "iD", so the pick
	// is stable no matter the map's iteration order.
	fields := Record{"iD": "third", "Id": "second", "ID": "first"}
	for i := 0; i < 32; i++ {
		id, rest, ok := extractField(fields, "id")
		require.True(t, ok)
		assert.Equal(t, "first", id)
		assert.Equal(t, Record{"iD": "third", "Id": "second"}, rest)
	}
}

func TestExtractFieldNumericValue(t *testing.T) {
	value, _, ok := extractField(Record{"External__c": float64(12)}, "external__c")
	require.True(t, ok)
	assert.Equal(t, "12", value)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "001A", Record{"id": "001A"}.ID())
	assert.Equal(t, "001A", Record{"Id": "001A", "Name": "x"}.ID())
	assert.Equal(t, "", Record{"Name": "x"}.ID())
	assert.Equal(t, "", Record(nil).ID())
}

func TestRecordStringField(t *testing.T) {
	rec := Record{"Name": "Foobar Inc.", "Employees": float64(42)}
	assert.Equal(t, "Foobar Inc.", rec.StringField("name"))
	assert.Equal(t, "42", rec.StringField("employees"))
	assert.Equal(t, "", rec.StringField("missing"))
}

func TestRecordDecode(t *testing.T) {
	type account struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	}

	var out account
	rec := Record{"Id": "001A", "Name": "Foobar Inc.", "attributes": map[string]any{"type": "Account"}}
	require.NoError(t, rec.Decode(&out))
	assert.Equal(t, account{ID: "001A", Name: "Foobar Inc."}, out)
}
