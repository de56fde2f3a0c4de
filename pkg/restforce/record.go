package restforce

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Record is a single sobject instance as returned by the API: a mapping from
// field name to field value. Values are the usual JSON shapes (string,
// float64, bool, nil, nested Record-like maps, slices).
type Record map[string]any

// ID returns the record's primary identifier. The field is matched
// case-insensitively; when several case variants are present, keys are
// scanned in lexicographic order and the first match wins.
func (r Record) ID() string {
	for _, key := range sortedKeys(r) {
		if strings.EqualFold(key, "id") {
			return fieldString(r[key])
		}
	}
	return ""
}

// StringField returns the named field rendered as a string, matching the
// field name case-insensitively. Missing fields yield "".
func (r Record) StringField(name string) string {
	for _, key := range sortedKeys(r) {
		if strings.EqualFold(key, name) {
			return fieldString(r[key])
		}
	}
	return ""
}

// Decode maps the record onto a struct. Field matching honours `json` tags so
// the same struct can serve for wire payloads and decoded records.
func (r Record) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("restforce: build record decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return fmt.Errorf("restforce: decode record: %w", err)
	}
	return nil
}

func (r Record) clone() Record {
	if r == nil {
		return nil
	}
	dst := make(Record, len(r))
	for k, v := range r {
		dst[k] = v
	}
	return dst
}

// extractField locates the field matching name case-insensitively, returning
// its value rendered as a string together with a copy of the record without
// that field. Keys are scanned in lexicographic order so the pick is
// deterministic when duplicate case variants exist. The caller's record is
// never mutated.
func extractField(fields Record, name string) (value string, rest Record, ok bool) {
	for _, key := range sortedKeys(fields) {
		if !strings.EqualFold(key, name) {
			continue
		}
		rest = fields.clone()
		delete(rest, key)
		return fieldString(fields[key]), rest, true
	}
	return "", nil, false
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		// JSON numbers decode as float64; keep integral ids readable.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func decodeRecords(raw []json.RawMessage) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("restforce: decode record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
