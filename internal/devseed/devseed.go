// Package devseed loads JSON fixture files used to pre-populate the mock org
// in tests, examples and the sandbox binary.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SObjectSeed describes the initial records for one object type.
type SObjectSeed struct {
	Type    string           `json:"type"`
	Records []map[string]any `json:"records"`
}

// LoadSObjectSeed reads a seed file containing an array of SObjectSeed
// entries.
func LoadSObjectSeed(path string) ([]SObjectSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed file: %w", err)
	}

	var entries []SObjectSeed
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("devseed: parse seed file %s: %w", path, err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Type) == "" {
			return nil, fmt.Errorf("devseed: seed entry %d missing object type", i)
		}
	}
	return entries, nil
}
