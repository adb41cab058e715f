package state

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// jsonKeys returns the JSON object keys declared by the struct tags of v.
func jsonKeys(v interface{}) []string {
	t := reflect.TypeOf(v)
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

// splitExtra returns the members of the JSON object in data whose keys are
// not in known. encoding/json matches keys case-insensitively, so the
// comparison here does too.
func splitExtra(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse object: %w", err)
	}
	for key := range raw {
		for _, k := range known {
			if strings.EqualFold(key, k) {
				delete(raw, key)
				break
			}
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// mergeExtra adds extra members to the JSON object in known. Members already
// present in known win.
func mergeExtra(known []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, fmt.Errorf("failed to merge object: %w", err)
	}
	for key, value := range extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
