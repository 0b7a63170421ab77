// Package conformance runs the cross-implementation vector suites.
//
// A fixture file carries a suite name, a version, and a list of vectors.
// Three vector shapes exist: direct (input/expected), procedural
// (procedure/expected), and comparison (input_a/input_b/expected). The
// matching rule is one-sided: every key present in expected, except the
// non-normative "note", must equal the actual result at that key; keys
// absent from expected are unconstrained.
package conformance

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
)

// Suite is a parsed fixture file.
type Suite struct {
	Suite   string   `json:"suite"`
	Version string   `json:"version"`
	Vectors []Vector `json:"vectors"`
}

// Vector is a single conformance case.
type Vector struct {
	ID        string          `json:"id"`
	Input     json.RawMessage `json:"input,omitempty"`
	Procedure json.RawMessage `json:"procedure,omitempty"`
	InputA    json.RawMessage `json:"input_a,omitempty"`
	InputB    json.RawMessage `json:"input_b,omitempty"`
	Expected  map[string]any  `json:"expected"`
}

// LoadSuite reads and parses a fixture file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	if s.Suite == "" {
		return nil, fmt.Errorf("fixture %s: missing suite name", path)
	}
	return &s, nil
}

// Match applies the matching rule: each expected key except "note" must
// deep-equal the actual value at that key. Values are compared after a
// JSON round trip so numeric and map representations normalize.
func Match(expected, actual map[string]any) error {
	normActual, err := normalize(actual)
	if err != nil {
		return err
	}
	var mismatches []string
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "note" {
			continue
		}
		got, ok := normActual[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: missing (want %v)", k, expected[k]))
			continue
		}
		if !reflect.DeepEqual(expected[k], got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %v, want %v", k, got, expected[k]))
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("vector mismatch: %s", strings.Join(mismatches, "; "))
	}
	return nil
}

func normalize(m map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
