package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Canonicalize returns the RFC 8785 (JCS) encoding of v with the named
// top-level fields removed. Keys are sorted and whitespace is dropped, so
// two logically equal documents produce the same bytes regardless of how
// encoding/json orders struct fields.
func Canonicalize(v any, omit ...string) ([]byte, error) {
	// 1. Marshal to JSON first so the json tags of v are respected
	data, err := marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	if len(omit) > 0 {
		// 2. Unmarshal into a map to drop the omitted fields
		var rawMap map[string]json.RawMessage
		if err := json.Unmarshal(data, &rawMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
		}
		for _, field := range omit {
			delete(rawMap, field)
		}
		data, err = marshal(rawMap)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal map: %w", err)
		}
	}

	// 3. Canonicalize
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize json: %w", err)
	}
	return canonical, nil
}

// marshal encodes v without HTML escaping.
func marshal(v any) ([]byte, error) {
	buffer := new(bytes.Buffer)
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
