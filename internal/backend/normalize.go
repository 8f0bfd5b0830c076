package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// unmarshalCollection decodes a list response that the backend returns
// in one of two shapes: a bare JSON array, or an object wrapping the
// array under the given field (e.g. {"messages": [...]}). All call
// sites go through this one adapter.
func unmarshalCollection(body []byte, field string, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty collection response")
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return fmt.Errorf("decode collection envelope: %w", err)
	}
	raw, ok := envelope[field]
	if !ok {
		return fmt.Errorf("collection response missing %q field", field)
	}
	return json.Unmarshal(raw, out)
}
