// Package jsonx decodes bus payloads into typed structs. Config values
// travel the bus as raw JSON bytes, but tests and in-process publishers may
// hand over strings or already-decoded maps; Decode accepts all three.
package jsonx

import (
	"encoding/json"
	"fmt"
)

func Decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case nil:
		return fmt.Errorf("nil payload")
	case []byte:
		return json.Unmarshal(v, dst)
	case json.RawMessage:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
