package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexBool accepts the boolean spellings the upstream payloads actually ship:
// true/false, 0/1, and the strings "true", "1", "yes" in any casing. Anything
// else decodes to false rather than failing the whole payload.
type FlexBool bool

// Bool returns the plain boolean value.
func (b FlexBool) Bool() bool {
	return bool(b)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*b = false
		return nil
	}

	switch trimmed[0] {
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("model: decode bool: %w", err)
		}
		*b = FlexBool(v)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("model: decode bool string: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			*b = true
		default:
			*b = false
		}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			*b = false
			return nil
		}
		*b = n.String() == "1"
		return nil
	}
}

// MarshalJSON implements json.Marshaler, always emitting a plain boolean.
func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}
