package marshaler

import (
	"bytes"
	"encoding/json"
)

// Type defines the marshaler type.
type Type int

// Marshaler types.
const (
	Protobuf Type = iota
	JSON
	FormatterJSON
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Protobuf:
		return "protobuf"
	case JSON:
		return "json"
	case FormatterJSON:
		return "formatter_json"
	}
	return "unknown"
}

// DetectType returns the marshaler type of the given record. JSON objects
// holding a top-level "bytes" key are payload-formatter inputs, other JSON
// objects are ChirpStack integration events. Anything else is treated as
// Protobuf.
func DetectType(b []byte) Type {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return Protobuf
	}

	// invalid JSON is left to the event unmarshaler to report
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return JSON
	}

	if _, ok := fields["bytes"]; ok {
		return FormatterJSON
	}

	return JSON
}
