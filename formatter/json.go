package formatter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// Payload holds the raw uplink bytes.
//
// In JSON it is written as an array of numbers (0 - 255), which is the
// representation used by network-server payload formatters. When reading,
// a base64 encoded string is accepted as well.
type Payload []byte

// MarshalJSON implements json.Marshaler.
func (p Payload) MarshalJSON() ([]byte, error) {
	out := make([]int, len(p))
	for i, b := range p {
		out[i] = int(b)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "unmarshal bytes string error")
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return errors.Wrap(err, "decode base64 bytes error")
		}
		*p = b
		return nil
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return errors.Wrap(err, "unmarshal bytes array error")
	}

	out := make(Payload, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return errors.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*p = out

	return nil
}

// MarshalJSON implements json.Marshaler. Warnings is always written as an
// array, also when there are no warnings.
func (o UplinkOutput) MarshalJSON() ([]byte, error) {
	type output UplinkOutput
	out := output(o)
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return json.Marshal(out)
}
