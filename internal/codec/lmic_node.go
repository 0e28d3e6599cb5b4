package codec

import (
	"encoding/binary"

	"github.com/lmic-node/lmic-node-formatter/formatter"
)

// CounterFPort is the port on which LMIC-node sends its uplink counter.
const CounterFPort = 10

// Decode warnings.
const (
	WarningUnsupportedFPort = "Unsupported fPort"
	WarningPayloadTooShort  = "Payload too short"
)

// LMICNodeDecoderID holds the ID of the built-in LMIC-node decoder.
const LMICNodeDecoderID = "lmic_node"

// LMICNodeDecoder decodes the uplinks sent by the LMIC-node firmware.
type LMICNodeDecoder struct{}

// ID returns the decoder ID.
func (d *LMICNodeDecoder) ID() (string, error) {
	return LMICNodeDecoderID, nil
}

// Name returns the human-readable decoder name.
func (d *LMICNodeDecoder) Name() (string, error) {
	return "LMIC-node uplink decoder", nil
}

// DecodeUplink decodes the given uplink. It never returns an error.
func (d *LMICNodeDecoder) DecodeUplink(in formatter.UplinkInput) (formatter.UplinkOutput, error) {
	return DecodeLMICNodeUplink(in.FPort, in.Bytes), nil
}

// DecodeLMICNodeUplink decodes the LMIC-node uplink payload for the given
// port. On port 10 the first two bytes hold the counter (big-endian), any
// other port is reported as unsupported.
func DecodeLMICNodeUplink(fPort uint32, b []byte) formatter.UplinkOutput {
	out := formatter.UplinkOutput{
		Warnings: []string{},
	}

	if fPort != CounterFPort {
		out.Warnings = append(out.Warnings, WarningUnsupportedFPort)
		return out
	}

	if len(b) < 2 {
		out.Warnings = append(out.Warnings, WarningPayloadTooShort)
		return out
	}

	counter := binary.BigEndian.Uint16(b[0:2])
	out.Data.Counter = &counter

	return out
}
