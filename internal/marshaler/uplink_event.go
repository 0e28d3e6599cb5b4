package marshaler

import (
	"bytes"
	"encoding/json"

	"github.com/brocaar/chirpstack-api/go/v3/as/integration"
	"github.com/brocaar/lorawan"
	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/pkg/errors"

	"github.com/lmic-node/lmic-node-formatter/formatter"
)

// UnmarshalUplinkEvent unmarshals a ChirpStack integration UplinkEvent.
func UnmarshalUplinkEvent(b []byte, ev *integration.UplinkEvent) (Type, error) {
	t := DetectType(b)

	switch t {
	case Protobuf:
		return t, proto.Unmarshal(b, ev)
	case JSON:
		m := jsonpb.Unmarshaler{
			AllowUnknownFields: true,
		}
		return t, m.Unmarshal(bytes.NewReader(b), ev)
	}

	return t, errors.Errorf("unexpected marshaler type for uplink event: %s", t)
}

// MarshalUplinkEvent marshals the given UplinkEvent.
func MarshalUplinkEvent(t Type, ev *integration.UplinkEvent) ([]byte, error) {
	switch t {
	case Protobuf:
		return proto.Marshal(ev)
	case JSON:
		m := &jsonpb.Marshaler{
			EmitDefaults: true,
		}
		str, err := m.MarshalToString(ev)
		return []byte(str), err
	}

	return nil, errors.Errorf("unexpected marshaler type for uplink event: %s", t)
}

// UplinkInputFromEvent returns the formatter input for the given UplinkEvent.
// The receive time is the first gateway rx time, or the publish time when no
// gateway reported one.
func UplinkInputFromEvent(ev *integration.UplinkEvent) formatter.UplinkInput {
	in := formatter.UplinkInput{
		FPort: ev.FPort,
		Bytes: formatter.Payload(ev.Data),
	}

	// the API uses the big-endian representation of the DevEUI
	if len(ev.DevEui) == len(lorawan.EUI64{}) {
		var devEUI lorawan.EUI64
		copy(devEUI[:], ev.DevEui)
		in.DevEUI = &devEUI
	}

	if ts := eventRecvTime(ev); ts != nil {
		recvTime, err := ptypes.Timestamp(ts)
		if err == nil {
			in.RecvTime = &recvTime
		}
	}

	return in
}

func eventRecvTime(ev *integration.UplinkEvent) *timestamp.Timestamp {
	for _, rxInfo := range ev.GetRxInfo() {
		if rxInfo.GetTime() != nil {
			return rxInfo.GetTime()
		}
	}
	return ev.GetPublishedAt()
}

// SetObject sets the decoded data as object of the given UplinkEvent. When
// nothing has been decoded, the object is cleared.
func SetObject(ev *integration.UplinkEvent, out formatter.UplinkOutput) error {
	if out.Data.IsEmpty() {
		ev.ObjectJson = ""
		return nil
	}

	b, err := json.Marshal(out.Data)
	if err != nil {
		return errors.Wrap(err, "marshal object error")
	}
	ev.ObjectJson = string(b)

	return nil
}
