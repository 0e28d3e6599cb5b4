package marshaler

import (
	"testing"
	"time"

	"github.com/brocaar/chirpstack-api/go/v3/as/integration"
	"github.com/brocaar/chirpstack-api/go/v3/gw"
	"github.com/brocaar/lorawan"
	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/stretchr/testify/require"

	"github.com/lmic-node/lmic-node-formatter/formatter"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected Type
	}{
		{"formatter input", `{"fPort":10,"bytes":[1,2]}`, FormatterJSON},
		{"formatter input with whitespace", "  \n{\"bytes\":\"AQI=\",\"fPort\":10}", FormatterJSON},
		{"uplink event", `{"devEUI":"AQIDBAUGBwg=","fPort":10,"data":"AQI="}`, JSON},
		{"uplink event with bytes value", `{"deviceName":"bytes","fPort":10,"data":"AQI="}`, JSON},
		{"uplink event with bytes tag", `{"fPort":10,"data":"AQI=","tags":{"bytes":"2"}}`, JSON},
		{"invalid json object", `{"bytes":`, JSON},
		{"protobuf", string([]byte{0x50, 0x0a}), Protobuf},
		{"empty", "", Protobuf},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tst.expected, DetectType([]byte(tst.in)))
		})
	}
}

func TestUnmarshalUplinkEvent(t *testing.T) {
	in := integration.UplinkEvent{
		DeviceName: "lmic-node",
		DevEui:     []byte{1, 2, 3, 4, 5, 6, 7, 8},
		FPort:      10,
		Data:       []byte{0x01, 0x02},
	}

	t.Run("JSON", func(t *testing.T) {
		assert := require.New(t)

		m := jsonpb.Marshaler{}
		str, err := m.MarshalToString(&in)
		assert.NoError(err)

		var out integration.UplinkEvent
		typ, err := UnmarshalUplinkEvent([]byte(str), &out)
		assert.NoError(err)
		assert.Equal(JSON, typ)
		assert.True(proto.Equal(&in, &out))
	})

	t.Run("Protobuf", func(t *testing.T) {
		assert := require.New(t)

		b, err := proto.Marshal(&in)
		assert.NoError(err)

		var out integration.UplinkEvent
		typ, err := UnmarshalUplinkEvent(b, &out)
		assert.NoError(err)
		assert.Equal(Protobuf, typ)
		assert.True(proto.Equal(&in, &out))
	})

	t.Run("Formatter JSON", func(t *testing.T) {
		assert := require.New(t)

		var out integration.UplinkEvent
		typ, err := UnmarshalUplinkEvent([]byte(`{"fPort":10,"bytes":[1,2]}`), &out)
		assert.Error(err)
		assert.Equal(FormatterJSON, typ)
	})
}

func TestMarshalUplinkEvent(t *testing.T) {
	in := integration.UplinkEvent{
		DevEui:     []byte{1, 2, 3, 4, 5, 6, 7, 8},
		FPort:      10,
		Data:       []byte{0x01, 0x02},
		ObjectJson: `{"counter":258}`,
	}

	for _, typ := range []Type{JSON, Protobuf} {
		t.Run(typ.String(), func(t *testing.T) {
			assert := require.New(t)

			b, err := MarshalUplinkEvent(typ, &in)
			assert.NoError(err)

			var out integration.UplinkEvent
			outTyp, err := UnmarshalUplinkEvent(b, &out)
			assert.NoError(err)
			assert.Equal(typ, outTyp)
			assert.True(proto.Equal(&in, &out))
		})
	}

	t.Run("Formatter JSON", func(t *testing.T) {
		assert := require.New(t)
		_, err := MarshalUplinkEvent(FormatterJSON, &in)
		assert.Error(err)
	})
}

func TestUplinkInputFromEvent(t *testing.T) {
	t.Run("With DevEUI", func(t *testing.T) {
		assert := require.New(t)

		in := UplinkInputFromEvent(&integration.UplinkEvent{
			DevEui: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			FPort:  10,
			Data:   []byte{0x01, 0x02},
		})

		devEUI := lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8}
		assert.Equal(formatter.UplinkInput{
			FPort:  10,
			Bytes:  formatter.Payload{0x01, 0x02},
			DevEUI: &devEUI,
		}, in)
	})

	t.Run("Without DevEUI", func(t *testing.T) {
		assert := require.New(t)

		in := UplinkInputFromEvent(&integration.UplinkEvent{
			FPort: 3,
		})
		assert.Nil(in.DevEUI)
		assert.Nil(in.RecvTime)
		assert.EqualValues(3, in.FPort)
	})

	rxTime := time.Date(2021, 3, 4, 10, 11, 12, 0, time.UTC)
	publishedAt := rxTime.Add(time.Second)

	rxTimePB, err := ptypes.TimestampProto(rxTime)
	require.NoError(t, err)
	publishedAtPB, err := ptypes.TimestampProto(publishedAt)
	require.NoError(t, err)

	t.Run("Gateway rx time", func(t *testing.T) {
		assert := require.New(t)

		in := UplinkInputFromEvent(&integration.UplinkEvent{
			FPort: 10,
			RxInfo: []*gw.UplinkRXInfo{
				{},
				{Time: rxTimePB},
			},
			PublishedAt: publishedAtPB,
		})
		assert.NotNil(in.RecvTime)
		assert.True(rxTime.Equal(*in.RecvTime))
	})

	t.Run("Published at", func(t *testing.T) {
		assert := require.New(t)

		in := UplinkInputFromEvent(&integration.UplinkEvent{
			FPort:       10,
			RxInfo:      []*gw.UplinkRXInfo{{}},
			PublishedAt: publishedAtPB,
		})
		assert.NotNil(in.RecvTime)
		assert.True(publishedAt.Equal(*in.RecvTime))
	})
}

func TestSetObject(t *testing.T) {
	counter := uint16(258)

	t.Run("Decoded data", func(t *testing.T) {
		assert := require.New(t)

		var ev integration.UplinkEvent
		assert.NoError(SetObject(&ev, formatter.UplinkOutput{
			Data: formatter.UplinkData{Counter: &counter},
		}))
		assert.Equal(`{"counter":258}`, ev.ObjectJson)
	})

	t.Run("Nothing decoded", func(t *testing.T) {
		assert := require.New(t)

		ev := integration.UplinkEvent{ObjectJson: `{"counter":1}`}
		assert.NoError(SetObject(&ev, formatter.UplinkOutput{
			Warnings: []string{"Unsupported fPort"},
		}))
		assert.Equal("", ev.ObjectJson)
	})
}
