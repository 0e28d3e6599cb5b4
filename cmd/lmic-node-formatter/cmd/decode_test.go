package cmd

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"text/template"

	"github.com/brocaar/chirpstack-api/go/v3/as/integration"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/jsonpb"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/lmic-node/lmic-node-formatter/formatter"
	"github.com/lmic-node/lmic-node-formatter/internal/codec"
	"github.com/lmic-node/lmic-node-formatter/internal/config"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		encoding string
		expected []byte
		err      bool
	}{
		{"hex", "0102", "hex", []byte{1, 2}, false},
		{"hex with prefix and spaces", "0x01 02\n", "hex", []byte{1, 2}, false},
		{"empty hex", "", "hex", []byte{}, false},
		{"invalid hex", "zz", "hex", nil, true},
		{"base64", "AQI=", "base64", []byte{1, 2}, false},
		{"invalid base64", "!!", "base64", nil, true},
		{"unknown encoding", "0102", "ascii", nil, true},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)

			b, err := parsePayload(tst.payload, tst.encoding)
			if tst.err {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tst.expected, b)
		})
	}
}

func TestEncodeOutput(t *testing.T) {
	counter := uint16(258)
	out := formatter.UplinkOutput{
		Data: formatter.UplinkData{Counter: &counter},
	}

	t.Run("JSON", func(t *testing.T) {
		assert := require.New(t)

		b, err := encodeOutput(out, "json")
		assert.NoError(err)
		assert.JSONEq(`{"data":{"counter":258},"warnings":[]}`, string(b))
	})

	t.Run("CBOR", func(t *testing.T) {
		assert := require.New(t)

		b, err := encodeOutput(out, "cbor")
		assert.NoError(err)

		var decoded map[string]interface{}
		assert.NoError(cbor.Unmarshal(b, &decoded))
		assert.Contains(decoded, "data")
		assert.Contains(decoded, "warnings")
		assert.Equal(map[interface{}]interface{}{"counter": uint64(258)}, decoded["data"])
		assert.Equal([]interface{}{}, decoded["warnings"])
	})

	t.Run("Unknown format", func(t *testing.T) {
		assert := require.New(t)

		_, err := encodeOutput(out, "xml")
		assert.Error(err)
	})
}

func TestDecode(t *testing.T) {
	assert := require.New(t)

	config.C.Codec.Default = codec.LMICNodeDecoderID
	assert.NoError(codec.Setup(config.C))
	defer codec.Stop()

	t.Run("Uplink", func(t *testing.T) {
		tests := []struct {
			name     string
			fPort    uint32
			payload  string
			expected string
		}{
			{"counter", 10, "0102", `{"data":{"counter":258},"warnings":[]}`},
			{"unsupported fPort", 1, "0102", `{"data":{},"warnings":["Unsupported fPort"]}`},
			{"payload too short", 10, "01", `{"data":{},"warnings":["Payload too short"]}`},
		}

		for _, tst := range tests {
			t.Run(tst.name, func(t *testing.T) {
				assert := require.New(t)

				b, err := decodeUplink(context.Background(), tst.fPort, tst.payload, "hex", "json")
				assert.NoError(err)
				assert.JSONEq(tst.expected, string(b))
			})
		}
	})

	t.Run("Event file", func(t *testing.T) {
		assert := require.New(t)

		m := jsonpb.Marshaler{}
		str, err := m.MarshalToString(&integration.UplinkEvent{
			DevEui: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			FPort:  10,
			Data:   []byte{0x01, 0x02},
		})
		assert.NoError(err)

		path := filepath.Join(t.TempDir(), "event.json")
		assert.NoError(ioutil.WriteFile(path, []byte(str), 0644))

		b, err := decodeEventFile(context.Background(), path)
		assert.NoError(err)

		var ev integration.UplinkEvent
		assert.NoError(jsonpb.Unmarshal(bytes.NewReader(b), &ev))
		assert.Equal(`{"counter":258}`, ev.ObjectJson)
	})

	t.Run("Missing event file", func(t *testing.T) {
		assert := require.New(t)

		_, err := decodeEventFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(err)
	})
}

func TestConfigTemplate(t *testing.T) {
	assert := require.New(t)

	var c config.Config
	c.General.LogLevel = 5
	c.Codec.Default = "lmic_node"
	c.Codec.Plugins = []string{"/usr/bin/a", "/usr/bin/b"}
	c.Monitoring.Bind = "127.0.0.1:8080"
	c.Monitoring.PrometheusEndpoint = true

	var buf bytes.Buffer
	tpl := template.Must(template.New("config").Parse(configTemplate))
	assert.NoError(tpl.Execute(&buf, &c))

	v := viper.New()
	v.SetConfigType("toml")
	assert.NoError(v.ReadConfig(&buf))

	var out config.Config
	assert.NoError(v.Unmarshal(&out))
	assert.Equal(c, out)
}
