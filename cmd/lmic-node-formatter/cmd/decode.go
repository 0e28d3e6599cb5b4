package cmd

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"unicode"

	"github.com/brocaar/chirpstack-api/go/v3/as/integration"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lmic-node/lmic-node-formatter/formatter"
	"github.com/lmic-node/lmic-node-formatter/internal/codec"
	"github.com/lmic-node/lmic-node-formatter/internal/config"
	"github.com/lmic-node/lmic-node-formatter/internal/marshaler"
)

var (
	decodeFPort    uint32
	decodePayload  string
	decodeEncoding string
	decodeOutput   string
	decodeEvent    string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a single uplink",
	Example: `  lmic-node-formatter decode --f-port 10 --payload 0102
  lmic-node-formatter decode --f-port 10 --payload AQI= --encoding base64 --output cbor
  lmic-node-formatter decode --event uplink-event.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setLogLevel(); err != nil {
			return err
		}
		if err := setupCodec(); err != nil {
			return err
		}
		defer codec.Stop()

		var b []byte
		var err error
		if decodeEvent != "" {
			b, err = decodeEventFile(cmd.Context(), decodeEvent)
		} else {
			b, err = decodeUplink(cmd.Context(), decodeFPort, decodePayload, decodeEncoding, decodeOutput)
		}
		if err != nil {
			return err
		}

		if _, err := os.Stdout.Write(b); err != nil {
			return errors.Wrap(err, "write output error")
		}
		if decodeEvent == "" && decodeOutput == "json" {
			fmt.Println()
		}

		return nil
	},
}

func init() {
	decodeCmd.Flags().Uint32VarP(&decodeFPort, "f-port", "f", 0, "fPort of the uplink")
	decodeCmd.Flags().StringVarP(&decodePayload, "payload", "p", "", "uplink payload")
	decodeCmd.Flags().StringVar(&decodeEncoding, "encoding", "hex", "payload encoding (hex or base64)")
	decodeCmd.Flags().StringVarP(&decodeOutput, "output", "o", "json", "output format (json or cbor)")
	decodeCmd.Flags().StringVar(&decodeEvent, "event", "", "path to a ChirpStack uplink event (JSON or Protobuf) to decode")
}

func decodeUplink(ctx context.Context, fPort uint32, payload, encoding, output string) ([]byte, error) {
	b, err := parsePayload(payload, encoding)
	if err != nil {
		return nil, err
	}

	out, err := codec.Decode(contextOrBackground(ctx), config.C.Codec.Default, formatter.UplinkInput{
		FPort: fPort,
		Bytes: b,
	})
	if err != nil {
		return nil, err
	}

	return encodeOutput(out, output)
}

func decodeEventFile(ctx context.Context, path string) ([]byte, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read uplink event error")
	}

	var ev integration.UplinkEvent
	t, err := marshaler.UnmarshalUplinkEvent(b, &ev)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal uplink event error")
	}

	out, err := codec.Decode(contextOrBackground(ctx), config.C.Codec.Default, marshaler.UplinkInputFromEvent(&ev))
	if err != nil {
		return nil, err
	}

	if err := marshaler.SetObject(&ev, out); err != nil {
		return nil, err
	}

	return marshaler.MarshalUplinkEvent(t, &ev)
}

// parsePayload decodes the given payload. Hex payloads may contain
// whitespace and a 0x prefix.
func parsePayload(payload, encoding string) ([]byte, error) {
	switch encoding {
	case "hex":
		clean := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, payload)
		clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")

		b, err := hex.DecodeString(clean)
		if err != nil {
			return nil, errors.Wrap(err, "decode hex payload error")
		}
		return b, nil
	case "base64":
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return nil, errors.Wrap(err, "decode base64 payload error")
		}
		return b, nil
	}

	return nil, errors.Errorf("unknown payload encoding: %s", encoding)
}

func encodeOutput(out formatter.UplinkOutput, output string) ([]byte, error) {
	switch output {
	case "json":
		b, err := json.Marshal(out)
		return b, errors.Wrap(err, "marshal json error")
	case "cbor":
		if out.Warnings == nil {
			out.Warnings = []string{}
		}
		b, err := cbor.Marshal(out)
		return b, errors.Wrap(err, "marshal cbor error")
	}

	return nil, errors.Errorf("unknown output format: %s", output)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
