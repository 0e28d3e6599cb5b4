package formatter

import (
	"net/rpc"
	"time"

	"github.com/brocaar/lorawan"
	"github.com/hashicorp/go-plugin"
)

// HandshakeConfig for payload-formatter plugins.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PAYLOAD_FORMATTER_PLUGIN",
	MagicCookieValue: "PAYLOAD_FORMATTER_PLUGIN",
}

// PluginName is the name under which a Decoder is dispensed by a plugin.
const PluginName = "decoder"

// Decoder defines the uplink decoder interface.
//
// Decode issues must be reported through UplinkOutput.Warnings. The error
// return is reserved for failures of the plugin transport itself.
type Decoder interface {
	ID() (string, error)
	Name() (string, error)
	DecodeUplink(UplinkInput) (UplinkOutput, error)
}

// UplinkInput holds the uplink as delivered by the network server.
type UplinkInput struct {
	// FPort holds the application port of the uplink.
	FPort uint32 `json:"fPort"`

	// Bytes holds the raw (decrypted) FRMPayload.
	Bytes Payload `json:"bytes"`

	// DevEUI of the device (optional, for logging).
	DevEUI *lorawan.EUI64 `json:"devEUI,omitempty"`

	// RecvTime holds the time the network server received the uplink (optional).
	RecvTime *time.Time `json:"recvTime,omitempty"`
}

// UplinkOutput holds the decoded uplink.
type UplinkOutput struct {
	// Data holds the decoded fields.
	Data UplinkData `json:"data"`

	// Warnings holds the issues encountered during decoding.
	Warnings []string `json:"warnings"`
}

// UplinkData contains the decoded fields of an uplink. Fields which could
// not be decoded for the given port are left nil.
type UplinkData struct {
	// Counter holds the LMIC-node uplink counter (fPort 10).
	Counter *uint16 `json:"counter,omitempty"`
}

// IsEmpty returns true when no field has been decoded.
func (d UplinkData) IsEmpty() bool {
	return d.Counter == nil
}

// DecoderRPCServer implements the RPC server for the Decoder interface.
type DecoderRPCServer struct {
	// Impl holds the interface implementation.
	Impl Decoder
}

func (s *DecoderRPCServer) ID(req interface{}, resp *string) error {
	var err error
	*resp, err = s.Impl.ID()
	return err
}

func (s *DecoderRPCServer) Name(req interface{}, resp *string) error {
	var err error
	*resp, err = s.Impl.Name()
	return err
}

func (s *DecoderRPCServer) DecodeUplink(req UplinkInput, resp *UplinkOutput) error {
	var err error
	*resp, err = s.Impl.DecodeUplink(req)
	return err
}

// DecoderRPC implements the RPC client for the Decoder interface.
type DecoderRPC struct {
	client *rpc.Client
}

func (r *DecoderRPC) ID() (string, error) {
	var resp string
	err := r.client.Call("Plugin.ID", new(interface{}), &resp)
	return resp, err
}

func (r *DecoderRPC) Name() (string, error) {
	var resp string
	err := r.client.Call("Plugin.Name", new(interface{}), &resp)
	return resp, err
}

func (r *DecoderRPC) DecodeUplink(req UplinkInput) (UplinkOutput, error) {
	var resp UplinkOutput
	err := r.client.Call("Plugin.DecodeUplink", req, &resp)

	// gob does not distinguish between an empty and a nil slice
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp, err
}

// DecoderPlugin implements plugin.Plugin.
type DecoderPlugin struct {
	// Impl holds the interface implementation.
	Impl Decoder
}

func (p *DecoderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &DecoderRPCServer{Impl: p.Impl}, nil
}

func (p *DecoderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &DecoderRPC{client: c}, nil
}
