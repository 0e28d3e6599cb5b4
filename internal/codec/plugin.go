package codec

import (
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lmic-node/lmic-node-formatter/formatter"
)

// pluginDecoder wraps a decoder served by an external plugin process.
type pluginDecoder struct {
	formatter.Decoder

	client *plugin.Client
}

// newPluginDecoder starts the plugin at the given path and dispenses its
// decoder.
func newPluginDecoder(path string) (*pluginDecoder, error) {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "codec",
		Output: log.StandardLogger().Writer(),
		Level:  hclog.Info,
	})

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: formatter.HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			formatter.PluginName: &formatter.DecoderPlugin{},
		},
		Cmd:    exec.Command(path),
		Logger: logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, errors.Wrap(err, "get plugin rpc client error")
	}

	raw, err := rpcClient.Dispense(formatter.PluginName)
	if err != nil {
		client.Kill()
		return nil, errors.Wrap(err, "dispense plugin decoder error")
	}

	d, ok := raw.(formatter.Decoder)
	if !ok {
		client.Kill()
		return nil, errors.Errorf("expected formatter.Decoder, got: %T", raw)
	}

	return &pluginDecoder{
		Decoder: d,
		client:  client,
	}, nil
}

// Close kills the plugin process.
func (p *pluginDecoder) Close() {
	p.client.Kill()
}
