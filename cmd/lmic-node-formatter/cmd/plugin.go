package cmd

import (
	"github.com/hashicorp/go-plugin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lmic-node/lmic-node-formatter/formatter"
	"github.com/lmic-node/lmic-node-formatter/internal/codec"
	"github.com/lmic-node/lmic-node-formatter/internal/config"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Serve the decoder as payload-formatter plugin",
	Long: `Serve the decoder as payload-formatter plugin
	> This command is not meant to be run by hand, it is started by the host
	  loading the plugin (see the formatter package for the handshake).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setLogLevel(); err != nil {
			return err
		}

		id := config.C.Codec.Default
		if id != codec.LMICNodeDecoderID {
			log.WithField("codec", id).Warning("plugin: only the built-in decoder can be served, using lmic_node")
		}

		log.Info("plugin: starting payload-formatter plugin")
		plugin.Serve(&plugin.ServeConfig{
			HandshakeConfig: formatter.HandshakeConfig,
			Plugins: map[string]plugin.Plugin{
				formatter.PluginName: &formatter.DecoderPlugin{Impl: &codec.LMICNodeDecoder{}},
			},
		})

		return nil
	},
}
