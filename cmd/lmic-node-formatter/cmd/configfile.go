package cmd

import (
	"os"
	"text/template"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lmic-node/lmic-node-formatter/internal/config"
)

// when updating this template, don't forget to update the README!
const configTemplate = `[general]
# Log level
#
# debug=5, info=4, warning=3, error=2, fatal=1, panic=0
log_level={{ .General.LogLevel }}

# Log to syslog.
#
# When set to true, log messages are being written to syslog.
log_to_syslog={{ .General.LogToSyslog }}


# Codec settings.
[codec]
# Default decoder.
#
# The id of the decoder used for the uplinks. Besides the built-in
# lmic_node decoder, this can be the id of one of the plugins below.
default="{{ .Codec.Default }}"

# Decoder plugins.
#
# Paths of external decoder plugins to load. A plugin is an executable
# implementing the payload-formatter plugin handshake. Running
# 'lmic-node-formatter plugin' serves the built-in decoder as plugin.
#
# Example:
# plugins=["/usr/local/bin/my-decoder-plugin"]
plugins=[{{ range $index, $elm := .Codec.Plugins }}{{ if $index }}, {{ end }}"{{ $elm }}"{{ end }}]


# Monitoring settings.
#
# Note that this endpoint does not provide any authentication.
[monitoring]
# IP:port to bind the monitoring endpoint to.
#
# When left blank, the monitoring endpoint will be disabled.
bind="{{ .Monitoring.Bind }}"

# Prometheus metrics endpoint.
#
# When set true, the Prometheus metrics will be served at '/metrics'.
prometheus_endpoint={{ .Monitoring.PrometheusEndpoint }}

# Healthcheck endpoint.
#
# When set to true, the healthcheck endpoint will be served at '/health'.
# It returns 200 when the default decoder can be resolved.
healthcheck_endpoint={{ .Monitoring.HealthcheckEndpoint }}
`

var configCmd = &cobra.Command{
	Use:   "configfile",
	Short: "Print the LMIC-node formatter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := template.Must(template.New("config").Parse(configTemplate))
		err := t.Execute(os.Stdout, &config.C)
		if err != nil {
			return errors.Wrap(err, "execute config template error")
		}
		return nil
	},
}
