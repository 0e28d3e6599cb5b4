package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lmic-node/lmic-node-formatter/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the LMIC-node formatter version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Version)
	},
}
