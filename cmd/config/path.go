package config

import (
	"fmt"

	"github.com/brightless/brightless/internal/configuration"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path of the configuration file in use",
	Long:  ``,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		pterm.DisableOutput()

		configPath := configuration.DetectConfigFile()
		fmt.Println(configPath)
	},
}

func init() {
	Command.AddCommand(pathCmd)
}
