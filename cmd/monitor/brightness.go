package monitor

import (
	"github.com/brightless/brightless/internal/vcp"
	"github.com/spf13/cobra"
)

var brightnessCmd = &cobra.Command{
	Use:   "brightness [value|+|-] [amount]",
	Short: "Get/Set the brightness of a monitor ([0..100])",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSliderCommand(vcp.FeatureBrightness, args)
	},
}

func init() {
	Command.AddCommand(brightnessCmd)
}
