package monitor

import (
	"github.com/brightless/brightless/internal/vcp"
	"github.com/spf13/cobra"
)

var volumeCmd = &cobra.Command{
	Use:   "volume [value|+|-] [amount]",
	Short: "Get/Set the audio volume of a monitor ([0..100])",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSliderCommand(vcp.FeatureVolume, args)
	},
}

func init() {
	Command.AddCommand(volumeCmd)
}
