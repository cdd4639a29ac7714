package monitor

import (
	"github.com/brightless/brightless/internal/vcp"
	"github.com/spf13/cobra"
)

var contrastCmd = &cobra.Command{
	Use:   "contrast [value|+|-] [amount]",
	Short: "Get/Set the contrast of a monitor ([0..100])",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSliderCommand(vcp.FeatureContrast, args)
	},
}

func init() {
	Command.AddCommand(contrastCmd)
}
