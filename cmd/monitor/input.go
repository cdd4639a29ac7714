package monitor

import (
	"fmt"

	"github.com/brightless/brightless/internal/vcp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var inputCmd = &cobra.Command{
	Use:   "input [source]",
	Short: "Get/Set the input source of a monitor (e.g. 'HDMI 1', 'dp1' or '0x11')",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		monitor, err := getMonitor(monitorId)
		if err != nil {
			return err
		}

		if !monitor.Supports(vcp.FeatureInputSource) {
			return fmt.Errorf("monitor %s does not support input source selection", monitor.GetId())
		}

		if len(args) > 0 {
			source, err := vcp.ParseInputSource(args[0])
			if err != nil {
				return err
			}
			return monitor.SetInputSource(source)
		}

		source, err := monitor.GetInputSource()
		if err != nil {
			return err
		}
		fmt.Printf("%s (0x%02X)", source, byte(source))
		return nil
	},
}

func init() {
	Command.AddCommand(inputCmd)
}
