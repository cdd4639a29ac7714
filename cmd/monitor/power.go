package monitor

import (
	"fmt"

	"github.com/brightless/brightless/internal/vcp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var powerCmd = &cobra.Command{
	Use:   "power [mode]",
	Short: "Get/Set the power mode of a monitor (e.g. 'on', 'standby' or 'off')",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		monitor, err := getMonitor(monitorId)
		if err != nil {
			return err
		}

		if !monitor.Supports(vcp.FeaturePowerMode) {
			return fmt.Errorf("monitor %s does not support power mode control", monitor.GetId())
		}

		if len(args) > 0 {
			mode, err := vcp.ParsePowerMode(args[0])
			if err != nil {
				return err
			}
			return monitor.SetPowerMode(mode)
		}

		mode, err := monitor.GetPowerMode()
		if err != nil {
			return err
		}
		fmt.Printf("%s (0x%02X)", mode, byte(mode))
		return nil
	},
}

func init() {
	Command.AddCommand(powerCmd)
}
