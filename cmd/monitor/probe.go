package monitor

import (
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/persistence"
	"github.com/brightless/brightless/internal/ui"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Query a monitor for its supported features and refresh the capability cache",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		monitor, err := getMonitor(monitorId)
		if err != nil {
			return err
		}

		capabilities, err := monitor.Probe()
		if err != nil {
			return err
		}

		pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		key := monitors.CapabilitiesKey(monitor)
		if err := pers.SaveMonitorCapabilities(key, capabilities); err != nil {
			ui.Warning("Unable to cache the capabilities of monitor %s: %v", monitor.GetId(), err)
		}

		printCapabilities(monitor)
		return nil
	},
}

func init() {
	Command.AddCommand(probeCmd)
}
