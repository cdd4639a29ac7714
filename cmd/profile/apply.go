package profile

import (
	"errors"
	"fmt"

	"github.com/brightless/brightless/internal"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/controller"
	"github.com/brightless/brightless/internal/ddcutil"
	"github.com/brightless/brightless/internal/persistence"
	"github.com/brightless/brightless/internal/profiles"
	"github.com/brightless/brightless/internal/ui"
	"github.com/spf13/cobra"
)

var applyMonitorId string

var applyCmd = &cobra.Command{
	Use:   "apply <profile>",
	Short: "Apply a profile to all monitors, or to a single one",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileId := args[0]

		configPath := configuration.DetectConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		err := configuration.Validate(configPath)
		if err != nil {
			ui.Fatal(err.Error())
		}

		pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		client := ddcutil.NewClient(
			configuration.CurrentConfig.DdcutilPath,
			configuration.CurrentConfig.DdcTimeout,
		)
		internal.InitializeObjects(pers, client)

		values, err := profiles.Flatten(profileId)
		if err != nil {
			return err
		}

		targets := controller.ControllerMap.Items()
		if applyMonitorId != "" {
			ctrl, ok := controller.ControllerMap.Get(applyMonitorId)
			if !ok {
				return fmt.Errorf("no monitor with id found: %s", applyMonitorId)
			}
			targets = map[string]controller.MonitorController{applyMonitorId: ctrl}
		}
		if len(targets) == 0 {
			return errors.New("no monitors to apply the profile to")
		}

		var errs []error
		for _, ctrl := range targets {
			monitorId := ctrl.GetMonitor().GetId()
			if err := ctrl.ApplyValues(*values); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", monitorId, err))
				continue
			}
			ui.Success("Applied profile '%s' to %s", profileId, monitorId)
		}
		return errors.Join(errs...)
	},
}

func init() {
	applyCmd.Flags().StringVarP(
		&applyMonitorId,
		"monitor", "m",
		"",
		"Apply the profile only to the monitor with this id",
	)
	Command.AddCommand(applyCmd)
}
