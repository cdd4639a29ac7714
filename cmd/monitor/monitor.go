package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brightless/brightless/internal"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/ddcutil"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/persistence"
	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/util"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var monitorId string

var Command = &cobra.Command{
	Use:              "monitor",
	Short:            "Monitor related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&monitorId,
		"id", "i",
		"",
		"Monitor ID as specified in the config, or a connector name",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getMonitor(id string) (monitors.Monitor, error) {
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

	monitor, ok := monitors.MonitorMap.Get(id)
	if !ok {
		ids := []string{}
		for _, m := range monitors.MonitorMap.Items() {
			ids = append(ids, m.GetId())
		}
		return nil, errors.New(fmt.Sprintf("No monitor with id found: %s, options: %s", id, ids))
	}

	return monitor, nil
}

// runSliderCommand implements the shared get/set behavior of the
// brightness, contrast and volume commands. Without arguments the current
// value is printed. A plain number sets an absolute percentage, "+ 10" and
// "- 10" adjust relative to the current value, and a bare "+" or "-" steps
// by the configured adjustStep.
func runSliderCommand(feature vcp.Feature, args []string) error {
	pterm.DisableOutput()

	monitor, err := getMonitor(monitorId)
	if err != nil {
		return err
	}

	if !monitor.Supports(feature) {
		return fmt.Errorf("monitor %s does not support %s", monitor.GetId(), feature)
	}

	if len(args) == 0 {
		value, err := monitor.GetValue(feature)
		if err != nil {
			return err
		}
		fmt.Printf("%d", value)
		return nil
	}

	target, err := resolveTargetValue(monitor, feature, args)
	if err != nil {
		return err
	}

	return monitor.SetValue(feature, target)
}

func resolveTargetValue(monitor monitors.Monitor, feature vcp.Feature, args []string) (int, error) {
	var sign string
	var amount string

	if len(args) == 2 {
		sign = args[0]
		if sign != "+" && sign != "-" {
			return 0, fmt.Errorf("invalid adjustment '%s', expected + or -", sign)
		}
		amount = args[1]
	} else {
		arg := args[0]
		switch {
		case arg == "+" || arg == "-":
			sign = arg
			amount = strconv.Itoa(configuration.CurrentConfig.AdjustStep)
		case strings.HasPrefix(arg, "+"):
			sign = "+"
			amount = arg[1:]
		case strings.HasPrefix(arg, "-"):
			sign = "-"
			amount = arg[1:]
		default:
			value, err := strconv.Atoi(arg)
			if err != nil {
				return 0, err
			}
			return util.CoerceInt(value, 0, 100), nil
		}
	}

	delta, err := strconv.Atoi(amount)
	if err != nil {
		return 0, err
	}
	if sign == "-" {
		delta = -delta
	}

	current, err := monitor.GetValue(feature)
	if err != nil {
		return 0, err
	}
	return util.CoerceInt(current+delta, 0, 100), nil
}
