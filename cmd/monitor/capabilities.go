package monitor

import (
	"bytes"
	"strconv"

	"github.com/brightless/brightless/cmd/global"
	"github.com/brightless/brightless/internal/monitors"
	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Print the features supported by a monitor",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		monitor, err := getMonitor(monitorId)
		if err != nil {
			return err
		}

		printCapabilities(monitor)
		return nil
	},
}

func init() {
	Command.AddCommand(capabilitiesCmd)
}

func printCapabilities(monitor monitors.Monitor) {
	capabilities := monitor.GetCapabilities()

	var rows [][]string
	for _, feature := range vcp.SliderFeatures {
		max := capabilities.FeatureMax(feature)
		maxText := "N/A"
		if max > 0 {
			maxText = strconv.Itoa(max)
		}
		rows = append(rows, []string{
			"", feature.String(), supportedText(max > 0), maxText,
		})
	}
	rows = append(rows, []string{
		"", vcp.FeatureInputSource.String(), supportedText(capabilities.InputSource), "N/A",
	})
	rows = append(rows, []string{
		"", vcp.FeaturePowerMode.String(), supportedText(capabilities.PowerMode), "N/A",
	})

	tab := table.Table{
		Headers: []string{"Features", "Feature", "Supported", "Max"},
		Rows:    rows,
	}

	var buf bytes.Buffer
	tableErr := tab.WriteTable(&buf, &table.Config{
		ShowIndex:       false,
		Color:           !global.NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	})
	if tableErr != nil {
		ui.Fatal("Error printing table: %v", tableErr)
	}
	ui.Printfln(buf.String())

	if !capabilities.ProbedAt.IsZero() {
		ui.Printfln("Last probed: %s", capabilities.ProbedAt.Format("2006-01-02 15:04:05"))
	}
}

func supportedText(supported bool) string {
	if supported {
		return "yes"
	}
	return "no"
}
