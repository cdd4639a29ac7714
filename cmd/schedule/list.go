package schedule

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/brightless/brightless/cmd/global"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/schedules"
	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/util"
	"github.com/guptarohit/asciigraph"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured schedules to console",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		configPath := configuration.DetectConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		err = configuration.Validate(configPath)
		if err != nil {
			ui.Fatal(err.Error())
		}

		for idx, scheduleConfig := range configuration.CurrentConfig.Schedules {
			if idx > 0 {
				ui.Printfln("")
				ui.Printfln("")
			}

			schedule, err := schedules.NewSchedule(scheduleConfig)
			if err != nil {
				return err
			}

			points := []string{}
			for _, clock := range util.SortedKeys(scheduleConfig.Points) {
				points = append(points, fmt.Sprintf("%s=%d", clock, scheduleConfig.Points[clock]))
			}

			// print table
			tab := table.Table{
				Headers: []string{"ID", "Points"},
				Rows: [][]string{
					{schedule.GetId(), strings.Join(points, ", ")},
				},
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
				panic(tableErr)
			}
			tableString := buf.String()
			ui.Printfln(tableString)

			values := make([]float64, 0, 1440)
			for minute := 0; minute < 1440; minute++ {
				values = append(values, float64(schedule.EvaluateAtMinute(minute)))
			}

			caption := "brightness % / time of day"
			graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
			ui.Printfln(graph)
		}

		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
