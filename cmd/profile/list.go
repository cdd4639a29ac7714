package profile

import (
	"bytes"
	"strconv"

	"github.com/brightless/brightless/cmd/global"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/profiles"
	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured profiles to console",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.DetectConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		err := configuration.Validate(configPath)
		if err != nil {
			ui.Fatal(err.Error())
		}

		for _, profileConfig := range configuration.CurrentConfig.Profiles {
			profiles.ProfileMap.Set(profileConfig.ID, profiles.NewProfile(profileConfig))
		}

		// the listed values are the flattened ones, an extends chain is
		// already resolved here
		var rows [][]string
		for _, profileConfig := range configuration.CurrentConfig.Profiles {
			values, err := profiles.Flatten(profileConfig.ID)
			if err != nil {
				return err
			}

			rows = append(rows, []string{
				"",
				profileConfig.ID,
				profileConfig.Extends,
				percentText(values.Brightness),
				percentText(values.Contrast),
				percentText(values.Volume),
				inputText(values.InputSource),
				powerText(values.PowerMode),
			})
		}

		tab := table.Table{
			Headers: []string{"Profiles", "ID", "Extends", "Brightness", "Contrast", "Volume", "Input", "Power"},
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

		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}

func percentText(value *int) string {
	if value == nil {
		return "N/A"
	}
	return strconv.Itoa(*value)
}

func inputText(source *vcp.InputSource) string {
	if source == nil {
		return "N/A"
	}
	return source.String()
}

func powerText(mode *vcp.PowerMode) string {
	if mode == nil {
		return "N/A"
	}
	return mode.String()
}
