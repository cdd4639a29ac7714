package cmd

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/brightless/brightless/cmd/global"
	"github.com/brightless/brightless/internal/configuration"
	"github.com/brightless/brightless/internal/ddc"
	"github.com/brightless/brightless/internal/ddcutil"
	"github.com/brightless/brightless/internal/ui"
	"github.com/brightless/brightless/internal/vcp"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect connected monitors",
	Long:  `Detects all connected DDC/CI capable monitors and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		configuration.LoadConfig()

		client := ddcutil.NewClient(
			configuration.CurrentConfig.DdcutilPath,
			configuration.CurrentConfig.DdcTimeout,
		)
		detected := ddc.DetectMonitors(client)
		if len(detected) == 0 {
			ui.Printfln("No connected monitors found.")
			return
		}

		// === Print detected monitors ===
		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		for _, monitor := range detected {
			name := monitor.Connector.Name
			if monitor.Identity != nil {
				name = monitor.Identity.String()
			}
			ui.Printfln("> %s", name)

			busText := "N/A"
			if monitor.Bus >= 0 {
				busText = strconv.Itoa(monitor.Bus)
			}

			manufacturerText := "N/A"
			productText := "N/A"
			serialText := "N/A"
			if monitor.Identity != nil {
				manufacturerText = monitor.Identity.Manufacturer
				productText = fmt.Sprintf("0x%04X", monitor.Identity.ProductCode)
				serialText = strconv.FormatUint(uint64(monitor.Identity.SerialNumber), 10)
			}

			displayTable := table.Table{
				Headers: []string{"Display", "Connector", "Bus", "Manufacturer", "Product", "Serial"},
				Rows: [][]string{
					{"", monitor.Connector.Name, busText, manufacturerText, productText, serialText},
				},
			}

			var featureRows [][]string
			if monitor.Bus >= 0 {
				features := append(append([]vcp.Feature{}, vcp.SliderFeatures...),
					vcp.FeatureInputSource, vcp.FeaturePowerMode)
				for _, feature := range features {
					valueText := "N/A"
					maxText := "N/A"

					value, err := client.GetVCP(monitor.Bus, feature)
					if err == nil {
						switch feature {
						case vcp.FeatureInputSource:
							valueText = vcp.InputSource(byte(value.Current)).String()
						case vcp.FeaturePowerMode:
							valueText = vcp.PowerMode(byte(value.Current)).String()
						default:
							valueText = strconv.Itoa(int(value.Current))
							maxText = strconv.Itoa(int(value.Maximum))
						}
					}

					featureRows = append(featureRows, []string{
						"", feature.String(), valueText, maxText,
					})
				}
			}
			featureTable := table.Table{
				Headers: []string{"Features", "Feature", "Value", "Max"},
				Rows:    featureRows,
			}

			tables := []table.Table{displayTable, featureTable}

			for idx, table := range tables {
				if table.Rows == nil {
					continue
				}
				var buf bytes.Buffer
				tableErr := table.WriteTable(&buf, tableConfig)
				if tableErr != nil {
					ui.Fatal("Error printing table: %v", tableErr)
				}
				tableString := buf.String()
				if idx < (len(tables) - 1) {
					ui.Printf(tableString)
				} else {
					ui.Printfln(tableString)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
