package schedule

import (
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "schedule",
	Short:            "Schedule related commands",
	Long:             ``,
	TraverseChildren: true,
}
