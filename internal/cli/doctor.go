package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/internal/doctor"
	"github.com/pomd-project/pomd/pkg/color"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the pomd installation's health",
	Long: `Check the pomd installation's health.

Inspects the data and config directories for stale daemon files, a
corrupt snapshot, unparseable config or sequence files, history damage
and leftover temp files. Exits non-zero when something needs fixing.`,
	Run: func(cmd *cobra.Command, args []string) {
		doc := doctor.NewDoctor(dataDir(), configDir())
		result, err := doc.Check()
		if err != nil {
			fmtErr("doctor: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		if len(result.Findings) == 0 {
			fmt.Println(color.Success("Installation is healthy."))
			return
		}

		fmt.Printf("Findings (%d):\n", len(result.Findings))
		for _, f := range result.Findings {
			severity := f.Severity
			switch f.Severity {
			case "critical", "error":
				severity = color.Error(f.Severity)
			case "warning":
				severity = color.Warning(f.Severity)
			}
			fmt.Printf("  [%s] %s: %s\n", severity, f.Category, f.Description)
		}

		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
