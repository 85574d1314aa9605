package main

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/joacominatel/sqldesk/internal/dialect"
)

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List supported SQL dialects and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := pterm.TableData{
			{"Dialect", "URL schemes", "Default port", "Multiple result sets", "Catalog views"},
		}
		for _, d := range dialect.All() {
			rows = append(rows, []string{
				d.Name,
				strings.Join(d.SchemePrefixes, ", "),
				portLabel(d.DefaultPort),
				yesNo(d.SupportsMultiResultSet),
				yesNo(d.SupportsInformationSchema),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func portLabel(port int) string {
	if port == 0 {
		return "-"
	}
	return pterm.Sprintf("%d", port)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
