package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/output"
	"github.com/mj1618/autoallow/internal/panel"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List editor windows",
	Long:  "List the Visual Studio Code windows autoallow would monitor, with handle, title, PID and process name.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("all", false, "List every visible top-level window, marking monitored ones")
	listCmd.Flags().Bool("demo", false, "List the simulated desktop")
	listCmd.Flags().Bool("pretty", false, "Pretty-print output (no-op for YAML)")
}

func runList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	demo, _ := cmd.Flags().GetBool("demo")

	provider, _, err := openProvider(demo)
	if err != nil {
		return err
	}
	windows, err := provider.Enumerator.ListWindows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}

	filter := targetFilter(appConfig)
	entries := output.Entries(windows, filter.Match)
	if !all {
		entries = lo.Filter(entries, func(e output.WindowEntry, _ int) bool { return e.Target })
	}
	result := output.ListResult{TS: time.Now().Unix(), Windows: entries}

	if output.OutputFormat == output.FormatText {
		return writeListText(result)
	}
	return output.Print(result)
}

func writeListText(result output.ListResult) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HWND\tPID\tPROCESS\tTARGET\tTITLE")
	for _, e := range result.Windows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%s\n", e.Handle, e.PID, e.Process, e.Target, panel.Truncate(e.Title, panel.TitleWidth))
	}
	return tw.Flush()
}
