package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/dump"
	"github.com/mj1618/autoallow/internal/output"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the accessibility trees of editor windows",
	Long: `Read the full accessibility tree of every editor window and print every
element with its type, name, automation id, class, state and geometry,
followed by per-type statistics.

Use --export FILE to also save the result. The format follows the
extension (.json, .yaml or .yml). --export-auto saves it as
vscode_scan_<timestamp>.json in the current directory.

Examples:
  autoallow dump --format text
  autoallow dump --types Button,SplitButton --text allow
  autoallow dump --depth 30 --export-auto
  autoallow dump --handle 0x10a2e --export scan.yaml`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Int("depth", 0, "Max depth to traverse (0 = dump.depth from config)")
	dumpCmd.Flags().String("handle", "", "Only dump this window handle (decimal or 0x-hex)")
	dumpCmd.Flags().String("types", "", "Comma-separated control types to keep (e.g. \"Button,SplitButton\")")
	dumpCmd.Flags().String("text", "", "Only keep elements whose name, id or class contains this text")
	dumpCmd.Flags().Bool("prune", false, "Drop anonymous Pane/Group/Custom containers")
	dumpCmd.Flags().Int("top", 0, "Number of control types in the statistics (0 = dump.top_types from config)")
	dumpCmd.Flags().String("export", "", "Also write the result to this file (.json, .yaml)")
	dumpCmd.Flags().Bool("export-auto", false, "Also write the result to vscode_scan_<timestamp>.json")
	dumpCmd.MarkFlagsMutuallyExclusive("export", "export-auto")
	dumpCmd.Flags().Bool("demo", false, "Dump the simulated desktop")
	dumpCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runDump(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetInt("depth")
	handle, _ := cmd.Flags().GetString("handle")
	typesStr, _ := cmd.Flags().GetString("types")
	text, _ := cmd.Flags().GetString("text")
	prune, _ := cmd.Flags().GetBool("prune")
	top, _ := cmd.Flags().GetInt("top")
	export, _ := cmd.Flags().GetString("export")
	exportAuto, _ := cmd.Flags().GetBool("export-auto")
	demo, _ := cmd.Flags().GetBool("demo")

	if depth <= 0 {
		depth = appConfig.Dump.Depth
	}
	if top <= 0 {
		top = appConfig.Dump.TopTypes
	}
	opts := dump.Options{
		Depth: depth,
		Types: splitTypes(typesStr),
		Text:  text,
		Prune: prune,
		Top:   top,
	}

	provider, _, err := openProvider(demo)
	if err != nil {
		return err
	}
	log := stderrLogger()

	var report dump.Report
	err = withAccessibility(provider, func() error {
		targets, err := resolveTargets(provider, targetFilter(appConfig), handle)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			log.Warn("no editor windows found", "process", appConfig.Target.Process, "title_marker", appConfig.Target.TitleMarker)
		}
		now := time.Now()
		report = dump.Windows(provider.Connector, targets, opts, now)
		export = exportPath(export, exportAuto, now)
		return nil
	})
	if err != nil {
		return err
	}

	for _, wd := range report.Windows {
		if wd.Error != "" {
			log.Warn("window could not be read", "hwnd", wd.Handle, "error", wd.Error)
		}
	}

	if export != "" {
		if err := output.WriteFile(export, exportWindows(report)); err != nil {
			return err
		}
		log.Info("dump exported", "path", export, "windows", len(report.Windows), "elements", report.Total)
	}

	if output.OutputFormat == output.FormatText {
		return dump.WriteText(os.Stdout, report)
	}
	return output.Print(report)
}

// exportPath is the file an export goes to, or "" for none.
func exportPath(path string, auto bool, now time.Time) string {
	if path == "" && auto {
		return dump.ExportName(now)
	}
	return path
}

// exportWindows is the file layout of an export: the list of windows.
func exportWindows(r dump.Report) []dump.WindowDump {
	return r.Windows
}

func splitTypes(s string) []string {
	var types []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}
