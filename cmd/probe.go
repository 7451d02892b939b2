package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/classify"
	"github.com/mj1618/autoallow/internal/output"
	"github.com/mj1618/autoallow/internal/panel"
	"github.com/mj1618/autoallow/internal/scan"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Diagnose Allow detection in each editor window",
	Long: `Run one detection pass over every editor window and report each element
whose name mentions an Allow keyword, with the verdict of the classifier
and the reason. When nothing matches, the first 50 named buttons of the
window are listed instead.

With --click the matched element is activated, using the same strategies
as the monitor.

Examples:
  autoallow probe --format text
  autoallow probe --handle 0x10a2e --click`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().Bool("click", false, "Activate the matched element")
	probeCmd.Flags().Int("depth", 0, "Max depth to search (0 = scan.deep_depth from config)")
	probeCmd.Flags().String("handle", "", "Only probe this window handle (decimal or 0x-hex)")
	probeCmd.Flags().Bool("demo", false, "Probe the simulated desktop")
	probeCmd.Flags().Bool("pretty", false, "Pretty-print JSON output")
}

func runProbe(cmd *cobra.Command, args []string) error {
	click, _ := cmd.Flags().GetBool("click")
	depth, _ := cmd.Flags().GetInt("depth")
	handle, _ := cmd.Flags().GetString("handle")
	demo, _ := cmd.Flags().GetBool("demo")

	if depth <= 0 {
		depth = appConfig.Scan.DeepDepth
	}
	opts, err := scanOptions(appConfig)
	if err != nil {
		return err
	}
	provider, demoDesk, err := openProvider(demo)
	if err != nil {
		return err
	}
	if demoDesk != nil {
		demoDesk.Prompt(0x10a2e)
	}
	log := stderrLogger()
	classifier := classify.New(opts.Policy, log)
	dispatcher := scan.NewDispatcher(opts.Methods, log)

	var reports []scan.ProbeReport
	err = withAccessibility(provider, func() error {
		targets, err := resolveTargets(provider, opts.Filter, handle)
		if err != nil {
			return err
		}
		for _, w := range targets {
			reports = append(reports, scan.Probe(provider.Connector, classifier, dispatcher, w, depth, click))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []scan.ProbeReport{}
	}

	if output.OutputFormat == output.FormatText {
		return writeProbeText(os.Stdout, reports)
	}
	return output.Print(reports)
}

func writeProbeText(w io.Writer, reports []scan.ProbeReport) error {
	var b strings.Builder
	if len(reports) == 0 {
		b.WriteString("no editor windows found\n")
	}
	for _, r := range reports {
		fmt.Fprintf(&b, "== %s  %s\n", r.Handle, panel.Truncate(r.Title, panel.TitleWidth))
		if r.Error != "" && r.Match == nil {
			fmt.Fprintf(&b, "   error: %s\n", r.Error)
			continue
		}
		for _, c := range r.Candidates {
			mark := "-"
			if c.Verdict.Accepted {
				mark = "+"
			}
			fmt.Fprintf(&b, "   %s [%s] %q depth %d: %s\n", mark, c.Category, c.Name, c.Depth, c.Verdict.Reason)
		}
		switch {
		case r.Match == nil:
			fmt.Fprintf(&b, "   no match within depth %d\n", r.Depth)
			if len(r.Buttons) > 0 {
				fmt.Fprintf(&b, "   buttons: %s\n", strings.Join(r.Buttons, ", "))
			}
		case r.Clicked:
			fmt.Fprintf(&b, "   clicked %q via %s\n", r.Match.Name, r.Method)
		case r.Error != "":
			fmt.Fprintf(&b, "   match %q, click failed: %s\n", r.Match.Name, r.Error)
		default:
			fmt.Fprintf(&b, "   match %q (not clicked)\n", r.Match.Name)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
