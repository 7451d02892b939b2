package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/logging"
	"github.com/mj1618/autoallow/internal/panel"
	"github.com/mj1618/autoallow/internal/scan"
)

// demoPromptEvery is how often the demo desktop raises a prompt.
const demoPromptEvery = 4 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the control panel and the monitor",
	Long: `Run the monitor together with a terminal control panel showing the tracked
editor windows, counters and log. Type start, stop, scan, reset, clear or
quit and press Enter.

With --ai-mode monitoring starts immediately and log output is mirrored to
stderr, for unattended sessions. With --demo the panel runs against a
simulated desktop whose editor windows raise Allow prompts periodically.

Examples:
  autoallow run
  autoallow run --ai-mode
  autoallow run --demo --log-level debug`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("ai-mode", false, "Start monitoring immediately and mirror logs to stderr")
	cmd.Flags().Bool("demo", false, "Run against a simulated desktop")
}

func runRun(cmd *cobra.Command, args []string) error {
	aiMode, _ := cmd.Flags().GetBool("ai-mode")
	demo, _ := cmd.Flags().GetBool("demo")

	level, err := logging.ParseLevel(appConfig.Log.Level)
	if err != nil {
		return err
	}
	opts, err := scanOptions(appConfig)
	if err != nil {
		return err
	}
	opts.AutoStart = aiMode

	lines := make(chan logging.Line, appConfig.Log.Buffer)
	var handler slog.Handler = logging.NewChannelHandler(lines, level)
	if aiMode {
		handler = logging.Fanout{handler, logging.NewConsoleHandler(os.Stderr, level)}
	}
	log := slog.New(handler)
	mode := choosePanelMode(aiMode, logging.IsTerminal(os.Stdout), logging.IsTerminal(os.Stderr))

	provider, demoDesk, err := openProvider(demo)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mon := scan.NewMonitor(provider, opts, log)
	monErr := make(chan error, 1)
	go func() { monErr <- mon.Run(ctx) }()

	if demoDesk != nil {
		go demoDesk.Run(ctx, demoPromptEvery)
		log.Info("demo desktop ready", "prompt_every", demoPromptEvery)
	}

	p := panel.New(mon, lines, panel.Options{
		Out:         os.Stdout,
		In:          os.Stdin,
		Interactive: mode.interactive,
		QuietLogs:   mode.quietLogs,
		MaxLines:    appConfig.Log.Buffer,
	}, log)
	panelErr := make(chan error, 1)
	go func() { panelErr <- p.Run(ctx) }()

	// Leaving does not wait for an in-flight scan.
	select {
	case err := <-monErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case err := <-panelErr:
		return err
	}
}

type panelMode struct {
	interactive bool
	quietLogs   bool
}

// choosePanelMode picks the panel layout. In AI mode records are also
// written to stderr, so the full-screen panel is only used when stderr is
// redirected, and line mode leaves log lines to stderr.
func choosePanelMode(aiMode, stdoutTTY, stderrTTY bool) panelMode {
	if !aiMode {
		return panelMode{interactive: stdoutTTY}
	}
	return panelMode{interactive: stdoutTTY && !stderrTTY, quietLogs: true}
}
