package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/model"
	"github.com/mj1618/autoallow/internal/output"
	"github.com/mj1618/autoallow/internal/platform"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream accessibility tree changes of a window as JSONL",
	Long: `Poll the accessibility tree of one window and emit the elements that were
added, removed or changed as JSONL to stdout. Elements are matched across
reads by a hash of their type, name, id, class and path, so a transient
Allow button shows up as an added element when it appears and a removed
one when it is dismissed.

Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop watching.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("handle", "", "Window handle to watch (decimal or 0x-hex)")
	watchCmd.Flags().Int("depth", 0, "Max depth to traverse (0 = scan.deep_depth from config)")
	watchCmd.Flags().Int("interval", 500, "Polling interval in milliseconds")
	watchCmd.Flags().Int("duration", 0, "Max seconds to watch (0 = until Ctrl+C)")
	watchCmd.Flags().Bool("demo", false, "Watch a window of the simulated desktop")
	watchCmd.MarkFlagRequired("handle")
}

func runWatch(cmd *cobra.Command, args []string) error {
	handleStr, _ := cmd.Flags().GetString("handle")
	depth, _ := cmd.Flags().GetInt("depth")
	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")
	demo, _ := cmd.Flags().GetBool("demo")

	h, err := model.ParseHandle(handleStr)
	if err != nil {
		return err
	}
	if depth <= 0 {
		depth = appConfig.Scan.DeepDepth
	}
	if intervalMs <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	provider, demoDesk, err := openProvider(demo)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if durationSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(durationSec)*time.Second)
		defer cancel()
	}
	if demoDesk != nil {
		go demoDesk.Run(ctx, demoPromptEvery)
	}

	return withAccessibility(provider, func() error {
		_, err := watchWindow(ctx, provider.Connector, h, depth, time.Duration(intervalMs)*time.Millisecond, os.Stdout)
		return err
	})
}

// readFlat reads the tree of h into dump rows.
func readFlat(conn platform.Connector, h model.Handle, depth int) ([]model.FlatElement, error) {
	tree, err := conn.Connect(h)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return model.FlattenElements([]model.Element{platform.Snapshot(tree.Root(), depth)}), nil
}

// watchWindow emits a snapshot event, then one diff event per read that
// changed something, until ctx is done. It returns the number of diff
// events written.
func watchWindow(ctx context.Context, conn platform.Connector, h model.Handle, depth int, interval time.Duration, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	start := time.Now()
	prev, err := readFlat(conn, h, depth)
	if err != nil {
		return 0, fmt.Errorf("initial read failed: %w", err)
	}
	enc.Encode(output.WatchEvent{Type: "snapshot", TS: time.Now().Unix(), Handle: h, Count: len(prev)})

	events := 0
	for sleepCtx(ctx, interval) {
		curr, err := readFlat(conn, h, depth)
		if err != nil {
			enc.Encode(output.WatchEvent{Type: "error", TS: time.Now().Unix(), Handle: h, Error: err.Error()})
			continue
		}
		diff := model.DiffElementsByHash(prev, curr)
		if !diff.Empty() {
			enc.Encode(output.WatchEvent{Type: "diff", TS: time.Now().Unix(), Handle: h, Diff: &diff})
			events++
		}
		prev = curr
	}

	enc.Encode(output.WatchEvent{
		Type:    "done",
		TS:      time.Now().Unix(),
		Handle:  h,
		Events:  events,
		Elapsed: fmt.Sprintf("%.1fs", time.Since(start).Seconds()),
	})
	return events, nil
}
