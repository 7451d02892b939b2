package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mj1618/autoallow/internal/config"
	"github.com/mj1618/autoallow/internal/output"
	_ "github.com/mj1618/autoallow/internal/platform/windows"
	"github.com/mj1618/autoallow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "autoallow",
	Short: "Click VS Code's Allow prompts automatically",
	Long: `autoallow watches Visual Studio Code windows through UI Automation and
clicks the transient "Allow" button agent chats raise before running a tool.

Without a subcommand it runs the control panel (same as "autoallow run").`,
	SilenceUsage: true,
	RunE:         runRun,
}

// appConfig is loaded by the root command before any subcommand runs.
var appConfig = config.Default()

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Config file (YAML)")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json, text")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	addRunFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := rootCmd.PersistentFlags().GetString("config")
		explicit := rootCmd.PersistentFlags().Changed("config")
		cfg, err := config.LoadOrDefault(path, explicit)
		if err != nil {
			return err
		}
		if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
			cfg.Log.Level = level
		}
		appConfig = cfg

		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags.
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		if prettyFlag := cmd.Flags().Lookup("pretty"); prettyFlag != nil {
			if pretty, err := cmd.Flags().GetBool("pretty"); err == nil && pretty {
				output.PrettyOutput = true
			}
		}
		return nil
	}
}
