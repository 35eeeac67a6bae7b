// Command hst-data inspects, exports and follows trading-terminal history (.hst) files.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hst-data/internal/app"
	"hst-data/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(app.LoadConfig()).ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *app.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "hst-data",
		Short:         "Read trading-terminal history files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			slog.SetDefault(slogx.NewDefault(cfg.LogLevel))
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "", "debug | info | warn | error (default $LOG_LEVEL)")

	root.AddCommand(
		newInfoCmd(),
		newDumpCmd(),
		newSeekCmd(),
		newLocateCmd(),
		newExportCmd(cfg),
		newWatchCmd(),
	)
	return root
}
