package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engage-track/tools"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const logLevelEnvName = "ENGAGE_TRACK__LOG_LEVEL"

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "engage-track",
	Short:   "Classroom attendance and engagement front end",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(tools.GetEnvDefault(logLevelEnvName, "info"))
	},
	SilenceUsage: true,
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	return nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
