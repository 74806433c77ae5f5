package cmd

import (
	"engage-track/internal"
	"engage-track/internal/pkg/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the login gate and the student and teacher dashboards",
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Str("action", "run-server").Msg("processing action")

		internal.RunServer(service.NewService())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
