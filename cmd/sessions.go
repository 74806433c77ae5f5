package cmd

import (
	"fmt"
	"text/tabwriter"

	"engage-track/internal/pkg/database"
	"engage-track/internal/pkg/repo"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the journaled capture sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Number of sessions to show")
}

func runSessions(cmd *cobra.Command) error {
	db, err := database.FromEnv()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := repo.NewRepo(db).ListSessions(sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in the journal.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTOPPED\tMARKED AS\tREADINGS\tAVG SCORE")
	fmt.Fprintln(w, "--\t-------\t-------\t---------\t--------\t---------")

	for _, s := range sessions {
		stopped, marked, avg := "-", "-", "-"
		if s.StoppedAt != nil {
			stopped = s.StoppedAt.Local().Format("2006-01-02 15:04")
		}
		if s.MarkedAs != nil {
			marked = *s.MarkedAs
		}
		if s.AvgScore != nil {
			avg = fmt.Sprintf("%.1f", *s.AvgScore)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", s.Id, s.StartedAt.Local().Format("2006-01-02 15:04"), stopped, marked, s.Readings, avg)
	}
	return w.Flush()
}
