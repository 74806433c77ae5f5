package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"engage-track/internal/pkg/capture"
	"engage-track/internal/pkg/clients/recognition_client"
	"engage-track/internal/pkg/model/session_model"
	"engage-track/internal/pkg/service/capture_service"
	"engage-track/internal/pkg/service/dashboard_service"
	"engage-track/tools"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	Dir         string
	ApiUrl      string
	Period      time.Duration
	Timeout     time.Duration
	MaxInFlight int
	Duration    time.Duration
	SaveDir     string
}

var watchOpts watchOptions

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the capture loop headless over a directory of still frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, watchOpts)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOpts.Dir, "dir", "", "Directory of JPEG/PNG frames to cycle through (required)")
	watchCmd.Flags().StringVar(&watchOpts.ApiUrl, "api", "http://localhost:5000", "Recognition service base URL")
	watchCmd.Flags().DurationVar(&watchOpts.Period, "period", capture_service.DefaultPeriod, "Capture period")
	watchCmd.Flags().DurationVar(&watchOpts.Timeout, "timeout", capture_service.DefaultRequestTimeout, "Recognition request timeout")
	watchCmd.Flags().IntVar(&watchOpts.MaxInFlight, "max-in-flight", capture_service.DefaultMaxInFlight, "Maximum outstanding recognition requests")
	watchCmd.Flags().DurationVar(&watchOpts.Duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	watchCmd.Flags().StringVar(&watchOpts.SaveDir, "save", "", "Save the annotated frame here when attendance is marked")
	_ = watchCmd.MarkFlagRequired("dir")
}

func runWatch(cmd *cobra.Command, opts watchOptions) error {
	if opts.SaveDir != "" {
		if err := os.MkdirAll(opts.SaveDir, 0o755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
	}

	board := dashboard_service.NewStudentBoard()
	client := recognition_client.New(opts.ApiUrl, opts.Timeout)

	loop := capture_service.New(
		capture.NewDirSource(opts.Dir),
		client,
		capture_service.Observers{board, &watchLogger{board: board, saveDir: opts.SaveDir}},
		capture_service.Config{Period: opts.Period, MaxInFlight: opts.MaxInFlight, RequestTimeout: opts.Timeout},
	)

	if _, err := loop.Start(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if opts.Duration > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(opts.Duration):
		}
	} else {
		<-ctx.Done()
	}

	if err := loop.Stop(); err != nil {
		log.Warn().Err(err).Msg("capture stopped with error")
	}

	snap := board.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "engagement: %d (%s) %s\n", snap.Engagement.Score, snap.EngagementColor, snap.Engagement.Remarks)
	for _, n := range snap.Notices {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n", n.At.Format(time.TimeOnly), n.Level, n.Message)
	}

	return nil
}

// watchLogger logs the loop events and saves the annotated frame of each mark.
// It must follow the board in the observer list.
type watchLogger struct {
	capture_service.NopObserver

	board   *dashboard_service.StudentBoard
	saveDir string
}

func (w *watchLogger) FaceDetection(sessionId string, detected bool) {
	log.Debug().Str("session", sessionId).Bool("detected", detected).Msg("face detection")
}

func (w *watchLogger) EngagementUpdated(sessionId string, r session_model.EngagementReading) {
	log.Info().Str("session", sessionId).Int("score", r.Score).Str("remarks", r.Remarks).Str("gaze", r.Gaze).Msg("engagement")
}

func (w *watchLogger) AttendanceMarked(m session_model.AttendanceMark) {
	if w.saveDir == "" {
		return
	}

	img, ok := w.board.Frame()
	if !ok {
		return
	}

	path := filepath.Join(w.saveDir, fmt.Sprintf("%s_%s.jpg", m.SessionId, snapshotName(m.Name)))
	if err := tools.SaveImg(img, path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to save snapshot")
		return
	}
	log.Info().Str("path", path).Msg("snapshot saved")
}

func snapshotName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, name)
}
