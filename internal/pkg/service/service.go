// Package service wires the capture loop, the dashboards and the optional session journal
// together and exposes them to the HTTP handlers.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"engage-track/internal/pkg/capture"
	"engage-track/internal/pkg/clients/recognition_client"
	"engage-track/internal/pkg/database"
	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/model/session_model"
	"engage-track/internal/pkg/repo"
	"engage-track/internal/pkg/service/capture_service"
	"engage-track/internal/pkg/service/dashboard_service"
	"engage-track/internal/pkg/service/journal_service"
	"engage-track/tools"

	"github.com/rs/zerolog/log"
)

const (
	apiUrlEnvName        = "ENGAGE_TRACK__API_URL"
	apiTimeoutEnvName    = "ENGAGE_TRACK__API_TIMEOUT"
	capturePeriodEnvName = "ENGAGE_TRACK__CAPTURE_PERIOD"
	captureDirEnvName    = "ENGAGE_TRACK__CAPTURE_DIR"
	maxInFlightEnvName   = "ENGAGE_TRACK__MAX_IN_FLIGHT"

	defaultApiUrl = "http://localhost:5000"
)

// ErrNoPushSource is returned by PushFrame when frames come from a directory.
var ErrNoPushSource = errors.New("frames are not accepted: capture source is a directory")

// Config holds the settings read from the environment.
type Config struct {
	ApiUrl     string
	CaptureDir string
	Capture    capture_service.Config
}

// ConfigFromEnv reads the service settings.
func ConfigFromEnv() (cfg Config, err error) {
	cfg.ApiUrl = tools.GetEnvDefault(apiUrlEnvName, defaultApiUrl)
	cfg.CaptureDir = os.Getenv(captureDirEnvName)

	if cfg.Capture.RequestTimeout, err = tools.GetEnvDuration(apiTimeoutEnvName, capture_service.DefaultRequestTimeout); err != nil {
		return cfg, err
	}
	if cfg.Capture.Period, err = tools.GetEnvDuration(capturePeriodEnvName, capture_service.DefaultPeriod); err != nil {
		return cfg, err
	}
	if cfg.Capture.MaxInFlight, err = tools.GetEnvInt(maxInFlightEnvName, capture_service.DefaultMaxInFlight); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Service is a struct that embeds the interfaces used by the handlers.
type Service struct {
	Camera
	Board
	Teacher

	// Frames receives browser frames. It is nil when the loop reads a directory.
	Frames FrameSink

	closers []io.Closer
}

// NewService creates a Service from the environment. The session journal is connected
// when the PostgreSQL database name is configured.
func NewService() (srvs *Service) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var journal repo.Journal
	var closers []io.Closer

	if database.Enabled() {
		db, err := database.FromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("error initializing database")
		}

		r := repo.NewRepo(db)
		if err = r.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("error creating journal schema")
		}

		journal = r
		closers = append(closers, db)
	}

	srvs = New(cfg, journal)
	srvs.closers = closers

	return srvs
}

// New builds a Service. journal may be nil.
func New(cfg Config, journal repo.Journal) *Service {
	client := recognition_client.New(cfg.ApiUrl, cfg.Capture.RequestTimeout)
	board := dashboard_service.NewStudentBoard()
	observers := capture_service.Observers{board}

	var source capture.Source
	var frames FrameSink
	if cfg.CaptureDir != "" {
		source = capture.NewDirSource(cfg.CaptureDir)
	} else {
		push := capture.NewPushSource()
		source, frames = push, push
	}

	var teacher *dashboard_service.TeacherRelay
	if journal != nil {
		js := journal_service.New(journal)
		observers = append(observers, js)
		teacher = dashboard_service.NewTeacherRelay(client, js)
	} else {
		teacher = dashboard_service.NewTeacherRelay(client, nil)
	}

	log.Info().Str("api", cfg.ApiUrl).Bool("journal", journal != nil).Str("captureDir", cfg.CaptureDir).Msg("service configured")

	return &Service{
		Camera:  capture_service.New(source, client, observers, cfg.Capture),
		Board:   board,
		Teacher: teacher,
		Frames:  frames,
	}
}

// PushFrame decodes a browser frame and hands it to the capture source.
func (s *Service) PushFrame(dataURL string) (err error) {
	if s.Frames == nil {
		return ErrNoPushSource
	}

	img, err := capture.DecodeDataURL(dataURL)
	if err != nil {
		return fmt.Errorf("invalid frame: %w", err)
	}

	return s.Frames.Push(img)
}

// Close stops the camera and releases the journal connection.
func (s *Service) Close() (err error) {
	if s.Camera != nil {
		err = s.Camera.Stop()
	}
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Camera defines the interface for controlling the capture loop.
type Camera interface {
	Start() (session session_model.CaptureSession, err error)
	Stop() (err error)
	Session() (session session_model.CaptureSession)
}

// Board defines the interface for reading the student dashboard.
type Board interface {
	Snapshot() (snapshot dashboard_service.BoardSnapshot)
	Frame() (img image.Image, ok bool)
	Notify(level, message string)
	CameraFailed(err error)
}

// Teacher defines the interface for the teacher dashboard requests.
type Teacher interface {
	Attendance(ctx context.Context) (records []recognition_model.AttendanceRecord, err error)
	Download(ctx context.Context) (report *recognition_client.Report, filename string, err error)
	Register(ctx context.Context, image, name string) (payload json.RawMessage, err error)
	Sessions(limit int) (sessions []*session_model.SessionRow, err error)
	SessionDetail(sessionId string) (session *session_model.SessionRow, err error)
}

// FrameSink accepts decoded browser frames.
type FrameSink interface {
	Push(img image.Image) (err error)
}
