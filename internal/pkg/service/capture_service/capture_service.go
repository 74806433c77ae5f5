// Package capture_service runs the frame capture loop: it samples a capture source on a
// fixed period, sends every frame to the recognition service and folds the results into
// the current capture session.
package capture_service

import (
	"context"
	"errors"
	"sync"
	"time"

	"engage-track/internal/pkg/capture"
	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/model/session_model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPeriod         = 1000 * time.Millisecond
	DefaultMaxInFlight    = 4
	DefaultRequestTimeout = 10 * time.Second
)

// Recognizer sends one encoded frame to the recognition service.
type Recognizer interface {
	ProcessFrame(ctx context.Context, frame string) (*recognition_model.RecognitionResult, error)
}

type Config struct {
	Period         time.Duration
	MaxInFlight    int
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = DefaultMaxInFlight
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// Loop owns a capture source and the capture session built on top of it.
type Loop struct {
	source     capture.Source
	recognizer Recognizer
	observer   Observer
	cfg        Config
	now        func() time.Time

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	// delivery is held from applying a result until its events are delivered, so
	// observers see events in the order the session changed. Taken before mu.
	delivery sync.Mutex

	mu         sync.Mutex
	session    session_model.CaptureSession
	generation uint64
	seq        int
	cancel     context.CancelFunc
	done       chan struct{}
	inflight   *errgroup.Group
}

// New creates an inactive loop. observer may be nil.
func New(source capture.Source, recognizer Recognizer, observer Observer, cfg Config) *Loop {
	if observer == nil {
		observer = NopObserver{}
	}

	return &Loop{
		source:     source,
		recognizer: recognizer,
		observer:   observer,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// Session returns a copy of the current capture session.
func (l *Loop) Session() session_model.CaptureSession {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.session
}

// Start opens the capture source and begins ticking. Starting an active loop is a no-op.
// If the source cannot be acquired the loop stays inactive and a
// *capture.CameraAcquisitionError is returned.
func (l *Loop) Start() (session_model.CaptureSession, error) {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	l.mu.Lock()
	if l.session.Active {
		s := l.session
		l.mu.Unlock()
		return s, nil
	}
	l.mu.Unlock()

	if err := l.source.Open(); err != nil {
		var acqErr *capture.CameraAcquisitionError
		if !errors.As(err, &acqErr) {
			err = &capture.CameraAcquisitionError{Source: "camera", Err: err}
		}
		log.Error().Err(err).Msg("camera acquisition failed")
		return session_model.CaptureSession{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	inflight := new(errgroup.Group)
	inflight.SetLimit(l.cfg.MaxInFlight)

	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.seq = 0
	l.session = session_model.CaptureSession{
		Id:        uuid.NewString(),
		Active:    true,
		StartedAt: l.now(),
	}
	l.cancel = cancel
	l.done = done
	l.inflight = inflight
	s := l.session
	l.mu.Unlock()

	log.Info().Str("session", s.Id).Dur("period", l.cfg.Period).Msg("capture started")
	l.observer.SessionStarted(s)

	go l.run(ctx, gen, done)

	return s, nil
}

// Stop cancels pending ticks, releases the source and resets the session.
// Responses still in flight are discarded when they arrive.
func (l *Loop) Stop() error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	l.mu.Lock()
	if !l.session.Active {
		l.mu.Unlock()
		return nil
	}
	prev := l.session
	cancel, done := l.cancel, l.done
	l.generation++
	l.session = session_model.CaptureSession{}
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	cancel()
	<-done

	err := l.source.Close()
	if err != nil {
		log.Warn().Err(err).Str("session", prev.Id).Msg("failed to release capture source")
	}

	prev.Active = false
	log.Info().Str("session", prev.Id).Msg("capture stopped")

	l.delivery.Lock()
	l.observer.SessionStopped(prev)
	l.delivery.Unlock()

	return err
}

func (l *Loop) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(gen)
		}
	}
}

// tick captures one frame, emits it and hands it to the recognizer.
func (l *Loop) tick(gen uint64) {

	img, err := l.source.Frame()
	if err != nil && !errors.Is(err, capture.ErrNotReady) {
		log.Warn().Err(err).Msg("failed to read frame")
		return
	}
	// not ready yet
	if !capture.Ready(img) {
		return
	}

	dataURL, err := capture.EncodeDataURL(img)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode frame")
		return
	}

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		return
	}
	l.seq++
	b := img.Bounds()
	frame := session_model.Frame{
		SessionId:  l.session.Id,
		Seq:        l.seq,
		DataURL:    dataURL,
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: l.now(),
	}
	inflight := l.inflight
	l.mu.Unlock()

	l.observer.FrameProduced(frame, img)

	started := inflight.TryGo(func() error {
		l.recognize(gen, frame)
		return nil
	})
	if !started {
		log.Warn().Str("session", frame.SessionId).Int("seq", frame.Seq).
			Msg("too many recognition requests in flight, skipping frame")
	}
}

func (l *Loop) recognize(gen uint64, frame session_model.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.RequestTimeout)
	defer cancel()

	res, err := l.recognizer.ProcessFrame(ctx, frame.DataURL)
	l.handleResult(gen, frame, res, err)
}

// handleResult applies one response to the session it was requested for.
func (l *Loop) handleResult(gen uint64, frame session_model.Frame, res *recognition_model.RecognitionResult, err error) {

	l.delivery.Lock()
	defer l.delivery.Unlock()

	l.mu.Lock()
	if gen != l.generation || !l.session.Active {
		l.mu.Unlock()
		log.Debug().Str("session", frame.SessionId).Int("seq", frame.Seq).Msg("discarding stale recognition response")
		return
	}
	sessionId := l.session.Id

	if err != nil {
		l.mu.Unlock()
		log.Warn().Err(err).Str("session", sessionId).Int("seq", frame.Seq).Msg("recognition request failed")
		l.observer.RecognitionFailed(sessionId, err)
		return
	}

	out := Apply(&l.session, res, l.now())
	l.mu.Unlock()

	l.observer.FaceDetection(sessionId, out.FaceDetected)

	if out.Marked != nil {
		log.Info().Str("session", sessionId).Str("name", out.Marked.Name).Msg("attendance marked")
		l.observer.AttendanceMarked(*out.Marked)
	}

	if reading, ok := Project(res); ok {
		l.observer.EngagementUpdated(sessionId, reading)
	}
}
