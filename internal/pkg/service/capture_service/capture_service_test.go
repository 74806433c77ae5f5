package capture_service

import (
	"context"
	"errors"
	"image"
	"reflect"
	"sync"
	"testing"
	"time"

	"engage-track/internal/pkg/capture"
	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/model/session_model"
)

func ptr[T any](v T) *T { return &v }

// recorder collects observer events.
type recorder struct {
	NopObserver

	mu         sync.Mutex
	frames     int
	detections []bool
	marks      []session_model.AttendanceMark
	readings   []session_model.EngagementReading
	failures   int
	started    int
	stopped    int
}

func (r *recorder) SessionStarted(session_model.CaptureSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recorder) SessionStopped(session_model.CaptureSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
}

func (r *recorder) FrameProduced(session_model.Frame, image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
}

func (r *recorder) FaceDetection(_ string, detected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detections = append(r.detections, detected)
}

func (r *recorder) AttendanceMarked(m session_model.AttendanceMark) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marks = append(r.marks, m)
}

func (r *recorder) EngagementUpdated(_ string, reading session_model.EngagementReading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
}

func (r *recorder) RecognitionFailed(string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

// scriptedRecognizer returns queued results in order.
type scriptedRecognizer struct {
	mu      sync.Mutex
	results []*recognition_model.RecognitionResult
	errs    []error
	calls   int
}

func (s *scriptedRecognizer) ProcessFrame(ctx context.Context, frame string) (*recognition_model.RecognitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return &recognition_model.RecognitionResult{}, nil
}

type fakeSource struct {
	img     image.Image
	openErr error
	opened  int
	closed  int
}

func (f *fakeSource) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened++
	return nil
}

func (f *fakeSource) Frame() (image.Image, error) { return f.img, nil }

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

func newTestLoop(src capture.Source, rec Recognizer, obs Observer) *Loop {
	// a long period keeps the ticker out of the way; tests drive ticks directly
	return New(src, rec, obs, Config{Period: time.Hour})
}

func frameFor(l *Loop) (uint64, session_model.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation, session_model.Frame{SessionId: l.session.Id}
}

func TestApply(t *testing.T) {

	tests := []struct {
		name        string
		session     session_model.CaptureSession
		result      *recognition_model.RecognitionResult
		wantSession session_model.CaptureSession
		wantMarked  bool
	}{
		{
			name:        "no faces clears detection and name",
			session:     session_model.CaptureSession{Active: true, FaceDetected: true, RecognizedName: "Alice"},
			result:      &recognition_model.RecognitionResult{Faces: []string{}},
			wantSession: session_model.CaptureSession{Active: true},
		},
		{
			name:        "no faces keeps the latch",
			session:     session_model.CaptureSession{Active: true, AttendanceMarked: true, RecognizedName: "Alice"},
			result:      &recognition_model.RecognitionResult{},
			wantSession: session_model.CaptureSession{Active: true, AttendanceMarked: true},
		},
		{
			name:        "unknown face is detected but not marked",
			session:     session_model.CaptureSession{Active: true},
			result:      &recognition_model.RecognitionResult{Faces: []string{"Unknown"}},
			wantSession: session_model.CaptureSession{Active: true, FaceDetected: true},
		},
		{
			name:        "unknown first label wins over a known second label",
			session:     session_model.CaptureSession{Active: true},
			result:      &recognition_model.RecognitionResult{Faces: []string{"Unknown", "Bob"}},
			wantSession: session_model.CaptureSession{Active: true, FaceDetected: true},
		},
		{
			name:        "known face marks attendance",
			session:     session_model.CaptureSession{Active: true},
			result:      &recognition_model.RecognitionResult{Faces: []string{"Alice"}},
			wantSession: session_model.CaptureSession{Active: true, FaceDetected: true, AttendanceMarked: true, RecognizedName: "Alice"},
			wantMarked:  true,
		},
		{
			name:        "empty label is not the unknown sentinel",
			session:     session_model.CaptureSession{Active: true},
			result:      &recognition_model.RecognitionResult{Faces: []string{""}},
			wantSession: session_model.CaptureSession{Active: true, FaceDetected: true, AttendanceMarked: true},
			wantMarked:  true,
		},
		{
			name:        "latched session does not re-fire",
			session:     session_model.CaptureSession{Active: true, AttendanceMarked: true, RecognizedName: "Alice"},
			result:      &recognition_model.RecognitionResult{Faces: []string{"Bob"}},
			wantSession: session_model.CaptureSession{Active: true, FaceDetected: true, AttendanceMarked: true, RecognizedName: "Alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session

			out := Apply(&s, tt.result, time.Unix(0, 0))

			if !reflect.DeepEqual(s, tt.wantSession) {
				t.Errorf("Apply() session = %+v, want %+v", s, tt.wantSession)
			}
			if (out.Marked != nil) != tt.wantMarked {
				t.Errorf("Apply() marked = %v, want %v", out.Marked, tt.wantMarked)
			}
			if out.FaceDetected != tt.wantSession.FaceDetected {
				t.Errorf("Apply() faceDetected = %v, want %v", out.FaceDetected, tt.wantSession.FaceDetected)
			}
		})
	}
}

func TestApply_AtMostOneMarkPerSession(t *testing.T) {
	sequence := [][]string{{}, {"Unknown"}, {"Alice"}, {}, {"Bob"}, {"Alice"}, {"Unknown"}}

	s := session_model.CaptureSession{Id: "s1", Active: true}
	marks := 0
	for _, faces := range sequence {
		if out := Apply(&s, &recognition_model.RecognitionResult{Faces: faces}, time.Now()); out.Marked != nil {
			marks++
			if out.Marked.Name != "Alice" || out.Marked.SessionId != "s1" {
				t.Errorf("unexpected mark %+v", out.Marked)
			}
		}
	}

	if marks != 1 {
		t.Errorf("expected exactly one mark, got %d", marks)
	}
}

func TestProject(t *testing.T) {

	tests := []struct {
		name   string
		result *recognition_model.RecognitionResult
		want   session_model.EngagementReading
		wantOk bool
	}{
		{name: "nil result", result: nil},
		{name: "no engagement", result: &recognition_model.RecognitionResult{Faces: []string{"Alice"}, Remarks: ptr("ignored")}},
		{
			name:   "engagement with remarks",
			result: &recognition_model.RecognitionResult{Engagement: ptr(85.0), Remarks: ptr("Focused")},
			want:   session_model.EngagementReading{Score: 85, Remarks: "Focused"},
			wantOk: true,
		},
		{
			name:   "fractional engagement is rounded",
			result: &recognition_model.RecognitionResult{Engagement: ptr(69.6), GazeStatus: ptr("looking left")},
			want:   session_model.EngagementReading{Score: 70, Gaze: "looking left"},
			wantOk: true,
		},
		{
			name:   "zero engagement is still a reading",
			result: &recognition_model.RecognitionResult{Engagement: ptr(0.0)},
			want:   session_model.EngagementReading{Score: 0},
			wantOk: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Project(tt.result)
			if ok != tt.wantOk {
				t.Fatalf("Project() ok = %v, want %v", ok, tt.wantOk)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Project() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoop_AttendanceScenario(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(&fakeSource{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}, &scriptedRecognizer{}, rec)

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer l.Stop()

	gen, frame := frameFor(l)

	// tick 1
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{"Unknown"}}, nil)
	s := l.Session()
	if !s.FaceDetected || s.AttendanceMarked {
		t.Fatalf("tick 1 session = %+v", s)
	}

	// tick 2
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{
		Faces:      []string{"Alice"},
		Engagement: ptr(85.0),
		Remarks:    ptr("Focused"),
	}, nil)
	s = l.Session()
	if !s.AttendanceMarked || s.RecognizedName != "Alice" {
		t.Fatalf("tick 2 session = %+v", s)
	}
	if len(rec.marks) != 1 || rec.marks[0].Name != "Alice" {
		t.Fatalf("tick 2 marks = %+v", rec.marks)
	}
	if !reflect.DeepEqual(rec.readings, []session_model.EngagementReading{{Score: 85, Remarks: "Focused"}}) {
		t.Fatalf("tick 2 readings = %+v", rec.readings)
	}

	// tick 3
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{"Bob"}}, nil)
	s = l.Session()
	if !s.FaceDetected || !s.AttendanceMarked || s.RecognizedName != "Alice" {
		t.Fatalf("tick 3 session = %+v", s)
	}
	if len(rec.marks) != 1 {
		t.Errorf("attendance re-fired: %+v", rec.marks)
	}
	if len(rec.readings) != 1 {
		t.Errorf("result without engagement produced a reading: %+v", rec.readings)
	}
}

func TestLoop_StopResetsSession(t *testing.T) {
	src := &fakeSource{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}
	rec := &recorder{}
	l := newTestLoop(src, &scriptedRecognizer{}, rec)

	first, err := l.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	gen, frame := frameFor(l)
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{}}, nil)
	if s := l.Session(); s.FaceDetected || s.RecognizedName != "" {
		t.Fatalf("empty result session = %+v", s)
	}
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{"Alice"}}, nil)

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s := l.Session(); s != (session_model.CaptureSession{}) {
		t.Fatalf("session after Stop = %+v", s)
	}
	if src.closed != 1 {
		t.Errorf("source closed %d times, want 1", src.closed)
	}

	// a response to the stopped session arrives late
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{"Mallory"}}, nil)
	if s := l.Session(); s.AttendanceMarked {
		t.Fatalf("stale response mutated the stopped session: %+v", s)
	}

	second, err := l.Start()
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	defer l.Stop()

	if second.Id == first.Id {
		t.Errorf("restart reused session id %s", second.Id)
	}

	// a late response from the first session must not touch the new one
	l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{"Mallory"}}, nil)
	if s := l.Session(); s.AttendanceMarked || s.RecognizedName != "" {
		t.Errorf("stale response mutated the restarted session: %+v", s)
	}
	if len(rec.marks) != 1 {
		t.Errorf("marks = %+v, want only the first session's", rec.marks)
	}
	if rec.started != 2 || rec.stopped != 1 {
		t.Errorf("started = %d, stopped = %d", rec.started, rec.stopped)
	}
}

func TestLoop_RecognitionFailureIsContained(t *testing.T) {
	rec := &recorder{}
	recognizer := &scriptedRecognizer{
		errs:    []error{errors.New("connection refused"), nil},
		results: []*recognition_model.RecognitionResult{nil, {Faces: []string{"Alice"}, Engagement: ptr(90.0)}},
	}
	l := newTestLoop(&fakeSource{img: image.NewRGBA(image.Rect(0, 0, 8, 8))}, recognizer, rec)

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer l.Stop()

	gen, _ := frameFor(l)

	l.tick(gen)
	l.inflight.Wait()

	if rec.failures != 1 || len(rec.detections) != 0 || len(rec.marks) != 0 || len(rec.readings) != 0 {
		t.Fatalf("failed tick had effects: %+v", rec)
	}
	if s := l.Session(); !s.Active || s.FaceDetected {
		t.Fatalf("session after failure = %+v", s)
	}

	l.tick(gen)
	l.inflight.Wait()

	if rec.frames != 2 {
		t.Errorf("frames = %d, want 2", rec.frames)
	}
	if len(rec.marks) != 1 || len(rec.readings) != 1 {
		t.Errorf("next tick after failure: marks = %v, readings = %v", rec.marks, rec.readings)
	}
}

func TestLoop_SkipsZeroDimensionFrames(t *testing.T) {
	rec := &recorder{}
	recognizer := &scriptedRecognizer{}
	src := &fakeSource{img: image.NewRGBA(image.Rect(0, 0, 0, 0))}
	l := newTestLoop(src, recognizer, rec)

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer l.Stop()

	gen, _ := frameFor(l)
	l.tick(gen)
	l.inflight.Wait()

	if rec.frames != 0 || recognizer.calls != 0 || rec.failures != 0 {
		t.Errorf("zero-dimension frame had side effects: frames=%d calls=%d failures=%d", rec.frames, recognizer.calls, rec.failures)
	}
}

func TestLoop_StartAcquisitionFailure(t *testing.T) {
	rec := &recorder{}
	l := newTestLoop(&fakeSource{openErr: errors.New("permission denied")}, &scriptedRecognizer{}, rec)

	_, err := l.Start()

	var acqErr *capture.CameraAcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("Start() error = %v, want CameraAcquisitionError", err)
	}
	if l.Session().Active {
		t.Errorf("loop became active after acquisition failure")
	}
	if rec.started != 0 {
		t.Errorf("SessionStarted fired after acquisition failure")
	}
	if err := l.Stop(); err != nil {
		t.Errorf("Stop() on inactive loop error = %v", err)
	}
}

func TestLoop_TicksOnPeriod(t *testing.T) {
	rec := &recorder{}
	recognizer := &scriptedRecognizer{
		results: []*recognition_model.RecognitionResult{{Faces: []string{"Alice"}}},
	}
	l := New(&fakeSource{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}, recognizer, rec, Config{Period: 10 * time.Millisecond})

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.Session().AttendanceMarked {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if s := l.Session(); !s.AttendanceMarked || s.RecognizedName != "Alice" {
		t.Fatalf("session never marked: %+v", s)
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.marks) != 1 {
		t.Errorf("marks = %d, want 1", len(rec.marks))
	}
}

// mirror rebuilds the session from events the way a dashboard does. The first
// FaceDetection(true) blocks until release is closed.
type mirror struct {
	NopObserver

	mu       sync.Mutex
	session  session_model.CaptureSession
	blocked  chan struct{}
	release  chan struct{}
	didBlock bool
}

func (m *mirror) FaceDetection(_ string, detected bool) {
	m.mu.Lock()
	block := detected && !m.didBlock
	m.didBlock = m.didBlock || block
	m.mu.Unlock()

	if block {
		close(m.blocked)
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.FaceDetected = detected
	if !detected {
		m.session.RecognizedName = ""
	}
}

func (m *mirror) AttendanceMarked(mark session_model.AttendanceMark) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.AttendanceMarked = true
	m.session.RecognizedName = mark.Name
}

func TestLoop_EventsFollowApplyOrder(t *testing.T) {
	obs := &mirror{blocked: make(chan struct{}), release: make(chan struct{})}
	l := newTestLoop(&fakeSource{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}, &scriptedRecognizer{}, obs)

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer l.Stop()

	gen, frame := frameFor(l)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{"Alice"}}, nil)
	}()
	<-obs.blocked

	go func() {
		defer wg.Done()
		l.handleResult(gen, frame, &recognition_model.RecognitionResult{Faces: []string{}}, nil)
	}()

	// give the second response time to overtake the first one if it can
	time.Sleep(20 * time.Millisecond)
	close(obs.release)
	wg.Wait()

	s := l.Session()
	if s.FaceDetected || !s.AttendanceMarked || s.RecognizedName != "" {
		t.Fatalf("loop session = %+v, want marked with face and name cleared", s)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.session.FaceDetected != s.FaceDetected || obs.session.AttendanceMarked != s.AttendanceMarked || obs.session.RecognizedName != s.RecognizedName {
		t.Errorf("observer state = %+v, loop session = %+v", obs.session, s)
	}
}

// blockingRecognizer holds every request until release is closed.
type blockingRecognizer struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRecognizer) ProcessFrame(ctx context.Context, frame string) (*recognition_model.RecognitionResult, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()

	if first {
		close(b.entered)
	}
	<-b.release
	return &recognition_model.RecognitionResult{}, nil
}

func TestLoop_InFlightBound(t *testing.T) {
	rec := &recorder{}
	recognizer := &blockingRecognizer{entered: make(chan struct{}), release: make(chan struct{})}
	l := New(&fakeSource{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}, recognizer, rec, Config{Period: time.Hour, MaxInFlight: 1})

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer l.Stop()

	gen, _ := frameFor(l)

	l.tick(gen)
	<-recognizer.entered
	l.tick(gen)
	l.tick(gen)

	close(recognizer.release)
	l.inflight.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	recognizer.mu.Lock()
	defer recognizer.mu.Unlock()

	if rec.frames != 3 {
		t.Errorf("frames = %d, want 3", rec.frames)
	}
	if recognizer.calls != 1 {
		t.Errorf("recognizer calls = %d, want 1", recognizer.calls)
	}
	if rec.failures != 0 {
		t.Errorf("failures = %d, want 0", rec.failures)
	}
}

// startOrder records whether any tick event reached it before SessionStarted.
type startOrder struct {
	NopObserver

	mu          sync.Mutex
	started     bool
	earlyEvents int
}

func (o *startOrder) SessionStarted(session_model.CaptureSession) {
	// a slow observer; ticks must still wait for it
	time.Sleep(30 * time.Millisecond)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = true
}

func (o *startOrder) FrameProduced(session_model.Frame, image.Image) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		o.earlyEvents++
	}
}

func TestLoop_SessionStartedPrecedesTicks(t *testing.T) {
	obs := &startOrder{}
	l := New(&fakeSource{img: image.NewRGBA(image.Rect(0, 0, 4, 4))}, &scriptedRecognizer{}, obs, Config{Period: time.Millisecond})

	if _, err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if !obs.started || obs.earlyEvents != 0 {
		t.Errorf("started = %v, events before SessionStarted = %d", obs.started, obs.earlyEvents)
	}
}
