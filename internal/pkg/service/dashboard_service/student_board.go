// Package dashboard_service keeps the display state of the two dashboards: the student
// board, which follows the capture loop, and the teacher report relay.
package dashboard_service

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"engage-track/internal/pkg/capture"
	"engage-track/internal/pkg/model/session_model"
	"engage-track/internal/pkg/service/capture_service"
	"engage-track/internal/pkg/view"
)

const (
	// InitialEngagement is shown until the first reading arrives.
	InitialEngagement = 100

	maxNotices = 20
)

const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeError   = "error"
)

type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// BoardSnapshot is what the student dashboard renders.
type BoardSnapshot struct {
	Session         session_model.CaptureSession    `json:"session"`
	Badge           view.Badge                      `json:"badge"`
	Engagement      session_model.EngagementReading `json:"engagement"`
	EngagementColor string                          `json:"engagementColor"`
	HasFrame        bool                            `json:"hasFrame"`
	Notices         []Notice                        `json:"notices"`
}

// StudentBoard mirrors the capture session from loop events.
type StudentBoard struct {
	mu      sync.Mutex
	now     func() time.Time
	session session_model.CaptureSession
	reading session_model.EngagementReading
	frame   image.Image
	notices []Notice
}

var _ capture_service.Observer = (*StudentBoard)(nil)

func NewStudentBoard() *StudentBoard {
	return &StudentBoard{
		now:     time.Now,
		reading: session_model.EngagementReading{Score: InitialEngagement},
	}
}

// Snapshot returns a copy of the board.
func (b *StudentBoard) Snapshot() BoardSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	notices := make([]Notice, len(b.notices))
	copy(notices, b.notices)

	return BoardSnapshot{
		Session:         b.session,
		Badge:           view.StatusBadge(b.session),
		Engagement:      b.reading,
		EngagementColor: view.EngagementColor(b.reading.Score),
		HasFrame:        b.frame != nil,
		Notices:         notices,
	}
}

// Frame returns the last frame of the active session, with the recognition frame and the
// name drawn on it once attendance is marked. ok is false when there is no frame.
func (b *StudentBoard) Frame() (img image.Image, ok bool) {
	b.mu.Lock()
	frame, s := b.frame, b.session
	b.mu.Unlock()

	if frame == nil {
		return nil, false
	}
	if s.AttendanceMarked && s.RecognizedName != "" {
		return view.Annotate(frame, s.RecognizedName), true
	}
	return frame, true
}

// Notify appends a notice, dropping the oldest past the limit. A notice repeating the
// previous one is not added again.
func (b *StudentBoard) Notify(level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.notify(level, message)
}

func (b *StudentBoard) notify(level, message string) {
	if n := len(b.notices); n > 0 && b.notices[n-1].Level == level && b.notices[n-1].Message == message {
		return
	}

	b.notices = append(b.notices, Notice{Level: level, Message: message, At: b.now()})
	if len(b.notices) > maxNotices {
		b.notices = b.notices[len(b.notices)-maxNotices:]
	}
}

// CameraFailed reports an error returned by Start.
func (b *StudentBoard) CameraFailed(err error) {
	msg := "Could not start the camera"

	var acqErr *capture.CameraAcquisitionError
	if errors.As(err, &acqErr) {
		msg = fmt.Sprintf("Camera access denied or unavailable (%s)", acqErr.Source)
	}

	b.Notify(NoticeError, msg)
}

func (b *StudentBoard) SessionStarted(s session_model.CaptureSession) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.frame = nil
	b.notify(NoticeInfo, "Camera started")
}

func (b *StudentBoard) SessionStopped(s session_model.CaptureSession) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Id != b.session.Id {
		return
	}
	b.session = session_model.CaptureSession{}
	b.frame = nil
	b.notify(NoticeInfo, "Camera stopped")
}

func (b *StudentBoard) FrameProduced(f session_model.Frame, img image.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.current(f.SessionId) {
		return
	}
	b.frame = img
}

func (b *StudentBoard) FaceDetection(sessionId string, detected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.current(sessionId) {
		return
	}
	b.session.FaceDetected = detected
	if !detected {
		b.session.RecognizedName = ""
	}
}

func (b *StudentBoard) AttendanceMarked(m session_model.AttendanceMark) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.current(m.SessionId) {
		return
	}
	b.session.AttendanceMarked = true
	b.session.RecognizedName = m.Name
	b.notify(NoticeSuccess, "Attendance marked for "+m.Name)
}

// EngagementUpdated replaces the reading. The reading outlives the session.
func (b *StudentBoard) EngagementUpdated(sessionId string, r session_model.EngagementReading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.current(sessionId) {
		return
	}
	b.reading = r
}

func (b *StudentBoard) RecognitionFailed(sessionId string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.current(sessionId) {
		return
	}
	b.notify(NoticeError, "Recognition service unavailable")
}

func (b *StudentBoard) current(sessionId string) bool {
	return b.session.Active && b.session.Id == sessionId
}
