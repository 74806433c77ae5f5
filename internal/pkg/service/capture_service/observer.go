package capture_service

import (
	"image"

	"engage-track/internal/pkg/model/session_model"
)

// Observer receives the events of the capture loop. Methods are called outside the
// loop's lock and may be called from different goroutines.
type Observer interface {
	SessionStarted(s session_model.CaptureSession)
	SessionStopped(s session_model.CaptureSession)
	FrameProduced(f session_model.Frame, img image.Image)
	FaceDetection(sessionId string, detected bool)
	AttendanceMarked(m session_model.AttendanceMark)
	EngagementUpdated(sessionId string, r session_model.EngagementReading)
	RecognitionFailed(sessionId string, err error)
}

// NopObserver ignores every event. Embed it to implement only some of Observer.
type NopObserver struct{}

func (NopObserver) SessionStarted(session_model.CaptureSession) {}
func (NopObserver) SessionStopped(session_model.CaptureSession) {}
func (NopObserver) FrameProduced(session_model.Frame, image.Image) {}
func (NopObserver) FaceDetection(string, bool) {}
func (NopObserver) AttendanceMarked(session_model.AttendanceMark) {}
func (NopObserver) EngagementUpdated(string, session_model.EngagementReading) {}
func (NopObserver) RecognitionFailed(string, error) {}

// Observers fans every event out to each observer in order.
type Observers []Observer

func (o Observers) SessionStarted(s session_model.CaptureSession) {
	for _, obs := range o {
		obs.SessionStarted(s)
	}
}

func (o Observers) SessionStopped(s session_model.CaptureSession) {
	for _, obs := range o {
		obs.SessionStopped(s)
	}
}

func (o Observers) FrameProduced(f session_model.Frame, img image.Image) {
	for _, obs := range o {
		obs.FrameProduced(f, img)
	}
}

func (o Observers) FaceDetection(sessionId string, detected bool) {
	for _, obs := range o {
		obs.FaceDetection(sessionId, detected)
	}
}

func (o Observers) AttendanceMarked(m session_model.AttendanceMark) {
	for _, obs := range o {
		obs.AttendanceMarked(m)
	}
}

func (o Observers) EngagementUpdated(sessionId string, r session_model.EngagementReading) {
	for _, obs := range o {
		obs.EngagementUpdated(sessionId, r)
	}
}

func (o Observers) RecognitionFailed(sessionId string, err error) {
	for _, obs := range o {
		obs.RecognitionFailed(sessionId, err)
	}
}
