package capture_service

import (
	"math"
	"time"

	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/model/session_model"
)

// Outcome describes what one recognition result changed in a session.
type Outcome struct {
	FaceDetected bool
	// Marked is set only on the tick that latches attendance.
	Marked *session_model.AttendanceMark
}

// Apply folds a recognition result into the session.
// AttendanceMarked is a latch: it fires once, for the first known identity in faces[0].
func Apply(s *session_model.CaptureSession, res *recognition_model.RecognitionResult, now time.Time) (out Outcome) {

	if !res.FaceDetected() {
		s.FaceDetected = false
		s.RecognizedName = ""
		return out
	}

	s.FaceDetected = true
	out.FaceDetected = true

	if s.AttendanceMarked {
		return out
	}

	name, ok := res.KnownIdentity()
	if !ok {
		return out
	}

	s.AttendanceMarked = true
	s.RecognizedName = name

	faces := make([]string, len(res.Faces))
	copy(faces, res.Faces)

	out.Marked = &session_model.AttendanceMark{
		SessionId: s.Id,
		Name:      name,
		Faces:     faces,
		MarkedAt:  now,
	}

	return out
}

// Project relabels the engagement carried by a result. ok is false when the result has none.
func Project(res *recognition_model.RecognitionResult) (reading session_model.EngagementReading, ok bool) {
	if res == nil || res.Engagement == nil {
		return reading, false
	}

	reading.Score = int(math.Round(*res.Engagement))
	if res.Remarks != nil {
		reading.Remarks = *res.Remarks
	}
	if res.GazeStatus != nil {
		reading.Gaze = *res.GazeStatus
	}

	return reading, true
}
