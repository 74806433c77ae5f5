package session_model

import "time"

// CaptureSession is the state of one start/stop cycle of the capture loop.
type CaptureSession struct {
	Id               string    `json:"id"`
	Active           bool      `json:"active"`
	FaceDetected     bool      `json:"faceDetected"`
	AttendanceMarked bool      `json:"attendanceMarked"`
	RecognizedName   string    `json:"recognizedName"`
	StartedAt        time.Time `json:"startedAt"`
}

// Frame is one encoded snapshot produced by a capture tick.
type Frame struct {
	SessionId  string    `json:"sessionId"`
	Seq        int       `json:"seq"`
	DataURL    string    `json:"-"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"capturedAt"`
}

// EngagementReading is the displayable engagement derived from a recognition result.
type EngagementReading struct {
	Score   int    `json:"score"`
	Remarks string `json:"remarks"`
	Gaze    string `json:"gaze,omitempty"`
}

// AttendanceMark is emitted once per session when a known identity is first seen.
type AttendanceMark struct {
	SessionId string    `json:"sessionId"`
	Name      string    `json:"name"`
	Faces     []string  `json:"faces"`
	MarkedAt  time.Time `json:"markedAt"`
}

// models for working with the journal database
type SessionRow struct {
	Id        string     `db:"id" json:"id"`
	StartedAt time.Time  `db:"started_at" json:"startedAt"`
	StoppedAt *time.Time `db:"stopped_at" json:"stoppedAt,omitempty"`
	MarkedAs  *string    `db:"marked_as" json:"markedAs,omitempty"`
	MarkedAt  *time.Time `db:"marked_at" json:"markedAt,omitempty"`
	Readings  int        `db:"readings" json:"readings"`
	AvgScore  *float64   `db:"avg_score" json:"avgScore,omitempty"`
}

type EngagementRow struct {
	SessionId string    `db:"session_id"`
	Score     int       `db:"score"`
	Remarks   string    `db:"remarks"`
	ReadAt    time.Time `db:"read_at"`
}

// LoginRequest selects the dashboard role stored in the cookie session.
type LoginRequest struct {
	Role string `json:"role" binding:"required"`
}
