// Package recognition_model provides models for interacting with the recognition service.
package recognition_model

// UnknownFace is the label the recognition service uses for a detected but unidentified face.
const UnknownFace = "Unknown"

// ProcessFrameRequest is the body of POST /api/process-frame.
type ProcessFrameRequest struct {
	Frame string `json:"frame"`
}

// RecognitionResult holds the response of a process-frame request.
type RecognitionResult struct {
	Faces      []string `json:"faces"`
	Engagement *float64 `json:"engagement,omitempty"`
	Remarks    *string  `json:"remarks,omitempty"`
	GazeStatus *string  `json:"gaze_status,omitempty"`
}

// FaceDetected reports whether the result contains at least one face.
func (r *RecognitionResult) FaceDetected() bool {
	return r != nil && len(r.Faces) > 0
}

// KnownIdentity returns the first face label when it is a known identity.
func (r *RecognitionResult) KnownIdentity() (name string, ok bool) {
	if !r.FaceDetected() {
		return "", false
	}
	if r.Faces[0] == UnknownFace {
		return "", false
	}
	return r.Faces[0], true
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	Image string `json:"image"`
	Name  string `json:"name"`
}

// AttendanceRecord is one row of GET /api/get-attendance.
type AttendanceRecord struct {
	Date       string  `json:"date"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Engagement float64 `json:"engagement"`
	Remarks    string  `json:"remarks"`
}

// ErrorResponse is returned by the recognition service on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
