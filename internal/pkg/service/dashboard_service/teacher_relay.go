package dashboard_service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"engage-track/internal/pkg/clients/recognition_client"
	"engage-track/internal/pkg/model/recognition_model"
	"engage-track/internal/pkg/model/session_model"
)

const defaultSessionLimit = 50

var (
	// ErrJournalDisabled is returned by Sessions when no journal is configured.
	ErrJournalDisabled = errors.New("session journal is not configured")

	ErrInvalidRegistration = errors.New("image and name are required")
)

// Reports is the part of the recognition service the teacher dashboard reads.
type Reports interface {
	GetAttendance(ctx context.Context) ([]recognition_model.AttendanceRecord, error)
	DownloadAttendance(ctx context.Context) (*recognition_client.Report, error)
	Register(ctx context.Context, image, name string) (json.RawMessage, error)
}

// SessionLog reads journaled capture sessions.
type SessionLog interface {
	Sessions(limit int) ([]*session_model.SessionRow, error)
	Session(sessionId string) (*session_model.SessionRow, error)
}

// TeacherRelay forwards the teacher dashboard requests. It holds no state of its own.
type TeacherRelay struct {
	reports  Reports
	sessions SessionLog
	now      func() time.Time
}

// NewTeacherRelay creates a relay. sessions may be nil.
func NewTeacherRelay(reports Reports, sessions SessionLog) *TeacherRelay {
	return &TeacherRelay{
		reports:  reports,
		sessions: sessions,
		now:      time.Now,
	}
}

func (r *TeacherRelay) Attendance(ctx context.Context) ([]recognition_model.AttendanceRecord, error) {
	return r.reports.GetAttendance(ctx)
}

// Download returns the attendance spreadsheet and the file name it is offered under.
func (r *TeacherRelay) Download(ctx context.Context) (report *recognition_client.Report, filename string, err error) {
	report, err = r.reports.DownloadAttendance(ctx)
	if err != nil {
		return nil, "", err
	}

	return report, ReportFilename(r.now()), nil
}

// Register enrolls a face under name.
func (r *TeacherRelay) Register(ctx context.Context, image, name string) (json.RawMessage, error) {
	if image == "" || name == "" {
		return nil, ErrInvalidRegistration
	}
	return r.reports.Register(ctx, image, name)
}

func (r *TeacherRelay) Sessions(limit int) ([]*session_model.SessionRow, error) {
	if r.sessions == nil {
		return nil, ErrJournalDisabled
	}
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	return r.sessions.Sessions(limit)
}

// SessionDetail returns one journaled session with its engagement summary.
func (r *TeacherRelay) SessionDetail(sessionId string) (*session_model.SessionRow, error) {
	if r.sessions == nil {
		return nil, ErrJournalDisabled
	}
	return r.sessions.Session(sessionId)
}

// ReportFilename is the download name of the attendance report for day.
func ReportFilename(day time.Time) string {
	return "attendance_" + day.Format("2006-01-02") + ".xlsx"
}
