// Package repo provides access to the local session journal: capture sessions, the
// attendance mark of each session and the engagement readings observed while it ran.
package repo

import (
	"engage-track/internal/pkg/model/session_model"
	"engage-track/internal/pkg/repo/journal_repo"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repo is a struct that embeds the Journal interface.
type Repo struct {
	Journal
}

// NewRepo creates a new instance of Repo backed by db.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{
		Journal: journal_repo.New(db),
	}
}

// Journal defines the interface for recording capture sessions.
type Journal interface {
	EnsureSchema() (err error)
	CreateSession(session session_model.CaptureSession) (err error)
	StopSession(sessionId string, stoppedAt time.Time) (err error)
	MarkAttendance(mark session_model.AttendanceMark) (err error)
	SaveReading(reading session_model.EngagementRow) (err error)
	GetSession(sessionId string) (session *session_model.SessionRow, err error)
	ListSessions(limit int) (sessions []*session_model.SessionRow, err error)
}
