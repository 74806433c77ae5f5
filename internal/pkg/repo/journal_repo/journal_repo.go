// Package journal_repo stores capture sessions, attendance marks and engagement readings
// in PostgreSQL.
package journal_repo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"engage-track/internal/pkg/model/session_model"
	"engage-track/tools"

	"github.com/jmoiron/sqlx"
)

var errNoRowsAffected = errors.New("operation unsuccessful: row not found")

const schema = `
CREATE TABLE IF NOT EXISTS capture_session (
	id          UUID PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	stopped_at  TIMESTAMPTZ,
	marked_as   TEXT,
	marked_at   TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS engagement_reading (
	id          BIGSERIAL PRIMARY KEY,
	session_id  UUID NOT NULL REFERENCES capture_session(id) ON DELETE CASCADE,
	score       INTEGER NOT NULL,
	remarks     TEXT NOT NULL DEFAULT '',
	read_at     TIMESTAMPTZ NOT NULL
);`

// JournalRepo records capture sessions in the database.
type JournalRepo struct {
	db *sqlx.DB
}

// New creates a new JournalRepo instance with the provided database connection.
func New(db *sqlx.DB) (repo *JournalRepo) {
	return &JournalRepo{
		db: db,
	}
}

// EnsureSchema creates the journal tables when they do not exist.
func (r *JournalRepo) EnsureSchema() (err error) {
	_, err = r.db.Exec(schema)
	return err
}

// CreateSession inserts a started capture session.
func (r *JournalRepo) CreateSession(session session_model.CaptureSession) (err error) {

	query := `INSERT INTO capture_session 
				(
				id, 
				started_at
				) 
			VALUES ($1, $2)`

	_, err = r.db.Exec(query, session.Id, session.StartedAt)
	return err
}

// StopSession sets the stop time of a session.
func (r *JournalRepo) StopSession(sessionId string, stoppedAt time.Time) (err error) {

	query := `UPDATE capture_session 
				SET stopped_at=$1 
				WHERE id=$2`

	return r.execOne(query, stoppedAt, sessionId)
}

// MarkAttendance stores the attendance mark of a session. A session is marked at most once.
func (r *JournalRepo) MarkAttendance(mark session_model.AttendanceMark) (err error) {

	query := `UPDATE capture_session 
				SET marked_as=$1, marked_at=$2 
				WHERE id=$3 AND marked_as IS NULL`

	return r.execOne(query, mark.Name, mark.MarkedAt, mark.SessionId)
}

// SaveReading inserts an engagement reading.
func (r *JournalRepo) SaveReading(reading session_model.EngagementRow) (err error) {

	query := `INSERT INTO engagement_reading 
				(
				session_id, 
				score, 
				remarks, 
				read_at
				) 
			VALUES 
				(
				:session_id, 
				:score, 
				:remarks, 
				:read_at
				)`

	_, err = r.db.NamedExec(query, reading)
	return err
}

// GetSession retrieves a session with its attendance mark and engagement summary.
func (r *JournalRepo) GetSession(sessionId string) (session *session_model.SessionRow, err error) {
	session = &session_model.SessionRow{}

	query := `SELECT 
				s.id, 
				s.started_at, 
				s.stopped_at, 
				s.marked_as, 
				s.marked_at, 
				COUNT(e.id) AS readings, 
				AVG(e.score) AS avg_score 
			FROM capture_session s 
			LEFT JOIN engagement_reading e ON e.session_id = s.id 
			WHERE s.id=$1 
			GROUP BY s.id`

	if err = r.db.Get(session, query, sessionId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionId, tools.ErrNotFound)
		}
		return nil, err
	}

	return session, nil
}

// ListSessions returns the most recent sessions first.
func (r *JournalRepo) ListSessions(limit int) (sessions []*session_model.SessionRow, err error) {

	query := `SELECT 
				s.id, 
				s.started_at, 
				s.stopped_at, 
				s.marked_as, 
				s.marked_at, 
				COUNT(e.id) AS readings, 
				AVG(e.score) AS avg_score 
			FROM capture_session s 
			LEFT JOIN engagement_reading e ON e.session_id = s.id 
			GROUP BY s.id 
			ORDER BY s.started_at DESC 
			LIMIT $1`

	if err = r.db.Select(&sessions, query, limit); err != nil {
		return nil, err
	}

	if sessions == nil {
		sessions = []*session_model.SessionRow{}
	}

	return sessions, nil
}

func (r *JournalRepo) execOne(query string, args ...interface{}) (err error) {
	var result sql.Result
	var rowsAffected int64

	result, err = r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errNoRowsAffected
	}

	return nil
}
