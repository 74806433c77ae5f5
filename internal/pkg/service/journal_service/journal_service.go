// Package journal_service records capture loop events in the session journal.
package journal_service

import (
	"time"

	"engage-track/internal/pkg/model/session_model"
	"engage-track/internal/pkg/repo"
	"engage-track/internal/pkg/service/capture_service"

	"github.com/rs/zerolog/log"
)

// JournalService writes sessions, marks and readings to the journal. Write failures are
// logged and dropped.
type JournalService struct {
	capture_service.NopObserver

	repository repo.Journal
	now        func() time.Time
}

func New(repository repo.Journal) *JournalService {
	return &JournalService{
		repository: repository,
		now:        time.Now,
	}
}

func (s *JournalService) SessionStarted(session session_model.CaptureSession) {
	if err := s.repository.CreateSession(session); err != nil {
		log.Error().Err(err).Str("session", session.Id).Msg("failed to journal session start")
	}
}

func (s *JournalService) SessionStopped(session session_model.CaptureSession) {
	if err := s.repository.StopSession(session.Id, s.now()); err != nil {
		log.Error().Err(err).Str("session", session.Id).Msg("failed to journal session stop")
	}
}

func (s *JournalService) AttendanceMarked(mark session_model.AttendanceMark) {
	if err := s.repository.MarkAttendance(mark); err != nil {
		log.Error().Err(err).Str("session", mark.SessionId).Msg("failed to journal attendance mark")
	}
}

func (s *JournalService) EngagementUpdated(sessionId string, r session_model.EngagementReading) {
	row := session_model.EngagementRow{
		SessionId: sessionId,
		Score:     r.Score,
		Remarks:   r.Remarks,
		ReadAt:    s.now(),
	}
	if err := s.repository.SaveReading(row); err != nil {
		log.Error().Err(err).Str("session", sessionId).Msg("failed to journal engagement reading")
	}
}

// Sessions returns the latest journaled sessions, newest first.
func (s *JournalService) Sessions(limit int) ([]*session_model.SessionRow, error) {
	return s.repository.ListSessions(limit)
}

// Session returns one journaled session.
func (s *JournalService) Session(sessionId string) (*session_model.SessionRow, error) {
	return s.repository.GetSession(sessionId)
}
