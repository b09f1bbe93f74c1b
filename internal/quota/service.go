package quota

import (
	"time"

	"github.com/antigravity-tools/quota-monitor/internal/langserver"
	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// LanguageServer is the connection-management surface the service needs.
// *langserver.Manager satisfies it; tests substitute fakes.
type LanguageServer interface {
	Connection() *models.Connection
	Invalidate()
	Reset()
	FetchUserStatus(conn *models.Connection) (*langserver.UserStatusResponse, error)
}

// Service orchestrates the detect-fetch-normalize pipeline with a single
// reset-and-retry cycle on fetch failure.
type Service struct {
	ls  LanguageServer
	now func() time.Time
}

// New creates a quota service on top of a language server connection manager.
func New(ls LanguageServer) *Service {
	return &Service{
		ls:  ls,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Report returns the current normalized quota report.
//
// No reachable language server yields ErrNotFound without retry: nothing
// changed, so a retry cannot help. A fetch failure resets the connection
// cache (connection and pooled client are both suspect) and runs the whole
// sequence exactly once more; a second failure surfaces as *RemoteError
// wrapping the underlying cause.
func (s *Service) Report() (*models.QuotaReport, error) {
	conn := s.ls.Connection()
	if conn == nil {
		return nil, ErrNotFound
	}

	raw, err := s.ls.FetchUserStatus(conn)
	if err == nil {
		return Normalize(raw, s.now()), nil
	}

	logger.Warn("quota fetch failed, resetting and retrying", "error", err)
	s.ls.Reset()

	conn = s.ls.Connection()
	if conn == nil {
		return nil, &RemoteError{cause: err}
	}

	raw, retryErr := s.ls.FetchUserStatus(conn)
	if retryErr != nil {
		logger.Error("quota fetch failed after retry", "error", retryErr)
		s.ls.Reset()
		return nil, &RemoteError{cause: retryErr}
	}

	return Normalize(raw, s.now()), nil
}

// Invalidate drops the cached connection so the next report re-detects.
func (s *Service) Invalidate() {
	s.ls.Invalidate()
}
