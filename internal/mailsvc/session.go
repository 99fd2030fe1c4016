package mailsvc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hal9000y/mailbox-mcp/internal/logging"
)

// Session owns the connections used by a single mailbox operation. It is not
// safe for concurrent use and must be closed when the operation ends.
type Session struct {
	id     string
	dialer Dialer
	logger *slog.Logger

	store     Store
	submitter Submitter
}

func NewSession(dialer Dialer, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		dialer: dialer,
		logger: logger.With(logging.Session(id)),
	}
}

func (s *Session) ID() string { return s.id }

// Store returns the store connection, dialing it on first use.
func (s *Session) Store(ctx context.Context) (Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	st, err := s.dialer.DialStore(ctx)
	if err != nil {
		return nil, &ConnectionError{Kind: "store", Err: err}
	}
	s.logger.DebugContext(ctx, "store connection opened")
	s.store = st
	return st, nil
}

// Submission returns the submission connection, dialing it on first use.
func (s *Session) Submission(ctx context.Context) (Submitter, error) {
	if s.submitter != nil {
		return s.submitter, nil
	}

	sub, err := s.dialer.DialSubmission(ctx)
	if err != nil {
		return nil, &ConnectionError{Kind: "submission", Err: err}
	}
	s.logger.DebugContext(ctx, "submission connection opened")
	s.submitter = sub
	return sub, nil
}

// Close terminates whichever connections are open. Failures are logged and
// returned joined; callers decide whether they matter.
func (s *Session) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Logout(); err != nil {
			s.logger.Warn("store logout failed", logging.Err(err))
			errs = append(errs, err)
		}
		s.store = nil
	}
	if s.submitter != nil {
		if err := s.submitter.Quit(); err != nil {
			s.logger.Warn("submission quit failed", logging.Err(err))
			errs = append(errs, err)
		}
		s.submitter = nil
	}
	return errors.Join(errs...)
}
