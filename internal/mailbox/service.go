// Package mailbox implements the public mailbox operations. Every operation
// opens its own session, closes it before returning and reports failures in
// the returned result rather than as Go errors.
package mailbox

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hal9000y/mailbox-mcp/internal/format"
	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/message"
	"github.com/hal9000y/mailbox-mcp/internal/metrics"
)

const (
	DefaultFolder = "INBOX"
	DefaultLimit  = 5
	MaxLimit      = 50
)

type Config struct {
	Name       string
	Version    string
	Account    string
	From       string
	StoreAddr  string
	SubmitAddr string
	Separator  string
	AuthMethod string
}

type Options struct {
	Decoder  *message.Decoder
	Composer *message.Composer
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
}

type Service struct {
	dialer   mailsvc.Dialer
	cfg      Config
	decoder  *message.Decoder
	composer *message.Composer
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

func New(dialer mailsvc.Dialer, cfg Config, opts Options) *Service {
	if cfg.Separator == "" {
		cfg.Separator = mailsvc.DefaultSeparator
	}
	if cfg.From == "" {
		cfg.From = cfg.Account
	}
	if opts.Decoder == nil {
		opts.Decoder = &message.Decoder{HTML: format.Converter{}}
	}
	if opts.Composer == nil {
		opts.Composer = &message.Composer{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Service{
		dialer:   dialer,
		cfg:      cfg,
		decoder:  opts.Decoder,
		composer: opts.Composer,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

type opFunc func(ctx context.Context, sess *mailsvc.Session, log *slog.Logger) error

// run executes fn inside a fresh session and always closes it.
func (s *Service) run(ctx context.Context, op string, fn opFunc) error {
	start := time.Now()
	sess := mailsvc.NewSession(s.dialer, s.logger)
	log := logging.WithOperation(s.logger, op).With(logging.Session(sess.ID()))

	err := fn(ctx, sess, log)

	if closeErr := sess.Close(); closeErr != nil {
		s.metrics.CloseFailed()
	}

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
		log.WarnContext(ctx, "operation failed", logging.Err(err))
	}
	s.metrics.Observe(op, status, time.Since(start))
	log.DebugContext(ctx, "operation finished", logging.Status(status), slog.Duration(logging.KeyDuration, time.Since(start)))

	return err
}

// selectFolder opens the store and selects folder.
func selectFolder(ctx context.Context, sess *mailsvc.Session, folder string) (mailsvc.Store, error) {
	st, err := sess.Store(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Select(ctx, mailsvc.NormalizeFolder(folder)); err != nil {
		return nil, &mailsvc.SelectError{Folder: folder, Err: err}
	}
	return st, nil
}

func folderOrDefault(folder string) string {
	if f := strings.TrimSpace(folder); f != "" {
		return f
	}
	return DefaultFolder
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (s *Service) ServerInfo() InfoResult {
	return InfoResult{
		Status:     StatusSuccess,
		Name:       s.cfg.Name,
		Version:    s.cfg.Version,
		Account:    s.cfg.Account,
		StoreAddr:  s.cfg.StoreAddr,
		SubmitAddr: s.cfg.SubmitAddr,
		Separator:  s.cfg.Separator,
		AuthMethod: s.cfg.AuthMethod,
	}
}

// TestConnection authenticates against the store and logs out again.
func (s *Service) TestConnection(ctx context.Context) Result {
	err := s.run(ctx, "test_connection", func(ctx context.Context, sess *mailsvc.Session, _ *slog.Logger) error {
		_, err := sess.Store(ctx)
		return err
	})
	if err != nil {
		return errorResult(err)
	}
	return Result{Status: StatusSuccess, Message: "Connected to " + s.cfg.StoreAddr + " as " + s.cfg.Account}
}
