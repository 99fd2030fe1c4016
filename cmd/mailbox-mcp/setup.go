package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/oauth2"

	"github.com/hal9000y/mailbox-mcp/internal/config"
	"github.com/hal9000y/mailbox-mcp/internal/credential"
	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/message"
	"github.com/hal9000y/mailbox-mcp/internal/metrics"
)

type passwordStore interface {
	Password(username string) (string, error)
	SetPassword(username, password string) error
	Delete(username string) error
}

// openKeyring is replaced in tests.
var openKeyring = func() (passwordStore, error) {
	return credential.Open()
}

// loadConfig reads settings and falls back to the keyring for a missing password.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("config.Load failed: %w", err)
	}

	if cfg.Account.AuthMethod == config.AuthPassword && cfg.Account.Password == "" && cfg.Account.Username != "" {
		store, err := openKeyring()
		if err == nil {
			err = cfg.ResolvePassword(store)
		}
		if err != nil && !errors.Is(err, credential.ErrNotFound) {
			return nil, fmt.Errorf("keyring lookup failed: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// logConfig records the effective settings with secrets masked.
func logConfig(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration loaded",
		logging.UserHash(cfg.Account.Username),
		slog.String("auth_method", cfg.Account.AuthMethod),
		slog.String("password", logging.SanitizeSecret(cfg.Account.Password)),
		slog.String("oauth_client_secret", logging.SanitizeSecret(cfg.OAuth.ClientSecret)),
		slog.String("imap", cfg.StoreEndpoint().Addr()+" "+cfg.IMAP.Security),
		slog.String("smtp", cfg.SubmissionEndpoint().Addr()+" "+cfg.SMTP.Security),
		slog.Duration("timeout", cfg.Timeout),
	)
}

// setupLogger writes to the log file when set. With stdio enabled and no
// file, logs are dropped since stdout carries the protocol.
func setupLogger(cfg config.LogConfig, stdio bool, stdout io.Writer) (*slog.Logger, func(), error) {
	var (
		w       = stdout
		closeFn = func() {}
	)

	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	case stdio:
		w = io.Discard
	}

	logger, err := logging.New(w, cfg.Level, cfg.Format)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}

func newService(cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder, ts oauth2.TokenSource) *mailbox.Service {
	dialer := &mailsvc.NetDialer{
		Store:      cfg.StoreEndpoint(),
		Submission: cfg.SubmissionEndpoint(),
		Creds: mailsvc.Credentials{
			Username:    cfg.Account.Username,
			Password:    cfg.Account.Password,
			TokenSource: ts,
		},
		Timeout: cfg.Timeout,
		Logger:  logger,
	}

	return mailbox.New(dialer, mailbox.Config{
		Name:       appName,
		Version:    version,
		Account:    cfg.Account.Username,
		From:       cfg.From(),
		StoreAddr:  cfg.StoreEndpoint().Addr(),
		SubmitAddr: cfg.SubmissionEndpoint().Addr(),
		Separator:  cfg.IMAP.FolderSeparator,
		AuthMethod: cfg.Account.AuthMethod,
	}, mailbox.Options{
		Composer: &message.Composer{MaxAttachmentSize: cfg.MaxAttachmentBytes},
		Logger:   logger,
		Metrics:  rec,
	})
}
