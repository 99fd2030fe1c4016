package mailsvc

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-smtp"
)

type smtpSubmitter struct {
	client *smtp.Client
}

func (s *smtpSubmitter) Send(ctx context.Context, from string, recipients []string, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := s.client.SendMail(from, recipients, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("smtp.SendMail failed: %w", err)
	}
	return nil
}

func (s *smtpSubmitter) Quit() error {
	if err := s.client.Quit(); err != nil {
		_ = s.client.Close()
		return fmt.Errorf("smtp QUIT failed: %w", err)
	}
	return nil
}
