package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/message"
)

type OutgoingMessage struct {
	To          []string
	Cc          string
	Subject     string
	Body        string
	Attachments []message.AttachmentInput
}

// SendMessage composes m from the configured identity and submits it.
// Attachments that cannot be loaded are skipped and reported as warnings.
func (s *Service) SendMessage(ctx context.Context, m OutgoingMessage) SendResult {
	res := SendResult{Recipients: []string{}, Warnings: []string{}}

	composed, err := s.composer.Compose(message.Outgoing{
		From:        s.cfg.From,
		To:          m.To,
		Cc:          m.Cc,
		Subject:     m.Subject,
		Body:        m.Body,
		Attachments: m.Attachments,
	})
	if err != nil {
		res.Status, res.Message = StatusError, fmt.Sprintf("compose failed: %v", err)
		return res
	}
	res.Warnings = append(res.Warnings, composed.Warnings...)

	err = s.run(ctx, "send_message", func(ctx context.Context, sess *mailsvc.Session, _ *slog.Logger) error {
		sub, err := sess.Submission(ctx)
		if err != nil {
			return err
		}
		return sub.Send(ctx, composed.From, composed.Recipients, composed.Raw)
	})
	if err != nil {
		res.Status, res.Message = StatusError, err.Error()
		return res
	}

	res.Status = StatusSuccess
	res.Message = fmt.Sprintf("Message sent to %d recipients", len(composed.Recipients))
	res.Recipients = composed.Recipients
	res.AttachmentsSent = composed.Attached
	return res
}
