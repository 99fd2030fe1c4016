package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
	"github.com/hal9000y/mailbox-mcp/internal/message"
)

type SendEmailRequest struct {
	To          []string                  `json:"to" jsonschema:"recipient addresses"`
	Cc          string                    `json:"cc,omitempty" jsonschema:"comma separated CC addresses"`
	Subject     string                    `json:"subject" jsonschema:"message subject"`
	Body        string                    `json:"body" jsonschema:"plain text body"`
	Attachments []message.AttachmentInput `json:"attachments,omitempty" jsonschema:"files to attach, either base64 content or a local path"`
}

type sendEmailSvc interface {
	SendMessage(ctx context.Context, m mailbox.OutgoingMessage) mailbox.SendResult
}

func NewSendEmail(svc sendEmailSvc) *SendEmail {
	return &SendEmail{svc: svc}
}

type SendEmail struct {
	svc sendEmailSvc
}

func (t *SendEmail) SendEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SendEmailRequest,
) (*mcp.CallToolResult, mailbox.SendResult, error) {
	return nil, t.svc.SendMessage(ctx, mailbox.OutgoingMessage{
		To:          input.To,
		Cc:          input.Cc,
		Subject:     input.Subject,
		Body:        input.Body,
		Attachments: input.Attachments,
	}), nil
}
