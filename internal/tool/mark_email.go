package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

type MarkEmailRequest struct {
	ID     string `json:"email_id" jsonschema:"message id"`
	Folder string `json:"folder,omitempty" jsonschema:"folder holding the message, defaults to INBOX"`
	Read   bool   `json:"mark_as_read" jsonschema:"true marks the message read, false marks it unread"`
}

type markEmailSvc interface {
	SetRead(ctx context.Context, folder, id string, read bool) mailbox.Result
}

func NewMarkEmail(svc markEmailSvc) *MarkEmail {
	return &MarkEmail{svc: svc}
}

type MarkEmail struct {
	svc markEmailSvc
}

func (t *MarkEmail) MarkEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MarkEmailRequest,
) (*mcp.CallToolResult, mailbox.Result, error) {
	return nil, t.svc.SetRead(ctx, input.Folder, input.ID, input.Read), nil
}
