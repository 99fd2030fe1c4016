package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

type GetEmailRequest struct {
	ID     string `json:"email_id" jsonschema:"message id as returned by search_emails or read_emails"`
	Folder string `json:"folder,omitempty" jsonschema:"folder holding the message, defaults to INBOX"`
}

type getEmailSvc interface {
	FetchDetail(ctx context.Context, folder, id string) mailbox.DetailResult
}

func NewGetEmail(svc getEmailSvc) *GetEmail {
	return &GetEmail{svc: svc}
}

type GetEmail struct {
	svc getEmailSvc
}

func (t *GetEmail) GetEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetEmailRequest,
) (*mcp.CallToolResult, mailbox.DetailResult, error) {
	return nil, t.svc.FetchDetail(ctx, input.Folder, input.ID), nil
}
