package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

type ReadEmailsRequest struct {
	Folder      string `json:"folder,omitempty" jsonschema:"folder to read, defaults to INBOX"`
	Limit       int    `json:"limit,omitempty" jsonschema:"number of newest messages, default 5, max 50"`
	FullContent bool   `json:"full_content,omitempty" jsonschema:"return whole bodies instead of 200 character previews"`
}

type readEmailsSvc interface {
	ListMessages(ctx context.Context, folder string, limit int, fullContent bool) mailbox.MessagesResult
	ListUnread(ctx context.Context, folder string, limit int, fullContent bool) mailbox.MessagesResult
}

func NewReadEmails(svc readEmailsSvc) *ReadEmails {
	return &ReadEmails{svc: svc}
}

// ReadEmails serves both read tools; neither changes the unread state.
type ReadEmails struct {
	svc readEmailsSvc
}

func (t *ReadEmails) ReadEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadEmailsRequest,
) (*mcp.CallToolResult, mailbox.MessagesResult, error) {
	return nil, t.svc.ListMessages(ctx, input.Folder, input.Limit, input.FullContent), nil
}

func (t *ReadEmails) ReadUnreadEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadEmailsRequest,
) (*mcp.CallToolResult, mailbox.MessagesResult, error) {
	return nil, t.svc.ListUnread(ctx, input.Folder, input.Limit, input.FullContent), nil
}
