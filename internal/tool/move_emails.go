package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

type MoveEmailRequest struct {
	ID     string `json:"email_id" jsonschema:"message id"`
	From   string `json:"source_folder,omitempty" jsonschema:"folder holding the message, defaults to INBOX"`
	Target string `json:"target_folder" jsonschema:"destination folder"`
}

type MoveEmailsRequest struct {
	IDs    []string `json:"email_ids" jsonschema:"message ids to move"`
	From   string   `json:"source_folder,omitempty" jsonschema:"folder holding the messages, defaults to INBOX"`
	Target string   `json:"target_folder" jsonschema:"destination folder"`
}

type moveEmailsSvc interface {
	MoveMessage(ctx context.Context, src, dst, id string) mailbox.MoveResult
	MoveMessages(ctx context.Context, src, dst string, ids []string) mailbox.MoveResult
}

func NewMoveEmails(svc moveEmailsSvc) *MoveEmails {
	return &MoveEmails{svc: svc}
}

type MoveEmails struct {
	svc moveEmailsSvc
}

func (t *MoveEmails) MoveEmail(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MoveEmailRequest,
) (*mcp.CallToolResult, mailbox.MoveResult, error) {
	return nil, t.svc.MoveMessage(ctx, input.From, input.Target, input.ID), nil
}

func (t *MoveEmails) MoveEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MoveEmailsRequest,
) (*mcp.CallToolResult, mailbox.MoveResult, error) {
	return nil, t.svc.MoveMessages(ctx, input.From, input.Target, splitIDs(input.IDs)), nil
}
