package tool

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
)

type SearchEmailsRequest struct {
	Query      string `json:"query,omitempty" jsonschema:"text to look for in subject or body; empty matches everything"`
	Folder     string `json:"folder,omitempty" jsonschema:"folder to search, defaults to INBOX"`
	UnreadOnly bool   `json:"unread_only,omitempty" jsonschema:"only unread messages; ignored when query is set"`
	Limit      int    `json:"limit,omitempty" jsonschema:"how many of the newest matches to return headers for, at most 50"`
}

type searchEmailsSvc interface {
	SearchSummaries(ctx context.Context, folder string, c mailsvc.Criterion, limit int) mailbox.SearchResult
}

func NewSearchEmails(svc searchEmailsSvc) *SearchEmails {
	return &SearchEmails{svc: svc}
}

type SearchEmails struct {
	svc searchEmailsSvc
}

func (t *SearchEmails) SearchEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchEmailsRequest,
) (*mcp.CallToolResult, mailbox.SearchResult, error) {
	return nil, t.svc.SearchSummaries(ctx, input.Folder, criterion(input.Query, input.UnreadOnly), input.Limit), nil
}

func criterion(query string, unreadOnly bool) mailsvc.Criterion {
	if q := strings.TrimSpace(query); q != "" {
		return mailsvc.Criterion{Kind: mailsvc.CriterionText, Query: q}
	}
	if unreadOnly {
		return mailsvc.Criterion{Kind: mailsvc.CriterionUnseen}
	}
	return mailsvc.Criterion{Kind: mailsvc.CriterionAll}
}
