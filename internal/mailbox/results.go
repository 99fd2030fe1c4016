package mailbox

import "github.com/hal9000y/mailbox-mcp/internal/message"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Result struct {
	Status  string `json:"status" jsonschema:"success or error"`
	Message string `json:"message,omitempty"`
}

type InfoResult struct {
	Status     string `json:"status"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Account    string `json:"account"`
	StoreAddr  string `json:"imap_server"`
	SubmitAddr string `json:"smtp_server"`
	Separator  string `json:"folder_separator"`
	AuthMethod string `json:"auth_method"`
}

type FoldersResult struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Folders []string `json:"folders"`
}

type SearchResult struct {
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Folder  string   `json:"folder"`
	IDs     []string `json:"ids" jsonschema:"Matching message ids in ascending order"`
	Count   int      `json:"count"`

	Messages []MessageSummary `json:"messages,omitempty" jsonschema:"Headers of the newest matches, ascending, without bodies"`
}

type MessageSummary struct {
	ID      string `json:"id"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Date    string `json:"date,omitempty"`
	Body    string `json:"body,omitempty"`
	Unread  bool   `json:"unread"`
	Error   string `json:"error,omitempty" jsonschema:"Set instead of the other fields when this message could not be read"`
}

type MessagesResult struct {
	Status   string           `json:"status"`
	Message  string           `json:"message,omitempty"`
	Folder   string           `json:"folder"`
	Messages []MessageSummary `json:"messages" jsonschema:"Newest first"`
	Count    int              `json:"count"`
}

type MessageDetail struct {
	ID           string               `json:"id"`
	Folder       string               `json:"folder"`
	From         string               `json:"from"`
	To           string               `json:"to"`
	Cc           string               `json:"cc,omitempty"`
	Bcc          string               `json:"bcc,omitempty"`
	Subject      string               `json:"subject"`
	Date         string               `json:"date"`
	Body         string               `json:"body"`
	HTMLBody     string               `json:"html_body,omitempty"`
	BodyMarkdown string               `json:"body_markdown,omitempty"`
	Unread       bool                 `json:"unread"`
	Attachments  []message.Attachment `json:"attachments,omitempty"`
	Headers      map[string]string    `json:"headers,omitempty"`
}

type DetailResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Email   *MessageDetail `json:"email,omitempty"`
}

type FailedMove struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type MoveResult struct {
	Status       string       `json:"status"`
	Message      string       `json:"message,omitempty"`
	MovedCount   int          `json:"moved_count"`
	Total        int          `json:"total"`
	FailedEmails []FailedMove `json:"failed_emails"`
}

type CreateFolderResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Folder  string `json:"folder,omitempty"`
}

type SendResult struct {
	Status          string   `json:"status"`
	Message         string   `json:"message,omitempty"`
	Recipients      []string `json:"recipients"`
	AttachmentsSent int      `json:"attachments_sent"`
	Warnings        []string `json:"warnings"`
}

func errorResult(err error) Result {
	return Result{Status: StatusError, Message: err.Error()}
}
