package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mailboxSvc interface {
	serverInfoSvc
	testConnectionSvc
	listFoldersSvc
	createFolderSvc
	searchEmailsSvc
	readEmailsSvc
	getEmailSvc
	markEmailSvc
	moveEmailsSvc
	sendEmailSvc
}

// NewServer creates an MCP server with mailbox tools.
func NewServer(svc mailboxSvc, name, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_server_info",
		Description: "Show the configured account, servers and folder separator",
	}, NewServerInfo(svc).ServerInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_email_connection",
		Description: "Log in to the mailbox and report whether it worked",
	}, NewTestConnection(svc).TestConnection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_email_folders",
		Description: "List all mailbox folders",
	}, NewListFolders(svc).ListFolders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_folder",
		Description: "Create a folder, optionally below a parent folder",
	}, NewCreateFolder(svc).CreateFolder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_emails",
		Description: "Search a folder by subject or body text and return matching ids with sender, subject and date",
	}, NewSearchEmails(svc).SearchEmails)

	read := NewReadEmails(svc)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_emails",
		Description: "Read the newest messages of a folder without marking them read",
	}, read.ReadEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_unread_emails",
		Description: "Read the newest unread messages of a folder without marking them read",
	}, read.ReadUnreadEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_email",
		Description: "Get one message with full body, HTML body, attachments and selected headers",
	}, NewGetEmail(svc).GetEmail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_email",
		Description: "Mark a message as read or unread",
	}, NewMarkEmail(svc).MarkEmail)

	move := NewMoveEmails(svc)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_email",
		Description: "Move one message to another folder",
	}, move.MoveEmail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_emails",
		Description: "Move several messages to another folder; failed ids are reported per message",
	}, move.MoveEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_email",
		Description: "Send a plain text message with optional attachments",
	}, NewSendEmail(svc).SendEmail)

	return server
}
