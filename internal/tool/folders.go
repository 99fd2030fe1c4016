package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

type ListFoldersRequest struct{}

type listFoldersSvc interface {
	ListFolders(ctx context.Context) mailbox.FoldersResult
}

func NewListFolders(svc listFoldersSvc) *ListFolders {
	return &ListFolders{svc: svc}
}

type ListFolders struct {
	svc listFoldersSvc
}

func (t *ListFolders) ListFolders(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListFoldersRequest,
) (*mcp.CallToolResult, mailbox.FoldersResult, error) {
	return nil, t.svc.ListFolders(ctx), nil
}

type CreateFolderRequest struct {
	Name   string `json:"folder_name" jsonschema:"name of the new folder"`
	Parent string `json:"parent_folder,omitempty" jsonschema:"optional parent folder, e.g. INBOX"`
}

type createFolderSvc interface {
	CreateFolder(ctx context.Context, name, parent string) mailbox.CreateFolderResult
}

func NewCreateFolder(svc createFolderSvc) *CreateFolder {
	return &CreateFolder{svc: svc}
}

type CreateFolder struct {
	svc createFolderSvc
}

func (t *CreateFolder) CreateFolder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateFolderRequest,
) (*mcp.CallToolResult, mailbox.CreateFolderResult, error) {
	return nil, t.svc.CreateFolder(ctx, input.Name, input.Parent), nil
}
