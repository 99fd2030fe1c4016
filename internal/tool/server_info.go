package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

type ServerInfoRequest struct{}

type serverInfoSvc interface {
	ServerInfo() mailbox.InfoResult
}

func NewServerInfo(svc serverInfoSvc) *ServerInfo {
	return &ServerInfo{svc: svc}
}

type ServerInfo struct {
	svc serverInfoSvc
}

func (t *ServerInfo) ServerInfo(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ServerInfoRequest,
) (*mcp.CallToolResult, mailbox.InfoResult, error) {
	return nil, t.svc.ServerInfo(), nil
}

type TestConnectionRequest struct{}

type testConnectionSvc interface {
	TestConnection(ctx context.Context) mailbox.Result
}

func NewTestConnection(svc testConnectionSvc) *TestConnection {
	return &TestConnection{svc: svc}
}

type TestConnection struct {
	svc testConnectionSvc
}

func (t *TestConnection) TestConnection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ TestConnectionRequest,
) (*mcp.CallToolResult, mailbox.Result, error) {
	return nil, t.svc.TestConnection(ctx), nil
}
