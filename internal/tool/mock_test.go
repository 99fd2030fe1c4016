package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/tool"
)

type mailboxMock struct {
	serverInfo     func() mailbox.InfoResult
	testConnection func(ctx context.Context) mailbox.Result
	listFolders    func(ctx context.Context) mailbox.FoldersResult
	createFolder   func(ctx context.Context, name, parent string) mailbox.CreateFolderResult
	searchMessages func(ctx context.Context, folder string, c mailsvc.Criterion, limit int) mailbox.SearchResult
	listMessages   func(ctx context.Context, folder string, limit int, full bool) mailbox.MessagesResult
	listUnread     func(ctx context.Context, folder string, limit int, full bool) mailbox.MessagesResult
	fetchDetail    func(ctx context.Context, folder, id string) mailbox.DetailResult
	setRead        func(ctx context.Context, folder, id string, read bool) mailbox.Result
	moveMessage    func(ctx context.Context, src, dst, id string) mailbox.MoveResult
	moveMessages   func(ctx context.Context, src, dst string, ids []string) mailbox.MoveResult
	sendMessage    func(ctx context.Context, m mailbox.OutgoingMessage) mailbox.SendResult
}

func (m *mailboxMock) ServerInfo() mailbox.InfoResult { return m.serverInfo() }

func (m *mailboxMock) TestConnection(ctx context.Context) mailbox.Result {
	return m.testConnection(ctx)
}

func (m *mailboxMock) ListFolders(ctx context.Context) mailbox.FoldersResult {
	return m.listFolders(ctx)
}

func (m *mailboxMock) CreateFolder(ctx context.Context, name, parent string) mailbox.CreateFolderResult {
	return m.createFolder(ctx, name, parent)
}

func (m *mailboxMock) SearchSummaries(ctx context.Context, folder string, c mailsvc.Criterion, limit int) mailbox.SearchResult {
	return m.searchMessages(ctx, folder, c, limit)
}

func (m *mailboxMock) ListMessages(ctx context.Context, folder string, limit int, full bool) mailbox.MessagesResult {
	return m.listMessages(ctx, folder, limit, full)
}

func (m *mailboxMock) ListUnread(ctx context.Context, folder string, limit int, full bool) mailbox.MessagesResult {
	return m.listUnread(ctx, folder, limit, full)
}

func (m *mailboxMock) FetchDetail(ctx context.Context, folder, id string) mailbox.DetailResult {
	return m.fetchDetail(ctx, folder, id)
}

func (m *mailboxMock) SetRead(ctx context.Context, folder, id string, read bool) mailbox.Result {
	return m.setRead(ctx, folder, id, read)
}

func (m *mailboxMock) MoveMessage(ctx context.Context, src, dst, id string) mailbox.MoveResult {
	return m.moveMessage(ctx, src, dst, id)
}

func (m *mailboxMock) MoveMessages(ctx context.Context, src, dst string, ids []string) mailbox.MoveResult {
	return m.moveMessages(ctx, src, dst, ids)
}

func (m *mailboxMock) SendMessage(ctx context.Context, msg mailbox.OutgoingMessage) mailbox.SendResult {
	return m.sendMessage(ctx, msg)
}

// connect serves svc over in-memory transports and returns the client side.
func connect(t *testing.T, svc *mailboxMock) *mcp.ClientSession {
	t.Helper()

	server := tool.NewServer(svc, "mailbox-test", "v0.0.0")
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

// call invokes a tool and decodes its text content into out.
func call(t *testing.T, cs *mcp.ClientSession, name string, args any, out any) {
	t.Helper()

	if args == nil {
		args = map[string]any{}
	}
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.False(t, result.IsError, "tool %s reported a protocol error", name)
	require.NotEmpty(t, result.Content)

	require.NoError(
		t,
		json.Unmarshal(
			[]byte(result.Content[0].(*mcp.TextContent).Text),
			out,
		),
	)
}
