package mailbox_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/message"
)

func rawMessage(subject, body string) string {
	return strings.Join([]string{
		"From: Bob <bob@example.com>",
		"To: alice@example.com",
		"Subject: " + subject,
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
}

func newService(st *fakeStore) (*mailbox.Service, *fakeDialer) {
	d := &fakeDialer{store: st, submitter: &fakeSubmitter{}}
	svc := mailbox.New(d, mailbox.Config{
		Name:       "mailbox-mcp",
		Version:    "test",
		Account:    "alice@example.com",
		StoreAddr:  "imap.example.com:993",
		SubmitAddr: "smtp.example.com:587",
	}, mailbox.Options{})
	return svc, d
}

func TestServerInfo(t *testing.T) {
	svc, _ := newService(newFakeStore())
	info := svc.ServerInfo()
	assert.Equal(t, mailbox.StatusSuccess, info.Status)
	assert.Equal(t, "alice@example.com", info.Account)
	assert.Equal(t, ".", info.Separator)
}

func TestTestConnection(t *testing.T) {
	st := newFakeStore("INBOX")
	svc, d := newService(st)

	res := svc.TestConnection(context.Background())
	assert.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Equal(t, 1, st.logouts)

	d.storeErr = errors.New("authentication failed")
	res = svc.TestConnection(context.Background())
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Contains(t, res.Message, "authentication failed")
}

func TestListFolders(t *testing.T) {
	st := newFakeStore("INBOX", "Sent Messages", "Archive")
	svc, d := newService(st)

	res := svc.ListFolders(context.Background())
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.ElementsMatch(t, []string{"INBOX", "Sent Messages", "Archive"}, res.Folders)

	st.listErr = errors.New("LIST failed")
	res = svc.ListFolders(context.Background())
	assert.Equal(t, mailbox.StatusError, res.Status)
	require.Len(t, res.Folders, 1)
	assert.True(t, strings.HasPrefix(res.Folders[0], "Error: "))

	d.storeErr = errors.New("dial tcp: refused")
	res = svc.ListFolders(context.Background())
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Contains(t, res.Folders[0], "refused")
}

func TestFolderFromListing(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: `(\HasNoChildren) "." INBOX`, want: "INBOX"},
		{line: `(\HasNoChildren) "/" "Sent Messages"`, want: "Sent Messages"},
		{line: `(\Noselect \HasChildren) "\\" "[Gmail]"`, want: "[Gmail]"},
		{line: `() NIL Archive`, want: "Archive"},
		{line: `(\HasNoChildren) "." "say \"hi\""`, want: `say "hi"`},
		{line: "", want: ""},
		{line: "   ", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mailbox.FolderFromListing(tt.line), tt.line)
	}
}

func TestSearchMessages(t *testing.T) {
	st := newFakeStore("INBOX")
	first := st.add("INBOX", rawMessage("Invoice March", "pay soon"))
	second := st.add("INBOX", rawMessage("Lunch", "invoice attached"), mailsvc.FlagSeen)
	st.add("INBOX", rawMessage("Hello", "nothing"))
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.SearchMessages(ctx, "", mailsvc.Criterion{Kind: mailsvc.CriterionText, Query: "invoice"})
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Equal(t, "INBOX", res.Folder)
	assert.Equal(t, []string{first, second}, res.IDs)
	assert.Equal(t, 2, res.Count)

	res = svc.SearchMessages(ctx, "INBOX", mailsvc.Criterion{Kind: mailsvc.CriterionUnseen})
	assert.Len(t, res.IDs, 2)
	assert.NotContains(t, res.IDs, second)

	res = svc.SearchMessages(ctx, "Missing", mailsvc.Criterion{})
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Contains(t, res.Message, "select folder Missing failed")
	assert.NotNil(t, res.IDs)
}

func TestSearchSummaries(t *testing.T) {
	st := newFakeStore("INBOX")
	var ids []string
	for i := 1; i <= 4; i++ {
		ids = append(ids, st.add("INBOX", rawMessage(fmt.Sprintf("Invoice %d", i), "please pay")))
	}
	st.add("INBOX", rawMessage("Lunch", "pizza"))
	svc, _ := newService(st)
	ctx := context.Background()
	text := mailsvc.Criterion{Kind: mailsvc.CriterionText, Query: "invoice"}

	res := svc.SearchSummaries(ctx, "INBOX", text, 0)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Equal(t, ids, res.IDs)
	require.Len(t, res.Messages, 4)
	for i, m := range res.Messages {
		assert.Equal(t, ids[i], m.ID)
		assert.Equal(t, fmt.Sprintf("Invoice %d", i+1), m.Subject)
		assert.Equal(t, "Bob <bob@example.com>", m.From)
		assert.NotEmpty(t, m.Date)
		assert.Empty(t, m.Body)
		assert.True(t, m.Unread, "searching must not mark %s as seen", m.ID)
	}
	for _, id := range ids {
		assert.False(t, st.seen("INBOX", id))
	}

	res = svc.SearchSummaries(ctx, "INBOX", text, 2)
	assert.Equal(t, ids, res.IDs)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, ids[2], res.Messages[0].ID)
	assert.Equal(t, ids[3], res.Messages[1].ID)

	res = svc.SearchSummaries(ctx, "INBOX", mailsvc.Criterion{Kind: mailsvc.CriterionText, Query: "nothing-matches"}, 0)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Empty(t, res.IDs)
	assert.NotNil(t, res.Messages)
	assert.Empty(t, res.Messages)

	plain := svc.SearchMessages(ctx, "INBOX", text)
	assert.Nil(t, plain.Messages)
}

func TestListMessages(t *testing.T) {
	st := newFakeStore("INBOX")
	var ids []string
	for i := 1; i <= 7; i++ {
		ids = append(ids, st.add("INBOX", rawMessage(fmt.Sprintf("Message %d", i), strings.Repeat("x", 250))))
	}
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.ListMessages(ctx, "INBOX", 0, false)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	require.Len(t, res.Messages, mailbox.DefaultLimit)
	assert.Equal(t, res.Count, len(res.Messages))
	for i, m := range res.Messages {
		assert.Equal(t, ids[len(ids)-1-i], m.ID)
		assert.Equal(t, strings.Repeat("x", 200)+"...", m.Body)
		assert.True(t, m.Unread)
	}
	assert.Equal(t, "Message 7", res.Messages[0].Subject)

	res = svc.ListMessages(ctx, "INBOX", 2, true)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, strings.Repeat("x", 250), res.Messages[0].Body)

	res = svc.ListMessages(ctx, "INBOX", 500, false)
	assert.Len(t, res.Messages, 7)

	for _, id := range ids {
		assert.False(t, st.seen("INBOX", id), "listing must not mark %s seen", id)
	}
}

func TestListMessages_PerMessageFailure(t *testing.T) {
	st := newFakeStore("INBOX")
	good := st.add("INBOX", rawMessage("Good", "fine"))
	bad := st.add("INBOX", rawMessage("Bad", "broken"))
	short := st.add("INBOX", "tiny")
	st.fetchErr[bad] = errors.New("BAD fetch")
	svc, _ := newService(st)

	res := svc.ListMessages(context.Background(), "INBOX", 10, false)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	require.Len(t, res.Messages, 3)

	assert.Equal(t, short, res.Messages[0].ID)
	assert.Contains(t, res.Messages[0].Error, "no valid content")
	assert.Equal(t, bad, res.Messages[1].ID)
	assert.Contains(t, res.Messages[1].Error, "BAD fetch")
	assert.Empty(t, res.Messages[1].Subject)
	assert.Equal(t, good, res.Messages[2].ID)
	assert.Empty(t, res.Messages[2].Error)
	assert.Equal(t, "Good", res.Messages[2].Subject)
}

func TestListUnread(t *testing.T) {
	st := newFakeStore("INBOX")
	unread := st.add("INBOX", rawMessage("New", "fresh"))
	st.add("INBOX", rawMessage("Old", "stale"), mailsvc.FlagSeen)
	svc, _ := newService(st)

	res := svc.ListUnread(context.Background(), "", 5, false)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, unread, res.Messages[0].ID)
	assert.True(t, res.Messages[0].Unread)

	res = svc.ListUnread(context.Background(), "", 5, true)
	require.Len(t, res.Messages, 1)
	assert.False(t, st.seen("INBOX", unread))
}

func TestFetchDetail(t *testing.T) {
	raw := strings.Join([]string{
		"From: Bob <bob@example.com>",
		"To: alice@example.com",
		"Cc: carol@example.com",
		"Subject: Report",
		"Message-ID: <abc@example.com>",
		`Content-Type: multipart/mixed; boundary="b"`,
		"",
		"--b",
		`Content-Type: multipart/alternative; boundary="a"`,
		"",
		"--a",
		"Content-Type: text/plain",
		"",
		"plain text",
		"--a",
		"Content-Type: text/html",
		"",
		"<p>html text</p>",
		"--a--",
		"--b",
		"Content-Type: text/csv",
		`Content-Disposition: attachment; filename="data.csv"`,
		"",
		"a,b",
		"--b--",
		"",
	}, "\r\n")

	st := newFakeStore("INBOX")
	id := st.add("INBOX", raw)
	short := st.add("INBOX", "x")
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.FetchDetail(ctx, "INBOX", id)
	require.Equal(t, mailbox.StatusSuccess, res.Status, res.Message)
	require.NotNil(t, res.Email)
	assert.Equal(t, "plain text", res.Email.Body)
	assert.Equal(t, "<p>html text</p>", res.Email.HTMLBody)
	assert.Equal(t, "carol@example.com", res.Email.Cc)
	assert.Equal(t, "INBOX", res.Email.Folder)
	assert.Equal(t, map[string]string{"Message-ID": "<abc@example.com>"}, res.Email.Headers)
	assert.Equal(t, []message.Attachment{{Filename: "data.csv", ContentType: "text/csv", Size: 3}}, res.Email.Attachments)
	assert.True(t, res.Email.Unread)
	assert.False(t, st.seen("INBOX", id))

	res = svc.FetchDetail(ctx, "INBOX", short)
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Contains(t, res.Message, "no valid content")

	res = svc.FetchDetail(ctx, "INBOX", "999")
	assert.Equal(t, mailbox.StatusError, res.Status)

	res = svc.FetchDetail(ctx, "INBOX", " ")
	assert.Equal(t, mailbox.StatusError, res.Status)
}

func TestFetchDetail_HTMLOnlyRendersMarkdown(t *testing.T) {
	raw := strings.Join([]string{
		"Subject: Newsletter",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<h2>Big news</h2><p>Read <em>this</em></p>",
	}, "\r\n")

	st := newFakeStore("INBOX")
	id := st.add("INBOX", raw)
	svc, _ := newService(st)

	res := svc.FetchDetail(context.Background(), "INBOX", id)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Contains(t, res.Email.BodyMarkdown, "## Big news")
	assert.Equal(t, res.Email.BodyMarkdown, res.Email.Body)
}

func TestSetRead(t *testing.T) {
	st := newFakeStore("INBOX")
	id := st.add("INBOX", rawMessage("Flag me", "body"))
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.SetRead(ctx, "INBOX", id, true)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.True(t, st.seen("INBOX", id))
	list := svc.ListMessages(ctx, "INBOX", 5, false)
	assert.False(t, list.Messages[0].Unread)

	res = svc.SetRead(ctx, "INBOX", id, false)
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.False(t, st.seen("INBOX", id))
	list = svc.ListMessages(ctx, "INBOX", 5, false)
	assert.True(t, list.Messages[0].Unread)

	res = svc.SetRead(ctx, "INBOX", "424242", true)
	assert.Equal(t, mailbox.StatusError, res.Status)
}

func TestMoveMessages(t *testing.T) {
	st := newFakeStore("INBOX", "Archive")
	a := st.add("INBOX", rawMessage("A", "a body"))
	b := st.add("INBOX", rawMessage("B", "b body"))
	st.add("INBOX", rawMessage("C", "c body"))
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.MoveMessages(ctx, "INBOX", "Archive", []string{a, "999", b})
	require.Equal(t, mailbox.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, 2, res.MovedCount)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.FailedEmails, 1)
	assert.Equal(t, "999", res.FailedEmails[0].ID)
	assert.Equal(t, 1, st.count("INBOX"))
	assert.Equal(t, 2, st.count("Archive"))
	assert.Equal(t, 1, st.expunges)

	res = svc.MoveMessages(ctx, "INBOX", "Archive", []string{"998", "999"})
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Zero(t, res.MovedCount)
	assert.Len(t, res.FailedEmails, 2)
	assert.Equal(t, 1, st.expunges)

	res = svc.MoveMessages(ctx, "INBOX", "Archive", nil)
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.NotNil(t, res.FailedEmails)

	res = svc.MoveMessages(ctx, "INBOX", "Nowhere", []string{"3"})
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Equal(t, 1, st.count("INBOX"))
}

func TestMoveMessage(t *testing.T) {
	st := newFakeStore("INBOX", "Team Updates")
	id := st.add("INBOX", rawMessage("Move", "me"))
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.MoveMessage(ctx, "INBOX", "Team Updates", id)
	require.Equal(t, mailbox.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, 1, res.MovedCount)
	assert.Equal(t, 1, st.count("Team Updates"))

	res = svc.MoveMessage(ctx, "INBOX", "Team Updates", id)
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Contains(t, res.Message, "Move of message "+id+" failed")
}

func TestCreateFolder(t *testing.T) {
	st := newFakeStore("INBOX")
	svc, _ := newService(st)
	ctx := context.Background()

	res := svc.CreateFolder(ctx, "Archive", "INBOX")
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Equal(t, "INBOX.Archive", res.Folder)
	assert.True(t, st.subscribed["INBOX.Archive"])

	res = svc.CreateFolder(ctx, "Team Updates", "")
	require.Equal(t, mailbox.StatusSuccess, res.Status)
	assert.Equal(t, `"Team Updates"`, st.createdRaw[len(st.createdRaw)-1])

	st.subscribeErr = errors.New("SUBSCRIBE not supported")
	res = svc.CreateFolder(ctx, "Receipts", "")
	assert.Equal(t, mailbox.StatusSuccess, res.Status)

	res = svc.CreateFolder(ctx, "Archive", "INBOX")
	assert.Equal(t, mailbox.StatusError, res.Status)

	res = svc.CreateFolder(ctx, "  ", "INBOX")
	assert.Equal(t, mailbox.StatusError, res.Status)
}

func TestSendMessage(t *testing.T) {
	st := newFakeStore("INBOX")
	svc, d := newService(st)
	ctx := context.Background()

	res := svc.SendMessage(ctx, mailbox.OutgoingMessage{
		To:      []string{"bob@example.com"},
		Cc:      "carol@example.com, dave@example.com",
		Subject: "Hi",
		Body:    "Hello Bob",
		Attachments: []message.AttachmentInput{
			{Content: base64.StdEncoding.EncodeToString([]byte("data")), Filename: "a.txt"},
			{Path: "/definitely/not/here.pdf"},
		},
	})
	require.Equal(t, mailbox.StatusSuccess, res.Status, res.Message)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com", "dave@example.com"}, res.Recipients)
	assert.Equal(t, 1, res.AttachmentsSent)
	require.Len(t, res.Warnings, 1)

	require.Len(t, d.submitter.sent, 1)
	assert.Equal(t, "alice@example.com", d.submitter.sent[0].from)
	assert.Contains(t, string(d.submitter.sent[0].raw), "Subject: Hi")
	assert.Equal(t, 1, d.submitter.quits)

	res = svc.SendMessage(ctx, mailbox.OutgoingMessage{Subject: "nobody"})
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.NotNil(t, res.Warnings)

	d.submitErr = errors.New("535 authentication failed")
	res = svc.SendMessage(ctx, mailbox.OutgoingMessage{To: []string{"bob@example.com"}, Body: "x"})
	assert.Equal(t, mailbox.StatusError, res.Status)
	assert.Contains(t, res.Message, "535")
}

func TestSessionClosedAfterEveryOperation(t *testing.T) {
	st := newFakeStore("INBOX", "Archive")
	id := st.add("INBOX", rawMessage("x", "y body text"))
	svc, _ := newService(st)
	ctx := context.Background()

	svc.ListFolders(ctx)
	svc.ListMessages(ctx, "INBOX", 5, false)
	svc.FetchDetail(ctx, "INBOX", id)
	svc.SetRead(ctx, "Missing", id, true)
	svc.MoveMessages(ctx, "INBOX", "Archive", []string{"999"})

	assert.Equal(t, 5, st.logouts)
}
