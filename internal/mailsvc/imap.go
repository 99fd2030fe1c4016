package mailsvc

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

type imapStore struct {
	conn    net.Conn
	client  *imapclient.Client
	timeout time.Duration
}

func (s *imapStore) arm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.conn != nil {
		_ = s.conn.SetDeadline(deadline(ctx, s.timeout))
	}
	return nil
}

// List renders each mailbox as a raw listing line: (attrs) "delim" name.
func (s *imapStore) List(ctx context.Context) ([]string, error) {
	if err := s.arm(ctx); err != nil {
		return nil, err
	}

	items, err := s.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap LIST failed: %w", err)
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		attrs := make([]string, 0, len(item.Attrs))
		for _, a := range item.Attrs {
			attrs = append(attrs, string(a))
		}

		delim := "NIL"
		if item.Delim != 0 {
			delim = strconv.Quote(string(item.Delim))
		}

		lines = append(lines, fmt.Sprintf("(%s) %s %s", strings.Join(attrs, " "), delim, NormalizeFolder(item.Mailbox)))
	}
	return lines, nil
}

func (s *imapStore) Select(ctx context.Context, folder string) error {
	if err := s.arm(ctx); err != nil {
		return err
	}
	if _, err := s.client.Select(UnquoteFolder(folder), nil).Wait(); err != nil {
		return fmt.Errorf("imap SELECT failed: %w", err)
	}
	return nil
}

func (s *imapStore) Search(ctx context.Context, c Criterion) ([]string, error) {
	if err := s.arm(ctx); err != nil {
		return nil, err
	}

	data, err := s.client.UIDSearch(searchCriteria(c), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap UID SEARCH failed: %w", err)
	}

	uids := data.AllUIDs()
	slices.Sort(uids)

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids, nil
}

func searchCriteria(c Criterion) *imap.SearchCriteria {
	switch c.Kind {
	case CriterionUnseen:
		return &imap.SearchCriteria{NotFlag: []imap.Flag{imap.FlagSeen}}
	case CriterionText:
		return &imap.SearchCriteria{
			Or: [][2]imap.SearchCriteria{{
				{Header: []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: c.Query}}},
				{Body: []string{c.Query}},
			}},
		}
	default:
		return &imap.SearchCriteria{}
	}
}

func (s *imapStore) Fetch(ctx context.Context, id string, mode FetchMode) (*Fetched, error) {
	set, err := uidSet(id)
	if err != nil {
		return nil, err
	}
	if err := s.arm(ctx); err != nil {
		return nil, err
	}

	section := &imap.FetchItemBodySection{Peek: mode == FetchPeek}
	opts := &imap.FetchOptions{
		UID:         true,
		Flags:       true,
		BodySection: []*imap.FetchItemBodySection{section},
	}

	msgs, err := s.client.Fetch(set, opts).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap UID FETCH failed: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrNotFound
	}

	buf := msgs[0]
	flags := make([]string, 0, len(buf.Flags))
	for _, f := range buf.Flags {
		flags = append(flags, string(f))
	}

	return &Fetched{
		Raw:   buf.FindBodySection(section),
		Flags: flags,
	}, nil
}

func (s *imapStore) StoreFlag(ctx context.Context, id string, op FlagOp, flag string) error {
	set, err := s.existing(ctx, id)
	if err != nil {
		return err
	}

	storeOp := imap.StoreFlagsAdd
	if op == FlagRemove {
		storeOp = imap.StoreFlagsDel
	}

	err = s.client.Store(set, &imap.StoreFlags{
		Op:     storeOp,
		Silent: true,
		Flags:  []imap.Flag{imap.Flag(flag)},
	}, nil).Close()
	if err != nil {
		return fmt.Errorf("imap UID STORE failed: %w", err)
	}
	return nil
}

func (s *imapStore) Copy(ctx context.Context, id, dest string) error {
	set, err := s.existing(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.client.Copy(set, UnquoteFolder(dest)).Wait(); err != nil {
		return fmt.Errorf("imap UID COPY failed: %w", err)
	}
	return nil
}

// existing resolves id and confirms the message is present, since UID
// commands on unknown ids succeed silently.
func (s *imapStore) existing(ctx context.Context, id string) (imap.UIDSet, error) {
	set, err := uidSet(id)
	if err != nil {
		return nil, err
	}
	if err := s.arm(ctx); err != nil {
		return nil, err
	}

	msgs, err := s.client.Fetch(set, &imap.FetchOptions{UID: true}).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap UID FETCH failed: %w", err)
	}
	if len(msgs) == 0 {
		return nil, ErrNotFound
	}
	return set, nil
}

func (s *imapStore) Expunge(ctx context.Context) error {
	if err := s.arm(ctx); err != nil {
		return err
	}
	if err := s.client.Expunge().Close(); err != nil {
		return fmt.Errorf("imap EXPUNGE failed: %w", err)
	}
	return nil
}

func (s *imapStore) Create(ctx context.Context, folder string) error {
	if err := s.arm(ctx); err != nil {
		return err
	}
	if err := s.client.Create(UnquoteFolder(folder), nil).Wait(); err != nil {
		return fmt.Errorf("imap CREATE failed: %w", err)
	}
	return nil
}

func (s *imapStore) Subscribe(ctx context.Context, folder string) error {
	if err := s.arm(ctx); err != nil {
		return err
	}
	if err := s.client.Subscribe(UnquoteFolder(folder)).Wait(); err != nil {
		return fmt.Errorf("imap SUBSCRIBE failed: %w", err)
	}
	return nil
}

func (s *imapStore) Logout() error {
	if s.conn != nil {
		_ = s.conn.SetDeadline(time.Now().Add(s.timeout))
	}
	err := s.client.Logout().Wait()
	_ = s.client.Close()
	if err != nil {
		return fmt.Errorf("imap LOGOUT failed: %w", err)
	}
	return nil
}

func uidSet(id string) (imap.UIDSet, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil || n == 0 {
		return nil, fmt.Errorf("invalid message id %q", id)
	}
	return imap.UIDSetNum(imap.UID(n)), nil
}
