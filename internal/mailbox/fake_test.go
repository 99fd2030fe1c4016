package mailbox_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
)

type fakeMsg struct {
	uid   int
	raw   []byte
	flags map[string]bool
}

// fakeStore mimics a server mailbox: peek fetches leave flags alone, full
// fetches set \Seen and expunge drops \Deleted messages.
type fakeStore struct {
	mu         sync.Mutex
	folders    map[string][]*fakeMsg
	subscribed map[string]bool
	nextUID    int
	selected   string

	listErr      error
	subscribeErr error
	fetchErr     map[string]error

	createdRaw []string
	expunges   int
	logouts    int
}

func newFakeStore(folders ...string) *fakeStore {
	st := &fakeStore{
		folders:    map[string][]*fakeMsg{},
		subscribed: map[string]bool{},
		fetchErr:   map[string]error{},
	}
	for _, f := range folders {
		st.folders[f] = nil
	}
	return st
}

func (s *fakeStore) add(folder, raw string, flags ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUID++
	m := &fakeMsg{uid: s.nextUID, raw: []byte(raw), flags: map[string]bool{}}
	for _, f := range flags {
		m.flags[f] = true
	}
	s.folders[folder] = append(s.folders[folder], m)
	return strconv.Itoa(m.uid)
}

func (s *fakeStore) count(folder string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.folders[folder])
}

func (s *fakeStore) seen(folder, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.findLocked(folder, id)
	return m != nil && m.flags[mailsvc.FlagSeen]
}

func (s *fakeStore) findLocked(folder, id string) *fakeMsg {
	for _, m := range s.folders[folder] {
		if strconv.Itoa(m.uid) == id {
			return m
		}
	}
	return nil
}

func (s *fakeStore) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	var lines []string
	for name := range s.folders {
		lines = append(lines, fmt.Sprintf(`(\HasNoChildren) "." %s`, mailsvc.NormalizeFolder(name)))
	}
	slices.Sort(lines)
	return append(lines, ""), nil
}

func (s *fakeStore) Select(_ context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := mailsvc.UnquoteFolder(folder)
	if _, ok := s.folders[name]; !ok {
		return errors.New("NO mailbox does not exist")
	}
	s.selected = name
	return nil
}

func (s *fakeStore) Search(_ context.Context, c mailsvc.Criterion) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []string{}
	for _, m := range s.folders[s.selected] {
		switch c.Kind {
		case mailsvc.CriterionUnseen:
			if m.flags[mailsvc.FlagSeen] {
				continue
			}
		case mailsvc.CriterionText:
			if !strings.Contains(strings.ToLower(string(m.raw)), strings.ToLower(c.Query)) {
				continue
			}
		}
		ids = append(ids, strconv.Itoa(m.uid))
	}
	return ids, nil
}

func (s *fakeStore) Fetch(_ context.Context, id string, mode mailsvc.FetchMode) (*mailsvc.Fetched, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fetchErr[id]; err != nil {
		return nil, err
	}
	m := s.findLocked(s.selected, id)
	if m == nil {
		return nil, mailsvc.ErrNotFound
	}
	if mode == mailsvc.FetchFull {
		m.flags[mailsvc.FlagSeen] = true
	}

	f := &mailsvc.Fetched{Raw: append([]byte(nil), m.raw...)}
	for fl := range m.flags {
		f.Flags = append(f.Flags, fl)
	}
	return f, nil
}

func (s *fakeStore) StoreFlag(_ context.Context, id string, op mailsvc.FlagOp, flag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(s.selected, id)
	if m == nil {
		return mailsvc.ErrNotFound
	}
	if op == mailsvc.FlagAdd {
		m.flags[flag] = true
	} else {
		delete(m.flags, flag)
	}
	return nil
}

func (s *fakeStore) Copy(_ context.Context, id, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(s.selected, id)
	if m == nil {
		return mailsvc.ErrNotFound
	}
	name := mailsvc.UnquoteFolder(dest)
	if _, ok := s.folders[name]; !ok {
		return errors.New("NO [TRYCREATE] destination does not exist")
	}

	s.nextUID++
	cp := &fakeMsg{uid: s.nextUID, raw: m.raw, flags: map[string]bool{}}
	for f := range m.flags {
		cp.flags[f] = true
	}
	s.folders[name] = append(s.folders[name], cp)
	return nil
}

func (s *fakeStore) Expunge(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expunges++
	kept := s.folders[s.selected][:0]
	for _, m := range s.folders[s.selected] {
		if !m.flags[mailsvc.FlagDeleted] {
			kept = append(kept, m)
		}
	}
	s.folders[s.selected] = kept
	return nil
}

func (s *fakeStore) Create(_ context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createdRaw = append(s.createdRaw, folder)
	name := mailsvc.UnquoteFolder(folder)
	if _, ok := s.folders[name]; ok {
		return errors.New("NO [ALREADYEXISTS] mailbox exists")
	}
	s.folders[name] = nil
	return nil
}

func (s *fakeStore) Subscribe(_ context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribeErr != nil {
		return s.subscribeErr
	}
	s.subscribed[mailsvc.UnquoteFolder(folder)] = true
	return nil
}

func (s *fakeStore) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	return nil
}

type sent struct {
	from       string
	recipients []string
	raw        []byte
}

type fakeSubmitter struct {
	sent    []sent
	sendErr error
	quits   int
}

func (f *fakeSubmitter) Send(_ context.Context, from string, recipients []string, raw []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sent{from: from, recipients: recipients, raw: raw})
	return nil
}

func (f *fakeSubmitter) Quit() error {
	f.quits++
	return nil
}

type fakeDialer struct {
	store     *fakeStore
	submitter *fakeSubmitter
	storeErr  error
	submitErr error
}

func (d *fakeDialer) DialStore(context.Context) (mailsvc.Store, error) {
	if d.storeErr != nil {
		return nil, d.storeErr
	}
	return d.store, nil
}

func (d *fakeDialer) DialSubmission(context.Context) (mailsvc.Submitter, error) {
	if d.submitErr != nil {
		return nil, d.submitErr
	}
	return d.submitter, nil
}
