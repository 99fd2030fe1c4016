package mailsvc

import (
	"context"
	"errors"
)

type FetchMode int

const (
	// FetchFull retrieves the whole message and lets the server mark it seen.
	FetchFull FetchMode = iota
	// FetchPeek retrieves the whole message without touching the seen flag.
	FetchPeek
)

type CriterionKind int

const (
	CriterionAll CriterionKind = iota
	CriterionUnseen
	CriterionText
)

// Criterion selects messages inside the currently selected folder.
// CriterionText matches Query against the subject or the body.
type Criterion struct {
	Kind  CriterionKind
	Query string
}

type FlagOp int

const (
	FlagAdd FlagOp = iota
	FlagRemove
)

const (
	FlagSeen    = `\Seen`
	FlagDeleted = `\Deleted`
)

var ErrNotFound = errors.New("message not found")

type Fetched struct {
	Raw   []byte
	Flags []string
}

func (f *Fetched) HasFlag(flag string) bool {
	for _, fl := range f.Flags {
		if fl == flag {
			return true
		}
	}
	return false
}

// Store is an authenticated connection to the message store. Message ids are
// decimal UIDs valid within the selected folder.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Select(ctx context.Context, folder string) error
	Search(ctx context.Context, c Criterion) ([]string, error)
	Fetch(ctx context.Context, id string, mode FetchMode) (*Fetched, error)
	StoreFlag(ctx context.Context, id string, op FlagOp, flag string) error
	Copy(ctx context.Context, id, dest string) error
	Expunge(ctx context.Context) error
	Create(ctx context.Context, folder string) error
	Subscribe(ctx context.Context, folder string) error
	Logout() error
}

// Submitter is an authenticated connection to the outbound submission server.
type Submitter interface {
	Send(ctx context.Context, from string, recipients []string, raw []byte) error
	Quit() error
}

type Dialer interface {
	DialStore(ctx context.Context) (Store, error)
	DialSubmission(ctx context.Context) (Submitter, error)
}
