package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/message"
)

// SearchMessages returns the ids in folder matching c, ascending.
func (s *Service) SearchMessages(ctx context.Context, folder string, c mailsvc.Criterion) SearchResult {
	return s.search(ctx, "search_messages", folder, c, 0)
}

// SearchSummaries is SearchMessages plus the headers of the last limit
// matches, in the same ascending order. Bodies are left out. A limit of
// zero or less means MaxLimit.
func (s *Service) SearchSummaries(ctx context.Context, folder string, c mailsvc.Criterion, limit int) SearchResult {
	if limit <= 0 {
		limit = MaxLimit
	}
	return s.search(ctx, "search_summaries", folder, c, normalizeLimit(limit))
}

func (s *Service) search(ctx context.Context, op, folder string, c mailsvc.Criterion, headers int) SearchResult {
	folder = folderOrDefault(folder)
	ids := []string{}
	var msgs []MessageSummary
	if headers > 0 {
		msgs = []MessageSummary{}
	}

	err := s.run(ctx, op, func(ctx context.Context, sess *mailsvc.Session, log *slog.Logger) error {
		st, err := selectFolder(ctx, sess, folder)
		if err != nil {
			return err
		}
		found, err := st.Search(ctx, c)
		if err != nil {
			return err
		}
		ids = append(ids, found...)

		if headers == 0 {
			return nil
		}
		for _, id := range found[max(0, len(found)-headers):] {
			sum := s.summarize(ctx, st, id, false, log)
			sum.Body = ""
			msgs = append(msgs, sum)
		}
		return nil
	})
	if err != nil {
		return SearchResult{Status: StatusError, Message: err.Error(), Folder: folder, IDs: []string{}}
	}

	return SearchResult{Status: StatusSuccess, Folder: folder, IDs: ids, Count: len(ids), Messages: msgs}
}

// ListMessages returns up to limit of the newest messages in folder, newest
// first. Bodies are truncated unless fullContent is set.
func (s *Service) ListMessages(ctx context.Context, folder string, limit int, fullContent bool) MessagesResult {
	return s.list(ctx, "list_messages", folder, mailsvc.Criterion{Kind: mailsvc.CriterionAll}, limit, fullContent)
}

// ListUnread is ListMessages restricted to unseen messages.
func (s *Service) ListUnread(ctx context.Context, folder string, limit int, fullContent bool) MessagesResult {
	return s.list(ctx, "list_unread", folder, mailsvc.Criterion{Kind: mailsvc.CriterionUnseen}, limit, fullContent)
}

func (s *Service) list(ctx context.Context, op, folder string, c mailsvc.Criterion, limit int, fullContent bool) MessagesResult {
	folder = folderOrDefault(folder)
	limit = normalizeLimit(limit)
	unreadOnly := c.Kind == mailsvc.CriterionUnseen
	msgs := []MessageSummary{}

	err := s.run(ctx, op, func(ctx context.Context, sess *mailsvc.Session, log *slog.Logger) error {
		st, err := selectFolder(ctx, sess, folder)
		if err != nil {
			return err
		}

		ids, err := st.Search(ctx, c)
		if err != nil {
			return err
		}
		if len(ids) > limit {
			ids = ids[len(ids)-limit:]
		}

		for i := len(ids) - 1; i >= 0; i-- {
			sum := s.summarize(ctx, st, ids[i], fullContent, log)
			if unreadOnly && sum.Error == "" {
				sum.Unread = true
			}
			msgs = append(msgs, sum)
		}
		return nil
	})
	if err != nil {
		return MessagesResult{Status: StatusError, Message: err.Error(), Folder: folder, Messages: []MessageSummary{}}
	}

	return MessagesResult{Status: StatusSuccess, Folder: folder, Messages: msgs, Count: len(msgs)}
}

// summarize never fails; problems become an error record for that id.
func (s *Service) summarize(ctx context.Context, st mailsvc.Store, id string, fullContent bool, log *slog.Logger) MessageSummary {
	d, err := s.fetchDecoded(ctx, st, id, log)
	if err != nil {
		log.WarnContext(ctx, "message skipped", logging.MessageID(id), logging.Err(err))
		return MessageSummary{ID: id, Error: err.Error()}
	}

	body := d.Body
	if !fullContent {
		body = message.Truncate(body, message.PreviewLength)
	}

	return MessageSummary{
		ID:      id,
		From:    d.From,
		To:      d.To,
		Subject: d.Subject,
		Date:    d.Date,
		Body:    body,
		Unread:  d.Unread,
	}
}

func (s *Service) fetchDecoded(ctx context.Context, st mailsvc.Store, id string, log *slog.Logger) (*message.Decoded, error) {
	f, err := st.Fetch(ctx, id, mailsvc.FetchPeek)
	if err != nil {
		return nil, &mailsvc.FetchError{ID: id, Err: err}
	}

	d, err := s.decoder.Decode(f.Raw, f.HasFlag(mailsvc.FlagSeen))
	if err != nil {
		return nil, &mailsvc.FetchError{ID: id, Err: err}
	}
	for _, p := range d.Problems {
		log.DebugContext(ctx, "message decoded with problems", logging.MessageID(id), logging.Err(p))
	}
	return d, nil
}

// FetchDetail returns the full decoded message without marking it seen.
func (s *Service) FetchDetail(ctx context.Context, folder, id string) DetailResult {
	folder = folderOrDefault(folder)
	id = strings.TrimSpace(id)
	if id == "" {
		return DetailResult{Status: StatusError, Message: "message id is required"}
	}

	var detail *MessageDetail
	err := s.run(ctx, "fetch_detail", func(ctx context.Context, sess *mailsvc.Session, log *slog.Logger) error {
		st, err := selectFolder(ctx, sess, folder)
		if err != nil {
			return err
		}

		d, err := s.fetchDecoded(ctx, st, id, log)
		if err != nil {
			return err
		}

		detail = &MessageDetail{
			ID:           id,
			Folder:       folder,
			From:         d.From,
			To:           d.To,
			Cc:           d.Cc,
			Bcc:          d.Bcc,
			Subject:      d.Subject,
			Date:         d.Date,
			Body:         d.Body,
			HTMLBody:     d.HTMLBody,
			BodyMarkdown: d.BodyMarkdown,
			Unread:       d.Unread,
			Attachments:  d.Attachments,
			Headers:      d.Headers,
		}
		return nil
	})
	if err != nil {
		return DetailResult{Status: StatusError, Message: err.Error()}
	}

	return DetailResult{Status: StatusSuccess, Email: detail}
}

// SetRead adds or removes the seen flag on one message.
func (s *Service) SetRead(ctx context.Context, folder, id string, read bool) Result {
	folder = folderOrDefault(folder)
	id = strings.TrimSpace(id)
	if id == "" {
		return Result{Status: StatusError, Message: "message id is required"}
	}

	op, state := mailsvc.FlagAdd, "read"
	if !read {
		op, state = mailsvc.FlagRemove, "unread"
	}

	err := s.run(ctx, "set_read", func(ctx context.Context, sess *mailsvc.Session, _ *slog.Logger) error {
		st, err := selectFolder(ctx, sess, folder)
		if err != nil {
			return err
		}
		if err := st.StoreFlag(ctx, id, op, mailsvc.FlagSeen); err != nil {
			return fmt.Errorf("mark message %s as %s failed: %w", id, state, err)
		}
		return nil
	})
	if err != nil {
		return errorResult(err)
	}

	return Result{Status: StatusSuccess, Message: fmt.Sprintf("Message %s marked as %s", id, state)}
}
