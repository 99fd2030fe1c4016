package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
)

// MoveMessage moves a single message; any failure makes the result an error.
func (s *Service) MoveMessage(ctx context.Context, src, dst, id string) MoveResult {
	res := s.move(ctx, "move_message", src, dst, []string{id})
	if len(res.FailedEmails) > 0 {
		res.Status = StatusError
		res.Message = fmt.Sprintf("Move of message %s failed: %s", id, res.FailedEmails[0].Error)
	}
	return res
}

// MoveMessages copies each id to dst and marks it deleted in src, then
// expunges once. Ids that fail are reported and do not stop the batch.
func (s *Service) MoveMessages(ctx context.Context, src, dst string, ids []string) MoveResult {
	return s.move(ctx, "move_messages", src, dst, ids)
}

func (s *Service) move(ctx context.Context, op, src, dst string, ids []string) MoveResult {
	src = folderOrDefault(src)
	dst = strings.TrimSpace(dst)
	res := MoveResult{Total: len(ids), FailedEmails: []FailedMove{}}

	if len(ids) == 0 {
		res.Status, res.Message = StatusError, ErrNoIDs.Error()
		return res
	}
	if dst == "" {
		res.Status, res.Message = StatusError, "destination folder is required"
		return res
	}

	target := mailsvc.NormalizeFolder(dst)
	err := s.run(ctx, op, func(ctx context.Context, sess *mailsvc.Session, log *slog.Logger) error {
		st, err := selectFolder(ctx, sess, src)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := moveOne(ctx, st, strings.TrimSpace(id), target); err != nil {
				res.FailedEmails = append(res.FailedEmails, FailedMove{ID: id, Error: err.Error()})
				continue
			}
			res.MovedCount++
		}

		if res.MovedCount > 0 {
			if err := st.Expunge(ctx); err != nil {
				return fmt.Errorf("expunge %s failed: %w", src, err)
			}
		}

		if len(res.FailedEmails) > 0 {
			failure := &PartialBatchFailure{Total: len(ids), Failures: res.FailedEmails}
			if res.MovedCount == 0 {
				return failure
			}
			log.WarnContext(ctx, "batch partially failed", logging.Err(failure))
		}
		return nil
	})

	switch {
	case err == nil:
		res.Status = StatusSuccess
		res.Message = fmt.Sprintf("Moved %d of %d messages from %s to %s", res.MovedCount, res.Total, src, dst)
	case errors.As(err, new(*PartialBatchFailure)):
		res.Status, res.Message = StatusError, fmt.Sprintf("No messages moved: %v", err)
	default:
		res.Status, res.Message = StatusError, err.Error()
	}
	return res
}

func moveOne(ctx context.Context, st mailsvc.Store, id, target string) error {
	if err := st.Copy(ctx, id, target); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	if err := st.StoreFlag(ctx, id, mailsvc.FlagAdd, mailsvc.FlagDeleted); err != nil {
		return fmt.Errorf("mark deleted failed: %w", err)
	}
	return nil
}
