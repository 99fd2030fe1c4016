package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
)

func (s *Service) ListFolders(ctx context.Context) FoldersResult {
	folders := []string{}
	err := s.run(ctx, "list_folders", func(ctx context.Context, sess *mailsvc.Session, _ *slog.Logger) error {
		st, err := sess.Store(ctx)
		if err != nil {
			return err
		}

		lines, err := st.List(ctx)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if name := FolderFromListing(line); name != "" {
				folders = append(folders, name)
			}
		}
		return nil
	})
	if err != nil {
		return FoldersResult{
			Status:  StatusError,
			Message: err.Error(),
			Folders: []string{"Error: " + err.Error()},
		}
	}

	return FoldersResult{Status: StatusSuccess, Folders: folders}
}

// FolderFromListing extracts the display name from a raw listing line of the
// form `(attrs) "delim" name`. Blank lines yield "".
func FolderFromListing(line string) string {
	rest := strings.TrimSpace(line)
	if rest == "" {
		return ""
	}

	if strings.HasPrefix(rest, "(") {
		if i := strings.IndexByte(rest, ')'); i >= 0 {
			rest = strings.TrimSpace(rest[i+1:])
		}
	}

	switch {
	case strings.HasPrefix(rest, "NIL "):
		rest = rest[len("NIL "):]
	case strings.HasPrefix(rest, `"\`) && len(rest) >= 4:
		rest = rest[4:]
	case strings.HasPrefix(rest, `"`) && len(rest) >= 3:
		rest = rest[3:]
	}

	return mailsvc.UnquoteFolder(strings.TrimSpace(rest))
}

// CreateFolder creates name, under parent when given, and subscribes to it.
// Subscription failures are only logged.
func (s *Service) CreateFolder(ctx context.Context, name, parent string) CreateFolderResult {
	name = strings.TrimSpace(name)
	if name == "" {
		return CreateFolderResult{Status: StatusError, Message: "folder name is required"}
	}

	path := mailsvc.JoinFolder(strings.TrimSpace(parent), name, s.cfg.Separator)
	folder := mailsvc.NormalizeFolder(path)

	err := s.run(ctx, "create_folder", func(ctx context.Context, sess *mailsvc.Session, log *slog.Logger) error {
		st, err := sess.Store(ctx)
		if err != nil {
			return err
		}
		if err := st.Create(ctx, folder); err != nil {
			return fmt.Errorf("create folder %s failed: %w", path, err)
		}
		if err := st.Subscribe(ctx, folder); err != nil {
			log.WarnContext(ctx, "subscribe failed", logging.Folder(path), logging.Err(err))
		}
		return nil
	})
	if err != nil {
		return CreateFolderResult{Status: StatusError, Message: err.Error(), Folder: path}
	}

	return CreateFolderResult{Status: StatusSuccess, Message: "Folder " + path + " created", Folder: path}
}
