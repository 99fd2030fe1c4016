package message

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// MaxAttachmentSize bounds the decoded size of a single outbound attachment.
const MaxAttachmentSize = 25 << 20

type AttachmentInput struct {
	Content     string `json:"content,omitempty" jsonschema:"Base64 encoded attachment content"`
	Path        string `json:"path,omitempty" jsonschema:"Local file path to attach instead of content"`
	Filename    string `json:"filename,omitempty" jsonschema:"File name shown to the recipient"`
	ContentType string `json:"content_type,omitempty" jsonschema:"MIME type, guessed from the file name when empty"`
}

type Outgoing struct {
	From        string
	To          []string
	Cc          string
	Subject     string
	Body        string
	Attachments []AttachmentInput
}

type Composed struct {
	Raw        []byte
	From       string
	Recipients []string
	Attached   int
	Warnings   []string
}

type Composer struct {
	MaxAttachmentSize int64
	Now               func() time.Time
}

func (c *Composer) Compose(m Outgoing) (*Composed, error) {
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.From, err)
	}

	to, err := parseAddresses(m.To)
	if err != nil {
		return nil, err
	}
	cc, err := parseAddresses(SplitAddresses(m.Cc))
	if err != nil {
		return nil, err
	}
	if len(to) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	var h mail.Header
	h.SetDate(c.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	if len(cc) > 0 {
		h.SetAddressList("Cc", cc)
	}
	h.SetSubject(m.Subject)
	h.Set("MIME-Version", "1.0")
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("GenerateMessageID failed: %w", err)
	}

	out := &Composed{From: from.Address}
	for _, a := range append(to, cc...) {
		out.Recipients = append(out.Recipients, a.Address)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail.CreateWriter failed: %w", err)
	}

	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	th.Set("Content-Transfer-Encoding", "quoted-printable")
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return nil, fmt.Errorf("CreateSingleInline failed: %w", err)
	}
	if _, err := tw.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("write body failed: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close body failed: %w", err)
	}

	for _, in := range m.Attachments {
		name, data, warn := c.load(in)
		if warn != "" {
			out.Warnings = append(out.Warnings, warn)
			continue
		}

		var ah mail.AttachmentHeader
		ah.Set("Content-Type", contentType(in.ContentType, name))
		ah.Set("Content-Transfer-Encoding", "base64")
		ah.SetFilename(name)

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("CreateAttachment failed: %w", err)
		}
		if _, err := aw.Write(data); err != nil {
			return nil, fmt.Errorf("write attachment failed: %w", err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("close attachment failed: %w", err)
		}
		out.Attached++
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message failed: %w", err)
	}

	out.Raw = buf.Bytes()
	return out, nil
}

// load resolves an attachment. A non-empty warning means it must be skipped.
func (c *Composer) load(in AttachmentInput) (string, []byte, string) {
	limit := c.limit()

	if in.Path != "" {
		name := in.Filename
		if name == "" {
			name = filepath.Base(in.Path)
		}

		info, err := os.Stat(in.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Sprintf("attachment %s skipped: file not found", name)
		}
		if err != nil {
			return "", nil, fmt.Sprintf("attachment %s skipped: %v", name, err)
		}
		if info.Size() > limit {
			return "", nil, fmt.Sprintf("attachment %s skipped: %d bytes exceeds limit of %d", name, info.Size(), limit)
		}

		data, err := os.ReadFile(in.Path)
		if err != nil {
			return "", nil, fmt.Sprintf("attachment %s skipped: %v", name, err)
		}
		return name, data, ""
	}

	name := in.Filename
	if name == "" {
		name = "attachment"
	}

	data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(in.Content), ""))
	if err != nil {
		return "", nil, fmt.Sprintf("attachment %s skipped: invalid base64 content", name)
	}
	if int64(len(data)) > limit {
		return "", nil, fmt.Sprintf("attachment %s skipped: %d bytes exceeds limit of %d", name, len(data), limit)
	}
	return name, data, ""
}

func (c *Composer) limit() int64 {
	if c.MaxAttachmentSize <= 0 {
		return MaxAttachmentSize
	}
	return c.MaxAttachmentSize
}

func (c *Composer) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func contentType(given, filename string) string {
	if given != "" {
		return given
	}
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// SplitAddresses splits a comma separated list, trimming entries and dropping empties.
func SplitAddresses(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAddresses(list []string) ([]*mail.Address, error) {
	out := make([]*mail.Address, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		a, err := mail.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", s, err)
		}
		out = append(out, a)
	}
	return out, nil
}
