package message

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
)

const (
	MinRawSize    = 10
	PreviewLength = 200

	NoSubject   = "No Subject"
	Unknown     = "Unknown"
	Undecodable = "Could not decode message"
	EmptyBody   = "Empty message"
)

var ErrNoContent = errors.New("no valid content")

// DetailHeaders are copied verbatim into Decoded.Headers when present.
var DetailHeaders = []string{"Message-ID", "References", "In-Reply-To", "Return-Path", "X-Priority"}

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeError records a body part that could not be turned into text.
type DecodeError struct {
	Part string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s part failed: %v", e.Part, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Decoded struct {
	From    string
	To      string
	Cc      string
	Bcc     string
	Subject string
	Date    string

	// Body is the first text/plain part, or the Markdown rendering of the
	// HTML part when no plain text exists and a converter is configured.
	Body         string
	HTMLBody     string
	BodyMarkdown string
	Attachments  []Attachment
	Headers      map[string]string
	Unread       bool

	Problems []*DecodeError
}

type HTMLConverter interface {
	HTMLToMarkdown(html string) (string, error)
}

// Decoder turns raw message bytes into a Decoded record. A zero Decoder is
// usable; HTML is then left unconverted.
type Decoder struct {
	HTML HTMLConverter
}

// Decode never fails on malformed content; problems are recorded in
// Decoded.Problems and replaced by placeholders. Only input shorter than
// MinRawSize is rejected.
func (dec *Decoder) Decode(raw []byte, seen bool) (*Decoded, error) {
	if len(raw) < MinRawSize {
		return nil, ErrNoContent
	}

	d := &Decoded{
		From:    Unknown,
		To:      Unknown,
		Date:    Unknown,
		Subject: NoSubject,
		Unread:  !seen,
		Headers: map[string]string{},
	}

	ent, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil && !tolerable(err) {
		d.Body = strings.ToValidUTF8(string(raw), "�")
		d.Problems = append(d.Problems, &DecodeError{Part: "header", Err: err})
		return d, nil
	}

	d.readHeader(ent.Header)

	w := &walker{d: d}
	if mr := ent.MultipartReader(); mr != nil {
		w.walkMultipart(mr, "1")
	} else {
		w.single(ent, err != nil)
	}

	if !w.plainFound && d.HTMLBody != "" && dec.HTML != nil {
		md, err := dec.HTML.HTMLToMarkdown(d.HTMLBody)
		if err != nil {
			d.Problems = append(d.Problems, &DecodeError{Part: "text/html", Err: err})
		} else {
			d.BodyMarkdown = md
			d.Body = md
		}
	}

	return d, nil
}

func (d *Decoded) readHeader(h gomessage.Header) {
	if raw := h.Get("Subject"); raw != "" {
		d.Subject = decodeWords(raw)
	}
	if v := h.Get("From"); v != "" {
		d.From = decodeWords(v)
	}
	if v := h.Get("To"); v != "" {
		d.To = decodeWords(v)
	}
	if v := h.Get("Date"); v != "" {
		d.Date = v
	}
	d.Cc = decodeWords(h.Get("Cc"))
	d.Bcc = decodeWords(h.Get("Bcc"))

	for _, k := range DetailHeaders {
		if v := h.Get(k); v != "" {
			d.Headers[k] = v
		}
	}
}

// decodeWords decodes every encoded word in s, falling back to s itself.
func decodeWords(s string) string {
	if s == "" {
		return ""
	}
	out, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

func tolerable(err error) bool {
	return gomessage.IsUnknownCharset(err) || gomessage.IsUnknownEncoding(err)
}

type walker struct {
	d          *Decoded
	plainFound bool
	htmlFound  bool
}

func (w *walker) walkMultipart(mr gomessage.MultipartReader, path string) {
	for i := 1; ; i++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil && (part == nil || !tolerable(err)) {
			w.d.Problems = append(w.d.Problems, &DecodeError{Part: path, Err: err})
			if !w.plainFound {
				w.d.Body = Undecodable
			}
			return
		}

		partPath := fmt.Sprintf("%s.%d", path, i)
		if sub := part.MultipartReader(); sub != nil {
			w.walkMultipart(sub, partPath)
			continue
		}
		w.leaf(part, err != nil, partPath)
	}
}

func (w *walker) leaf(e *gomessage.Entity, rawCharset bool, path string) {
	if isAttachment(e.Header) {
		if att, ok := readAttachment(e); ok {
			w.d.Attachments = append(w.d.Attachments, att)
		}
		return
	}

	mediaType, _, _ := e.Header.ContentType()
	switch mediaType {
	case "text/plain":
		if w.plainFound {
			return
		}
		w.plainFound = true
		text, err := readText(e, rawCharset)
		if err != nil {
			w.d.Problems = append(w.d.Problems, &DecodeError{Part: path, Err: err})
			w.d.Body = Undecodable
			return
		}
		w.d.Body = text
	case "text/html":
		if w.htmlFound {
			return
		}
		w.htmlFound = true
		text, err := readText(e, rawCharset)
		if err != nil {
			w.d.Problems = append(w.d.Problems, &DecodeError{Part: path, Err: err})
			return
		}
		w.d.HTMLBody = text
	}
}

func (w *walker) single(e *gomessage.Entity, rawCharset bool) {
	text, err := readText(e, rawCharset)
	if err != nil {
		w.d.Problems = append(w.d.Problems, &DecodeError{Part: "1", Err: err})
		w.d.Body = Undecodable
		return
	}
	if strings.TrimSpace(text) == "" {
		w.d.Body = EmptyBody
		return
	}

	w.d.Body = text
	mediaType, _, _ := e.Header.ContentType()
	if mediaType == "text/html" {
		w.d.HTMLBody = text
		return
	}
	w.plainFound = true
}

// readText reads a decoded part. rawCharset means the charset was not
// recognised, so the bytes are only accepted when they are valid UTF-8.
func readText(e *gomessage.Entity, rawCharset bool) (string, error) {
	b, err := io.ReadAll(e.Body)
	if err != nil {
		return "", fmt.Errorf("io.ReadAll failed: %w", err)
	}
	if rawCharset && !utf8.Valid(b) {
		return "", errors.New("unknown charset")
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

func isAttachment(h gomessage.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Content-Disposition")), "attachment")
}

func readAttachment(e *gomessage.Entity) (Attachment, bool) {
	_, dispParams, _ := e.Header.ContentDisposition()
	mediaType, ctParams, _ := e.Header.ContentType()

	filename := dispParams["filename"]
	if filename == "" {
		filename = ctParams["name"]
	}
	if filename == "" {
		return Attachment{}, false
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	size, err := io.Copy(io.Discard, e.Body)
	if err != nil {
		size = 0
	}

	return Attachment{
		Filename:    decodeWords(filename),
		ContentType: mediaType,
		Size:        size,
	}, true
}

// Truncate shortens s to n runes and appends an ellipsis when it was longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
