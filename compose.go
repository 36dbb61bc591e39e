package gmail

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Draft describes an outbound message. Compose turns it into RFC 822 bytes;
// sending is a separate step (see Transport).
type Draft struct {
	Subject string
	To      string
	Cc      string
	Bcc     string

	// From is the sender; optional. When set and ReplyTo is empty, Reply-To
	// defaults to it.
	From    string
	ReplyTo string

	// Text is the body. With HTML set it is written as the text/html
	// alternative; no parallel plain-text alternative is generated.
	Text string
	HTML bool

	Attachments []DraftAttachment

	// Headers presets extra header fields. Date and Message-ID are only
	// generated when not present here.
	Headers map[string]string
}

// DraftAttachment is one outbound attachment, either built in memory or
// loaded from disk with AttachmentFromFile.
type DraftAttachment struct {
	Name        string
	ContentType string
	Payload     []byte
}

// AttachmentFromFile loads path into a DraftAttachment. The media type is
// guessed from the file extension, defaulting to application/octet-stream,
// and the basename becomes the attachment name.
func AttachmentFromFile(path string) (DraftAttachment, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return DraftAttachment{}, fmt.Errorf("reading attachment %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return DraftAttachment{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

// Compose builds the MIME structure for a draft: a single plain-text part
// when no HTML and no attachments are requested, otherwise a multipart
// message holding the text part and one part per attachment.
func Compose(d Draft) ([]byte, error) {
	var h mail.Header
	for key, value := range d.Headers {
		h.Set(key, value)
	}

	h.Set("To", d.To)
	if d.Cc != "" {
		h.Set("Cc", d.Cc)
	}
	if d.Bcc != "" {
		h.Set("Bcc", d.Bcc)
	}
	if d.From != "" {
		h.Set("From", d.From)
		if d.ReplyTo == "" {
			h.Set("Reply-To", d.From)
		}
	}
	if d.ReplyTo != "" {
		h.Set("Reply-To", d.ReplyTo)
	}
	if !h.Has("Date") {
		h.SetDate(time.Now())
	}
	if !h.Has("Message-Id") {
		h.Set("Message-Id", generateMessageID(d.From))
	}
	h.SetSubject(d.Subject)

	var buf bytes.Buffer

	if !d.HTML && len(d.Attachments) == 0 {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("creating message writer: %w", err)
		}
		if _, err := io.WriteString(w, d.Text); err != nil {
			return nil, fmt.Errorf("writing body: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("closing message writer: %w", err)
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	if d.HTML {
		iw, err := mw.CreateInline()
		if err != nil {
			return nil, fmt.Errorf("creating alternative wrapper: %w", err)
		}
		var ph mail.InlineHeader
		ph.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("creating html part: %w", err)
		}
		if _, err := io.WriteString(pw, d.Text); err != nil {
			return nil, fmt.Errorf("writing html part: %w", err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("closing html part: %w", err)
		}
		if err := iw.Close(); err != nil {
			return nil, fmt.Errorf("closing alternative wrapper: %w", err)
		}
	} else {
		var ph mail.InlineHeader
		ph.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		pw, err := mw.CreateSingleInline(ph)
		if err != nil {
			return nil, fmt.Errorf("creating text part: %w", err)
		}
		if _, err := io.WriteString(pw, d.Text); err != nil {
			return nil, fmt.Errorf("writing text part: %w", err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("closing text part: %w", err)
		}
	}

	for _, att := range d.Attachments {
		var ah mail.AttachmentHeader
		ah.SetFilename(att.Name)
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ah.SetContentType(contentType, nil)
		ah.Set("Content-Transfer-Encoding", "base64")

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("creating attachment %q: %w", att.Name, err)
		}
		if _, err := aw.Write(att.Payload); err != nil {
			return nil, fmt.Errorf("writing attachment %q: %w", att.Name, err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("closing attachment %q: %w", att.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// generateMessageID builds a Message-ID under the sender's domain, falling
// back to localhost when no sender is given.
func generateMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at != -1 {
		domain = strings.Trim(from[at+1:], "<> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
