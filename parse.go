package gmail

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// The Gmail extension markers have no structured header field; they only
// appear inside the raw FETCH reply, so pattern matching over the header
// block is the way to get at them.
var (
	flagsPattern  = regexp.MustCompile(`FLAGS \(([^)]*)\)`)
	labelsPattern = regexp.MustCompile(`X-GM-LABELS \(([^)]+)\)`)
	threadPattern = regexp.MustCompile(`X-GM-THRID (\d+)`)
	msgidPattern  = regexp.MustCompile(`X-GM-MSGID (\d+)`)
)

// parsed holds the result of one parse pass over a FETCH reply. All Message
// fields populate together from it.
type parsed struct {
	headers     map[string]string
	subject     string
	body        string
	html        string
	to          string
	from        string
	cc          string
	deliveredTo string
	sentAt      time.Time
	flags       []string
	labels      []string
	threadID    string
	messageID   string
	attachments []Attachment
}

// parseRaw turns one FETCH reply entry, split into its header block and raw
// RFC 822 body, into the structured message data.
func parseRaw(header string, body []byte) (*parsed, error) {
	mr, err := mail.CreateReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Reason: "reading MIME structure", Err: err}
	}
	defer mr.Close()

	d := &parsed{
		headers: make(map[string]string),
		flags:   parseFlags(header),
		labels:  parseLabels(header),
	}

	// Duplicated header names resolve last-write-wins: each occurrence
	// overwrites the previous one as the fields iterate in message order.
	fields := mr.Header.Fields()
	for fields.Next() {
		d.headers[fields.Key()] = fields.Value()
	}

	d.to = mr.Header.Get("To")
	d.from = mr.Header.Get("From")
	d.cc = mr.Header.Get("Cc")
	d.deliveredTo = mr.Header.Get("Delivered-To")

	// Encoded-word subjects decode to one concatenated string; a decode
	// failure falls back to the raw value.
	d.subject, _ = mr.Header.Subject()

	if mr.Header.Get("Date") == "" {
		return nil, &ParseError{Reason: "missing Date header"}
	}
	sentAt, err := mr.Header.Date()
	if err != nil {
		return nil, &ParseError{Reason: "parsing Date header", Err: err}
	}
	d.sentAt = sentAt

	contentType, _, _ := mr.Header.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		if err := walkParts(mr, d); err != nil {
			return nil, err
		}
	case strings.HasPrefix(contentType, "text/"):
		part, err := mr.NextPart()
		if err != nil && err != io.EOF {
			return nil, &ParseError{Reason: "reading message body", Err: err}
		}
		if part != nil {
			payload, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, &ParseError{Reason: "reading message body", Err: err}
			}
			d.body = string(payload)
		}
	}

	if m := threadPattern.FindStringSubmatch(header); m != nil {
		d.threadID = m[1]
	}
	if m := msgidPattern.FindStringSubmatch(header); m != nil {
		d.messageID = m[1]
	}

	return d, nil
}

// walkParts visits every part of a multipart message. Later text parts
// overwrite earlier ones, so the last text/plain and text/html encountered
// win. Parts with an attachment disposition become Attachments; zero-size
// payloads are dropped.
func walkParts(mr *mail.Reader, d *parsed) error {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ParseError{Reason: "walking MIME parts", Err: err}
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			payload, err := io.ReadAll(part.Body)
			if err != nil {
				return &ParseError{Reason: "reading MIME part", Err: err}
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				d.body = string(payload)
			case strings.HasPrefix(contentType, "text/html"):
				d.html = string(payload)
			}

		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			payload, err := io.ReadAll(part.Body)
			if err != nil {
				return &ParseError{Reason: "reading attachment part", Err: err}
			}
			a := Attachment{Name: name, Payload: payload}
			if a.Size() > 0 {
				d.attachments = append(d.attachments, a)
			}
		}
	}
	return nil
}

// parseFlags extracts the bracketed flag token list from the header block.
func parseFlags(header string) []string {
	m := flagsPattern.FindStringSubmatch(header)
	if m == nil {
		return nil
	}
	return strings.Fields(m[1])
}

// parseLabels extracts the X-GM-LABELS marker from the header block. Tokens
// are split on spaces with surrounding quotes stripped; a missing marker
// yields no labels, not an error.
func parseLabels(header string) []string {
	m := labelsPattern.FindStringSubmatch(header)
	if m == nil {
		return nil
	}
	tokens := strings.Split(m[1], " ")
	labels := make([]string, 0, len(tokens))
	for _, token := range tokens {
		labels = append(labels, strings.ReplaceAll(token, `"`, ""))
	}
	return labels
}
