package gmail

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const emptyHeaderBlock = `(UID 1 FLAGS ())`

func composeAndParse(t *testing.T, d Draft) *parsed {
	t.Helper()

	raw, err := Compose(d)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	p, err := parseRaw(emptyHeaderBlock, raw)
	if err != nil {
		t.Fatalf("parseRaw() on composed message: %v", err)
	}
	return p
}

func TestComposePlainSinglePart(t *testing.T) {
	raw, err := Compose(Draft{
		Subject: "Lunch",
		To:      "bob@example.com",
		From:    "alice@example.com",
		Text:    "Noon at the usual place?",
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if bytes.Contains(raw, []byte("multipart")) {
		t.Error("plain draft without attachments produced a multipart message")
	}

	p, err := parseRaw(emptyHeaderBlock, raw)
	if err != nil {
		t.Fatalf("parseRaw() on composed message: %v", err)
	}
	if p.subject != "Lunch" {
		t.Errorf("subject = %q", p.subject)
	}
	if p.to != "bob@example.com" {
		t.Errorf("to = %q", p.to)
	}
	if p.from != "alice@example.com" {
		t.Errorf("from = %q", p.from)
	}
	if p.body != "Noon at the usual place?" {
		t.Errorf("body = %q", p.body)
	}
	if p.headers["Reply-To"] != "alice@example.com" {
		t.Errorf("Reply-To = %q, want sender default", p.headers["Reply-To"])
	}
	if p.headers["Message-Id"] == "" {
		t.Error("Message-Id was not generated")
	}
}

func TestComposeReplyToOverride(t *testing.T) {
	p := composeAndParse(t, Draft{
		Subject: "s",
		To:      "b@example.com",
		From:    "a@example.com",
		ReplyTo: "list@example.com",
		Text:    "body",
	})
	if p.headers["Reply-To"] != "list@example.com" {
		t.Errorf("Reply-To = %q, want explicit override", p.headers["Reply-To"])
	}
}

func TestComposeHTML(t *testing.T) {
	p := composeAndParse(t, Draft{
		Subject: "s",
		To:      "b@example.com",
		Text:    "<p>rich</p>",
		HTML:    true,
	})
	if p.html != "<p>rich</p>" {
		t.Errorf("html = %q", p.html)
	}
	if p.body != "" {
		t.Errorf("body = %q, want empty for HTML-only draft", p.body)
	}
}

func TestComposeAttachmentsRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 2000)
	p := composeAndParse(t, Draft{
		Subject: "files",
		To:      "b@example.com",
		Text:    "see attached",
		Attachments: []DraftAttachment{
			{Name: "report.bin", ContentType: "application/octet-stream", Payload: payload},
			{Name: "notes.txt", ContentType: "text/plain", Payload: bytes.Repeat([]byte("x"), 1500)},
		},
	})

	if p.body != "see attached" {
		t.Errorf("body = %q", p.body)
	}
	if len(p.attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(p.attachments))
	}
	if p.attachments[0].Name != "report.bin" {
		t.Errorf("attachment name = %q", p.attachments[0].Name)
	}
	if !bytes.Equal(p.attachments[0].Payload, payload) {
		t.Errorf("attachment payload mismatch: %d bytes", len(p.attachments[0].Payload))
	}
	if p.attachments[1].Name != "notes.txt" {
		t.Errorf("attachment name = %q", p.attachments[1].Name)
	}
}

func TestComposeHTMLWithAttachments(t *testing.T) {
	p := composeAndParse(t, Draft{
		Subject: "s",
		To:      "b@example.com",
		Text:    "<b>hi</b>",
		HTML:    true,
		Attachments: []DraftAttachment{
			{Name: "a.bin", Payload: bytes.Repeat([]byte{1}, 1000)},
		},
	})
	if p.html != "<b>hi</b>" {
		t.Errorf("html = %q", p.html)
	}
	if len(p.attachments) != 1 || p.attachments[0].Name != "a.bin" {
		t.Errorf("attachments = %v", p.attachments)
	}
}

func TestComposePresetHeaders(t *testing.T) {
	p := composeAndParse(t, Draft{
		Subject: "s",
		To:      "b@example.com",
		Text:    "body",
		Headers: map[string]string{
			"Date":       "Tue, 05 Aug 2025 10:30:00 +0200",
			"Message-Id": "<preset@example.com>",
			"X-Custom":   "kept",
		},
	})

	want := time.Date(2025, 8, 5, 10, 30, 0, 0, time.FixedZone("", 2*60*60))
	if !p.sentAt.Equal(want) {
		t.Errorf("sentAt = %v, want preset Date %v", p.sentAt, want)
	}
	if p.headers["Message-Id"] != "<preset@example.com>" {
		t.Errorf("Message-Id = %q, want preset value kept", p.headers["Message-Id"])
	}
	if p.headers["X-Custom"] != "kept" {
		t.Errorf("X-Custom = %q", p.headers["X-Custom"])
	}
}

func TestGenerateMessageID(t *testing.T) {
	id := generateMessageID("alice@example.com")
	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@example.com>") {
		t.Errorf("generateMessageID() = %q, want <uuid@example.com>", id)
	}

	id = generateMessageID("")
	if !strings.HasSuffix(id, "@localhost>") {
		t.Errorf("generateMessageID() = %q, want localhost fallback", id)
	}
}

func TestAttachmentFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	att, err := AttachmentFromFile(path)
	if err != nil {
		t.Fatalf("AttachmentFromFile() error = %v", err)
	}
	if att.Name != "notes.txt" {
		t.Errorf("name = %q", att.Name)
	}
	if !strings.HasPrefix(att.ContentType, "text/plain") {
		t.Errorf("content type = %q, want text/plain", att.ContentType)
	}
	if string(att.Payload) != "hello" {
		t.Errorf("payload = %q", att.Payload)
	}

	unknown := filepath.Join(dir, "blob.zzz9")
	if err := os.WriteFile(unknown, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	att, err = AttachmentFromFile(unknown)
	if err != nil {
		t.Fatalf("AttachmentFromFile() error = %v", err)
	}
	if att.ContentType != "application/octet-stream" {
		t.Errorf("content type = %q, want octet-stream fallback", att.ContentType)
	}

	if _, err := AttachmentFromFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
