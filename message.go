package gmail

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap"
)

// Gmail's system mailboxes. The trash name depends on the account locale,
// so deletion probes which of the two exists.
const (
	MailboxTrash   = "[Gmail]/Trash"
	MailboxBin     = "[Gmail]/Bin"
	MailboxAllMail = "[Gmail]/All Mail"
)

func isTrashMailbox(name string) bool {
	return name == MailboxTrash || name == MailboxBin
}

// Message is one mailbox message. It is constructed empty (uid and mailbox
// only); the first read of any data field fetches and parses the full
// message, after which all fields are populated together. Mutations issue one
// protocol command each and adjust the cached state optimistically.
//
// A Message is not safe for concurrent use without external synchronization.
type Message struct {
	uid     uint32
	mailbox *Mailbox
	session Session

	loaded      bool
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

func newMessage(session Session, mailbox *Mailbox, uid uint32) *Message {
	return &Message{uid: uid, mailbox: mailbox, session: session}
}

// UID returns the protocol-assigned identifier, unique within the mailbox.
func (m *Message) UID() uint32 { return m.uid }

// Mailbox returns the owning mailbox handle.
func (m *Message) Mailbox() *Mailbox { return m.mailbox }

func (m *Message) String() string {
	return fmt.Sprintf("<Message %d>", m.uid)
}

// ensureLoaded fetches and parses the message once. A loaded message is
// never refetched, even when a field is legitimately empty.
func (m *Message) ensureLoaded() error {
	if m.loaded {
		return nil
	}

	header, body, err := m.session.FetchRaw(m.uid, m.mailbox.Name())
	if err != nil {
		return err
	}

	d, err := parseRaw(header, body)
	if err != nil {
		return err
	}

	m.headers = d.headers
	m.subject = d.subject
	m.body = d.body
	m.html = d.html
	m.to = d.to
	m.from = d.from
	m.cc = d.cc
	m.deliveredTo = d.deliveredTo
	m.sentAt = d.sentAt
	m.flags = d.flags
	m.labels = d.labels
	m.threadID = d.threadID
	m.messageID = d.messageID
	m.attachments = d.attachments
	m.loaded = true
	return nil
}

// Headers returns the raw header map, names as received, last occurrence
// winning for duplicates.
func (m *Message) Headers() (map[string]string, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	return m.headers, nil
}

// Subject returns the decoded subject line.
func (m *Message) Subject() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.subject, nil
}

// Body returns the last text/plain part found, or the whole payload of a
// non-multipart text message.
func (m *Message) Body() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.body, nil
}

// HTML returns the last text/html part found; empty when none exists.
func (m *Message) HTML() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.html, nil
}

// To returns the raw To header value.
func (m *Message) To() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.to, nil
}

// From returns the raw From header value.
func (m *Message) From() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.from, nil
}

// FromAddress returns the bare address portion of the From header when it
// carries an angle-bracketed form, otherwise the raw value.
func (m *Message) FromAddress() (string, error) {
	from, err := m.From()
	if err != nil {
		return "", err
	}
	if strings.Contains(from, "<") && strings.Contains(from, ">") {
		parts := strings.Split(from, "<")
		return strings.ReplaceAll(parts[len(parts)-1], ">", ""), nil
	}
	return from, nil
}

// Cc returns the raw Cc header value.
func (m *Message) Cc() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.cc, nil
}

// DeliveredTo returns the raw Delivered-To header value.
func (m *Message) DeliveredTo() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.deliveredTo, nil
}

// SentAt returns the timestamp parsed from the Date header.
func (m *Message) SentAt() (time.Time, error) {
	if err := m.ensureLoaded(); err != nil {
		return time.Time{}, err
	}
	return m.sentAt, nil
}

// Date is a second name for SentAt.
func (m *Message) Date() (time.Time, error) { return m.SentAt() }

// Flags returns the protocol flag tokens set on the message.
func (m *Message) Flags() ([]string, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	return m.flags, nil
}

// Labels returns the Gmail labels attached to the message.
func (m *Message) Labels() ([]string, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	return m.labels, nil
}

// ThreadID returns the Gmail thread identifier; empty when the server did
// not report one.
func (m *Message) ThreadID() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.threadID, nil
}

// MessageID returns the Gmail message identifier; empty when the server did
// not report one.
func (m *Message) MessageID() (string, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", err
	}
	return m.messageID, nil
}

// Attachments returns the message's attachments in part order.
func (m *Message) Attachments() ([]Attachment, error) {
	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	return m.attachments, nil
}

// IsRead reports whether the message carries the \Seen flag.
func (m *Message) IsRead() (bool, error) { return m.hasFlag(imap.SeenFlag) }

// IsStarred reports whether the message carries the \Flagged flag.
func (m *Message) IsStarred() (bool, error) { return m.hasFlag(imap.FlaggedFlag) }

// IsDraft reports whether the message carries the \Draft flag.
func (m *Message) IsDraft() (bool, error) { return m.hasFlag(imap.DraftFlag) }

// IsDeleted reports whether the message carries the \Deleted flag.
func (m *Message) IsDeleted() (bool, error) { return m.hasFlag(imap.DeletedFlag) }

// HasLabel reports whether label is in the message's label set.
func (m *Message) HasLabel(label string) (bool, error) {
	if err := m.ensureLoaded(); err != nil {
		return false, err
	}
	return contains(m.labels, label), nil
}

func (m *Message) hasFlag(flag string) (bool, error) {
	if err := m.ensureLoaded(); err != nil {
		return false, err
	}
	return contains(m.flags, flag), nil
}

// Read marks the message as seen.
func (m *Message) Read() error { return m.addFlag(imap.SeenFlag) }

// Unread removes the seen flag.
func (m *Message) Unread() error { return m.removeFlag(imap.SeenFlag) }

// MarkAsRead is a second name for Read.
func (m *Message) MarkAsRead() error { return m.Read() }

// MarkAsUnread is a second name for Unread.
func (m *Message) MarkAsUnread() error { return m.Unread() }

// Star adds the \Flagged flag.
func (m *Message) Star() error { return m.addFlag(imap.FlaggedFlag) }

// Unstar removes the \Flagged flag.
func (m *Message) Unstar() error { return m.removeFlag(imap.FlaggedFlag) }

// AddLabel attaches a Gmail label. The remote command is issued
// unconditionally; the local set is only extended when the label is not
// already present.
func (m *Message) AddLabel(label string) error {
	err := m.session.StoreLabels(m.uid, m.mailbox.Name(), StoreAdd, label)
	if err != nil {
		return err
	}
	if m.loaded && !contains(m.labels, label) {
		m.labels = append(m.labels, label)
	}
	return nil
}

// RemoveLabel detaches a Gmail label. The remote command is issued
// unconditionally.
func (m *Message) RemoveLabel(label string) error {
	err := m.session.StoreLabels(m.uid, m.mailbox.Name(), StoreRemove, label)
	if err != nil {
		return err
	}
	if m.loaded {
		m.labels = remove(m.labels, label)
	}
	return nil
}

// Delete adds the \Deleted flag and, unless the message already sits in a
// trash mailbox, moves it to the account's trash.
func (m *Message) Delete() error {
	if err := m.addFlag(imap.DeletedFlag); err != nil {
		return err
	}
	if isTrashMailbox(m.mailbox.Name()) {
		return nil
	}

	trash, err := m.trashMailbox()
	if err != nil {
		return err
	}
	return m.MoveTo(trash)
}

// MoveTo copies the message to the named mailbox and, unless the target is a
// trash mailbox, deletes the original. The two steps are not transactional:
// a failure in between can leave the message duplicated.
func (m *Message) MoveTo(name string) error {
	if err := m.session.Copy(m.uid, name, m.mailbox.Name()); err != nil {
		return err
	}
	if isTrashMailbox(name) {
		return nil
	}
	return m.Delete()
}

// Archive moves the message to All Mail.
func (m *Message) Archive() error {
	return m.MoveTo(MailboxAllMail)
}

// trashMailbox resolves which trash name the account uses.
func (m *Message) trashMailbox() (string, error) {
	labels, err := m.session.Labels()
	if err != nil {
		return "", err
	}
	if contains(labels, MailboxTrash) {
		return MailboxTrash, nil
	}
	return MailboxBin, nil
}

// addFlag issues the remote store first; the local set is only touched once
// it succeeds, and only when the message is loaded. A failure leaves local
// state unchanged.
func (m *Message) addFlag(flag string) error {
	err := m.session.StoreFlags(m.uid, m.mailbox.Name(), StoreAdd, flag)
	if err != nil {
		return err
	}
	if m.loaded && !contains(m.flags, flag) {
		m.flags = append(m.flags, flag)
	}
	return nil
}

func (m *Message) removeFlag(flag string) error {
	err := m.session.StoreFlags(m.uid, m.mailbox.Name(), StoreRemove, flag)
	if err != nil {
		return err
	}
	if m.loaded {
		m.flags = remove(m.flags, flag)
	}
	return nil
}

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// remove filters into a fresh slice; slices previously handed out by Flags
// or Labels keep their contents.
func remove(set []string, value string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
