package gmail

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/nhle/gmail/internal/store"
)

// Gmail extension FETCH data items. The typed fetch surface has no notion of
// these; they ride along as extension items in the same FETCH command.
const (
	fetchItemThreadID  = imap.FetchItem("X-GM-THRID")
	fetchItemMessageID = imap.FetchItem("X-GM-MSGID")
	fetchItemLabels    = imap.FetchItem("X-GM-LABELS")
)

// Account is an authenticated IMAP connection to one Gmail account. It
// implements Session. Commands are executed synchronously on a single
// connection; callers sharing an Account across goroutines must serialize.
type Account struct {
	client   *client.Client
	username string
	cache    *store.MessageStore
}

// Dial connects to addr over TLS and authenticates.
func Dial(addr, username, password string) (*Account, error) {
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := c.Login(username, password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("authenticating %s: %w", username, err)
	}

	return &Account{client: c, username: username}, nil
}

// DialConfig connects using a loaded configuration. An empty password is
// resolved from the system keyring; a configured cache path attaches a
// raw-message cache.
func DialConfig(cfg *Config) (*Account, error) {
	password := cfg.Password
	if password == "" {
		p, err := resolvePassword(cfg.Username)
		if err != nil {
			return nil, err
		}
		password = p
	}

	a, err := Dial(cfg.IMAPAddr(), cfg.Username, password)
	if err != nil {
		return nil, err
	}

	if cfg.CachePath != "" {
		s, err := store.Open(cfg.CachePath)
		if err != nil {
			_ = a.Logout()
			return nil, err
		}
		a.cache = s
	}

	return a, nil
}

// Logout closes the connection and any attached cache.
func (a *Account) Logout() error {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	return a.client.Logout()
}

// Username returns the authenticated account name.
func (a *Account) Username() string { return a.username }

// UseCache attaches a raw-message cache consulted before the network.
func (a *Account) UseCache(s *store.MessageStore) { a.cache = s }

// Mailbox returns a handle on the named mailbox.
func (a *Account) Mailbox(name string) *Mailbox {
	return &Mailbox{name: name, account: a}
}

// Inbox returns a handle on INBOX.
func (a *Account) Inbox() *Mailbox { return a.Mailbox("INBOX") }

// Trash returns a handle on whichever trash mailbox the account uses.
func (a *Account) Trash() (*Mailbox, error) {
	labels, err := a.Labels()
	if err != nil {
		return nil, err
	}
	if contains(labels, MailboxTrash) {
		return a.Mailbox(MailboxTrash), nil
	}
	return a.Mailbox(MailboxBin), nil
}

// Labels lists every mailbox/label name on the account.
func (a *Account) Labels() ([]string, error) {
	ch := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- a.client.List("", "*", ch)
	}()

	var names []string
	for info := range ch {
		names = append(names, info.Name)
	}

	if err := <-done; err != nil {
		return nil, &ProtocolError{Op: "list", Err: err}
	}
	return names, nil
}

// FetchRaw retrieves the full body plus flags and Gmail extension items for
// one message and reassembles the header block the parser consumes. A cache
// hit skips the network entirely.
func (a *Account) FetchRaw(uid uint32, mailbox string) (string, []byte, error) {
	if a.cache != nil {
		header, body, ok, err := a.cache.Get(mailbox, uid)
		if err != nil {
			return "", nil, err
		}
		if ok {
			return header, body, nil
		}
	}

	if _, err := a.selectMailbox(mailbox, true); err != nil {
		return "", nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{
		imap.FetchFlags,
		imap.FetchUid,
		section.FetchItem(),
		fetchItemThreadID,
		fetchItemMessageID,
		fetchItemLabels,
	}

	ch := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- a.client.UidFetch(seqSet, items, ch)
	}()

	var msg *imap.Message
	for m := range ch {
		if msg == nil {
			msg = m
		}
	}

	if err := <-done; err != nil {
		return "", nil, &ProtocolError{Op: "uid fetch", Err: err}
	}
	if msg == nil {
		return "", nil, &NotFoundError{UID: uid, Mailbox: mailbox}
	}

	var body []byte
	if r := msg.GetBody(section); r != nil {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", nil, &ProtocolError{Op: "reading body section", Err: err}
		}
		body = b
	}

	header := formatHeaderBlock(msg)

	if a.cache != nil {
		if err := a.cache.Put(mailbox, uid, header, body); err != nil {
			return "", nil, err
		}
	}

	return header, body, nil
}

// StoreFlags adds or removes one flag on one message.
func (a *Account) StoreFlags(uid uint32, mailbox string, op StoreOp, flag string) error {
	if _, err := a.selectMailbox(mailbox, false); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if err := a.client.UidStore(seqSet, flagsStoreItem(op), []interface{}{flag}, nil); err != nil {
		return &ProtocolError{Op: "uid store flags", Err: err}
	}
	return nil
}

// StoreLabels adds or removes one Gmail label on one message.
func (a *Account) StoreLabels(uid uint32, mailbox string, op StoreOp, label string) error {
	if _, err := a.selectMailbox(mailbox, false); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	verb := "+"
	if op == StoreRemove {
		verb = "-"
	}
	item := imap.StoreItem(verb + "X-GM-LABELS.SILENT")

	if err := a.client.UidStore(seqSet, item, []interface{}{label}, nil); err != nil {
		return &ProtocolError{Op: "uid store labels", Err: err}
	}
	return nil
}

// Copy copies one message from the source mailbox to the target mailbox.
func (a *Account) Copy(uid uint32, target, source string) error {
	if _, err := a.selectMailbox(source, false); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if err := a.client.UidCopy(seqSet, target); err != nil {
		return &ProtocolError{Op: "uid copy", Err: err}
	}
	return nil
}

// flagsStoreItem maps a StoreOp to the silent flag-store item. AddFlags and
// RemoveFlags are untyped constants, so the variable needs an explicit
// FlagsOp type before FormatFlagsOp accepts it.
func flagsStoreItem(op StoreOp) imap.StoreItem {
	flagsOp := imap.FlagsOp(imap.AddFlags)
	if op == StoreRemove {
		flagsOp = imap.RemoveFlags
	}
	return imap.FormatFlagsOp(flagsOp, true)
}

func (a *Account) selectMailbox(name string, readOnly bool) (*imap.MailboxStatus, error) {
	status, err := a.client.Select(name, readOnly)
	if err != nil {
		return nil, &ProtocolError{Op: fmt.Sprintf("select %s", name), Err: err}
	}
	return status, nil
}

func (a *Account) search(mailbox string, criteria *imap.SearchCriteria) ([]uint32, error) {
	if _, err := a.selectMailbox(mailbox, true); err != nil {
		return nil, err
	}

	uids, err := a.client.UidSearch(criteria)
	if err != nil {
		return nil, &ProtocolError{Op: "uid search", Err: err}
	}
	return uids, nil
}

// formatHeaderBlock reassembles a FETCH reply header block in its wire shape
// so the parser's pattern matching sees the same text an untyped client
// would.
func formatHeaderBlock(msg *imap.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(UID %d FLAGS (%s)", msg.Uid, strings.Join(msg.Flags, " "))

	if v, ok := msg.Items[fetchItemThreadID]; ok {
		fmt.Fprintf(&b, " X-GM-THRID %s", formatItem(v))
	}
	if v, ok := msg.Items[fetchItemMessageID]; ok {
		fmt.Fprintf(&b, " X-GM-MSGID %s", formatItem(v))
	}
	if v, ok := msg.Items[fetchItemLabels]; ok {
		if list, isList := v.([]interface{}); isList {
			quoted := make([]string, 0, len(list))
			for _, item := range list {
				quoted = append(quoted, `"`+formatItem(item)+`"`)
			}
			fmt.Fprintf(&b, " X-GM-LABELS (%s)", strings.Join(quoted, " "))
		}
	}

	b.WriteString(")")
	return b.String()
}

func formatItem(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case imap.RawString:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}
