package gmail

import (
	"github.com/emersion/go-imap"
)

// Mailbox is a non-owning handle on one IMAP mailbox. Messages keep a back
// reference to it for context; the mailbox outlives them.
type Mailbox struct {
	name    string
	account *Account
}

// Name returns the mailbox name.
func (b *Mailbox) Name() string { return b.name }

// Count returns the number of messages in the mailbox.
func (b *Mailbox) Count() (uint32, error) {
	status, err := b.account.selectMailbox(b.name, true)
	if err != nil {
		return 0, err
	}
	return status.Messages, nil
}

// Search runs a UID search and returns one unloaded Message handle per
// match. No message data is fetched until a handle is first inspected.
func (b *Mailbox) Search(criteria *imap.SearchCriteria) ([]*Message, error) {
	uids, err := b.account.search(b.name, criteria)
	if err != nil {
		return nil, err
	}

	messages := make([]*Message, 0, len(uids))
	for _, uid := range uids {
		messages = append(messages, newMessage(b.account, b, uid))
	}
	return messages, nil
}

// Mail returns unloaded handles for every message in the mailbox.
func (b *Mailbox) Mail() ([]*Message, error) {
	return b.Search(imap.NewSearchCriteria())
}

// Message returns an unloaded handle for a known UID.
func (b *Mailbox) Message(uid uint32) *Message {
	return newMessage(b.account, b, uid)
}
