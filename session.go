package gmail

// StoreOp selects whether a STORE command adds or removes an item.
type StoreOp int

const (
	StoreAdd StoreOp = iota
	StoreRemove
)

// Session is the authenticated protocol capability a Message mutates remote
// state through. Account implements it over IMAP; tests may substitute their
// own. Every call is one blocking round trip; serialization of concurrent
// callers is the implementation's obligation.
type Session interface {
	// FetchRaw retrieves the raw FETCH reply for one message: the header
	// block (flags and Gmail extension markers) and the full RFC 822 body.
	FetchRaw(uid uint32, mailbox string) (header string, body []byte, err error)

	// StoreFlags adds or removes one flag on one message.
	StoreFlags(uid uint32, mailbox string, op StoreOp, flag string) error

	// StoreLabels adds or removes one Gmail label on one message.
	StoreLabels(uid uint32, mailbox string, op StoreOp, label string) error

	// Copy copies a message from the source mailbox to the target mailbox.
	Copy(uid uint32, target, source string) error

	// Labels lists the label/mailbox names known to the account.
	Labels() ([]string, error)
}
