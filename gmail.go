// Package gmail models a Gmail mailbox message fetched over IMAP as a
// structured, lazily loaded, mutable object.
//
// A Message starts as an empty handle (uid plus mailbox); the first read of
// any data field triggers one FETCH whose reply is parsed into headers,
// bodies, flags, Gmail labels, thread/message identifiers and attachments.
// Mutation methods (Read, Star, AddLabel, Delete, MoveTo, ...) issue one
// protocol command each and keep the cached state in sync.
//
// Account implements the Session capability over emersion/go-imap, including
// the X-GM-THRID, X-GM-MSGID and X-GM-LABELS extension items. Compose builds
// outbound MIME messages; Transport hands them to SMTP.
package gmail
