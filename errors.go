package gmail

import (
	"errors"
	"fmt"
)

// ParseError indicates that a FETCH response could not be turned into a
// structured message: a malformed MIME tree, or a missing or unparseable
// Date header.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err (or any error in its chain) is a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// ProtocolError indicates that the mail session failed while executing a
// protocol command. It is surfaced unchanged: no retry, no backoff.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error (%s): %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err (or any error in its chain) is a
// ProtocolError.
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}

// NotFoundError indicates that a UID is no longer valid server-side.
type NotFoundError struct {
	UID     uint32
	Mailbox string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("message %d not found in %q", e.UID, e.Mailbox)
}

// IsNotFound reports whether err (or any error in its chain) is a
// NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
