package hub

import "fmt"

// AuthFailure is returned when a method's private key is unknown or
// when register's secret does not match. Per spec §4.4/§7 this is
// never logged above DEBUG, to avoid turning the hub into a secret
// oracle for scanners.
type AuthFailure struct{}

func (*AuthFailure) Error() string { return "samp: authentication failure" }

// UnknownClient is returned when a method names a client id that has
// no live registration.
type UnknownClient struct{ ID string }

func (e *UnknownClient) Error() string { return fmt.Sprintf("samp: unknown client %q", e.ID) }

// UnknownTarget is returned when a message's recipient id has no live
// registration.
type UnknownTarget struct{ ID string }

func (e *UnknownTarget) Error() string { return fmt.Sprintf("samp: unknown target %q", e.ID) }

// UnknownMsgID is returned by reply when msg-id names no outstanding
// call tracking entry.
type UnknownMsgID struct{ MsgID string }

func (e *UnknownMsgID) Error() string { return fmt.Sprintf("samp: unknown msg-id %q", e.MsgID) }

// NotSubscribed is returned by notify/call when the recipient has not
// subscribed to the message's MType.
type NotSubscribed struct {
	ClientID string
	MType    string
}

func (e *NotSubscribed) Error() string {
	return fmt.Sprintf("samp: client %q is not subscribed to %q", e.ClientID, e.MType)
}

// Overloaded is returned by register once the hub's registration
// bound has been reached.
type Overloaded struct{}

func (*Overloaded) Error() string { return "samp: hub has reached its registration limit" }

// ErrHubShutdown is returned by register once the hub has begun
// shutting down. Callers parked in callAndWait at shutdown are woken
// with a synthetic samp.error response instead.
type ErrHubShutdown struct{}

func (*ErrHubShutdown) Error() string { return "samp: hub is shutting down" }
