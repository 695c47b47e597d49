package chat

import "errors"

var (
	// ErrSendInFlight is returned when SendMessage is called while a prior
	// transaction has not yet resolved. One in-flight send per session.
	ErrSendInFlight = errors.New("a send is already in flight")

	// ErrNoSession is returned when no session id can be established.
	ErrNoSession = errors.New("unable to establish a session id")
)
