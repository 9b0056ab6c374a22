package domain

import "errors"

// ErrChannelClosed means the connection to the server is gone. Actions sent
// after that point are dropped and return it.
var ErrChannelClosed = errors.New("channel closed")
