package host

import "errors"

var (
	errWrongServerKind = errors.New("host: unexpected recipient, wrong kind of server")
	errChannelClosed   = errors.New("host: packet channel closed while waiting for response")
)
