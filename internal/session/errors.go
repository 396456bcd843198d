package session

import "errors"

// ErrUnauthorized is returned for any session token that does not verify:
// missing, malformed, wrongly signed or expired. Callers must not
// distinguish these cases towards the client.
var ErrUnauthorized = errors.New("unauthorized")
