package collector

import "errors"

// Fetch failures fall into exactly three kinds. All of them surface to the
// user as the single UserMessage; the distinction exists for logs and tests.
var (
	ErrTransport = errors.New("transport error")
	ErrAuth      = errors.New("authentication error")
	ErrMalformed = errors.New("malformed response")
)

// UserMessage is the single user-visible error text for any fetch failure.
const UserMessage = "quote fetch failed"
