package client

import "errors"

// ErrNotLoggedIn is returned by calls that need a session token when none
// is stored locally.
var ErrNotLoggedIn = errors.New("not logged in")
