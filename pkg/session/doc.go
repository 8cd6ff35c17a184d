// Package session implements the client side of the authentication
// handshake. Each login attempt resolves the device identifier first,
// attaches it as a header, and classifies the server's answer into one of
// four terminal outcomes: authenticated, invalid credentials, session
// limit exceeded, or transport failure. The negotiator also exposes the
// session-management operations used to recover from an exhausted quota.
package session
