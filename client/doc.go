// Package client is the high-level shareadmin client SDK. It ties the
// device identifier, persisted session token and authentication
// negotiator together behind one Client type; the shareadmin CLI is a
// thin layer over it.
package client
