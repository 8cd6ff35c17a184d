// Package api implements the shareadmin REST surface: the device-bound
// login handshake with its per-user session quota, credential rotation,
// session management, a live session event stream over websocket, and
// the users/folders administration endpoints.
package api
