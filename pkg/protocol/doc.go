// Package protocol defines the wire types exchanged between the shareadmin
// client and server. All traffic is JSON over HTTP(S); failure payloads share
// the ErrorResponse shape and are discriminated by the "error" code field
// rather than by probing for optional properties.
package protocol
