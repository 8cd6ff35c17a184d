// Package errors provides standardized error definitions for the shareadmin
// system. All error definitions are centralized here to ensure consistency
// across server and client components.
package errors
