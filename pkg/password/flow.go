package password

import (
	"context"

	"shareadmin/pkg/logger"
)

// Transport submits an accepted password change to the server.
type Transport interface {
	ChangePassword(ctx context.Context, current, next string) error
}

// Flow drives a credential rotation: local validation, submission, and
// mandatory termination of the local session on success. It holds no state
// between calls.
type Flow struct {
	transport Transport
	terminate func() error
	log       *logger.Logger
}

// NewFlow creates a rotation flow. terminate is invoked after a successful
// change to invalidate the local session; it may be nil when the caller
// handles logout itself.
func NewFlow(transport Transport, terminate func() error) *Flow {
	return &Flow{
		transport: transport,
		terminate: terminate,
		log:       logger.Component("password"),
	}
}

// Change validates and submits a password change. Validation failures are
// returned before any network effect. On server success the local session
// is terminated before returning; the server remains the source of truth
// for revoking the old token.
func (f *Flow) Change(ctx context.Context, current, next, confirm string) error {
	if err := ValidateChange(current, next, confirm); err != nil {
		return err
	}

	if err := f.transport.ChangePassword(ctx, current, next); err != nil {
		return err
	}

	if f.terminate != nil {
		if err := f.terminate(); err != nil {
			// The server already accepted the change; the local token is
			// invalid regardless of how cleanup went.
			f.log.Warn("local session cleanup failed after password change", "error", err)
		}
	}
	return nil
}
