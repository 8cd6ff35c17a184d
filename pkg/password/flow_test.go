package password

import (
	"context"
	"errors"
	"testing"
)

type fakeTransport struct {
	calls int
	err   error
}

func (f *fakeTransport) ChangePassword(ctx context.Context, current, next string) error {
	f.calls++
	return f.err
}

func TestFlowValidationNeverReachesTransport(t *testing.T) {
	tr := &fakeTransport{}
	flow := NewFlow(tr, nil)

	err := flow.Change(context.Background(), "same", "same", "same")
	if !errors.Is(err, ErrPasswordUnchanged) {
		t.Fatalf("got %v, want ErrPasswordUnchanged", err)
	}
	if tr.calls != 0 {
		t.Fatalf("transport called %d times during validation failure", tr.calls)
	}
}

func TestFlowSuccessTerminatesSession(t *testing.T) {
	tr := &fakeTransport{}
	terminated := false
	flow := NewFlow(tr, func() error {
		terminated = true
		return nil
	})

	if err := flow.Change(context.Background(), "Old123", "New456a", "New456a"); err != nil {
		t.Fatalf("Change: %v", err)
	}
	if tr.calls != 1 {
		t.Fatalf("transport called %d times, want 1", tr.calls)
	}
	if !terminated {
		t.Fatal("local session was not terminated after success")
	}
}

func TestFlowServerFailureKeepsSession(t *testing.T) {
	serverErr := errors.New("current password is incorrect")
	tr := &fakeTransport{err: serverErr}
	terminated := false
	flow := NewFlow(tr, func() error {
		terminated = true
		return nil
	})

	err := flow.Change(context.Background(), "Old123", "New456a", "New456a")
	if !errors.Is(err, serverErr) {
		t.Fatalf("got %v, want server error", err)
	}
	if terminated {
		t.Fatal("session must not be terminated on server failure")
	}
}

func TestFlowTerminatorErrorIsNotFatal(t *testing.T) {
	tr := &fakeTransport{}
	flow := NewFlow(tr, func() error { return errors.New("cache dir gone") })

	if err := flow.Change(context.Background(), "Old123", "New456a", "New456a"); err != nil {
		t.Fatalf("Change should succeed despite cleanup error, got %v", err)
	}
}
