package hydration

import (
	"errors"
	"strings"
	"testing"

	"suireplay/replayerr"
)

func TestWrapTransportErrAddsOperationContext(t *testing.T) {
	cause := errors.New("connection refused")
	err := wrapTransportErr("archive", "fetch_transaction", cause)

	te, ok := err.(*replayerr.TransportError)
	if !ok {
		t.Fatalf("expected *replayerr.TransportError, got %T", err)
	}
	if !te.Retryable() {
		t.Fatal("expected transport errors to be retryable")
	}
	if !errors.Is(te, cause) {
		t.Fatal("expected the original cause to remain unwrappable")
	}
	if !strings.Contains(te.Cause.Error(), "fetch_transaction") {
		t.Fatalf("expected cause message to carry the operation, got %q", te.Cause.Error())
	}
}
