package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/chartsense/rule-engine/internal/core/domain"
)

func TestClassifyNATSErrorRetryable(t *testing.T) {
	for _, err := range []error{nats.ErrNoServers, nats.ErrTimeout, nats.ErrConnectionClosed, nats.ErrDisconnected} {
		class := classifyNATSError(err)
		if !class.Retryable || !class.RecordFailure {
			t.Fatalf("%v: expected retryable failure, got %+v", err, class)
		}
	}
}

func TestClassifyNATSErrorContextCancellation(t *testing.T) {
	class := classifyNATSError(context.Canceled)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must not retry or trip the breaker: %+v", class)
	}
}

func TestClassifyNATSErrorUnknownIsTerminal(t *testing.T) {
	class := classifyNATSError(errors.New("payload rejected"))
	if class.Retryable {
		t.Fatalf("unknown errors must not retry: %+v", class)
	}
	if !class.RecordFailure {
		t.Fatalf("unknown errors still count as failures: %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if got := wrapTemporaryIfNeeded(nil); got != nil {
		t.Fatalf("nil must stay nil, got %v", got)
	}

	wrapped := wrapTemporaryIfNeeded(nats.ErrTimeout)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Fatalf("expected temporary wrap, got %v", wrapped)
	}

	terminal := errors.New("payload rejected")
	if got := wrapTemporaryIfNeeded(terminal); domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("terminal error must not become temporary: %v", got)
	}
}
