package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func TestClosedStateAllowsCalls(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3})

	err := cb.Call(func() error { return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want StateClosed", cb.GetState())
	}
}

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New(Config{Name: "test-open", FailureThreshold: 3, Timeout: time.Minute})

	boom := errors.New("upstream down")
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return boom }); err != boom {
			t.Fatalf("call %d: err = %v, want %v", i, err, boom)
		}
	}

	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want StateOpen", cb.GetState())
	}
	if err := cb.Call(func() error { return nil }); err != ErrCircuitOpen {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestHalfOpenAfterTimeout(t *testing.T) {
	cb := New(Config{Name: "test-halfopen", FailureThreshold: 1, Timeout: 20 * time.Millisecond})

	cb.Call(func() error { return errors.New("fail") })
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want StateOpen", cb.GetState())
	}

	time.Sleep(30 * time.Millisecond)

	called := false
	if err := cb.Call(func() error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected call to pass through after timeout")
	}
	if cb.GetState() != StateHalfOpen {
		t.Errorf("state = %v, want StateHalfOpen", cb.GetState())
	}
}

func TestClosesAfterSuccessThreshold(t *testing.T) {
	cb := New(Config{Name: "test-close", FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})

	cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	cb.Call(func() error { return nil })
	cb.Call(func() error { return nil })

	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want StateClosed", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{Name: "test-reopen", FailureThreshold: 1, Timeout: 10 * time.Millisecond})

	cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	cb.Call(func() error { return errors.New("still failing") })
	if cb.GetState() != StateOpen {
		t.Errorf("state = %v, want StateOpen", cb.GetState())
	}
}
