package consumer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNopRetry_CallsOnce(t *testing.T) {
	calls := 0
	err := nopRetry{}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}

func TestSimpleRetry_Attempts(t *testing.T) {
	sentinel := errors.New("boom")

	tests := []struct {
		name      string
		policy    SimpleRetry
		failFirst int
		wantCalls int
		wantErr   error
	}{
		{name: "first try", policy: SimpleRetry{Attempts: 5}, failFirst: 0, wantCalls: 1},
		{name: "until success", policy: SimpleRetry{Attempts: 10, BaseDelay: time.Nanosecond, MaxDelay: time.Nanosecond}, failFirst: 2, wantCalls: 3},
		{name: "exhausted", policy: SimpleRetry{Attempts: 4, BaseDelay: time.Nanosecond, MaxDelay: time.Nanosecond, Jitter: true}, failFirst: 100, wantCalls: 4, wantErr: sentinel},
		{name: "zero attempts means one", policy: SimpleRetry{}, failFirst: 100, wantCalls: 1, wantErr: sentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := tt.policy.Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failFirst {
					return sentinel
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err=%v want=%v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls=%d want=%d", calls, tt.wantCalls)
			}
		})
	}
}

func TestSimpleRetry_RespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := SimpleRetry{Attempts: 10, BaseDelay: time.Millisecond}.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls=%d want=0", calls)
	}
}

func TestSimpleRetry_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := SimpleRetry{Attempts: 3, BaseDelay: time.Hour}.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}

func BenchmarkSimpleRetry_FailAllAttempts_NoSleep(b *testing.B) {
	r := SimpleRetry{Attempts: 10}
	ctx := context.Background()
	errFail := errors.New("fail")

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = r.Do(ctx, func(ctx context.Context) error { return errFail })
	}
}
