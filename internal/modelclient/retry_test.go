package modelclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func fastRetries(t *testing.T) {
	t.Helper()
	prev := retryBackoff
	retryBackoff = time.Millisecond
	t.Cleanup(func() { retryBackoff = prev })
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	fastRetries(t)
	mock := &mockValueService{
		predictErrs: []error{status.Error(codes.Unavailable, "warming up")},
		predictResp: predictions([][]float64{{1, 2}}),
	}
	c := NewWithService(mock)

	got, err := c.Predict(context.Background(), [][]float64{{0}})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if mock.predictCalls != 2 {
		t.Errorf("expected 2 calls, got %d", mock.predictCalls)
	}
	if len(got) != 1 || got[0][1] != 2 {
		t.Errorf("unexpected predictions %v", got)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	fastRetries(t)
	mock := &mockValueService{predictErr: status.Error(codes.Unavailable, "down")}
	c := NewWithService(mock)

	if _, err := c.Predict(context.Background(), [][]float64{{0}}); err == nil {
		t.Fatal("expected error")
	}
	if mock.predictCalls != maxRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRetries+1, mock.predictCalls)
	}
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	fastRetries(t)
	mock := &mockValueService{predictErr: status.Error(codes.InvalidArgument, "bad batch")}
	c := NewWithService(mock)

	if _, err := c.Predict(context.Background(), [][]float64{{0}}); err == nil {
		t.Fatal("expected error")
	}
	if mock.predictCalls != 1 {
		t.Errorf("expected a single call, got %d", mock.predictCalls)
	}
}

func TestRetry_CancelledContextStops(t *testing.T) {
	prev := retryBackoff
	retryBackoff = time.Hour
	t.Cleanup(func() { retryBackoff = prev })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := &mockValueService{predictErr: status.Error(codes.Unavailable, "down")}
	c := NewWithService(mock)

	if _, err := c.Predict(ctx, [][]float64{{0}}); err == nil {
		t.Fatal("expected error")
	}
	if mock.predictCalls != 1 {
		t.Errorf("expected a single call before cancellation, got %d", mock.predictCalls)
	}
}

func TestRetry_FitNotRetried(t *testing.T) {
	fastRetries(t)
	mock := &mockValueService{fitErr: status.Error(codes.Unavailable, "down")}
	c := NewWithService(mock)

	if err := c.Fit(context.Background(), [][]float64{{0}}, [][]float64{{1}}, 1); err == nil {
		t.Fatal("expected error")
	}
	if mock.fitCalls != 1 {
		t.Errorf("expected a single fit call, got %d", mock.fitCalls)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{status.Error(codes.Unavailable, ""), true},
		{status.Error(codes.ResourceExhausted, ""), true},
		{status.Error(codes.Aborted, ""), true},
		{status.Error(codes.NotFound, ""), false},
		{status.Error(codes.InvalidArgument, ""), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := retryable(tc.err); got != tc.want {
			t.Errorf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
