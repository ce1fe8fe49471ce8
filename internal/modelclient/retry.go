package modelclient

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region constants

const maxRetries = 2 // max 2 retries = 3 total attempts

// retryBackoff is the wait before the first retry. It doubles per retry.
var retryBackoff = 200 * time.Millisecond

// #endregion

// #region should-retry

// retryable reports whether err is a transient server or transport failure.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}

// withRetry runs call until it succeeds, fails for good, runs out of
// retries or ctx ends. Only idempotent calls go through here: a failed Fit
// may already have stepped the weights.
func withRetry(ctx context.Context, method string, call func() (*structpb.Struct, error)) (*structpb.Struct, error) {
	wait := retryBackoff
	for attempt := 1; ; attempt++ {
		resp, err := call()
		if err == nil || attempt > maxRetries || !retryable(err) {
			return resp, err
		}
		log.Printf("[MODEL] %s attempt %d failed, retrying in %s: %v", method, attempt, wait, err)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(wait):
		}
		wait *= 2
	}
}

// #endregion
