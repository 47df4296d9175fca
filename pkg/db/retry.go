package db

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const conflictRetryDelay = 25 * time.Millisecond

// TxRunner is the transaction surface domain services depend on.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WithTxRetry runs fn inside a transaction and retries it once when the
// store aborts with a serialization conflict or deadlock. Domain failures
// (insufficient balance, precondition violations) pass through untouched.
func WithTxRetry(ctx context.Context, runner TxRunner, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := runner.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if IsSerializationFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
