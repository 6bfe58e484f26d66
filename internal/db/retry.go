package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// Retryable decides whether a failed Operation should be attempted again.
type Retryable func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation, retrying transient network and timeout failures.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsTransientError)
}

// WithRetries runs op once plus up to maxRetries more times while retryable(err) holds.
// Attempts are separated by a small incremental backoff.
func WithRetries(op Operation, maxRetries int, retryable Retryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !retryable(err) {
			break
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// IsTransientError reports network errors and timeouts, which are worth another attempt.
func IsTransientError(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
