package cache

import (
	"fmt"

	"github.com/paideia-dao/paideia-site/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseBackendUnavailable CacheErrorCause = "backend unavailable"
	ErrCauseReadFailure        CacheErrorCause = "read failure"
	ErrCauseWriteFailure       CacheErrorCause = "write failure"
)

type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s: %s", e.Cause, e.Message)
}

func (e *CacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
