package fetcher

import (
	"errors"
	"fmt"

	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseInvalidRequest        FetchErrorCause = "invalid request"
	ErrCauseTimeout               FetchErrorCause = "timeout"
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseRequestTooMany        FetchErrorCause = "too many requests"
	ErrCauseRequest4xx            FetchErrorCause = "4xx"
	ErrCauseRequest5xx            FetchErrorCause = "5xx"
	ErrCauseUnexpectedStatus      FetchErrorCause = "unexpected status"
	ErrCauseDecodeFailure         FetchErrorCause = "malformed body"
)

// ErrorKind is the coarse failure class consumers care about.
type ErrorKind int

const (
	NetworkError ErrorKind = iota + 1
	DecodeError
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkError:
		return "network"
	case DecodeError:
		return "decode"
	default:
		return "unknown"
	}
}

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher error: %s: %s", e.Cause, e.Message)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

func (e *FetchError) Kind() ErrorKind {
	if e.Cause == ErrCauseDecodeFailure {
		return DecodeError
	}
	return NetworkError
}

func IsNetworkError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Kind() == NetworkError
}

func IsDecodeError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Kind() == DecodeError
}

// mapFetchErrorToMetadataCause is observational only.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError,
		ErrCauseRequestTooMany, ErrCauseRequest4xx, ErrCauseRequest5xx, ErrCauseUnexpectedStatus:
		return metadata.CauseNetworkFailure
	case ErrCauseDecodeFailure:
		return metadata.CauseContentInvalid
	case ErrCauseInvalidRequest:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
