package metadata

import (
	"time"
)

type FetchEvent struct {
	ResourceKey string
	FetchURL    string
	HTTPStatus  int
	Duration    time.Duration
	ContentType string
	Attempts    int
}

/*
ErrorCause is a closed classification used only for observability
(logging, metrics, reporting).

  - It must never drive retry, revalidation or rendering decisions.
  - Packages map their local errors to an ErrorCause; they do not invent new meanings.
  - When a failure does not clearly match a defined cause, CauseUnknown is used.
*/
type ErrorCause int

/*
# CauseUnknown
Fallback for failures that map to no other category.

# CauseNetworkFailure
Transport or upstream availability: timeouts, DNS, resets, 5xx, 429.

# CauseContentInvalid
A body arrived but could not be decoded into the expected shape.

# CauseStorageFailure
Writing an exported page to disk failed.

# CauseCacheFailure
The shared response cache (memory or redis) could not be read or written.

# CauseInvariantViolation
An internal consistency check failed.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseContentInvalid
	CauseStorageFailure
	CauseCacheFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseCacheFailure:
		return "cache_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type ErrorRecord struct {
	PackageName string
	Action      string
	Cause       ErrorCause
	ErrorString string
	ObservedAt  time.Time
	Attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrKey        AttributeKey = "resource_key"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrHash       AttributeKey = "hash"
)

type ArtifactKind string

const (
	ArtifactPage ArtifactKind = "page"
)
