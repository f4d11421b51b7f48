package failure

type Severity int

// SeverityRecoverable failures may succeed on a later attempt (transport
// hiccups, 5xx); SeverityFatal failures will not (bad payload, bad config).
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

func (s Severity) String() string {
	switch s {
	case SeverityRecoverable:
		return "recoverable"
	default:
		return "fatal"
	}
}

type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRecoverable reports whether err is a ClassifiedError that may succeed when retried.
func IsRecoverable(err error) bool {
	ce, ok := err.(ClassifiedError)
	return ok && ce.Severity() == SeverityRecoverable
}
