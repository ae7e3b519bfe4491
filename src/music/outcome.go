package music

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeMatched OutcomeKind = iota + 1
	OutcomeNoMatch
	OutcomeUpstreamError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeUpstreamError:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single recognition attempt. Exactly one of the
// variant-specific fields is meaningful, selected by Kind.
type Outcome struct {
	Kind     OutcomeKind
	Provider string

	// OutcomeMatched
	Track TrackMatch

	// OutcomeNoMatch
	Reason string

	// OutcomeUpstreamError
	StatusCode int
	Detail     string
}

// Matched wraps a complete track identification.
func Matched(provider string, track TrackMatch) Outcome {
	return Outcome{Kind: OutcomeMatched, Provider: provider, Track: track}
}

// NoMatch reports that the provider answered but identified nothing.
func NoMatch(provider, reason string) Outcome {
	return Outcome{Kind: OutcomeNoMatch, Provider: provider, Reason: reason}
}

// UpstreamFailure reports a non-success answer from the provider.
func UpstreamFailure(provider string, statusCode int, detail string) Outcome {
	return Outcome{Kind: OutcomeUpstreamError, Provider: provider, StatusCode: statusCode, Detail: detail}
}
