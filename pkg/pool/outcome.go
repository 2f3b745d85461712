package pool

// OutcomeKind classifies how a leased task finished
type OutcomeKind string

const (
	OutcomeSuccess      OutcomeKind = "success"
	OutcomeRateLimited  OutcomeKind = "rate_limited"
	OutcomeAuthFailed   OutcomeKind = "auth_failed"
	OutcomeChallenge    OutcomeKind = "challenge_required"
	OutcomeNetworkError OutcomeKind = "network_error"
)

// Outcome is the result a caller reports back when releasing a lease
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Success returns a successful outcome
func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// Failure returns a failed outcome of the given kind
func Failure(kind OutcomeKind, err error) Outcome {
	return Outcome{Kind: kind, Err: err}
}

// Throttled reports whether the kind is a soft, self-healing limit signal
// rather than a hard failure
func (k OutcomeKind) Throttled() bool {
	return k == OutcomeRateLimited
}
