package abuse

// Decision is the outcome of evaluating one comment attempt.
// The zero value is DecisionBlocked so that a forgotten assignment can never
// fail open.
type Decision int

const (
	// DecisionBlocked rejects the comment outright; the identity is inside a
	// block window.
	DecisionBlocked Decision = iota
	// DecisionChallengeRequired demands a CAPTCHA solve before the comment is
	// accepted.
	DecisionChallengeRequired
	// DecisionAllowed accepts the comment without a challenge.
	DecisionAllowed
)

// String implements fmt.Stringer; the values double as metric label values.
func (d Decision) String() string {
	switch d {
	case DecisionChallengeRequired:
		return "challenge_required"
	case DecisionAllowed:
		return "allowed"
	default:
		return "blocked"
	}
}
