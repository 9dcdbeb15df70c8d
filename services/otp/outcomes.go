package otp

// Outcome classifies the result of a verification attempt. Outcomes are
// expected, non-exceptional results; storage faults are returned as errors
// and never collapsed into an outcome.
type Outcome int

const (
	// OutcomeSuccess means the candidate code matched and the record is now used.
	OutcomeSuccess Outcome = iota
	// OutcomeNotFound means no active record exists for the identity. This
	// deliberately covers "never requested" and "already invalidated" so the
	// response does not leak state to an attacker.
	OutcomeNotFound
	// OutcomeExpired means the record's expiry has passed.
	OutcomeExpired
	// OutcomeAttemptsExhausted means the attempt ceiling was reached.
	OutcomeAttemptsExhausted
	// OutcomeAlreadyUsed means the record was already successfully verified.
	OutcomeAlreadyUsed
	// OutcomeInvalidCode means the candidate did not match; one attempt was consumed.
	OutcomeInvalidCode
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeAttemptsExhausted:
		return "attempts_exhausted"
	case OutcomeAlreadyUsed:
		return "already_used"
	case OutcomeInvalidCode:
		return "invalid_code"
	default:
		return "unknown"
	}
}

// Result is the typed verification result. RemainingAttempts is populated
// only for OutcomeInvalidCode; callers may surface it to the end user.
type Result struct {
	Outcome           Outcome
	RemainingAttempts int
}

func (r Result) Success() bool {
	return r.Outcome == OutcomeSuccess
}
