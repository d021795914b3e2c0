package domain

// Outcome names the exact branch a payment operation took, so callers and
// tests never reason about bare booleans.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeGatewayRefused: the gateway declined or returned an
	// unexpected terminal status. Nothing was persisted.
	OutcomeGatewayRefused
	// OutcomePersistenceFailed: the gateway call succeeded but the local
	// commit did not. During authorization the just-authorized
	// transaction has been compensated (gateway cancel).
	OutcomePersistenceFailed
)

// Result is the structured validation response of a payment operation.
type Result struct {
	Outcome Outcome
	Errors  []string
}

func (r *Result) Valid() bool { return r.Outcome == OutcomeSuccess }
