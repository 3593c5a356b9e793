package output

import "context"

// DecideRequest carries everything the reasoning oracle sees for one
// cycle: the original goal, the serialized page state, and the
// condensed history of recent actions and notices.
type DecideRequest struct {
	Goal    string
	State   string
	History string
}

// OraclePort is the single request/response contract with the external
// reasoning service. The raw response is parsed by the decision engine;
// the transport never interprets it.
type OraclePort interface {
	Decide(ctx context.Context, req DecideRequest) (string, error)
}
