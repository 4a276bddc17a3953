package work

import (
	"context"

	"github.com/stablekey/sdk/token"
)

// Unit is one step of a work graph. A Unit's content fields describe the
// work to do; its derived key identifies it, and the Result it produces,
// across processes.
//
// Execute receives the Results of the unit's dependencies in the order
// they were declared to DAG.Add. Implementations must not mutate their
// own content during execution.
type Unit interface {
	token.Tokenizable

	// Name returns a human-readable label for logs and traces. It does
	// not need to be unique; identity comes from the derived key.
	Name() string

	// Execute performs the work and returns its outputs.
	Execute(ctx context.Context, deps []*Result) (map[string]any, error)
}
