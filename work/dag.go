package work

import (
	"errors"
	"fmt"

	"github.com/stablekey/sdk/token"
)

// Common errors returned by DAG assembly and execution.
var (
	// ErrDuplicateUnit is returned when a unit with the same derived key
	// has already been added to the graph.
	ErrDuplicateUnit = errors.New("work: duplicate unit")

	// ErrUnknownDependency is returned when a dependency has not been
	// added to the graph before the unit that needs it.
	ErrUnknownDependency = errors.New("work: unknown dependency")

	// ErrCycle is returned when execution cannot make progress because
	// the remaining units form a cycle.
	ErrCycle = errors.New("work: dependency cycle")
)

// DAG assembles units into a dependency graph for execution. Dependencies
// must be added before the units that need them, so every edge points to
// an earlier unit and the graph stays acyclic as it grows.
//
// DAG is not safe for concurrent mutation; assemble it fully, then hand
// it to an Executor.
type DAG struct {
	units map[token.Key]Unit
	deps  map[token.Key][]token.Key
	order []token.Key
}

// NewDAG creates an empty graph.
func NewDAG() *DAG {
	return &DAG{
		units: make(map[token.Key]Unit),
		deps:  make(map[token.Key][]token.Key),
	}
}

// Add inserts unit with the given dependencies and returns the unit's
// derived key. All dependencies must already be in the graph. Two units
// with equal content share a key and cannot both be added.
func (d *DAG) Add(unit Unit, deps ...Unit) (token.Key, error) {
	key, err := token.KeyOf(unit)
	if err != nil {
		return "", err
	}
	if _, ok := d.units[key]; ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrDuplicateUnit, unit.Name(), key)
	}

	depKeys := make([]token.Key, 0, len(deps))
	for _, dep := range deps {
		depKey, err := token.KeyOf(dep)
		if err != nil {
			return "", err
		}
		if _, ok := d.units[depKey]; !ok {
			return "", fmt.Errorf("%w: %s depends on %s (%s)", ErrUnknownDependency, unit.Name(), dep.Name(), depKey)
		}
		depKeys = append(depKeys, depKey)
	}

	d.units[key] = unit
	d.deps[key] = depKeys
	d.order = append(d.order, key)
	return key, nil
}

// Len returns the number of units in the graph.
func (d *DAG) Len() int { return len(d.units) }

// Unit returns the unit with the given key.
func (d *DAG) Unit(key token.Key) (Unit, bool) {
	u, ok := d.units[key]
	return u, ok
}

// Dependencies returns the dependency keys of the unit with the given
// key, in declaration order.
func (d *DAG) Dependencies(key token.Key) []token.Key {
	return d.deps[key]
}

// Keys returns all unit keys in insertion order.
func (d *DAG) Keys() []token.Key {
	keys := make([]token.Key, len(d.order))
	copy(keys, d.order)
	return keys
}
