// Package work executes directed acyclic graphs of units of work.
//
// A Unit is a tokenizable description of one step: its content determines
// its derived key, and that key is how its Result is addressed. Units are
// assembled into a DAG and executed dependency-first, with independent
// units running concurrently. Because both units and results participate
// in tokenization, a finished run can be persisted, shipped to another
// process, and joined back to its producing units by key alone.
package work
