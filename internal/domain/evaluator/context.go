// Package evaluator implements spec.md §4.1's Evaluate entry point: the
// strict, deterministic walk over a NodeNetwork's DAG that produces a
// NetworkResult for a chosen return node, plus the pre-evaluation static
// validation pass.
package evaluator

import (
	"github.com/latticeforge/kernel/internal/domain/network"
)

// frame is one level of the network call stack: the network currently being
// evaluated plus the argument values bound to its Parameter nodes, keyed by
// parameter name so Expr nodes can resolve free variables (spec.md §4.1
// "Free variables in Expr nodes reference their enclosing network's
// Parameter nodes by name").
type frame struct {
	networkName string
	bindings    map[string]network.NetworkResult
	// stamp uniquely identifies this call, distinct from every other call
	// to the same or a different network at the same stack depth — two
	// sibling invocations of the same custom node (different captured
	// arguments) must not collide in the memo table even though they sit
	// at the same depth.
	stamp int
}

// memoKey identifies one memoized evaluation within a single top-level
// Evaluate call: a node id plus the stamp of the call it was evaluated
// under (spec.md §4.1 "keyed by node id + captured-argument identity
// hash" — the stamp stands in for that hash since each call already gets
// a distinct one).
type memoKey struct {
	callStamp int
	nodeID    uint64
}

// EvaluationContext threads registry lookup, named-network resolution, and
// per-invocation memoization through one Evaluate call (spec.md §4.1
// "Caching"). It is constructed fresh per top-level call and discarded at
// its end, per SPEC_FULL.md §5's "safest scoped to a single invocation"
// guidance.
type EvaluationContext struct {
	Registry *network.Registry
	Networks map[string]*network.NodeNetwork

	memo     map[memoKey]network.NetworkResult
	stack    []frame
	nextCall int
}

// NewEvaluationContext returns a context ready for one top-level Evaluate
// call against the given registry and set of named networks (custom-node
// callees are resolved by name through networks).
func NewEvaluationContext(reg *network.Registry, networks map[string]*network.NodeNetwork) *EvaluationContext {
	return &EvaluationContext{
		Registry: reg,
		Networks: networks,
		memo:     make(map[memoKey]network.NetworkResult),
	}
}

func (ec *EvaluationContext) currentFrame() frame {
	if len(ec.stack) == 0 {
		return frame{}
	}
	return ec.stack[len(ec.stack)-1]
}

// Lookup resolves a free variable against the current stack frame's
// parameter bindings.
func (ec *EvaluationContext) Lookup(name string) (network.NetworkResult, bool) {
	f := ec.currentFrame()
	if f.bindings == nil {
		return network.NetworkResult{}, false
	}
	v, ok := f.bindings[name]
	return v, ok
}

func (ec *EvaluationContext) pushFrame(networkName string, bindings map[string]network.NetworkResult) {
	ec.nextCall++
	ec.stack = append(ec.stack, frame{networkName: networkName, bindings: bindings, stamp: ec.nextCall})
}

func (ec *EvaluationContext) popFrame() {
	ec.stack = ec.stack[:len(ec.stack)-1]
}

func (ec *EvaluationContext) memoized(key memoKey) (network.NetworkResult, bool) {
	v, ok := ec.memo[key]
	return v, ok
}

func (ec *EvaluationContext) memoize(key memoKey, v network.NetworkResult) {
	ec.memo[key] = v
}
