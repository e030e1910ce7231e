package evaluator

import (
	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/internal/domain/network"
)

// Evaluate is the top-level entry point of spec.md §4.1: eval(network,
// return_node, context) -> NetworkResult. It evaluates returnNodeID within
// the named network, pushing the root call frame so any Parameter nodes
// reached at the top level resolve to "unbound parameter" rather than
// panicking.
func Evaluate(ctx *EvaluationContext, networkName string, returnNodeID uint64) network.NetworkResult {
	net, ok := ctx.Networks[networkName]
	if !ok {
		return network.NewErrorf("unknown network %q", networkName)
	}
	ctx.pushFrame(networkName, map[string]network.NetworkResult{})
	defer ctx.popFrame()
	return evalNodeByID(ctx, net, returnNodeID)
}

func evalNodeByID(ctx *EvaluationContext, net *network.NodeNetwork, id uint64) network.NetworkResult {
	node, ok := net.Nodes[id]
	if !ok {
		return network.NewErrorf("node %d not found in network %q", id, net.Name)
	}

	key := memoKey{callStamp: ctx.currentFrame().stamp, nodeID: id}
	if v, ok := ctx.memoized(key); ok {
		return v
	}

	var result network.NetworkResult
	if callee, ok := ctx.Networks[node.NodeTypeName]; ok && node.CustomNodeType == nil {
		result = evalCustomNodeInvocation(ctx, net, node, callee)
	} else {
		result = evalBuiltinNode(ctx, net, node)
	}

	ctx.memoize(key, result)
	return result
}

func evalBuiltinNode(ctx *EvaluationContext, net *network.NodeNetwork, node *network.Node) network.NetworkResult {
	nodeType, ok := node.EffectiveNodeType(ctx.Registry)
	if !ok {
		return network.NewErrorf("unknown node type %q", node.NodeTypeName)
	}

	if data, ok := node.Data.(*EditorData); ok && data.Editor != nil {
		return evalAtomEditNode(ctx, net, node, nodeType, data)
	}

	args, errResult := gatherArguments(ctx, net, node, nodeType.Parameters)
	if errResult != nil {
		return *errResult
	}
	if nodeType.Eval == nil {
		return network.NewErrorf("node type %q has no evaluator", node.NodeTypeName)
	}
	result, err := nodeType.Eval(node, args, ctx)
	if err != nil {
		return network.NewError(err.Error())
	}
	return result
}

// evalAtomEditNode special-cases the AtomEdit node kind against its
// input_cache (spec.md §4.1 Caching: "an input_cache on AtomEdit nodes that
// survives across invocations and is explicitly invalidated by upstream
// edits"). When data.Editor already holds a cached upstream structure, the
// evaluator reuses it without walking the molecule wire again; otherwise it
// gathers the argument normally — exactly as any other node would — and
// populates the cache for the next invocation. ClearInputCache (called by
// the application layer whenever an upstream node is mutated, per §4.6) is
// what forces the next call back onto the gather path.
func evalAtomEditNode(ctx *EvaluationContext, net *network.NodeNetwork, node *network.Node, nodeType network.NodeType, data *EditorData) network.NetworkResult {
	var args []network.NetworkResult
	if cached, ok := data.Editor.CachedInput(); ok {
		args = []network.NetworkResult{{Kind: network.KindAtomic, Atomic: cached}}
	} else {
		gathered, errResult := gatherArguments(ctx, net, node, nodeType.Parameters)
		if errResult != nil {
			return *errResult
		}
		args = gathered
		if len(args) > 0 {
			if s, ok := args[0].Atomic.(*atomic.AtomicStructure); ok {
				data.Editor.SetCachedInput(s)
			}
		}
	}

	if nodeType.Eval == nil {
		return network.NewErrorf("node type %q has no evaluator", node.NodeTypeName)
	}
	result, err := nodeType.Eval(node, args, ctx)
	if err != nil {
		return network.NewError(err.Error())
	}
	return result
}

func evalCustomNodeInvocation(ctx *EvaluationContext, callerNet *network.NodeNetwork, node *network.Node, callee *network.NodeNetwork) network.NetworkResult {
	nt := BuildCustomNodeType(callee)
	args, errResult := gatherArguments(ctx, callerNet, node, nt.Parameters)
	if errResult != nil {
		return *errResult
	}

	bindings := make(map[string]network.NetworkResult, len(args))
	for i, p := range ParametersOf(callee) {
		pd := p.Data.(*ParameterData)
		if i < len(args) {
			bindings[pd.Name] = args[i]
		}
	}

	if callee.ReturnNodeID == nil {
		return network.NewErrorf("network %q has no return node", callee.Name)
	}
	ctx.pushFrame(callee.Name, bindings)
	defer ctx.popFrame()
	return evalNodeByID(ctx, callee, *callee.ReturnNodeID)
}

// gatherArguments evaluates every wired source for each of params (spec.md
// §4.1 steps 1-3), converting to the declared type and collecting multi-
// input parameters into an array. A non-nil *network.NetworkResult return
// means the whole node short-circuits with that Error.
func gatherArguments(ctx *EvaluationContext, net *network.NodeNetwork, node *network.Node, params []network.Parameter) ([]network.NetworkResult, *network.NetworkResult) {
	args := make([]network.NetworkResult, len(params))
	for i, param := range params {
		var entries []network.ArgumentEntry
		if i < len(node.Arguments) {
			entries = node.Arguments[i].Entries
		}

		if len(entries) == 0 {
			if param.Multi {
				args[i] = network.NewArray(nil)
				continue
			}
			errResult := network.NewErrorf("%s input is missing", param.Name)
			return nil, &errResult
		}

		// Multi-input parameters convert each wired entry against the
		// element type and collect the results into one array; single
		// entries convert against the declared parameter type directly.
		entryTarget := param.DataType
		if param.Multi && param.DataType.Kind == network.KindArray && param.DataType.Elem != nil {
			entryTarget = *param.DataType.Elem
		}

		values := make([]network.NetworkResult, 0, len(entries))
		for _, entry := range entries {
			val := evalArgumentSource(ctx, net, entry)
			if val.IsError() {
				return nil, &val
			}
			converted, ok := convertValue(val, entryTarget)
			if !ok {
				errResult := network.NewErrorf("runtime type error in the %d indexed input", i)
				return nil, &errResult
			}
			values = append(values, converted)
		}

		if param.Multi {
			args[i] = network.NewArray(values)
		} else {
			args[i] = values[0]
		}
	}
	return args, nil
}

func evalArgumentSource(ctx *EvaluationContext, net *network.NodeNetwork, entry network.ArgumentEntry) network.NetworkResult {
	if entry.OutputPin == network.FunctionOutputPin {
		return network.NetworkResult{
			Kind: network.KindFunction,
			Function: network.Closure{
				NodeNetworkName: net.Name,
				NodeID:          entry.SourceNodeID,
			},
		}
	}
	return evalNodeByID(ctx, net, entry.SourceNodeID)
}

// ApplyClosure evaluates a partially-applied Function value: extraArgs are
// appended, in declaration order, after the closure's own
// CapturedArgumentValues (spec.md §4.1 "partial application applies in
// declaration order"), then the target network is invoked as a custom node
// with the combined argument list.
func ApplyClosure(ctx *EvaluationContext, closure network.Closure, extraArgs []network.NetworkResult) network.NetworkResult {
	callee, ok := ctx.Networks[closure.NodeNetworkName]
	if !ok {
		return network.NewErrorf("unknown network %q", closure.NodeNetworkName)
	}
	node, ok := callee.Nodes[closure.NodeID]
	if !ok {
		return network.NewErrorf("node %d not found in network %q", closure.NodeID, closure.NodeNetworkName)
	}

	target, ok := ctx.Networks[node.NodeTypeName]
	if !ok {
		return network.NewErrorf("closure target %q is not a custom network", node.NodeTypeName)
	}

	all := append(append([]network.NetworkResult{}, closure.CapturedArgumentValues...), extraArgs...)
	params := ParametersOf(target)
	bindings := make(map[string]network.NetworkResult, len(params))
	for i, p := range params {
		pd := p.Data.(*ParameterData)
		if i < len(all) {
			bindings[pd.Name] = all[i]
		}
	}
	if target.ReturnNodeID == nil {
		return network.NewErrorf("network %q has no return node", target.Name)
	}
	ctx.pushFrame(target.Name, bindings)
	defer ctx.popFrame()
	return evalNodeByID(ctx, target, *target.ReturnNodeID)
}
