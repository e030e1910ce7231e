package evaluator

import (
	"github.com/latticeforge/kernel/internal/domain/expr"
	"github.com/latticeforge/kernel/internal/domain/network"
)

// exprEval evaluates an Expr node's AST against the enclosing network's
// current Parameter bindings. Expr nodes take no wired Arguments — their
// inputs are free variables resolved through the stack frame, per spec.md
// §4.1/§4.2.
func exprEval(node *network.Node, _ []network.NetworkResult, evalCtx interface{}) (network.NetworkResult, error) {
	ctx := evalCtx.(*EvaluationContext)
	data, ok := node.Data.(*ExprData)
	if !ok || data.Tree == nil {
		return network.NewError("Expr node missing its expression tree"), nil
	}
	env := make(expr.Env, len(ctx.currentFrame().bindings))
	for k, v := range ctx.currentFrame().bindings {
		env[k] = v
	}
	return expr.Eval(data.Tree, env), nil
}

// parameterEval resolves a Parameter node against the current call's
// bindings. Evaluating a Parameter node directly at the top level (no
// enclosing call bound it) is an error, since nothing supplied a value.
func parameterEval(node *network.Node, _ []network.NetworkResult, evalCtx interface{}) (network.NetworkResult, error) {
	ctx := evalCtx.(*EvaluationContext)
	data, ok := node.Data.(*ParameterData)
	if !ok {
		return network.NewError("Parameter node missing its declaration"), nil
	}
	if v, ok := ctx.Lookup(data.Name); ok {
		return v, nil
	}
	return network.NewErrorf("unbound parameter %q", data.Name), nil
}

// constEval returns a literal constant's value verbatim.
func constEval(node *network.Node, _ []network.NetworkResult, _ interface{}) (network.NetworkResult, error) {
	data, ok := node.Data.(*ConstData)
	if !ok {
		return network.NewError("Const node missing its value"), nil
	}
	return data.Value, nil
}
