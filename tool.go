package simpleexpr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================
// Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func HandleToolCall(req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, errors.Errorf("missing param: %s", key)
		}
		val, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("invalid type for param %s", key)
		}
		e, err := FromJSON(val)
		if err != nil {
			return nil, errors.Wrapf(err, "param %s", key)
		}
		return e, nil
	}
	// A missing env is an empty binding; closed expressions need none.
	getEnv := func(key string) (Binding, error) {
		v, ok := req.Params[key]
		if !ok || v == nil {
			return Binding{}, nil
		}
		val, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("param %s must be an object", key)
		}
		return BindingFromJSON(val)
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), String: e.Format()}
	}

	switch req.Tool {
	case "tool_spec":
		return ToolResponse{String: ToolSpec()}
	case "format", "format_substituted", "eval", "simplify", "free_vars":
	default:
		return ToolResponse{Error: "unknown tool: " + req.Tool}
	}

	expr, err := getExpr("expr")
	if err != nil {
		return fail(err)
	}

	switch req.Tool {
	case "format":
		return ToolResponse{Result: expr.Format(), String: expr.Format()}

	case "simplify":
		return respond(expr.Simplify())

	case "free_vars":
		vars := FreeVars(expr)
		return ToolResponse{Result: vars, String: strings.Join(vars, ", ")}

	case "format_substituted":
		env, err := getEnv("env")
		if err != nil {
			return fail(err)
		}
		s, err := expr.FormatSubstituted(env)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: s, String: s}

	case "eval":
		env, err := getEnv("env")
		if err != nil {
			return fail(err)
		}
		n, err := expr.Eval(env)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: n, String: strconv.FormatInt(n, 10)}
	}
	return fail(errors.Errorf("tool %s not dispatched", req.Tool))
}

// ToolSpec returns the JSON schema of every tool HandleToolCall accepts.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("format", "Fully parenthesized infix form", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("format_substituted", "Infix form with variables replaced by their bound values", []string{"expr"}, map[string]string{"expr": "object", "env": "object"}),
		ts("eval", "Evaluate under a binding of name -> integer", []string{"expr"}, map[string]string{"expr": "object", "env": "object"}),
		ts("simplify", "Apply identity and self-cancellation rewrites", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("free_vars", "Sorted names of the variables in expr", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
