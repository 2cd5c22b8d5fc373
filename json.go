package simpleexpr

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// ============================================================
// JSON Serialization
// ============================================================

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// FromJSON rebuilds an expression from its decoded JSON object form.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, errors.New("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, errors.New("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, errors.New("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, errors.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", errors.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", errors.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "const":
		v, ok := data["value"]
		if !ok {
			return nil, errors.New("const: missing 'value'")
		}
		n, err := toInt64(v)
		if err != nil {
			return nil, errors.Wrap(err, "const: 'value'")
		}
		return Cst(n), nil

	case "var":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return V(name), nil

	case "binop":
		sym, err := subString("op")
		if err != nil {
			return nil, err
		}
		op, err := ParseOp(sym)
		if err != nil {
			return nil, errors.Wrap(err, "binop")
		}
		leftM, err := subObj("left")
		if err != nil {
			return nil, err
		}
		rightM, err := subObj("right")
		if err != nil {
			return nil, err
		}
		left, err := FromJSON(leftM)
		if err != nil {
			return nil, errors.Wrap(err, "binop: left")
		}
		right, err := FromJSON(rightM)
		if err != nil {
			return nil, errors.Wrap(err, "binop: right")
		}
		return BinOf(op, left, right), nil
	}
	return nil, errors.Errorf("unknown expression type: %s", typ)
}

// ParseJSON decodes a JSON document into an expression. Numbers are kept
// as json.Number so every int64 constant survives the round trip.
func ParseJSON(data []byte) (Expr, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "invalid JSON")
	}
	return FromJSON(m)
}

// BindingFromJSON converts a decoded JSON object of name -> integer.
func BindingFromJSON(data map[string]interface{}) (Binding, error) {
	env := make(Binding, len(data))
	for name, v := range data {
		n, err := toInt64(v)
		if err != nil {
			return nil, errors.Wrapf(err, "binding %q", name)
		}
		env[name] = n
	}
	return env, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, errors.Errorf("%v is not a 64-bit integer", n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errors.Errorf("%s is not a 64-bit integer", n)
		}
		return i, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, errors.Errorf("must be a number, got %T", v)
}
