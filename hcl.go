// FILE: lixenwraith/wiring/hcl.go
package wiring

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// evalHCLLiteral evaluates a source holding a single HCL expression, normally
// an object constructor. The expression sees two variables: environ, the
// process environment as a map of strings, and here, the absolute directory
// of the source file. A handful of string and collection functions are
// available as well.
func evalHCLLiteral(src []byte, filename, here string, environ map[string]string) (any, error) {
	expr, diags := hclsyntax.ParseExpression(src, filename, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source '%s': %s", filename, diags.Error())
	}

	val, diags := expr.Value(hclEvalContext(here, environ))
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate HCL source '%s': %s", filename, diags.Error())
	}
	return ctyToGo(val)
}

func hclEvalContext(here string, environ map[string]string) *hcl.EvalContext {
	env := cty.MapValEmpty(cty.String)
	if len(environ) > 0 {
		vals := make(map[string]cty.Value, len(environ))
		for k, v := range environ {
			vals[k] = cty.StringVal(v)
		}
		env = cty.MapVal(vals)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"environ": env,
			"here":    cty.StringVal(here),
		},
		Functions: map[string]function.Function{
			"upper":    stdlib.UpperFunc,
			"lower":    stdlib.LowerFunc,
			"format":   stdlib.FormatFunc,
			"join":     stdlib.JoinFunc,
			"split":    stdlib.SplitFunc,
			"coalesce": stdlib.CoalesceFunc,
			"lookup":   stdlib.LookupFunc,
		},
	}
}

// ctyToGo converts an evaluated value into the tree representation:
// objects and maps become map[string]any, tuples, lists and sets become []any,
// whole numbers become int64 and other numbers float64.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value of type %s is not known", val.Type().FriendlyName())
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil

	case ty == cty.Bool:
		return val.True(), nil

	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.AsString(), err)
			}
			out[k.AsString()] = converted
		}
		return out, nil

	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported HCL value of type %s", ty.FriendlyName())
	}
}
