// FILE: lixenwraith/wiring/type.go
package wiring

import (
	"fmt"

	"github.com/spf13/cast"
)

// String returns the value at path converted to a string. Nil yields "".
func (t Tree) String(path string) (string, error) {
	return convertAt(t, path, cast.ToStringE)
}

// Int64 returns the value at path converted to an int64. Floats are
// truncated and strings may use base prefixes such as 0x.
func (t Tree) Int64(path string) (int64, error) {
	return convertAt(t, path, cast.ToInt64E)
}

// Bool returns the value at path converted to a bool.
// Numbers are true when non-zero.
func (t Tree) Bool(path string) (bool, error) {
	return convertAt(t, path, cast.ToBoolE)
}

// Float64 returns the value at path converted to a float64.
func (t Tree) Float64(path string) (float64, error) {
	return convertAt(t, path, cast.ToFloat64E)
}

func convertAt[T any](t Tree, path string, conv func(any) (T, error)) (T, error) {
	var zero T
	val, err := t.Get(path)
	if err != nil {
		return zero, err
	}
	if val == nil {
		if _, isString := any(zero).(string); isString {
			return zero, nil
		}
		return zero, fmt.Errorf("value for path %s is nil, cannot convert to %T", path, zero)
	}
	out, err := conv(val)
	if err != nil {
		return zero, fmt.Errorf("cannot convert value for path %s: %w", path, err)
	}
	return out, nil
}
