// FILE: lixenwraith/wiring/decode.go
package wiring

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DefaultTagName is the struct tag consulted when decoding mappings into structs.
const DefaultTagName = "toml"

// Scan decodes the section at path into target, a non-nil pointer to a struct or map.
// An empty path scans the whole tree. Component values are assigned as-is
// to interface-typed fields.
func (t Tree) Scan(path string, target any) error {
	var section any = map[string]any(t)
	if path != "" {
		val, err := t.Get(path)
		if err != nil {
			return err
		}
		section = val
	}
	if err := decodeInto(section, target); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", path, err)
	}
	return nil
}

// decodeInto is the single decoding entry point shared by Scan, Constructor
// and the logging configuration.
func decodeInto(input any, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	if tree, ok := input.(Tree); ok {
		input = map[string]any(tree)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          DefaultTagName,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToIPHookFunc(),
			mapstructure.StringToIPNetHookFunc(),
			stringToURLHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder.Decode(input)
}

var urlType = reflect.TypeOf(url.URL{})

// stringToURLHookFunc parses strings into url.URL and *url.URL fields.
func stringToURLHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		ptr := to.Kind() == reflect.Ptr
		if ptr {
			to = to.Elem()
		}
		if to != urlType {
			return data, nil
		}

		u, err := url.Parse(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if ptr {
			return u, nil
		}
		return *u, nil
	}
}
