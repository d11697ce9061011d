// File: confstack/bind.go
package confstack

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Bind coerces a value tree into the target struct pointer. Fields map
// via the "config" struct tag. Conversion is weakly typed: strings
// holding numbers, durations or comma-separated lists decode into the
// matching field types.
func Bind(tree Tree, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: bind target must be a non-nil pointer, got %T", ErrBinding, target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "config",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: decoder creation failed: %v", ErrBinding, err)
	}

	if err := decoder.Decode(map[string]any(tree)); err != nil {
		return fmt.Errorf("%w: %v", ErrBinding, err)
	}
	return nil
}
