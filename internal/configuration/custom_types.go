package configuration

import (
	"reflect"
	"strconv"

	"github.com/brightless/brightless/internal/vcp"
	"github.com/go-viper/mapstructure/v2"
)

// Optional is a generic container for optional configuration values.
type Optional[T any] struct {
	// Value holds the actual value as unmarshalled.
	Value T
	// Present indicates if the value was present in the configuration.
	Present bool
	// RuntimeOverride indicates if the value was overridden at runtime.
	RuntimeOverride bool
}

// Get returns the value as unmarshalled or overridden.
func (o Optional[T]) Get() T {
	return o.Value
}

// SetOverride sets the value and marks it as overridden at runtime.
func (o *Optional[T]) SetOverride(value T) {
	o.RuntimeOverride = true
	o.Value = value
}

// DefaultTrueBool is a boolean type that defaults to true if not present and not overridden.
type DefaultTrueBool struct {
	Optional[bool]
}

// Get returns the boolean value, defaulting to true if not present and not overridden.
func (b DefaultTrueBool) Get() bool {
	if !b.Present && !b.RuntimeOverride {
		return true
	}
	return b.Value
}

// InputSourceValue is an input source given either by name ("HDMI 1")
// or by VCP code ("0x11", "17").
type InputSourceValue string

// Parse resolves the configured value to a VCP input source code.
func (v InputSourceValue) Parse() (vcp.InputSource, error) {
	return vcp.ParseInputSource(string(v))
}

// PowerModeValue is a power mode given either by name ("standby") or
// by VCP code ("0x02", "2").
type PowerModeValue string

// Parse resolves the configured value to a VCP power mode code.
func (v PowerModeValue) Parse() (vcp.PowerMode, error) {
	return vcp.ParsePowerMode(string(v))
}

// vcpValueHookFunc returns a mapstructure decode hook that allows integer
// YAML values (e.g. inputSource: 17) to decode into the string based
// InputSourceValue and PowerModeValue types.
func vcpValueHookFunc() mapstructure.DecodeHookFuncType {
	inputSourceType := reflect.TypeOf(InputSourceValue(""))
	powerModeType := reflect.TypeOf(PowerModeValue(""))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != inputSourceType && t != powerModeType {
			return data, nil
		}

		var str string
		switch v := data.(type) {
		case int:
			str = strconv.Itoa(v)
		case string:
			str = v
		default:
			return data, nil
		}

		if t == inputSourceType {
			return InputSourceValue(str), nil
		}
		return PowerModeValue(str), nil
	}
}

// DefaultTrueBoolHookFunc returns a mapstructure decode hook function for DefaultTrueBool.
func DefaultTrueBoolHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{}) (interface{}, error) {

		// Only target our specific named type
		if t != reflect.TypeOf(DefaultTrueBool{}) {
			return data, nil
		}

		var val bool
		switch v := data.(type) {
		case bool:
			val = v
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return data, nil
			}
			val = parsed
		default:
			return data, nil
		}

		// Return the specific type with the inner Optional initialized
		return DefaultTrueBool{
			Optional: Optional[bool]{
				Value:   val,
				Present: true,
			},
		}, nil
	}
}
