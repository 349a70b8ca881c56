package serializer

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"reflect"
)

var (
	Logger = logger.GetLogger("serializer")
)

// Serializer wraps a behavior and guards it against absent and
// unregistered input. It holds no mutable state.
type Serializer struct {
	behavior ISerializerBehavior
}

// New creates a new Serializer for the given behavior
func New(behavior ISerializerBehavior) *Serializer {
	return &Serializer{behavior: behavior}
}

// Behavior returns the wrapped behavior
func (s *Serializer) Behavior() ISerializerBehavior {
	return s.behavior
}

// Name returns the name of the wrapped behavior
func (s *Serializer) Name() string {
	return s.behavior.Name()
}

// Serialize encodes v with the wrapped behavior.
// A nil value (or nil pointer) and a value of an unregistered type both
// yield a nil result without calling the behavior and without an error.
func (s *Serializer) Serialize(v any) ([]byte, error) {
	if v == nil {
		Logger.Debugf("(%s) serialize: absent input", s.Name())
		return nil, nil
	}
	value := valueOf(v)
	if value == nil {
		Logger.Debugf("(%s) serialize: absent input (%T)", s.Name(), v)
		return nil, nil
	}
	if !IsRegistered(value) {
		Logger.Debugf("(%s) serialize: unregistered type %T", s.Name(), v)
		return nil, nil
	}

	data, err := s.behavior.Serialize(value)
	if err != nil {
		return nil, fmt.Errorf("%s: serialize %s: %w", s.Name(), ShapeOf(value), err)
	}
	return data, nil
}

// DeserializeInto decodes data into out, a pointer to a registered shape.
// nil data resets out to its zero value without calling the behavior.
func (s *Serializer) DeserializeInto(data []byte, out any) error {
	if data == nil {
		resetValue(out)
		return nil
	}
	if err := s.behavior.Deserialize(data, out); err != nil {
		return fmt.Errorf("%s: deserialize %T: %w", s.Name(), out, err)
	}
	return nil
}

// Deserialize decodes data into a new value of type T.
// nil data yields the zero value of T. T may be a registered shape or a
// pointer to one.
func Deserialize[T any](s *Serializer, data []byte) (T, error) {
	var zero T
	if data == nil {
		return zero, nil
	}

	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() == reflect.Pointer {
		ptr := reflect.New(rt.Elem())
		if err := s.DeserializeInto(data, ptr.Interface()); err != nil {
			return zero, err
		}
		return ptr.Interface().(T), nil
	}

	var out T
	if err := s.DeserializeInto(data, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// resetValue sets the value behind a non-nil pointer to its zero value
func resetValue(out any) {
	rv := reflect.ValueOf(out)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv.Elem().SetZero()
	}
}
