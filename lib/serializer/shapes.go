package serializer

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
)

// ErrUnsupportedShape is returned by a behavior asked to handle a value that
// is not one of the registered shapes
var ErrUnsupportedShape = errors.New("serializer: unsupported shape")

// Shape identifies one of the registered top-level value shapes
type Shape uint8

const (
	ShapeUnknown Shape = iota
	ShapeFlatRecord
	ShapeFlatRecords
	ShapeContainer
	ShapeContainers
)

func (s Shape) String() string {
	switch s {
	case ShapeFlatRecord:
		return "flat-record"
	case ShapeFlatRecords:
		return "flat-records"
	case ShapeContainer:
		return "container"
	case ShapeContainers:
		return "containers"
	default:
		return "unknown"
	}
}

// ParseShape returns the shape with the given name
func ParseShape(name string) (Shape, error) {
	for s := ShapeFlatRecord; s <= ShapeContainers; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return ShapeUnknown, fmt.Errorf("serializer: unknown shape %q", name)
}

// ShapeOf returns the registered shape of v, which may be a value or a
// pointer to a value. Unregistered types and nil pointers yield ShapeUnknown.
func ShapeOf(v any) Shape {
	switch valueOf(v).(type) {
	case model.FlatRecord:
		return ShapeFlatRecord
	case []model.FlatRecord:
		return ShapeFlatRecords
	case model.Container:
		return ShapeContainer
	case []model.Container:
		return ShapeContainers
	default:
		return ShapeUnknown
	}
}

// IsRegistered reports whether v has a serializable shape
func IsRegistered(v any) bool {
	return ShapeOf(v) != ShapeUnknown
}

// valueOf dereferences pointers to registered shapes. A nil pointer becomes nil.
func valueOf(v any) any {
	switch p := v.(type) {
	case *model.FlatRecord:
		if p == nil {
			return nil
		}
		return *p
	case *[]model.FlatRecord:
		if p == nil {
			return nil
		}
		return *p
	case *model.Container:
		if p == nil {
			return nil
		}
		return *p
	case *[]model.Container:
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}

func errUnsupportedShape(v any) error {
	return fmt.Errorf("%w: %T", ErrUnsupportedShape, v)
}

// --------------------------------------------------------------------------
// Codec neutral wire shapes
// --------------------------------------------------------------------------

// wireContainer mirrors model.Container with the variants replaced by a
// codec specific type V. Backends hang their variant hooks on V and leave
// the data model free of format concerns.
type wireContainer[V any] struct {
	Name   string
	Groups []wireGroup[V]
}

type wireGroup[V any] struct {
	Items []V
}

// toWire converts a container, keeping absent collections nil
func toWire[V any](c model.Container, wrap func(model.Variant) (V, error)) (wireContainer[V], error) {
	out := wireContainer[V]{Name: c.Name}
	if c.Groups == nil {
		return out, nil
	}
	out.Groups = make([]wireGroup[V], len(c.Groups))
	for i, g := range c.Groups {
		if g.Items == nil {
			continue
		}
		items := make([]V, len(g.Items))
		for j, v := range g.Items {
			w, err := wrap(v)
			if err != nil {
				return out, fmt.Errorf("group %d item %d: %w", i, j, err)
			}
			items[j] = w
		}
		out.Groups[i].Items = items
	}
	return out, nil
}

// fromWire converts a decoded container back, keeping absent collections nil
func fromWire[V any](w wireContainer[V], unwrap func(V) (model.Variant, error)) (model.Container, error) {
	out := model.Container{Name: w.Name}
	if w.Groups == nil {
		return out, nil
	}
	out.Groups = make([]model.Group, len(w.Groups))
	for i, g := range w.Groups {
		if g.Items == nil {
			continue
		}
		items := make([]model.Variant, len(g.Items))
		for j, wv := range g.Items {
			v, err := unwrap(wv)
			if err != nil {
				return model.Container{}, fmt.Errorf("group %d item %d: %w", i, j, err)
			}
			items[j] = v
		}
		out.Groups[i].Items = items
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Reflection based codec driver
// --------------------------------------------------------------------------

// reflectCodec drives a reflection based marshaler through the wire shapes.
// E is the variant type written on encode, D the one read on decode.
type reflectCodec[E, D any] struct {
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
	wrap      func(model.Variant) (E, error)
	unwrap    func(D) (model.Variant, error)
}

func (c reflectCodec[E, D]) serialize(v any) ([]byte, error) {
	switch x := valueOf(v).(type) {
	case model.FlatRecord:
		return c.marshal(x)
	case []model.FlatRecord:
		return c.marshal(x)
	case model.Container:
		w, err := toWire(x, c.wrap)
		if err != nil {
			return nil, err
		}
		return c.marshal(w)
	case []model.Container:
		if x == nil {
			return c.marshal([]wireContainer[E](nil))
		}
		list := make([]wireContainer[E], len(x))
		for i := range x {
			w, err := toWire(x[i], c.wrap)
			if err != nil {
				return nil, fmt.Errorf("container %d: %w", i, err)
			}
			list[i] = w
		}
		return c.marshal(list)
	default:
		return nil, errUnsupportedShape(v)
	}
}

func (c reflectCodec[E, D]) deserialize(data []byte, out any) error {
	switch o := out.(type) {
	case *model.FlatRecord:
		*o = model.FlatRecord{}
		return c.unmarshal(data, o)
	case *[]model.FlatRecord:
		*o = nil
		return c.unmarshal(data, o)
	case *model.Container:
		var w wireContainer[D]
		if err := c.unmarshal(data, &w); err != nil {
			return err
		}
		decoded, err := fromWire(w, c.unwrap)
		if err != nil {
			return err
		}
		*o = decoded
		return nil
	case *[]model.Container:
		var list []wireContainer[D]
		if err := c.unmarshal(data, &list); err != nil {
			return err
		}
		if list == nil {
			*o = nil
			return nil
		}
		decoded := make([]model.Container, len(list))
		for i := range list {
			d, err := fromWire(list[i], c.unwrap)
			if err != nil {
				return fmt.Errorf("container %d: %w", i, err)
			}
			decoded[i] = d
		}
		*o = decoded
		return nil
	default:
		return errUnsupportedShape(out)
	}
}

// checkedVariant normalizes v and rejects nil variants
func checkedVariant(v model.Variant) (model.Variant, error) {
	v = model.Normalize(v)
	if _, err := model.KindOf(v); err != nil {
		return nil, err
	}
	return v, nil
}
