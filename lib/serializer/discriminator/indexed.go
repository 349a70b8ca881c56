package discriminator

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"math"
	"strconv"
)

// Source gives random access to the fields of an already parsed variant object
type Source interface {
	// Lookup returns the decoded value of a field and whether it was present.
	// A present field with a null value is reported as (nil, true).
	Lookup(name string) (value any, ok bool)
}

// MapSource is a Source backed by a generic map, as produced by most
// reflection based decoders
type MapSource map[string]any

func (m MapSource) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// DecodeIndexed reads one variant from a name-indexed source.
// The discriminator has to be present, its position is irrelevant.
func DecodeIndexed(src Source) (model.Variant, error) {
	rawDisc, ok := src.Lookup(FieldTypeDiscriminator)
	if !ok || rawDisc == nil {
		return nil, NewFormatError(FieldTypeDiscriminator, ErrMissingDiscriminator, nil)
	}
	disc, err := asInt(rawDisc)
	if err != nil {
		return nil, NewFormatError(FieldTypeDiscriminator, ErrFieldType, err)
	}
	b, err := newBuilder(disc)
	if err != nil {
		return nil, err
	}

	name, _ := CaseField(b.kind)
	raw, ok := src.Lookup(name)
	if !ok || raw == nil {
		// missing case field keeps its zero value
		return b.variant(), nil
	}

	switch name {
	case FieldOrigin:
		v, ok := raw.(string)
		if !ok {
			return nil, NewFormatError(name, ErrFieldType, fmt.Errorf("got %T", raw))
		}
		b.origin = v
	case FieldFat:
		v, err := asInt(raw)
		if err != nil {
			return nil, NewFormatError(name, ErrFieldType, err)
		}
		if err := b.setFat(v); err != nil {
			return nil, err
		}
	case FieldIsItSafe:
		v, err := asBool(raw)
		if err != nil {
			return nil, NewFormatError(name, ErrFieldType, err)
		}
		b.isSafe = v
	}
	return b.variant(), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// asInt accepts every integer representation produced by the supported
// decoders: native integers, integral floats (JSON), json.Number and
// decimal strings (XML)
func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt(n)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func uintToInt(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("integer %d overflows int64", n)
	}
	return int64(n), nil
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	return int64(f), nil
}

// asBool accepts native booleans and their string spelling (XML)
func asBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
