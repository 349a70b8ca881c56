package discriminator

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"testing"
)

// --------------------------------------------------------------------------
// In-memory reader and writer
// --------------------------------------------------------------------------

type field struct {
	name  string
	value any
}

// recordingWriter stores written fields in order
type recordingWriter struct {
	fields []field
}

func (w *recordingWriter) WriteInt(name string, v int64) error {
	w.fields = append(w.fields, field{name, v})
	return nil
}

func (w *recordingWriter) WriteString(name string, v string) error {
	w.fields = append(w.fields, field{name, v})
	return nil
}

func (w *recordingWriter) WriteBool(name string, v bool) error {
	w.fields = append(w.fields, field{name, v})
	return nil
}

// sliceReader replays a field list as a FieldReader
type sliceReader struct {
	fields []field
	pos    int
}

func (r *sliceReader) Next() (string, bool, error) {
	if r.pos >= len(r.fields) {
		return "", false, nil
	}
	r.pos++
	return r.fields[r.pos-1].name, true, nil
}

func (r *sliceReader) current() any { return r.fields[r.pos-1].value }

func (r *sliceReader) ReadInt() (int64, error) {
	v, ok := r.current().(int64)
	if !ok {
		return 0, fmt.Errorf("not an int: %v", r.current())
	}
	return v, nil
}

func (r *sliceReader) ReadString() (string, error) {
	v, ok := r.current().(string)
	if !ok {
		return "", fmt.Errorf("not a string: %v", r.current())
	}
	return v, nil
}

func (r *sliceReader) ReadBool() (bool, error) {
	v, ok := r.current().(bool)
	if !ok {
		return false, fmt.Errorf("not a bool: %v", r.current())
	}
	return v, nil
}

func (r *sliceReader) Skip() error { return nil }

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestEncodeFieldOrder tests that the discriminator is always written first
func TestEncodeFieldOrder(t *testing.T) {
	testCases := []struct {
		variant  model.Variant
		expected []field
	}{
		{model.Chocolate{Origin: "Xen"}, []field{{FieldTypeDiscriminator, int64(1)}, {FieldOrigin, "Xen"}}},
		{model.Peanut{Fat: 100}, []field{{FieldTypeDiscriminator, int64(2)}, {FieldFat, int64(100)}}},
		{&model.Green{IsSafe: true}, []field{{FieldTypeDiscriminator, int64(3)}, {FieldIsItSafe, true}}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%T", tc.variant), func(t *testing.T) {
			w := &recordingWriter{}
			if err := Encode(w, tc.variant); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(w.fields) != len(tc.expected) {
				t.Fatalf("expected %d fields, got %d", len(tc.expected), len(w.fields))
			}
			for i := range tc.expected {
				if w.fields[i] != tc.expected[i] {
					t.Errorf("field %d: expected %v, got %v", i, tc.expected[i], w.fields[i])
				}
			}
		})
	}

	if err := Encode(&recordingWriter{}, nil); !errors.Is(err, model.ErrNilVariant) {
		t.Errorf("expected ErrNilVariant, got %v", err)
	}
}

// TestDecodeStrictRoundTrip tests strict decoding of every case
func TestDecodeStrictRoundTrip(t *testing.T) {
	for _, v := range []model.Variant{model.Chocolate{Origin: "Xen"}, model.Peanut{Fat: -7}, model.Green{IsSafe: true}} {
		w := &recordingWriter{}
		if err := Encode(w, v); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		got, err := DecodeStrict(&sliceReader{fields: w.fields})
		if err != nil {
			t.Fatalf("DecodeStrict failed: %v", err)
		}
		if !model.EqualVariants(v, got) {
			t.Errorf("expected %#v, got %#v", v, got)
		}
	}
}

// TestDecodeStrictErrors tests the rejection rules of the strict decoder
func TestDecodeStrictErrors(t *testing.T) {
	testCases := []struct {
		name   string
		fields []field
		reason error
	}{
		{"Empty object", nil, ErrMissingDiscriminator},
		{"Discriminator not first", []field{{FieldOrigin, "Xen"}, {FieldTypeDiscriminator, int64(1)}}, ErrDiscriminatorNotFirst},
		{"Unknown discriminator", []field{{FieldTypeDiscriminator, int64(99)}}, ErrUnknownDiscriminator},
		{"Zero discriminator", []field{{FieldTypeDiscriminator, int64(0)}}, ErrUnknownDiscriminator},
		{"Discriminator not a number", []field{{FieldTypeDiscriminator, "1"}}, ErrFieldType},
		{"Wrong case field type", []field{{FieldTypeDiscriminator, int64(2)}, {FieldFat, "fat"}}, ErrFieldType},
		{"Fat overflows int32", []field{{FieldTypeDiscriminator, int64(2)}, {FieldFat, int64(1) << 40}}, ErrFieldType},
		{"Duplicate discriminator", []field{{FieldTypeDiscriminator, int64(1)}, {FieldTypeDiscriminator, int64(2)}}, ErrDuplicateDiscriminator},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := DecodeStrict(&sliceReader{fields: tc.fields})
			if err == nil {
				t.Fatalf("expected error, got variant %#v", v)
			}
			if v != nil {
				t.Errorf("expected no variant on failure, got %#v", v)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
			if !errors.Is(err, tc.reason) {
				t.Errorf("expected reason %v, got %v", tc.reason, err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("expected *FormatError, got %T", err)
			}
		})
	}
}

// TestDecodeStrictLenient tests skipping and zero-value rules
func TestDecodeStrictLenient(t *testing.T) {
	testCases := []struct {
		name     string
		fields   []field
		expected model.Variant
	}{
		{"Missing case field", []field{{FieldTypeDiscriminator, int64(1)}}, model.Chocolate{}},
		{"Unknown field skipped", []field{{FieldTypeDiscriminator, int64(2)}, {"Colour", "brown"}, {FieldFat, int64(5)}}, model.Peanut{Fat: 5}},
		{"Other case field skipped", []field{{FieldTypeDiscriminator, int64(3)}, {FieldOrigin, "Xen"}, {FieldIsItSafe, true}}, model.Green{IsSafe: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeStrict(&sliceReader{fields: tc.fields})
			if err != nil {
				t.Fatalf("DecodeStrict failed: %v", err)
			}
			if !model.EqualVariants(tc.expected, got) {
				t.Errorf("expected %#v, got %#v", tc.expected, got)
			}
		})
	}
}

// TestDecodeIndexed tests the name-indexed decoder and its coercions
func TestDecodeIndexed(t *testing.T) {
	testCases := []struct {
		name     string
		src      MapSource
		expected model.Variant
		reason   error
	}{
		{"Chocolate", MapSource{FieldTypeDiscriminator: 1, FieldOrigin: "Xen"}, model.Chocolate{Origin: "Xen"}, nil},
		{"Discriminator last", MapSource{FieldFat: float64(100), FieldTypeDiscriminator: float64(2)}, model.Peanut{Fat: 100}, nil},
		{"Decimal strings", MapSource{FieldTypeDiscriminator: "3", FieldIsItSafe: "true"}, model.Green{IsSafe: true}, nil},
		{"Null case field", MapSource{FieldTypeDiscriminator: uint8(1), FieldOrigin: nil}, model.Chocolate{}, nil},
		{"Missing case field", MapSource{FieldTypeDiscriminator: int64(2)}, model.Peanut{}, nil},
		{"Missing discriminator", MapSource{FieldOrigin: "Xen"}, nil, ErrMissingDiscriminator},
		{"Null discriminator", MapSource{FieldTypeDiscriminator: nil}, nil, ErrMissingDiscriminator},
		{"Unknown discriminator", MapSource{FieldTypeDiscriminator: 99}, nil, ErrUnknownDiscriminator},
		{"Fractional discriminator", MapSource{FieldTypeDiscriminator: 1.5}, nil, ErrFieldType},
		{"Origin not a string", MapSource{FieldTypeDiscriminator: 1, FieldOrigin: 5}, nil, ErrFieldType},
		{"IsItSafe not a bool", MapSource{FieldTypeDiscriminator: 3, FieldIsItSafe: 1}, nil, ErrFieldType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeIndexed(tc.src)
			if tc.reason != nil {
				if !errors.Is(err, tc.reason) || !errors.Is(err, ErrFormat) {
					t.Fatalf("expected %v, got %v", tc.reason, err)
				}
				if got != nil {
					t.Errorf("expected no variant on failure, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeIndexed failed: %v", err)
			}
			if !model.EqualVariants(tc.expected, got) {
				t.Errorf("expected %#v, got %#v", tc.expected, got)
			}
		})
	}
}

// TestFieldNumbers tests that names and numbers map both ways
func TestFieldNumbers(t *testing.T) {
	for _, name := range []string{FieldTypeDiscriminator, FieldOrigin, FieldFat, FieldIsItSafe} {
		n, ok := FieldNumber(name)
		if !ok {
			t.Fatalf("no number for %s", name)
		}
		back, ok := FieldName(n)
		if !ok || back != name {
			t.Errorf("expected %s for number %d, got %s", name, n, back)
		}
	}
	if _, ok := FieldName(42); ok {
		t.Errorf("expected no field for number 42")
	}
}
