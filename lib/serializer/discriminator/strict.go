package discriminator

import (
	"github.com/ValentinKolb/serbench/lib/model"
)

// FieldReader walks the fields of one already opened variant object in the
// order they were written. After Next returns a name, exactly one of the
// Read methods or Skip must be called before the next call to Next.
type FieldReader interface {
	// Next advances to the next field and returns its wire name.
	// ok is false once the end of the object is reached.
	Next() (name string, ok bool, err error)
	ReadInt() (int64, error)
	ReadString() (string, error)
	ReadBool() (bool, error)
	// Skip discards the value of the current field
	Skip() error
}

// DecodeStrict reads one variant from an order-sensitive reader.
// The first field has to be the discriminator.
func DecodeStrict(r FieldReader) (model.Variant, error) {
	name, ok, err := r.Next()
	if err != nil {
		return nil, NewFormatError("", ErrMalformed, err)
	}
	if !ok {
		return nil, NewFormatError(FieldTypeDiscriminator, ErrMissingDiscriminator, nil)
	}
	if name != FieldTypeDiscriminator {
		return nil, NewFormatError(name, ErrDiscriminatorNotFirst, nil)
	}

	raw, err := r.ReadInt()
	if err != nil {
		return nil, NewFormatError(FieldTypeDiscriminator, ErrFieldType, err)
	}
	b, err := newBuilder(raw)
	if err != nil {
		return nil, err
	}

	for {
		name, ok, err := r.Next()
		if err != nil {
			return nil, NewFormatError("", ErrMalformed, err)
		}
		if !ok {
			return b.variant(), nil
		}

		if name == FieldTypeDiscriminator {
			return nil, NewFormatError(name, ErrDuplicateDiscriminator, nil)
		}

		if !b.wants(name) {
			// unknown field or field of another case
			if err := r.Skip(); err != nil {
				return nil, NewFormatError(name, ErrMalformed, err)
			}
			continue
		}

		if err := readCaseField(b, name, r); err != nil {
			return nil, err
		}
	}
}

// readCaseField reads the value of the field wanted by the builder
func readCaseField(b *builder, name string, r FieldReader) error {
	switch name {
	case FieldOrigin:
		v, err := r.ReadString()
		if err != nil {
			return NewFormatError(name, ErrFieldType, err)
		}
		b.origin = v
	case FieldFat:
		v, err := r.ReadInt()
		if err != nil {
			return NewFormatError(name, ErrFieldType, err)
		}
		return b.setFat(v)
	case FieldIsItSafe:
		v, err := r.ReadBool()
		if err != nil {
			return NewFormatError(name, ErrFieldType, err)
		}
		b.isSafe = v
	}
	return nil
}
