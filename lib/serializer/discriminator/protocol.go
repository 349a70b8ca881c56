package discriminator

import (
	"github.com/ValentinKolb/serbench/lib/model"
)

// --------------------------------------------------------------------------
// Wire Names
// --------------------------------------------------------------------------

const (
	FieldTypeDiscriminator = "TypeDiscriminator"
	FieldOrigin            = "Origin"
	FieldFat               = "Fat"
	FieldIsItSafe          = "IsItSafe"
)

// Field numbers for formats with pre-declared numeric slots
const (
	NumberTypeDiscriminator = 1
	NumberOrigin            = 2
	NumberFat               = 3
	NumberIsItSafe          = 4
)

var (
	fieldNumbers = map[string]int{
		FieldTypeDiscriminator: NumberTypeDiscriminator,
		FieldOrigin:            NumberOrigin,
		FieldFat:               NumberFat,
		FieldIsItSafe:          NumberIsItSafe,
	}
	fieldNames = map[int]string{
		NumberTypeDiscriminator: FieldTypeDiscriminator,
		NumberOrigin:            FieldOrigin,
		NumberFat:               FieldFat,
		NumberIsItSafe:          FieldIsItSafe,
	}
)

// FieldNumber returns the numeric slot of a wire field name
func FieldNumber(name string) (int, bool) {
	n, ok := fieldNumbers[name]
	return n, ok
}

// FieldName returns the wire field name of a numeric slot
func FieldName(number int) (string, bool) {
	name, ok := fieldNames[number]
	return name, ok
}

// CaseField returns the wire name of the single field carried by a case
func CaseField(k model.Kind) (string, bool) {
	switch k {
	case model.KindChocolate:
		return FieldOrigin, true
	case model.KindPeanut:
		return FieldFat, true
	case model.KindGreen:
		return FieldIsItSafe, true
	default:
		return "", false
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// FieldWriter receives the fields of one variant object in wire order.
// Opening and closing the object is left to the format adapter.
type FieldWriter interface {
	WriteInt(name string, v int64) error
	WriteString(name string, v string) error
	WriteBool(name string, v bool) error
}

// Encode writes the discriminator of v followed by the field of its case
func Encode(w FieldWriter, v model.Variant) error {
	v = model.Normalize(v)
	kind, err := model.KindOf(v)
	if err != nil {
		return err
	}

	if err := w.WriteInt(FieldTypeDiscriminator, int64(kind)); err != nil {
		return err
	}

	switch c := v.(type) {
	case model.Chocolate:
		return w.WriteString(FieldOrigin, c.Origin)
	case model.Peanut:
		return w.WriteInt(FieldFat, int64(c.Fat))
	case model.Green:
		return w.WriteBool(FieldIsItSafe, c.IsSafe)
	}
	return nil
}

// --------------------------------------------------------------------------
// Variant Builder (shared by both decoders)
// --------------------------------------------------------------------------

// builder collects the fields of the case selected by the discriminator
type builder struct {
	kind   model.Kind
	origin string
	fat    int32
	isSafe bool
}

func newBuilder(raw int64) (*builder, error) {
	kind, err := model.KindFromInt(raw)
	if err != nil {
		return nil, NewFormatError(FieldTypeDiscriminator, ErrUnknownDiscriminator, err)
	}
	return &builder{kind: kind}, nil
}

// wants reports whether name is the field of the selected case
func (b *builder) wants(name string) bool {
	field, _ := CaseField(b.kind)
	return field == name
}

func (b *builder) setFat(v int64) error {
	if v < -1<<31 || v > 1<<31-1 {
		return NewFormatError(FieldFat, ErrFieldType, nil)
	}
	b.fat = int32(v)
	return nil
}

func (b *builder) variant() model.Variant {
	switch b.kind {
	case model.KindChocolate:
		return model.Chocolate{Origin: b.origin}
	case model.KindPeanut:
		return model.Peanut{Fat: b.fat}
	default:
		return model.Green{IsSafe: b.isSafe}
	}
}
