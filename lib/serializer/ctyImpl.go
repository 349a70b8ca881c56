package serializer

import (
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

const NameCty = "cty"

var (
	ctyRecordType = cty.Object(map[string]cty.Type{
		"ID":   cty.Number,
		"Name": cty.String,
	})

	// every protocol field is an attribute, the ones not used by a case are null
	ctyVariantType = cty.Object(map[string]cty.Type{
		discriminator.FieldTypeDiscriminator: cty.Number,
		discriminator.FieldOrigin:            cty.String,
		discriminator.FieldFat:               cty.Number,
		discriminator.FieldIsItSafe:          cty.Bool,
	})

	ctyGroupType = cty.Object(map[string]cty.Type{
		"Items": cty.List(ctyVariantType),
	})

	ctyContainerType = cty.Object(map[string]cty.Type{
		"Name":   cty.String,
		"Groups": cty.List(ctyGroupType),
	})
)

// NewCtySerializer creates a new serializer converting the model to
// go-cty values and encoding them with the cty msgpack codec.
// Absent collections are null lists. cty normalizes strings to NFC, so
// strings in another form are rejected on serialize.
func NewCtySerializer() ISerializerBehavior {
	return &ctySerializerImpl{}
}

// ctySerializerImpl implements the ISerializerBehavior interface using go-cty
type ctySerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (c ctySerializerImpl) Name() string { return NameCty }

func (c ctySerializerImpl) Serialize(v any) ([]byte, error) {
	if err := checkText(v, nfcText); err != nil {
		return nil, err
	}
	switch x := valueOf(v).(type) {
	case model.FlatRecord:
		return ctymsgpack.Marshal(ctyRecord(x), ctyRecordType)
	case []model.FlatRecord:
		vals := make([]cty.Value, len(x))
		for i := range x {
			vals[i] = ctyRecord(x[i])
		}
		return ctymsgpack.Marshal(ctyList(vals, x == nil, ctyRecordType), cty.List(ctyRecordType))
	case model.Container:
		val, err := ctyContainer(x)
		if err != nil {
			return nil, err
		}
		return ctymsgpack.Marshal(val, ctyContainerType)
	case []model.Container:
		vals := make([]cty.Value, len(x))
		for i := range x {
			val, err := ctyContainer(x[i])
			if err != nil {
				return nil, fmt.Errorf("container %d: %w", i, err)
			}
			vals[i] = val
		}
		return ctymsgpack.Marshal(ctyList(vals, x == nil, ctyContainerType), cty.List(ctyContainerType))
	default:
		return nil, errUnsupportedShape(v)
	}
}

func (c ctySerializerImpl) Deserialize(data []byte, out any) error {
	switch o := out.(type) {
	case *model.FlatRecord:
		val, err := ctymsgpack.Unmarshal(data, ctyRecordType)
		if err != nil {
			return err
		}
		rec, err := fromCtyRecord(val)
		if err != nil {
			return err
		}
		*o = rec
	case *[]model.FlatRecord:
		val, err := ctymsgpack.Unmarshal(data, cty.List(ctyRecordType))
		if err != nil {
			return err
		}
		list, err := fromCtyList(val, fromCtyRecord)
		if err != nil {
			return err
		}
		*o = list
	case *model.Container:
		val, err := ctymsgpack.Unmarshal(data, ctyContainerType)
		if err != nil {
			return err
		}
		decoded, err := fromCtyContainer(val)
		if err != nil {
			return err
		}
		*o = decoded
	case *[]model.Container:
		val, err := ctymsgpack.Unmarshal(data, cty.List(ctyContainerType))
		if err != nil {
			return err
		}
		list, err := fromCtyList(val, fromCtyContainer)
		if err != nil {
			return err
		}
		*o = list
	default:
		return errUnsupportedShape(out)
	}
	return nil
}

func (c ctySerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator) != 0
}

// --------------------------------------------------------------------------
// Model to cty
// --------------------------------------------------------------------------

// ctyList builds a list value, null if absent. cty.ListVal rejects empty input.
func ctyList(vals []cty.Value, absent bool, elem cty.Type) cty.Value {
	switch {
	case absent:
		return cty.NullVal(cty.List(elem))
	case len(vals) == 0:
		return cty.ListValEmpty(elem)
	default:
		return cty.ListVal(vals)
	}
}

func ctyRecord(r model.FlatRecord) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"ID":   cty.NumberIntVal(int64(r.ID)),
		"Name": cty.StringVal(r.Name),
	})
}

func ctyContainer(c model.Container) (cty.Value, error) {
	groups := make([]cty.Value, len(c.Groups))
	for i, g := range c.Groups {
		items := make([]cty.Value, len(g.Items))
		for j, v := range g.Items {
			val, err := ctyVariant(v)
			if err != nil {
				return cty.NilVal, fmt.Errorf("group %d item %d: %w", i, j, err)
			}
			items[j] = val
		}
		groups[i] = cty.ObjectVal(map[string]cty.Value{
			"Items": ctyList(items, g.Items == nil, ctyVariantType),
		})
	}
	return cty.ObjectVal(map[string]cty.Value{
		"Name":   cty.StringVal(c.Name),
		"Groups": ctyList(groups, c.Groups == nil, ctyGroupType),
	}), nil
}

func ctyVariant(v model.Variant) (cty.Value, error) {
	v, err := checkedVariant(v)
	if err != nil {
		return cty.NilVal, err
	}
	w := &ctyFieldWriter{attrs: map[string]cty.Value{
		discriminator.FieldTypeDiscriminator: cty.NullVal(cty.Number),
		discriminator.FieldOrigin:            cty.NullVal(cty.String),
		discriminator.FieldFat:               cty.NullVal(cty.Number),
		discriminator.FieldIsItSafe:          cty.NullVal(cty.Bool),
	}}
	if err := discriminator.Encode(w, v); err != nil {
		return cty.NilVal, err
	}
	return cty.ObjectVal(w.attrs), nil
}

// ctyFieldWriter fills the attributes of a variant object
type ctyFieldWriter struct {
	attrs map[string]cty.Value
}

func (w *ctyFieldWriter) WriteInt(name string, v int64) error {
	w.attrs[name] = cty.NumberIntVal(v)
	return nil
}

func (w *ctyFieldWriter) WriteString(name string, v string) error {
	w.attrs[name] = cty.StringVal(v)
	return nil
}

func (w *ctyFieldWriter) WriteBool(name string, v bool) error {
	w.attrs[name] = cty.BoolVal(v)
	return nil
}

// --------------------------------------------------------------------------
// cty to model
// --------------------------------------------------------------------------

func fromCtyList[T any](val cty.Value, elem func(cty.Value) (T, error)) ([]T, error) {
	if val.IsNull() {
		return nil, nil
	}
	out := make([]T, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		e, err := elem(ev)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(out), err)
		}
		out = append(out, e)
	}
	return out, nil
}

func ctyString(val cty.Value) string {
	if val.IsNull() {
		return ""
	}
	return val.AsString()
}

func fromCtyRecord(val cty.Value) (model.FlatRecord, error) {
	if val.IsNull() {
		return model.FlatRecord{}, nil
	}
	var r model.FlatRecord
	if id := val.GetAttr("ID"); !id.IsNull() {
		if err := gocty.FromCtyValue(id, &r.ID); err != nil {
			return model.FlatRecord{}, err
		}
	}
	r.Name = ctyString(val.GetAttr("Name"))
	return r, nil
}

func fromCtyContainer(val cty.Value) (model.Container, error) {
	if val.IsNull() {
		return model.Container{}, nil
	}
	c := model.Container{Name: ctyString(val.GetAttr("Name"))}
	groups, err := fromCtyList(val.GetAttr("Groups"), fromCtyGroup)
	if err != nil {
		return model.Container{}, err
	}
	c.Groups = groups
	return c, nil
}

func fromCtyGroup(val cty.Value) (model.Group, error) {
	if val.IsNull() {
		return model.Group{}, nil
	}
	items, err := fromCtyList(val.GetAttr("Items"), fromCtyVariant)
	return model.Group{Items: items}, err
}

func fromCtyVariant(val cty.Value) (model.Variant, error) {
	if val.IsNull() {
		return nil, discriminator.NewFormatError(discriminator.FieldTypeDiscriminator, discriminator.ErrMissingDiscriminator, nil)
	}
	return discriminator.DecodeIndexed(ctySource{obj: val})
}

// ctySource exposes the attributes of a variant object to DecodeIndexed
type ctySource struct {
	obj cty.Value
}

func (s ctySource) Lookup(name string) (any, bool) {
	if !s.obj.Type().HasAttribute(name) {
		return nil, false
	}
	attr := s.obj.GetAttr(name)
	if attr.IsNull() {
		return nil, true
	}
	switch ty := attr.Type(); {
	case ty.Equals(cty.Number):
		var n int64
		if err := gocty.FromCtyValue(attr, &n); err != nil {
			// not an int64, the text form fails the integer check
			return attr.AsBigFloat().Text('g', -1), true
		}
		return n, true
	case ty.Equals(cty.String):
		return attr.AsString(), true
	case ty.Equals(cty.Bool):
		return attr.True(), true
	default:
		return attr.GoString(), true
	}
}
