package serializer

import (
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"google.golang.org/protobuf/encoding/protowire"
	"math"
)

const NameProtobuf = "protobuf"

// NewProtobufSerializer creates a new serializer writing the protobuf wire
// format by hand. The messages are equivalent to:
//
//	message FlatRecord  { int32 id = 1; string name = 2; }
//	message FlatRecords { bool present = 1; repeated FlatRecord records = 2; }
//	message Container   { string name = 1; Groups groups = 2; }
//	message Containers  { bool present = 1; repeated Container containers = 2; }
//	message Groups      { repeated Group groups = 1; }
//	message Group       { Items items = 1; }
//	message Items       { repeated Variant items = 1; }
//	message Variant     { int32 TypeDiscriminator = 1; string Origin = 2; int32 Fat = 3; bool IsItSafe = 4; }
//
// The wrapper messages keep absent and empty collections apart.
func NewProtobufSerializer() ISerializerBehavior {
	return &protobufSerializerImpl{}
}

// protobufSerializerImpl implements the ISerializerBehavior interface using protowire
type protobufSerializerImpl struct {
}

const (
	fieldRecordID   protowire.Number = 1
	fieldRecordName protowire.Number = 2

	fieldListPresent protowire.Number = 1
	fieldListItems   protowire.Number = 2

	fieldContainerName   protowire.Number = 1
	fieldContainerGroups protowire.Number = 2

	fieldRepeated   protowire.Number = 1 // Groups.groups and Items.items
	fieldGroupItems protowire.Number = 1
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (p protobufSerializerImpl) Name() string { return NameProtobuf }

func (p protobufSerializerImpl) Serialize(v any) ([]byte, error) {
	buf := make([]byte, 0, 64)

	switch x := valueOf(v).(type) {
	case model.FlatRecord:
		return appendProtoRecord(buf, x), nil
	case []model.FlatRecord:
		if x == nil {
			return buf, nil
		}
		buf = protowire.AppendTag(buf, fieldListPresent, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeBool(true))
		for i := range x {
			buf = protowire.AppendTag(buf, fieldListItems, protowire.BytesType)
			buf = protowire.AppendBytes(buf, appendProtoRecord(nil, x[i]))
		}
		return buf, nil
	case model.Container:
		return appendProtoContainer(buf, x)
	case []model.Container:
		if x == nil {
			return buf, nil
		}
		buf = protowire.AppendTag(buf, fieldListPresent, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeBool(true))
		for i := range x {
			msg, err := appendProtoContainer(nil, x[i])
			if err != nil {
				return nil, fmt.Errorf("container %d: %w", i, err)
			}
			buf = protowire.AppendTag(buf, fieldListItems, protowire.BytesType)
			buf = protowire.AppendBytes(buf, msg)
		}
		return buf, nil
	default:
		return nil, errUnsupportedShape(v)
	}
}

func (p protobufSerializerImpl) Deserialize(data []byte, out any) error {
	switch o := out.(type) {
	case *model.FlatRecord:
		rec, err := decodeProtoRecord(data)
		if err != nil {
			return err
		}
		*o = rec
	case *[]model.FlatRecord:
		var list []model.FlatRecord
		err := protoFields(data, func(f protoField) error {
			switch f.num {
			case fieldListPresent:
				if err := f.expect(protowire.VarintType); err != nil {
					return err
				}
				if list == nil {
					list = []model.FlatRecord{}
				}
			case fieldListItems:
				if err := f.expect(protowire.BytesType); err != nil {
					return err
				}
				rec, err := decodeProtoRecord(f.bytes)
				if err != nil {
					return fmt.Errorf("record %d: %w", len(list), err)
				}
				list = append(list, rec)
			}
			return nil
		})
		if err != nil {
			return err
		}
		*o = list
	case *model.Container:
		c, err := decodeProtoContainer(data)
		if err != nil {
			return err
		}
		*o = c
	case *[]model.Container:
		var list []model.Container
		err := protoFields(data, func(f protoField) error {
			switch f.num {
			case fieldListPresent:
				if err := f.expect(protowire.VarintType); err != nil {
					return err
				}
				if list == nil {
					list = []model.Container{}
				}
			case fieldListItems:
				if err := f.expect(protowire.BytesType); err != nil {
					return err
				}
				c, err := decodeProtoContainer(f.bytes)
				if err != nil {
					return fmt.Errorf("container %d: %w", len(list), err)
				}
				list = append(list, c)
			}
			return nil
		})
		if err != nil {
			return err
		}
		*o = list
	default:
		return errUnsupportedShape(out)
	}
	return nil
}

func (p protobufSerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator) != 0
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func appendProtoRecord(b []byte, r model.FlatRecord) []byte {
	if r.ID != 0 {
		b = protowire.AppendTag(b, fieldRecordID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(r.ID)))
	}
	if r.Name != "" {
		b = protowire.AppendTag(b, fieldRecordName, protowire.BytesType)
		b = protowire.AppendString(b, r.Name)
	}
	return b
}

func appendProtoContainer(b []byte, c model.Container) ([]byte, error) {
	if c.Name != "" {
		b = protowire.AppendTag(b, fieldContainerName, protowire.BytesType)
		b = protowire.AppendString(b, c.Name)
	}
	if c.Groups == nil {
		return b, nil
	}

	var groups []byte
	for i, g := range c.Groups {
		var group []byte
		if g.Items != nil {
			var items []byte
			for j, v := range g.Items {
				msg, err := appendProtoVariant(nil, v)
				if err != nil {
					return nil, fmt.Errorf("group %d item %d: %w", i, j, err)
				}
				items = protowire.AppendTag(items, fieldRepeated, protowire.BytesType)
				items = protowire.AppendBytes(items, msg)
			}
			group = protowire.AppendTag(group, fieldGroupItems, protowire.BytesType)
			group = protowire.AppendBytes(group, items)
		}
		groups = protowire.AppendTag(groups, fieldRepeated, protowire.BytesType)
		groups = protowire.AppendBytes(groups, group)
	}
	b = protowire.AppendTag(b, fieldContainerGroups, protowire.BytesType)
	b = protowire.AppendBytes(b, groups)
	return b, nil
}

func appendProtoVariant(b []byte, v model.Variant) ([]byte, error) {
	v, err := checkedVariant(v)
	if err != nil {
		return nil, err
	}
	w := &protoFieldWriter{buf: b}
	if err := discriminator.Encode(w, v); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// protoFieldWriter writes variant fields into their numbered slots.
// Every field is written, zero values included.
type protoFieldWriter struct {
	buf []byte
}

func (w *protoFieldWriter) tag(name string, typ protowire.Type) error {
	number, ok := discriminator.FieldNumber(name)
	if !ok {
		return fmt.Errorf("no field number for %s", name)
	}
	w.buf = protowire.AppendTag(w.buf, protowire.Number(number), typ)
	return nil
}

func (w *protoFieldWriter) WriteInt(name string, v int64) error {
	if err := w.tag(name, protowire.VarintType); err != nil {
		return err
	}
	w.buf = protowire.AppendVarint(w.buf, uint64(v))
	return nil
}

func (w *protoFieldWriter) WriteString(name string, v string) error {
	if err := w.tag(name, protowire.BytesType); err != nil {
		return err
	}
	w.buf = protowire.AppendString(w.buf, v)
	return nil
}

func (w *protoFieldWriter) WriteBool(name string, v bool) error {
	if err := w.tag(name, protowire.VarintType); err != nil {
		return err
	}
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeBool(v))
	return nil
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// protoField is one parsed field. Only varint and length delimited values
// are kept, other wire types are consumed and reported by type.
type protoField struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f protoField) expect(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("field %d has wire type %d, want %d", f.num, f.typ, typ)
	}
	return nil
}

// protoFields calls fn for every field of a message in wire order
func protoFields(b []byte, fn func(f protoField) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := protoField{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func decodeProtoRecord(b []byte) (model.FlatRecord, error) {
	var r model.FlatRecord
	err := protoFields(b, func(f protoField) error {
		switch f.num {
		case fieldRecordID:
			if err := f.expect(protowire.VarintType); err != nil {
				return err
			}
			// int32 values travel sign extended to 64 bits
			id := int64(f.varint)
			if id < math.MinInt32 || id > math.MaxInt32 {
				return discriminator.NewFormatError("id", discriminator.ErrFieldType, fmt.Errorf("record id %d overflows int32", id))
			}
			r.ID = int32(id)
		case fieldRecordName:
			if err := f.expect(protowire.BytesType); err != nil {
				return err
			}
			r.Name = string(f.bytes)
		}
		return nil
	})
	return r, err
}

func decodeProtoContainer(b []byte) (model.Container, error) {
	var c model.Container
	err := protoFields(b, func(f protoField) error {
		switch f.num {
		case fieldContainerName:
			if err := f.expect(protowire.BytesType); err != nil {
				return err
			}
			c.Name = string(f.bytes)
		case fieldContainerGroups:
			if err := f.expect(protowire.BytesType); err != nil {
				return err
			}
			if c.Groups == nil {
				c.Groups = []model.Group{}
			}
			return protoFields(f.bytes, func(f protoField) error {
				if f.num != fieldRepeated {
					return nil
				}
				if err := f.expect(protowire.BytesType); err != nil {
					return err
				}
				g, err := decodeProtoGroup(f.bytes)
				if err != nil {
					return fmt.Errorf("group %d: %w", len(c.Groups), err)
				}
				c.Groups = append(c.Groups, g)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return model.Container{}, err
	}
	return c, nil
}

func decodeProtoGroup(b []byte) (model.Group, error) {
	var g model.Group
	err := protoFields(b, func(f protoField) error {
		if f.num != fieldGroupItems {
			return nil
		}
		if err := f.expect(protowire.BytesType); err != nil {
			return err
		}
		if g.Items == nil {
			g.Items = []model.Variant{}
		}
		return protoFields(f.bytes, func(f protoField) error {
			if f.num != fieldRepeated {
				return nil
			}
			if err := f.expect(protowire.BytesType); err != nil {
				return err
			}
			v, err := decodeProtoVariant(f.bytes)
			if err != nil {
				return fmt.Errorf("item %d: %w", len(g.Items), err)
			}
			g.Items = append(g.Items, v)
			return nil
		})
	})
	return g, err
}

// decodeProtoVariant maps the numbered slots back to wire names and decodes
// them by name. A later occurrence of a field replaces an earlier one.
func decodeProtoVariant(b []byte) (model.Variant, error) {
	fields := discriminator.MapSource{}
	err := protoFields(b, func(f protoField) error {
		name, ok := discriminator.FieldName(int(f.num))
		if !ok {
			return nil
		}
		switch f.typ {
		case protowire.VarintType:
			if name == discriminator.FieldIsItSafe {
				fields[name] = protowire.DecodeBool(f.varint)
			} else {
				fields[name] = int64(f.varint)
			}
		case protowire.BytesType:
			fields[name] = string(f.bytes)
		default:
			fields[name] = f.typ
		}
		return nil
	})
	if err != nil {
		return nil, discriminator.NewFormatError("", discriminator.ErrMalformed, err)
	}
	return discriminator.DecodeIndexed(fields)
}
