package serializer

import (
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"github.com/vmihailenco/msgpack/v5"
)

const NameMsgpack = "msgpack"

// Union tags of the msgpack variant encoding, one per case
const (
	msgpackTagChocolate = 100
	msgpackTagPeanut    = 200
	msgpackTagGreen     = 300
)

// NewMsgpackSerializer creates a new serializer using msgpack encoding.
// Variants are written as a two element array [tag, case] and do not use
// the discriminator protocol.
func NewMsgpackSerializer() ISerializerBehavior {
	return &msgpackSerializerImpl{
		codec: reflectCodec[msgpackVariant, msgpackVariant]{
			marshal:   msgpack.Marshal,
			unmarshal: msgpack.Unmarshal,
			wrap: func(v model.Variant) (msgpackVariant, error) {
				v, err := checkedVariant(v)
				return msgpackVariant{v: v}, err
			},
			unwrap: func(v msgpackVariant) (model.Variant, error) { return checkedVariant(v.v) },
		},
	}
}

// msgpackSerializerImpl implements the ISerializerBehavior interface using msgpack encoding
type msgpackSerializerImpl struct {
	codec reflectCodec[msgpackVariant, msgpackVariant]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) Name() string { return NameMsgpack }

func (m msgpackSerializerImpl) Serialize(v any) ([]byte, error) {
	return m.codec.serialize(v)
}

func (m msgpackSerializerImpl) Deserialize(data []byte, out any) error {
	return m.codec.deserialize(data, out)
}

func (m msgpackSerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureNativeUnion) != 0
}

// --------------------------------------------------------------------------
// Variant union
// --------------------------------------------------------------------------

// msgpackVariant carries one variant through msgpack.
// A nil element decodes to an empty msgpackVariant and is rejected on unwrap.
type msgpackVariant struct {
	v model.Variant
}

func (m msgpackVariant) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	switch c := m.v.(type) {
	case model.Chocolate:
		if err := enc.EncodeInt(msgpackTagChocolate); err != nil {
			return err
		}
		return enc.Encode(c)
	case model.Peanut:
		if err := enc.EncodeInt(msgpackTagPeanut); err != nil {
			return err
		}
		return enc.Encode(c)
	case model.Green:
		if err := enc.EncodeInt(msgpackTagGreen); err != nil {
			return err
		}
		return enc.Encode(c)
	default:
		return fmt.Errorf("%w: %T", model.ErrUnknownKind, m.v)
	}
}

func (m *msgpackVariant) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return discriminator.NewFormatError("", discriminator.ErrMalformed, fmt.Errorf("msgpack: variant union has %d elements, want 2", n))
	}
	tag, err := dec.DecodeInt64()
	if err != nil {
		return err
	}

	switch tag {
	case msgpackTagChocolate:
		var c model.Chocolate
		err = dec.Decode(&c)
		m.v = c
	case msgpackTagPeanut:
		var c model.Peanut
		err = dec.Decode(&c)
		m.v = c
	case msgpackTagGreen:
		var c model.Green
		err = dec.Decode(&c)
		m.v = c
	default:
		return errUnknownUnionTag(fmt.Errorf("%w: msgpack union tag %d", model.ErrUnknownKind, tag))
	}
	return err
}
