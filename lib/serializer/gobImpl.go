package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"strings"
)

const NameGOB = "gob"

func init() {
	gob.Register(model.Chocolate{})
	gob.Register(model.Peanut{})
	gob.Register(model.Green{})
}

// NewGOBSerializer creates a new serializer using Go's binary gob format.
// Variants travel as registered interface values. gob omits empty slices,
// so empty collections come back absent.
func NewGOBSerializer() ISerializerBehavior {
	return &gobSerializerImpl{
		codec: reflectCodec[model.Variant, model.Variant]{
			marshal:   gobMarshal,
			unmarshal: gobUnmarshal,
			wrap:      checkedVariant,
			unwrap:    gobVariant,
		},
	}
}

// gobSerializerImpl implements the ISerializerBehavior interface using gob encoding
type gobSerializerImpl struct {
	codec reflectCodec[model.Variant, model.Variant]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Name() string { return NameGOB }

func (g gobSerializerImpl) Serialize(v any) ([]byte, error) {
	return g.codec.serialize(v)
}

func (g gobSerializerImpl) Deserialize(data []byte, out any) error {
	return g.codec.deserialize(data, out)
}

func (g gobSerializerImpl) SupportsFeature(f Feature) bool {
	return f&FeatureNativeUnion != 0
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func gobMarshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobUnmarshal(b []byte, v any) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	err := dec.Decode(v)
	// gob reports a foreign interface type name only through the message
	if err != nil && strings.Contains(err.Error(), "name not registered for interface") {
		return errUnknownUnionTag(fmt.Errorf("%w: %v", model.ErrUnknownKind, err))
	}
	return err
}

// gobVariant rejects a decoded interface that holds no variant case
func gobVariant(v model.Variant) (model.Variant, error) {
	checked, err := checkedVariant(v)
	if err != nil {
		return nil, discriminator.NewFormatError("", discriminator.ErrMalformed, err)
	}
	return checked, nil
}

// errUnknownUnionTag reports a native union tag that names no variant case
func errUnknownUnionTag(cause error) error {
	return discriminator.NewFormatError("", discriminator.ErrUnknownDiscriminator, cause)
}
