package serializer

import (
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"github.com/bytedance/sonic"
)

const NameSonic = "sonic"

// sonicAPI keeps numbers as json.Number so integers never pass through float64
var sonicAPI = sonic.Config{
	UseNumber:   true,
	EscapeHTML:  false,
	SortMapKeys: false,
}.Froze()

// NewSonicSerializer creates a new serializer using the sonic json library.
// Variants are written like the json serializer but read back through a
// generic map, so the discriminator may appear at any position.
func NewSonicSerializer() ISerializerBehavior {
	return &sonicSerializerImpl{
		codec: reflectCodec[jsonVariant, map[string]any]{
			marshal:   sonicAPI.Marshal,
			unmarshal: sonicAPI.Unmarshal,
			wrap:      wrapJSONVariant,
			unwrap:    decodeMapVariant,
		},
	}
}

// sonicSerializerImpl implements the ISerializerBehavior interface using sonic
type sonicSerializerImpl struct {
	codec reflectCodec[jsonVariant, map[string]any]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (s sonicSerializerImpl) Name() string { return NameSonic }

func (s sonicSerializerImpl) Serialize(v any) ([]byte, error) {
	if err := checkText(v, utf8Text); err != nil {
		return nil, err
	}
	return s.codec.serialize(v)
}

func (s sonicSerializerImpl) Deserialize(data []byte, out any) error {
	return s.codec.deserialize(data, out)
}

func (s sonicSerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator|FeatureHumanReadable) != 0
}

// decodeMapVariant decodes a variant parsed into a generic map.
// A null element arrives as a nil map and fails for the missing discriminator.
func decodeMapVariant(m map[string]any) (model.Variant, error) {
	return discriminator.DecodeIndexed(discriminator.MapSource(m))
}
