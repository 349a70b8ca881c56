package serializer

// Feature represents serializer capabilities as bit flags
type Feature uint64

const (
	FeatureAbsentCollections Feature = 1 << iota // Absent (nil) and empty collections stay distinct
	FeatureNativeUnion                           // The format carries the variant tag itself
	FeatureDiscriminator                         // Variants go through the discriminator protocol
	FeatureHumanReadable                         // The output is text
)

func (f Feature) String() string {
	switch f {
	case FeatureAbsentCollections:
		return "AbsentCollections"
	case FeatureNativeUnion:
		return "NativeUnion"
	case FeatureDiscriminator:
		return "Discriminator"
	case FeatureHumanReadable:
		return "HumanReadable"
	default:
		return "Unknown"
	}
}

// ISerializerBehavior is the interface for all serializer backends.
// Implementations are stateless and safe for concurrent use.
type ISerializerBehavior interface {
	// Name returns the name the behavior is registered under
	Name() string
	// Serialize encodes a registered shape (see ShapeOf) into a byte array
	// It returns the encoded bytes and an error if any
	Serialize(v any) ([]byte, error)
	// Deserialize decodes a byte array into out, which must be a pointer to a registered shape
	// It returns an error if the bytes were not produced for a compatible shape
	Deserialize(data []byte, out any) error
	// SupportsFeature reports whether the behavior has the given capability
	SupportsFeature(f Feature) bool
}
