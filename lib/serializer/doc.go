// Package serializer provides the pluggable codec layer of serbench. It defines a
// common behavior interface, a facade that guards every behavior against absent
// and unregistered input, and one adapter per wire format.
//
// The package focuses on:
//   - Providing a consistent interface for very different serialization formats
//   - Keeping the data model free of format concerns (every adapter owns its wire types)
//   - Supporting both polymorphism paths: native tagged unions and the manual
//     discriminator protocol (see package discriminator)
//   - Keeping absent and empty collections apart wherever the format allows it
//
// Key Components:
//
//   - ISerializerBehavior: Core interface that all backends must satisfy.
//
//   - Serializer: Facade around a behavior. Serializing nil or a value of an
//     unregistered type yields a nil result without an error, deserializing nil
//     data yields the zero value. Backend errors are wrapped with the behavior name,
//     a discriminator.FormatError stays reachable through errors.As.
//
//   - Registry: Named factories for all built-in behaviors (Register, Lookup, Names, All).
//
//   - Backends:
//
//   - json: encoding/json with a streaming variant reader. The discriminator
//     has to be the first field of every variant object.
//
//   - sonic: bytedance/sonic. Written like json, variants are read by name.
//
//   - yaml: gopkg.in/yaml.v3, variants read by name.
//
//   - xml: encoding/xml, collections are wrapped in an element so that
//     absent (no element) and empty (element without children) differ.
//
//   - protobuf: the protobuf wire format written with protowire. Variant
//     fields live in fixed numbered slots.
//
//   - binary: custom format based on presence flags and length prefixes,
//     variants use numbered, typed fields read in order.
//
//   - cty: go-cty values encoded with the cty msgpack codec against a fixed
//     schema, absent collections are typed nulls.
//
//   - msgpack: vmihailenco/msgpack with a native [tag, case] union.
//
//   - gob: Go's gob format with registered interface values. gob omits empty
//     slices, so empty collections come back absent.
//
// Features:
//
//	Backends report their capabilities through SupportsFeature, e.g.
//	FeatureAbsentCollections is not supported by gob. The conformance suite in
//	package testing uses these flags to choose the expected outcome.
//
// Text:
//
//	The text formats refuse strings they would change. json, sonic and yaml
//	need valid UTF-8, xml needs XML 1.0 characters and cty needs NFC text.
//	Such a Serialize call fails with ErrUnrepresentableText.
//
// Thread Safety:
//
//	All behaviors and the facade are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	b, err := serializer.Lookup("json")
//	if err != nil { ... }
//	s := serializer.New(b)
//	data, err := s.Serialize(model.NewSampleContainer())
//	// ...
//	c, err := serializer.Deserialize[model.Container](s, data)
package serializer
