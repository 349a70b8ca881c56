// Package discriminator implements the type discriminator protocol used to
// carry the closed model.Variant sum type through formats that can only
// serialize concrete, statically known shapes.
//
// Wire Shape:
//
//	Every variant is written as a single object with the integer field
//	TypeDiscriminator (1 = Chocolate, 2 = Peanut, 3 = Green) followed by the
//	field of its case: Origin (string), Fat (integer) or IsItSafe (boolean).
//	The discriminator always comes first. Formats that address fields by
//	number use the slots TypeDiscriminator=1, Origin=2, Fat=3, IsItSafe=4.
//
// Key Components:
//
//   - FieldWriter / Encode: A format adapter implements FieldWriter, Encode
//     drives it in the contractual field order.
//
//   - FieldReader / DecodeStrict: For streaming readers that see fields in
//     order. The first field must be the discriminator.
//
//   - Source / DecodeIndexed: For readers that have already parsed the
//     object and can look fields up by name. The discriminator must be
//     present, its position does not matter.
//
// Decoding Rules (both decoders):
//
//   - An unknown discriminator value is a FormatError, there is no default case
//   - Unknown fields and fields of other cases are skipped
//   - A missing case field leaves the zero value of its type
//   - A case field of the wrong type is a FormatError
//   - A failed decode never returns a partially filled variant
//
// Every decode failure satisfies errors.Is(err, ErrFormat) and can be
// inspected with errors.As(err, **FormatError).
package discriminator
