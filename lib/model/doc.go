// Package model defines the value objects exercised by the serializer
// benchmark: a flat record and a nested object graph whose leaves are a
// closed sum type.
//
// The package focuses on:
//   - A format-agnostic data model (no codec tags or hooks live here)
//   - The closed Variant sum type and its registry (Kind <-> case)
//   - A deep structural equality contract used to verify round trips
//   - Sample factories for the benchmark driver and the tests
//
// Key Components:
//
//   - FlatRecord: A two-field record (ID, Name) compared field by field.
//
//   - Container / Group: The nested graph. Container owns an ordered list
//     of groups, each group owns an ordered list of variants. A nil slice
//     means "absent" and is distinct from an empty slice.
//
//   - Variant: Sealed interface implemented by exactly Chocolate, Peanut and
//     Green. Code outside this package can switch over the cases but cannot
//     add new ones.
//
//   - Kind: The discriminator enumeration (1 = Chocolate, 2 = Peanut,
//     3 = Green). KindOf and NewVariant translate between a Kind and a case
//     and are used by every codec in both directions.
//
// Equality:
//
//	Equality is value based on every field. Pointer identity is only used as a
//	fast path when a value is compared to itself. Variants of different cases
//	are never equal. An absent collection is only equal to another absent
//	collection.
//
// Thread Safety:
//
//	All types are plain values. They are never mutated by the codec layer and
//	can be shared read-only across goroutines.
package model
