// Package testing provides standardised tests and benchmarks for
// serializer backends that satisfy the serializer.ISerializerBehavior interface.
//
// The package contains:
//   - testing: A conformance suite covering round trips of every registered shape,
//     variant discrimination, absent versus empty collections, absent and
//     unregistered input, inequality after mutation and concurrent use
//   - benchmark: Performance tests for encoding and decoding simple and complex objects
//
// Behaviors that cannot keep absent and empty collections apart (see
// serializer.FeatureAbsentCollections) are checked for the collapse instead:
// empty collections have to come back absent.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() serializer.ISerializerBehavior {
//		return NewMySerializer()
//	}
//
//	// Running the standard test suite
//	sertesting.RunBehaviorTests(t, "MySerializer", factory)
//
//	// Running performance benchmarks
//	sertesting.RunBehaviorBenchmarks(b, "MySerializer", factory)
package testing
