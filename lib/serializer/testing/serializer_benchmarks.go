package testing

import (
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"math/rand"
	"testing"
)

// RunBehaviorBenchmarks runs all benchmarks for a behavior implementation
func RunBehaviorBenchmarks(b *testing.B, name string, factory BehaviorFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("SerializeFlatRecord", func(b *testing.B) {
			benchmarkSerialize(b, factory(), model.NewSampleFlatRecord())
		})

		b.Run("DeserializeFlatRecord", func(b *testing.B) {
			benchmarkDeserialize[model.FlatRecord](b, factory(), model.NewSampleFlatRecord())
		})

		b.Run("SerializeFlatRecords", func(b *testing.B) {
			benchmarkSerialize(b, factory(), model.RandomFlatRecords(rand.New(rand.NewSource(1)), 1000))
		})

		b.Run("DeserializeFlatRecords", func(b *testing.B) {
			benchmarkDeserialize[[]model.FlatRecord](b, factory(), model.RandomFlatRecords(rand.New(rand.NewSource(1)), 1000))
		})

		b.Run("SerializeSampleContainer", func(b *testing.B) {
			benchmarkSerialize(b, factory(), *model.NewSampleContainer())
		})

		b.Run("DeserializeSampleContainer", func(b *testing.B) {
			benchmarkDeserialize[model.Container](b, factory(), *model.NewSampleContainer())
		})

		b.Run("SerializeContainer", func(b *testing.B) {
			benchmarkSerialize(b, factory(), model.RandomContainer(rand.New(rand.NewSource(1)), 100, 100))
		})

		b.Run("DeserializeContainer", func(b *testing.B) {
			benchmarkDeserialize[model.Container](b, factory(), model.RandomContainer(rand.New(rand.NewSource(1)), 100, 100))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSerialize(b *testing.B, behavior serializer.ISerializerBehavior, v any) {
	s := serializer.New(behavior)

	data, err := s.Serialize(v)
	if err != nil {
		b.Fatalf("Failed to serialize: %v", err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := s.Serialize(v); err != nil {
			b.Fatalf("Failed to serialize: %v", err)
		}
	}
}

func benchmarkDeserialize[T any](b *testing.B, behavior serializer.ISerializerBehavior, v T) {
	s := serializer.New(behavior)

	data, err := s.Serialize(v)
	if err != nil {
		b.Fatalf("Failed to serialize: %v", err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := serializer.Deserialize[T](s, data); err != nil {
			b.Fatalf("Failed to deserialize: %v", err)
		}
	}
}
