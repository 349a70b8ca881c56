package serializer_test

import (
	"errors"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	sertesting "github.com/ValentinKolb/serbench/lib/serializer/testing"
	"reflect"
	"testing"
)

// TestBehaviors runs the conformance suite for every registered behavior
func TestBehaviors(t *testing.T) {
	for _, name := range serializer.Names() {
		sertesting.RunBehaviorTests(t, name, func() serializer.ISerializerBehavior {
			b, err := serializer.Lookup(name)
			if err != nil {
				t.Fatalf("Failed to look up %s: %v", name, err)
			}
			return b
		})
	}
}

func BenchmarkBehaviors(b *testing.B) {
	for _, name := range serializer.Names() {
		sertesting.RunBehaviorBenchmarks(b, name, func() serializer.ISerializerBehavior {
			behavior, _ := serializer.Lookup(name)
			return behavior
		})
	}
}

// TestRegistry tests the named behavior registry
func TestRegistry(t *testing.T) {
	want := []string{"binary", "cty", "gob", "json", "msgpack", "protobuf", "sonic", "xml", "yaml"}
	if got := serializer.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected names %v, got %v", want, got)
	}

	for _, name := range want {
		b, err := serializer.Lookup(name)
		if err != nil {
			t.Errorf("Failed to look up %s: %v", name, err)
			continue
		}
		if b.Name() != name {
			t.Errorf("Expected behavior %s to report its name, got %s", name, b.Name())
		}
	}

	if _, err := serializer.Lookup("avro"); err == nil {
		t.Errorf("Expected an error for an unknown behavior")
	}

	all := serializer.All()
	if len(all) != len(want) {
		t.Fatalf("Expected %d serializers, got %d", len(want), len(all))
	}
	for i, s := range all {
		if s.Name() != want[i] {
			t.Errorf("Expected serializer %d to be %s, got %s", i, want[i], s.Name())
		}
	}
}

// TestFeatures tests the reported capabilities of the built-in behaviors
func TestFeatures(t *testing.T) {
	testCases := []struct {
		name          string
		absent        bool
		nativeUnion   bool
		discriminator bool
		text          bool
	}{
		{name: "json", absent: true, discriminator: true, text: true},
		{name: "sonic", absent: true, discriminator: true, text: true},
		{name: "yaml", absent: true, discriminator: true, text: true},
		{name: "xml", absent: true, discriminator: true, text: true},
		{name: "protobuf", absent: true, discriminator: true},
		{name: "binary", absent: true, discriminator: true},
		{name: "cty", absent: true, discriminator: true},
		{name: "msgpack", absent: true, nativeUnion: true},
		{name: "gob", nativeUnion: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := serializer.Lookup(tc.name)
			if err != nil {
				t.Fatalf("Failed to look up %s: %v", tc.name, err)
			}
			checks := map[serializer.Feature]bool{
				serializer.FeatureAbsentCollections: tc.absent,
				serializer.FeatureNativeUnion:       tc.nativeUnion,
				serializer.FeatureDiscriminator:     tc.discriminator,
				serializer.FeatureHumanReadable:     tc.text,
			}
			for feature, want := range checks {
				if got := b.SupportsFeature(feature); got != want {
					t.Errorf("Expected SupportsFeature(%s) = %v, got %v", feature, want, got)
				}
			}
		})
	}
}

// TestFacadeErrors tests that backend errors are wrapped with the behavior
// name and the format error stays reachable
func TestFacadeErrors(t *testing.T) {
	s := serializer.New(serializer.NewJSONSerializer())

	data := []byte(`{"Name":"x","Groups":[{"Items":[{"Origin":"Xen","TypeDiscriminator":1}]}]}`)
	_, err := serializer.Deserialize[model.Container](s, data)
	if err == nil {
		t.Fatalf("Expected an error for a discriminator that is not the first field")
	}

	if !errors.Is(err, discriminator.ErrFormat) {
		t.Errorf("Expected a format error, got %v", err)
	}
	if !errors.Is(err, discriminator.ErrDiscriminatorNotFirst) {
		t.Errorf("Expected ErrDiscriminatorNotFirst, got %v", err)
	}
	var formatErr *discriminator.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Expected a *FormatError, got %T", err)
	}
	if formatErr.Field != discriminator.FieldOrigin {
		t.Errorf("Expected the offending field %s, got %s", discriminator.FieldOrigin, formatErr.Field)
	}
}

// TestDeserializeTarget tests value and pointer targets of the generic decoder
func TestDeserializeTarget(t *testing.T) {
	s := serializer.New(serializer.NewBinarySerializer())
	want := model.NewSampleContainer()

	data, err := s.Serialize(want)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	value, err := serializer.Deserialize[model.Container](s, data)
	if err != nil {
		t.Fatalf("Failed to deserialize value: %v", err)
	}
	if !want.Equal(&value) {
		t.Errorf("Value target doesn't match after round trip")
	}

	ptr, err := serializer.Deserialize[*model.Container](s, data)
	if err != nil {
		t.Fatalf("Failed to deserialize pointer: %v", err)
	}
	if !want.Equal(ptr) {
		t.Errorf("Pointer target doesn't match after round trip")
	}

	// decoding into an existing value replaces it completely
	target := model.Container{Name: "old", Groups: []model.Group{{}, {}, {}}}
	if err := s.DeserializeInto(data, &target); err != nil {
		t.Fatalf("Failed to deserialize into target: %v", err)
	}
	if !want.Equal(&target) {
		t.Errorf("Existing target doesn't match after round trip")
	}
}

// TestShapeOf tests the serializable type registry
func TestShapeOf(t *testing.T) {
	testCases := []struct {
		value any
		want  serializer.Shape
	}{
		{model.FlatRecord{}, serializer.ShapeFlatRecord},
		{&model.FlatRecord{}, serializer.ShapeFlatRecord},
		{[]model.FlatRecord(nil), serializer.ShapeFlatRecords},
		{model.Container{}, serializer.ShapeContainer},
		{model.NewSampleContainer(), serializer.ShapeContainer},
		{[]model.Container{}, serializer.ShapeContainers},
		{&[]model.Container{}, serializer.ShapeContainers},
		{(*model.Container)(nil), serializer.ShapeUnknown},
		{nil, serializer.ShapeUnknown},
		{model.Group{}, serializer.ShapeUnknown},
		{model.Peanut{}, serializer.ShapeUnknown},
		{"Gordon", serializer.ShapeUnknown},
	}

	for _, tc := range testCases {
		if got := serializer.ShapeOf(tc.value); got != tc.want {
			t.Errorf("ShapeOf(%T) = %s, expected %s", tc.value, got, tc.want)
		}
		if got := serializer.IsRegistered(tc.value); got != (tc.want != serializer.ShapeUnknown) {
			t.Errorf("IsRegistered(%T) = %v", tc.value, got)
		}
	}
}
