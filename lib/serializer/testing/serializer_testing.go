package testing

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// BehaviorFactory is a function that creates a new instance of a behavior
type BehaviorFactory func() serializer.ISerializerBehavior

// RunBehaviorTests runs the conformance suite for a behavior implementation.
func RunBehaviorTests(t *testing.T, name string, factory BehaviorFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("FlatRecord", func(t *testing.T) {
			testFlatRecord(t, factory())
		})

		t.Run("FlatRecords", func(t *testing.T) {
			testFlatRecords(t, factory())
		})

		t.Run("SampleContainer", func(t *testing.T) {
			testSampleContainer(t, factory())
		})

		t.Run("VariantDiscrimination", func(t *testing.T) {
			testVariantDiscrimination(t, factory())
		})

		t.Run("AbsentCollections", func(t *testing.T) {
			testAbsentCollections(t, factory())
		})

		t.Run("CollapsedCollections", func(t *testing.T) {
			testCollapsedCollections(t, factory())
		})

		t.Run("TextFidelity", func(t *testing.T) {
			testTextFidelity(t, factory())
		})

		t.Run("InequalitySensitivity", func(t *testing.T) {
			testInequalitySensitivity(t, factory())
		})

		t.Run("RandomContainers", func(t *testing.T) {
			testRandomContainers(t, factory())
		})

		t.Run("AbsentInput", func(t *testing.T) {
			testAbsentInput(t, factory())
		})

		t.Run("UnregisteredType", func(t *testing.T) {
			testUnregisteredType(t, factory())
		})

		t.Run("NilVariant", func(t *testing.T) {
			testNilVariant(t, factory())
		})

		t.Run("Garbage", func(t *testing.T) {
			testGarbage(t, factory())
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrent(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the behavior supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, b serializer.ISerializerBehavior, feature serializer.Feature) {
	if !b.SupportsFeature(feature) {
		t.Skipf("%s does not support %s", b.Name(), feature)
	}
}

// Checks if the behavior lacks the specified feature
// Skip the test if it is supported
func requireNoFeature(t testing.TB, b serializer.ISerializerBehavior, feature serializer.Feature) {
	if b.SupportsFeature(feature) {
		t.Skipf("%s supports %s", b.Name(), feature)
	}
}

// roundTrip encodes v through the facade and decodes the result as T
func roundTrip[T any](t testing.TB, s *serializer.Serializer, v T) T {
	t.Helper()
	data, err := s.Serialize(v)
	require.NoError(t, err, "serialize %T", v)
	require.NotNil(t, data, "serialize %T returned no data", v)

	got, err := serializer.Deserialize[T](s, data)
	require.NoError(t, err, "deserialize %T", v)
	return got
}

func requireContainer(t testing.TB, want, got model.Container) {
	t.Helper()
	require.Truef(t, want.Equal(&got), "container mismatch (-want +got):\n%s", cmp.Diff(want, got))
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testFlatRecord(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)

	records := []model.FlatRecord{
		model.NewSampleFlatRecord(),
		{},
		{ID: math.MinInt32, Name: "Glados"},
		{ID: math.MaxInt32, Name: "Black Mesa East"},
		{ID: -7, Name: "Ünïcödé ✓"},
	}

	for _, want := range records {
		got := roundTrip(t, s, want)
		if !want.Equal(got) {
			t.Errorf("Expected %+v, got %+v", want, got)
		}

		ptr := roundTrip(t, s, &want)
		require.NotNil(t, ptr)
		if !want.Equal(*ptr) {
			t.Errorf("Expected %+v through pointer, got %+v", want, *ptr)
		}
	}
}

func testFlatRecords(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)
	r := rand.New(rand.NewSource(1))

	want := model.RandomFlatRecords(r, 100)
	got := roundTrip(t, s, want)
	require.Truef(t, model.EqualFlatRecords(want, got), "records mismatch (-want +got):\n%s", cmp.Diff(want, got))

	// a nil list is a present value of a registered shape, not absent input
	var absent []model.FlatRecord
	got = roundTrip(t, s, absent)
	require.Empty(t, got)

	empty := []model.FlatRecord{}
	got = roundTrip(t, s, empty)
	require.Empty(t, got)
	if b.SupportsFeature(serializer.FeatureAbsentCollections) {
		require.NotNil(t, got, "empty list decoded as absent")
	}
}

func testSampleContainer(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)
	want := model.NewSampleContainer()

	got := roundTrip(t, s, *want)
	requireContainer(t, *want, got)

	ptr := roundTrip(t, s, want)
	require.NotNil(t, ptr)
	requireContainer(t, *want, *ptr)

	// variant cases keep their order and type
	require.Len(t, got.Groups, 1)
	require.Len(t, got.Groups[0].Items, 3)
	require.IsType(t, model.Chocolate{}, model.Normalize(got.Groups[0].Items[0]))
	require.IsType(t, model.Peanut{}, model.Normalize(got.Groups[0].Items[1]))
	require.IsType(t, model.Green{}, model.Normalize(got.Groups[0].Items[2]))
}

func testVariantDiscrimination(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)

	variants := []model.Variant{
		model.Chocolate{Origin: "Xen"},
		model.Chocolate{},
		model.Chocolate{Origin: "City 17 / \"Nova Prospekt\" <&>"},
		model.Peanut{Fat: 100},
		model.Peanut{},
		model.Peanut{Fat: math.MinInt32},
		model.Peanut{Fat: math.MaxInt32},
		model.Green{IsSafe: true},
		model.Green{},
		&model.Chocolate{Origin: "pointer case"},
	}

	for i, v := range variants {
		t.Run(fmt.Sprintf("%d_%T", i, v), func(t *testing.T) {
			c := model.Container{Name: "variant", Groups: []model.Group{{Items: []model.Variant{v}}}}
			got := roundTrip(t, s, c)

			require.Len(t, got.Groups, 1)
			require.Len(t, got.Groups[0].Items, 1)
			decoded := got.Groups[0].Items[0]

			wantKind, err := model.KindOf(v)
			require.NoError(t, err)
			gotKind, err := model.KindOf(decoded)
			require.NoError(t, err)
			require.Equal(t, wantKind, gotKind, "decoded into another case")
			require.Truef(t, model.EqualVariants(v, decoded), "expected %#v, got %#v", v, decoded)
		})
	}
}

func testAbsentCollections(t *testing.T, b serializer.ISerializerBehavior) {
	requireFeature(t, b, serializer.FeatureAbsentCollections)
	s := serializer.New(b)

	containers := map[string]model.Container{
		"GroupsAbsent":  {Name: "absent"},
		"GroupsEmpty":   {Name: "empty", Groups: []model.Group{}},
		"ItemsAbsent":   {Name: "items absent", Groups: []model.Group{{}}},
		"ItemsEmpty":    {Name: "items empty", Groups: []model.Group{{Items: []model.Variant{}}}},
		"Mixed":         {Name: "mixed", Groups: []model.Group{{}, {Items: []model.Variant{}}, {Items: []model.Variant{model.Green{IsSafe: true}}}}},
		"ZeroContainer": {},
	}

	for name, want := range containers {
		t.Run(name, func(t *testing.T) {
			got := roundTrip(t, s, want)
			requireContainer(t, want, got)
		})
	}

	var absent []model.Container
	got := roundTrip(t, s, absent)
	require.Nil(t, got)

	empty := []model.Container{}
	got = roundTrip(t, s, empty)
	require.NotNil(t, got)
	require.Empty(t, got)
}

// testCollapsedCollections asserts the documented fidelity loss of behaviors
// that cannot tell absent from empty: empty collections decode as absent
func testCollapsedCollections(t *testing.T, b serializer.ISerializerBehavior) {
	requireNoFeature(t, b, serializer.FeatureAbsentCollections)
	s := serializer.New(b)

	got := roundTrip(t, s, model.Container{Name: "empty", Groups: []model.Group{}})
	require.Equal(t, "empty", got.Name)
	require.Nil(t, got.Groups, "empty groups should collapse to absent")

	got = roundTrip(t, s, model.Container{Name: "items empty", Groups: []model.Group{{Items: []model.Variant{}}}})
	require.Len(t, got.Groups, 1)
	require.Nil(t, got.Groups[0].Items, "empty items should collapse to absent")

	// absent stays absent
	want := model.Container{Name: "absent"}
	got = roundTrip(t, s, want)
	requireContainer(t, want, got)
}

// testTextFidelity checks strings some formats cannot carry. A behavior
// either returns them unchanged or refuses to serialize them.
func testTextFidelity(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)

	texts := map[string]string{
		"Control":     "Xen\x01",
		"Decomposed":  "Cafe\u0301",
		"InvalidUTF8": "Xen\xff",
	}

	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			record := model.FlatRecord{ID: 1, Name: text}
			if data, err := s.Serialize(record); err != nil {
				require.ErrorIs(t, err, serializer.ErrUnrepresentableText)
				require.Nil(t, data)
			} else {
				got, err := serializer.Deserialize[model.FlatRecord](s, data)
				require.NoError(t, err)
				require.Equal(t, record, got)
			}

			container := model.Container{Name: "jar", Groups: []model.Group{{Items: []model.Variant{model.Chocolate{Origin: text}}}}}
			if data, err := s.Serialize(container); err != nil {
				require.ErrorIs(t, err, serializer.ErrUnrepresentableText)
				require.Nil(t, data)
			} else {
				got, err := serializer.Deserialize[model.Container](s, data)
				require.NoError(t, err)
				requireContainer(t, container, got)
			}
		})
	}
}

func testInequalitySensitivity(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)
	original := model.NewSampleContainer()

	mutations := map[string]func(c *model.Container){
		"Name":          func(c *model.Container) { c.Name = "Gordon's Jar 2" },
		"Origin":        func(c *model.Container) { c.Groups[0].Items[0] = model.Chocolate{Origin: "Xen2"} },
		"GroupsAbsent":  func(c *model.Container) { c.Groups = nil },
		"Fat":           func(c *model.Container) { c.Groups[0].Items[1] = model.Peanut{Fat: 101} },
		"IsSafe":        func(c *model.Container) { c.Groups[0].Items[2] = model.Green{IsSafe: true} },
		"CaseSwap":      func(c *model.Container) { c.Groups[0].Items[0] = model.Green{} },
		"ItemDropped":   func(c *model.Container) { c.Groups[0].Items = c.Groups[0].Items[:2] },
		"GroupAppended": func(c *model.Container) { c.Groups = append(c.Groups, model.Group{}) },
	}

	decodedOriginal := roundTrip(t, s, *original)

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			mutated := original.Clone()
			mutate(mutated)

			got := roundTrip(t, s, *mutated)
			if got.Equal(&decodedOriginal) {
				t.Errorf("Expected mutated container to differ from the original after round trip")
			}
			if got.Equal(original) {
				t.Errorf("Expected mutated container to differ from the original")
			}
		})
	}
}

func testRandomContainers(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)
	r := rand.New(rand.NewSource(17))

	want := model.RandomContainers(r, 5, 10, 10)
	got := roundTrip(t, s, want)
	require.Len(t, got, len(want))
	for i := range want {
		requireContainer(t, want[i], got[i])
	}
}

func testAbsentInput(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)

	inputs := []any{
		nil,
		(*model.Container)(nil),
		(*model.FlatRecord)(nil),
		(*[]model.Container)(nil),
	}
	for _, in := range inputs {
		data, err := s.Serialize(in)
		require.NoError(t, err, "serialize %T", in)
		require.Nil(t, data, "serialize %T", in)
	}

	c, err := serializer.Deserialize[model.Container](s, nil)
	require.NoError(t, err)
	require.True(t, c.Equal(&model.Container{}))

	ptr, err := serializer.Deserialize[*model.Container](s, nil)
	require.NoError(t, err)
	require.Nil(t, ptr)

	rec, err := serializer.Deserialize[model.FlatRecord](s, nil)
	require.NoError(t, err)
	require.Equal(t, model.FlatRecord{}, rec)

	// DeserializeInto resets the target
	target := model.NewSampleContainer()
	require.NoError(t, s.DeserializeInto(nil, target))
	require.True(t, target.Equal(&model.Container{}))
}

func testUnregisteredType(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)

	type notRegistered struct{ Name string }
	inputs := []any{
		notRegistered{Name: "Gordon"},
		&notRegistered{},
		"Gordon",
		42,
		[]string{"Gordon"},
		model.Chocolate{Origin: "Xen"},
		model.Group{},
	}
	for _, in := range inputs {
		data, err := s.Serialize(in)
		require.NoError(t, err, "serialize %T", in)
		require.Nil(t, data, "serialize %T", in)
	}

	// the behavior itself reports the shape as unsupported
	_, err := b.Serialize(notRegistered{})
	require.ErrorIs(t, err, serializer.ErrUnsupportedShape)

	data, err := b.Serialize(model.NewSampleFlatRecord())
	require.NoError(t, err)
	var out notRegistered
	require.ErrorIs(t, b.Deserialize(data, &out), serializer.ErrUnsupportedShape)
}

func testNilVariant(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)

	containers := []model.Container{
		{Name: "nil", Groups: []model.Group{{Items: []model.Variant{nil}}}},
		{Name: "nil pointer", Groups: []model.Group{{Items: []model.Variant{(*model.Peanut)(nil)}}}},
	}
	for _, c := range containers {
		data, err := s.Serialize(c)
		require.ErrorIs(t, err, model.ErrNilVariant, c.Name)
		require.Nil(t, data, c.Name)
	}
}

func testGarbage(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)
	garbage := []byte("\xff\x00\x13")

	target := model.Container{Name: "untouched"}
	err := s.DeserializeInto(garbage, &target)
	require.Error(t, err)

	_, err = serializer.Deserialize[[]model.Container](s, garbage)
	require.Error(t, err)

	// text formats may accept a prefix of a document
	if b.SupportsFeature(serializer.FeatureHumanReadable) {
		return
	}
	data, err := s.Serialize(*model.NewSampleContainer())
	require.NoError(t, err)
	truncated := data[:len(data)/2]
	_, err = serializer.Deserialize[model.Container](s, truncated)
	require.Error(t, err, "truncated payload decoded without error")
}

func testConcurrent(t *testing.T, b serializer.ISerializerBehavior) {
	s := serializer.New(b)
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 20; i++ {
				want := model.RandomContainer(r, 3, 5)
				data, err := s.Serialize(want)
				if err != nil {
					errs <- err
					return
				}
				got, err := serializer.Deserialize[model.Container](s, data)
				if err != nil {
					errs <- err
					return
				}
				if !want.Equal(&got) {
					errs <- errors.New("concurrent round trip mismatch")
					return
				}
			}
		}(int64(w))
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
