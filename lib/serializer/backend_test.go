package serializer

import (
	"bytes"
	"errors"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"google.golang.org/protobuf/encoding/protowire"
	"math"
	"strings"
	"testing"
)

// replaceOnce replaces the first occurrence of old and fails if there is none
func replaceOnce(t *testing.T, data []byte, old, repl []byte) []byte {
	t.Helper()
	if !bytes.Contains(data, old) {
		t.Fatalf("Payload %q does not contain %q", data, old)
	}
	return bytes.Replace(data, old, repl, 1)
}

// TestUnknownDiscriminator tests that a discriminator value of 99 is a format
// error for every behavior using the discriminator protocol
func TestUnknownDiscriminator(t *testing.T) {
	sample := model.Container{Name: "jar", Groups: []model.Group{{Items: []model.Variant{model.Chocolate{Origin: "Xen"}}}}}

	corrupt := map[string]func(t *testing.T, data []byte) []byte{
		NameJSON: func(t *testing.T, data []byte) []byte {
			return replaceOnce(t, data, []byte(`"TypeDiscriminator":1`), []byte(`"TypeDiscriminator":99`))
		},
		NameSonic: func(t *testing.T, data []byte) []byte {
			return replaceOnce(t, data, []byte(`"TypeDiscriminator":1`), []byte(`"TypeDiscriminator":99`))
		},
		NameYAML: func(t *testing.T, data []byte) []byte {
			return replaceOnce(t, data, []byte(`TypeDiscriminator: 1`), []byte(`TypeDiscriminator: 99`))
		},
		NameXML: func(t *testing.T, data []byte) []byte {
			return replaceOnce(t, data, []byte(`<TypeDiscriminator>1<`), []byte(`<TypeDiscriminator>99<`))
		},
		NameBinary: func(t *testing.T, data []byte) []byte {
			// field 1, int wire type, int64 value 1
			return replaceOnce(t, data,
				[]byte{1, wireInt, 0, 0, 0, 0, 0, 0, 0, 1},
				[]byte{1, wireInt, 0, 0, 0, 0, 0, 0, 0, 99})
		},
		NameProtobuf: func(t *testing.T, data []byte) []byte {
			// discriminator slot followed by the Origin slot
			return replaceOnce(t, data, []byte{0x08, 0x01, 0x12, 0x03}, []byte{0x08, 99, 0x12, 0x03})
		},
		NameCty: func(t *testing.T, data []byte) []byte {
			// fixstr key followed by positive fixint
			return replaceOnce(t, data, append([]byte("TypeDiscriminator"), 0x01), append([]byte("TypeDiscriminator"), 99))
		},
	}

	for name, fn := range corrupt {
		t.Run(name, func(t *testing.T) {
			b, err := Lookup(name)
			if err != nil {
				t.Fatalf("Failed to look up %s: %v", name, err)
			}
			s := New(b)
			data, err := s.Serialize(sample)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			out := model.Container{Name: "untouched"}
			err = s.DeserializeInto(fn(t, data), &out)
			if !errors.Is(err, discriminator.ErrFormat) {
				t.Fatalf("Expected a format error, got %v", err)
			}
			if !errors.Is(err, discriminator.ErrUnknownDiscriminator) {
				t.Errorf("Expected ErrUnknownDiscriminator, got %v", err)
			}
			if !errors.Is(err, model.ErrUnknownKind) {
				t.Errorf("Expected the model error as cause, got %v", err)
			}
			if out.Name != "untouched" {
				t.Errorf("Expected the target to stay untouched, got %+v", out)
			}
		})
	}
}

// TestUnknownUnionTag tests the native union behaviors with a foreign tag
func TestUnknownUnionTag(t *testing.T) {
	sample := model.Container{Name: "jar", Groups: []model.Group{{Items: []model.Variant{model.Chocolate{Origin: "Xen"}}}}}

	t.Run(NameMsgpack, func(t *testing.T) {
		s := New(NewMsgpackSerializer())
		data, err := s.Serialize(sample)
		if err != nil {
			t.Fatalf("Failed to serialize: %v", err)
		}
		// fixarray of two followed by the positive fixint tag 100
		data = replaceOnce(t, data, []byte{0x92, msgpackTagChocolate}, []byte{0x92, 99})

		_, err = Deserialize[model.Container](s, data)
		requireUnknownTag(t, err)
	})

	t.Run(NameGOB, func(t *testing.T) {
		s := New(NewGOBSerializer())
		data, err := s.Serialize(sample)
		if err != nil {
			t.Fatalf("Failed to serialize: %v", err)
		}
		// gob carries the registered type name
		data = replaceOnce(t, data, []byte("model.Chocolate"), []byte("model.Chocolatx"))

		_, err = Deserialize[model.Container](s, data)
		requireUnknownTag(t, err)
	})
}

// requireUnknownTag checks err is the format error every behavior reports
// for a variant case it does not know
func requireUnknownTag(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, discriminator.ErrFormat) {
		t.Fatalf("Expected a format error, got %v", err)
	}
	if !errors.Is(err, discriminator.ErrUnknownDiscriminator) {
		t.Errorf("Expected ErrUnknownDiscriminator, got %v", err)
	}
	if !errors.Is(err, model.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

// TestDiscriminatorOrdering tests strict and relaxed readers with the
// discriminator in second position
func TestDiscriminatorOrdering(t *testing.T) {
	testCases := []struct {
		name   string
		data   string
		strict bool
	}{
		{
			name:   NameJSON,
			data:   `{"Name":"jar","Groups":[{"Items":[{"Fat":7,"TypeDiscriminator":2}]}]}`,
			strict: true,
		},
		{
			name: NameSonic,
			data: `{"Name":"jar","Groups":[{"Items":[{"Fat":7,"TypeDiscriminator":2}]}]}`,
		},
		{
			name: NameYAML,
			data: "name: jar\ngroups:\n  - items:\n      - Fat: 7\n        TypeDiscriminator: 2\n",
		},
		{
			name: NameXML,
			data: `<Container><Name>jar</Name><Groups><Group><Items><Variant><Fat>7</Fat><TypeDiscriminator>2</TypeDiscriminator></Variant></Items></Group></Groups></Container>`,
		},
	}

	want := model.Container{Name: "jar", Groups: []model.Group{{Items: []model.Variant{model.Peanut{Fat: 7}}}}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Lookup(tc.name)
			if err != nil {
				t.Fatalf("Failed to look up %s: %v", tc.name, err)
			}
			var got model.Container
			err = b.Deserialize([]byte(tc.data), &got)

			if tc.strict {
				if !errors.Is(err, discriminator.ErrDiscriminatorNotFirst) {
					t.Errorf("Expected ErrDiscriminatorNotFirst, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if !want.Equal(&got) {
				t.Errorf("Expected %+v, got %+v", want, got)
			}
		})
	}
}

// TestMissingCaseField tests that a missing case field keeps its zero value
// and unknown fields are skipped
func TestMissingCaseField(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{name: NameJSON, data: `{"Name":"jar","Groups":[{"Items":[{"TypeDiscriminator":2,"Colour":"brown"}]}]}`},
		{name: NameSonic, data: `{"Name":"jar","Groups":[{"Items":[{"Colour":"brown","TypeDiscriminator":2}]}]}`},
		{name: NameYAML, data: "name: jar\ngroups:\n  - items:\n      - TypeDiscriminator: 2\n        Colour: brown\n"},
		{name: NameXML, data: `<Container><Name>jar</Name><Groups><Group><Items><Variant><TypeDiscriminator>2</TypeDiscriminator><Colour>brown</Colour></Variant></Items></Group></Groups></Container>`},
	}

	want := model.Container{Name: "jar", Groups: []model.Group{{Items: []model.Variant{model.Peanut{}}}}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Lookup(tc.name)
			if err != nil {
				t.Fatalf("Failed to look up %s: %v", tc.name, err)
			}
			var got model.Container
			if err := b.Deserialize([]byte(tc.data), &got); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if !want.Equal(&got) {
				t.Errorf("Expected %+v, got %+v", want, got)
			}
		})
	}
}

// TestMalformedVariants tests variant objects the protocol rejects
func TestMalformedVariants(t *testing.T) {
	testCases := []struct {
		name   string
		data   string
		reason error
	}{
		{
			name:   "json missing discriminator",
			data:   `{"Name":"jar","Groups":[{"Items":[{}]}]}`,
			reason: discriminator.ErrMissingDiscriminator,
		},
		{
			name:   "json null variant",
			data:   `{"Name":"jar","Groups":[{"Items":[null]}]}`,
			reason: discriminator.ErrMalformed,
		},
		{
			name:   "json duplicate discriminator",
			data:   `{"Name":"jar","Groups":[{"Items":[{"TypeDiscriminator":1,"TypeDiscriminator":2}]}]}`,
			reason: discriminator.ErrDuplicateDiscriminator,
		},
		{
			name:   "json wrong field type",
			data:   `{"Name":"jar","Groups":[{"Items":[{"TypeDiscriminator":3,"IsItSafe":"yes"}]}]}`,
			reason: discriminator.ErrFieldType,
		},
		{
			name:   "json fat out of range",
			data:   `{"Name":"jar","Groups":[{"Items":[{"TypeDiscriminator":2,"Fat":2147483648}]}]}`,
			reason: discriminator.ErrFieldType,
		},
		{
			name:   "sonic null variant",
			data:   `{"Name":"jar","Groups":[{"Items":[null]}]}`,
			reason: discriminator.ErrMissingDiscriminator,
		},
		{
			name:   "sonic string discriminator",
			data:   `{"Name":"jar","Groups":[{"Items":[{"TypeDiscriminator":"one"}]}]}`,
			reason: discriminator.ErrFieldType,
		},
		{
			name:   "yaml null variant",
			data:   "name: jar\ngroups:\n  - items:\n      - null\n",
			reason: discriminator.ErrMalformed,
		},
		{
			name:   "yaml null group",
			data:   "name: jar\ngroups:\n  - null\n  - items: []\n",
			reason: discriminator.ErrMalformed,
		},
		{
			name:   "yaml scalar variant",
			data:   "name: jar\ngroups:\n  - items:\n      - 3\n",
			reason: discriminator.ErrMalformed,
		},
		{
			name:   "xml missing discriminator",
			data:   `<Container><Name>jar</Name><Groups><Group><Items><Variant><Fat>1</Fat></Variant></Items></Group></Groups></Container>`,
			reason: discriminator.ErrMissingDiscriminator,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Lookup(strings.Fields(tc.name)[0])
			if err != nil {
				t.Fatalf("Failed to look up behavior: %v", err)
			}
			var got model.Container
			err = b.Deserialize([]byte(tc.data), &got)
			if !errors.Is(err, discriminator.ErrFormat) {
				t.Fatalf("Expected a format error, got %v", err)
			}
			if !errors.Is(err, tc.reason) {
				t.Errorf("Expected reason %v, got %v", tc.reason, err)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Wrong shape",
			data:        []byte{byte(ShapeFlatRecord), 0, 0, 0, 1, 0, 0, 0, 0},
			expectError: true,
		},
		{
			name:        "Name only, groups absent",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 1, 'j', isAbsent},
			expectError: false,
		},
		{
			name:        "Invalid length for name",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims name length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Missing groups flag",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 0},
			expectError: true,
		},
		{
			name:        "Invalid groups flag",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 0, 7},
			expectError: true,
		},
		{
			name:        "Group count larger than data",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 0, isPresent, 0xff, 0xff, 0xff, 0xff},
			expectError: true,
		},
		{
			name:        "Variant without fields",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 0, isPresent, 0, 0, 0, 1, isPresent, 0, 0, 0, 1, 0},
			expectError: true,
		},
		{
			name: "Discriminator with wrong wire type",
			data: []byte{byte(ShapeContainer), 0, 0, 0, 0, isPresent, 0, 0, 0, 1, isPresent, 0, 0, 0, 1,
				1, 1, wireBool, 1},
			expectError: true,
		},
		{
			name: "Green variant",
			data: []byte{byte(ShapeContainer), 0, 0, 0, 0, isPresent, 0, 0, 0, 1, isPresent, 0, 0, 0, 1,
				2, 1, wireInt, 0, 0, 0, 0, 0, 0, 0, 3, 4, wireBool, 1},
			expectError: false,
		},
		{
			name:        "Trailing bytes",
			data:        []byte{byte(ShapeContainer), 0, 0, 0, 0, isAbsent, 42},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var c model.Container
			err := serializer.Deserialize(tc.data, &c)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

// TestBinaryFieldOrder tests that the binary reader skips unknown slots and
// rejects a discriminator in second position
func TestBinaryFieldOrder(t *testing.T) {
	header := []byte{byte(ShapeContainer), 0, 0, 0, 0, isPresent, 0, 0, 0, 1, isPresent, 0, 0, 0, 1}

	// discriminator, unknown slot 9 (string), Fat
	skipped := append(append([]byte{}, header...),
		3,
		1, wireInt, 0, 0, 0, 0, 0, 0, 0, 2,
		9, wireString, 0, 0, 0, 2, 'h', 'i',
		3, wireInt, 0, 0, 0, 0, 0, 0, 0, 5,
	)
	var c model.Container
	if err := NewBinarySerializer().Deserialize(skipped, &c); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	want := model.Container{Groups: []model.Group{{Items: []model.Variant{model.Peanut{Fat: 5}}}}}
	if !want.Equal(&c) {
		t.Errorf("Expected %+v, got %+v", want, c)
	}

	// Fat before the discriminator
	swapped := append(append([]byte{}, header...),
		2,
		3, wireInt, 0, 0, 0, 0, 0, 0, 0, 5,
		1, wireInt, 0, 0, 0, 0, 0, 0, 0, 2,
	)
	err := NewBinarySerializer().Deserialize(swapped, &c)
	if !errors.Is(err, discriminator.ErrDiscriminatorNotFirst) {
		t.Errorf("Expected ErrDiscriminatorNotFirst, got %v", err)
	}
}

// TestProtobufUnknownFields tests that unknown protobuf fields are skipped
func TestProtobufUnknownFields(t *testing.T) {
	var variant []byte
	variant = protowire.AppendTag(variant, 15, protowire.Fixed32Type)
	variant = protowire.AppendFixed32(variant, 0xdeadbeef)
	variant = protowire.AppendTag(variant, discriminator.NumberIsItSafe, protowire.VarintType)
	variant = protowire.AppendVarint(variant, 1)
	variant = protowire.AppendTag(variant, discriminator.NumberTypeDiscriminator, protowire.VarintType)
	variant = protowire.AppendVarint(variant, uint64(model.KindGreen))

	var items []byte
	items = protowire.AppendTag(items, fieldRepeated, protowire.BytesType)
	items = protowire.AppendBytes(items, variant)

	var group []byte
	group = protowire.AppendTag(group, fieldGroupItems, protowire.BytesType)
	group = protowire.AppendBytes(group, items)

	var groups []byte
	groups = protowire.AppendTag(groups, fieldRepeated, protowire.BytesType)
	groups = protowire.AppendBytes(groups, group)

	var container []byte
	container = protowire.AppendTag(container, 9, protowire.BytesType)
	container = protowire.AppendString(container, "ignored")
	container = protowire.AppendTag(container, fieldContainerName, protowire.BytesType)
	container = protowire.AppendString(container, "jar")
	container = protowire.AppendTag(container, fieldContainerGroups, protowire.BytesType)
	container = protowire.AppendBytes(container, groups)

	var got model.Container
	if err := NewProtobufSerializer().Deserialize(container, &got); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	want := model.Container{Name: "jar", Groups: []model.Group{{Items: []model.Variant{model.Green{IsSafe: true}}}}}
	if !want.Equal(&got) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

// TestProtobufRecordIDRange tests that a record id outside int32 is rejected
func TestProtobufRecordIDRange(t *testing.T) {
	testCases := []struct {
		name string
		id   int64
		ok   bool
	}{
		{name: "MinInt32", id: math.MinInt32, ok: true},
		{name: "MaxInt32", id: math.MaxInt32, ok: true},
		{name: "Above", id: math.MaxInt32 + 1, ok: false},
		{name: "Below", id: math.MinInt32 - 1, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var data []byte
			data = protowire.AppendTag(data, fieldRecordID, protowire.VarintType)
			data = protowire.AppendVarint(data, uint64(tc.id))

			var got model.FlatRecord
			err := NewProtobufSerializer().Deserialize(data, &got)
			if tc.ok {
				if err != nil || int64(got.ID) != tc.id {
					t.Errorf("Expected id %d, got %d (%v)", tc.id, got.ID, err)
				}
				return
			}
			if !errors.Is(err, discriminator.ErrFieldType) {
				t.Errorf("Expected ErrFieldType, got %v", err)
			}
		})
	}
}

// TestUnrepresentableText tests which behaviors refuse strings their format
// would alter
func TestUnrepresentableText(t *testing.T) {
	const (
		control    = "Xen\x01"
		decomposed = "Cafe\u0301"
		invalid    = "Xen\xff"
	)

	rejected := map[string][]string{
		NameJSON:  {invalid},
		NameSonic: {invalid},
		NameYAML:  {invalid},
		NameXML:   {control, invalid},
		NameCty:   {decomposed, invalid},
	}

	for _, name := range Names() {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Failed to look up %s: %v", name, err)
		}
		for _, text := range []string{control, decomposed, invalid} {
			want := false
			for _, r := range rejected[name] {
				want = want || r == text
			}

			_, err := New(b).Serialize(model.FlatRecord{Name: text})
			if got := errors.Is(err, ErrUnrepresentableText); got != want {
				t.Errorf("%s %q: expected rejected=%v, got %v", name, text, want, err)
			}
		}
	}
}

// TestXMLShape tests the element layout of the xml serializer
func TestXMLShape(t *testing.T) {
	data, err := NewXMLSerializer().Serialize(*model.NewSampleContainer())
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	want := `<Container><Name>Gordon&#39;s Jar</Name><Groups><Group><Items>` +
		`<Variant><TypeDiscriminator>1</TypeDiscriminator><Origin>Xen</Origin></Variant>` +
		`<Variant><TypeDiscriminator>2</TypeDiscriminator><Fat>100</Fat></Variant>` +
		`<Variant><TypeDiscriminator>3</TypeDiscriminator><IsItSafe>false</IsItSafe></Variant>` +
		`</Items></Group></Groups></Container>`
	if string(data) != want {
		t.Errorf("Unexpected xml:\n got: %s\nwant: %s", data, want)
	}
}

// TestJSONShape tests that the json serializer writes the discriminator first
func TestJSONShape(t *testing.T) {
	data, err := NewJSONSerializer().Serialize(*model.NewSampleContainer())
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	want := `{"Name":"Gordon's Jar","Groups":[{"Items":[` +
		`{"TypeDiscriminator":1,"Origin":"Xen"},` +
		`{"TypeDiscriminator":2,"Fat":100},` +
		`{"TypeDiscriminator":3,"IsItSafe":false}]}]}`
	if string(data) != want {
		t.Errorf("Unexpected json:\n got: %s\nwant: %s", data, want)
	}
}
