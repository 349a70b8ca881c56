package serializer

import (
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"gopkg.in/yaml.v3"
	"strconv"
)

const NameYAML = "yaml"

// NewYAMLSerializer creates a new serializer using yaml encoding.
// Variants go through the discriminator protocol and are read back by name.
func NewYAMLSerializer() ISerializerBehavior {
	return &yamlSerializerImpl{}
}

// yamlSerializerImpl implements the ISerializerBehavior interface using yaml encoding
type yamlSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (y yamlSerializerImpl) Name() string { return NameYAML }

func (y yamlSerializerImpl) Serialize(v any) ([]byte, error) {
	if err := checkText(v, utf8Text); err != nil {
		return nil, err
	}
	switch x := valueOf(v).(type) {
	case model.FlatRecord:
		return yaml.Marshal(toYAMLRecord(x))
	case []model.FlatRecord:
		if x == nil {
			return yaml.Marshal(nil)
		}
		list := make([]yamlRecord, len(x))
		for i := range x {
			list[i] = toYAMLRecord(x[i])
		}
		return yaml.Marshal(list)
	case model.Container:
		c, err := toYAMLContainer(x)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(c)
	case []model.Container:
		if x == nil {
			return yaml.Marshal(nil)
		}
		list := make([]yamlContainer, len(x))
		for i := range x {
			c, err := toYAMLContainer(x[i])
			if err != nil {
				return nil, fmt.Errorf("container %d: %w", i, err)
			}
			list[i] = c
		}
		return yaml.Marshal(list)
	default:
		return nil, errUnsupportedShape(v)
	}
}

func (y yamlSerializerImpl) Deserialize(data []byte, out any) error {
	switch o := out.(type) {
	case *model.FlatRecord:
		var r yamlRecord
		if err := yaml.Unmarshal(data, &r); err != nil {
			return err
		}
		*o = r.model()
	case *[]model.FlatRecord:
		var list []*yamlRecord
		if err := yaml.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = nil
		if list != nil {
			decoded := make([]model.FlatRecord, len(list))
			for i, r := range list {
				if r == nil {
					return errNullElement(fmt.Sprintf("record %d", i))
				}
				decoded[i] = r.model()
			}
			*o = decoded
		}
	case *model.Container:
		var c yamlContainer
		if err := yaml.Unmarshal(data, &c); err != nil {
			return err
		}
		decoded, err := c.model()
		if err != nil {
			return err
		}
		*o = decoded
	case *[]model.Container:
		var list []*yamlContainer
		if err := yaml.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = nil
		if list != nil {
			decoded := make([]model.Container, len(list))
			for i := range list {
				if list[i] == nil {
					return errNullElement(fmt.Sprintf("container %d", i))
				}
				c, err := list[i].model()
				if err != nil {
					return fmt.Errorf("container %d: %w", i, err)
				}
				decoded[i] = c
			}
			*o = decoded
		}
	default:
		return errUnsupportedShape(out)
	}
	return nil
}

func (y yamlSerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator|FeatureHumanReadable) != 0
}

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

// yaml.v3 writes nil slices as [], the pointers keep absent collections as null.
// Sequence elements are pointers too: yaml.v3 drops a null element decoded
// into a struct, but keeps it as a nil pointer.

type yamlRecord struct {
	ID   int32  `yaml:"id"`
	Name string `yaml:"name"`
}

type yamlContainer struct {
	Name   string       `yaml:"name"`
	Groups *[]*yamlGroup `yaml:"groups"`
}

type yamlGroup struct {
	Items *[]*yamlVariant `yaml:"items"`
}

type yamlVariant struct {
	v model.Variant
}

func toYAMLRecord(r model.FlatRecord) yamlRecord {
	return yamlRecord{ID: r.ID, Name: r.Name}
}

func (r yamlRecord) model() model.FlatRecord {
	return model.FlatRecord{ID: r.ID, Name: r.Name}
}

func toYAMLContainer(c model.Container) (yamlContainer, error) {
	out := yamlContainer{Name: c.Name}
	if c.Groups == nil {
		return out, nil
	}
	groups := make([]*yamlGroup, len(c.Groups))
	for i, g := range c.Groups {
		groups[i] = &yamlGroup{}
		if g.Items == nil {
			continue
		}
		items := make([]*yamlVariant, len(g.Items))
		for j, v := range g.Items {
			checked, err := checkedVariant(v)
			if err != nil {
				return out, fmt.Errorf("group %d item %d: %w", i, j, err)
			}
			items[j] = &yamlVariant{v: checked}
		}
		groups[i].Items = &items
	}
	out.Groups = &groups
	return out, nil
}

func (c yamlContainer) model() (model.Container, error) {
	out := model.Container{Name: c.Name}
	if c.Groups == nil {
		return out, nil
	}
	out.Groups = make([]model.Group, len(*c.Groups))
	for i, g := range *c.Groups {
		if g == nil {
			return model.Container{}, errNullElement(fmt.Sprintf("group %d", i))
		}
		if g.Items == nil {
			continue
		}
		items := make([]model.Variant, len(*g.Items))
		for j, v := range *g.Items {
			// yaml.v3 does not call UnmarshalYAML for null nodes
			if v == nil || v.v == nil {
				return model.Container{}, errNullElement(fmt.Sprintf("group %d item %d", i, j))
			}
			items[j] = v.v
		}
		out.Groups[i].Items = items
	}
	return out, nil
}

func errNullElement(what string) error {
	return discriminator.NewFormatError("", discriminator.ErrMalformed, fmt.Errorf("%s is null", what))
}

// MarshalYAML writes the variant as an ordered mapping node
func (y yamlVariant) MarshalYAML() (interface{}, error) {
	w := &yamlFieldWriter{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
	if err := discriminator.Encode(w, y.v); err != nil {
		return nil, err
	}
	return w.node, nil
}

// UnmarshalYAML reads the variant mapping by name
func (y *yamlVariant) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return discriminator.NewFormatError("", discriminator.ErrMalformed, fmt.Errorf("expected mapping, got node kind %d", node.Kind))
	}
	var fields map[string]any
	if err := node.Decode(&fields); err != nil {
		return discriminator.NewFormatError("", discriminator.ErrMalformed, err)
	}
	v, err := discriminator.DecodeIndexed(discriminator.MapSource(fields))
	if err != nil {
		return err
	}
	y.v = v
	return nil
}

// yamlFieldWriter appends key/value scalar pairs to a mapping node
type yamlFieldWriter struct {
	node *yaml.Node
}

func (w *yamlFieldWriter) add(name, tag, value string) {
	w.node.Content = append(w.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}

func (w *yamlFieldWriter) WriteInt(name string, v int64) error {
	w.add(name, "!!int", strconv.FormatInt(v, 10))
	return nil
}

func (w *yamlFieldWriter) WriteString(name string, v string) error {
	w.add(name, "!!str", v)
	return nil
}

func (w *yamlFieldWriter) WriteBool(name string, v bool) error {
	w.add(name, "!!bool", strconv.FormatBool(v))
	return nil
}
