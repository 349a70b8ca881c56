package serializer

import (
	"fmt"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
)

// Factory creates a new behavior instance
type Factory func() ISerializerBehavior

var (
	behaviors = xsync.NewMapOf[string, Factory]()
)

func init() {
	Register(NameJSON, NewJSONSerializer)
	Register(NameSonic, NewSonicSerializer)
	Register(NameYAML, NewYAMLSerializer)
	Register(NameXML, NewXMLSerializer)
	Register(NameGOB, NewGOBSerializer)
	Register(NameBinary, NewBinarySerializer)
	Register(NameProtobuf, NewProtobufSerializer)
	Register(NameMsgpack, NewMsgpackSerializer)
	Register(NameCty, NewCtySerializer)
}

// Register adds a behavior factory under the given name, replacing any
// factory registered under the same name
func Register(name string, factory Factory) {
	behaviors.Store(name, factory)
}

// Lookup creates a new behavior for the given name
func Lookup(name string) (ISerializerBehavior, error) {
	factory, ok := behaviors.Load(name)
	if !ok {
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
	return factory(), nil
}

// Names returns the sorted names of all registered behaviors
func Names() []string {
	names := make([]string, 0, behaviors.Size())
	behaviors.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// All creates one Serializer per registered behavior, sorted by name
func All() []*Serializer {
	names := Names()
	all := make([]*Serializer, 0, len(names))
	for _, name := range names {
		if b, err := Lookup(name); err == nil {
			all = append(all, New(b))
		}
	}
	return all
}
