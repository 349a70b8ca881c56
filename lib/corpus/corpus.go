package corpus

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"github.com/cockroachdb/pebble"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/segmentio/ksuid"
	"strings"
)

var (
	Logger = logger.GetLogger("corpus")

	// ErrInvalidKey is returned for stored keys that don't follow the corpus layout
	ErrInvalidKey = errors.New("corpus: invalid key")
)

const keySeparator = "/"

// Corpus stores encoded payloads keyed "<behavior>/<shape>/<ksuid>"
type Corpus struct {
	db *pebble.DB
}

// Payload is one stored encoding
type Payload struct {
	Behavior string
	Shape    serializer.Shape
	ID       ksuid.KSUID
	Data     []byte
}

// Key returns the storage key of the payload
func (p Payload) Key() string {
	return p.Behavior + keySeparator + p.Shape.String() + keySeparator + p.ID.String()
}

// Open opens (or creates) the corpus database in dir
func Open(dir string) (*Corpus, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("corpus: failed to open %s: %w", dir, err)
	}
	Logger.Debugf("opened corpus at %s", dir)
	return &Corpus{db: db}, nil
}

// Close closes the underlying database
func (c *Corpus) Close() error {
	return c.db.Close()
}

// Save stores a payload under a new ksuid and returns the stored payload
func (c *Corpus) Save(behavior string, shape serializer.Shape, data []byte) (Payload, error) {
	if err := validBehavior(behavior); err != nil {
		return Payload{}, err
	}
	if shape == serializer.ShapeUnknown {
		return Payload{}, fmt.Errorf("corpus: cannot store a payload of shape %s", shape)
	}
	if data == nil {
		return Payload{}, fmt.Errorf("corpus: cannot store an absent payload for %s", behavior)
	}

	p := Payload{Behavior: behavior, Shape: shape, ID: ksuid.New(), Data: data}
	if err := c.db.Set([]byte(p.Key()), data, pebble.Sync); err != nil {
		return Payload{}, err
	}
	Logger.Debugf("stored %s (%d bytes)", p.Key(), len(data))
	return p, nil
}

// Each calls fn for every payload of the behavior in key order, i.e. grouped
// by shape and roughly by creation time. Iteration stops at the first error.
func (c *Corpus) Each(behavior string, fn func(Payload) error) error {
	if err := validBehavior(behavior); err != nil {
		return err
	}

	lower, upper := bounds(behavior)
	iter, err := c.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		p, err := parseKey(string(iter.Key()))
		if err != nil {
			return err
		}
		// the value is only valid until the iterator moves
		p.Data = append([]byte(nil), iter.Value()...)
		if err := fn(p); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Clear removes every payload of the behavior
func (c *Corpus) Clear(behavior string) error {
	if err := validBehavior(behavior); err != nil {
		return err
	}
	lower, upper := bounds(behavior)
	return c.db.DeleteRange(lower, upper, pebble.Sync)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func validBehavior(behavior string) error {
	if behavior == "" || strings.Contains(behavior, keySeparator) {
		return fmt.Errorf("corpus: invalid behavior name %q", behavior)
	}
	return nil
}

// bounds returns the key range of a behavior, '0' follows the separator '/'
func bounds(behavior string) ([]byte, []byte) {
	return []byte(behavior + keySeparator), []byte(behavior + "0")
}

func parseKey(key string) (Payload, error) {
	parts := strings.Split(key, keySeparator)
	if len(parts) != 3 {
		return Payload{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	shape, err := serializer.ParseShape(parts[1])
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}
	id, err := ksuid.Parse(parts[2])
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}
	return Payload{Behavior: parts[0], Shape: shape, ID: id}, nil
}
