package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNilVariant is returned when a nil Variant is found where a case is required
	ErrNilVariant = errors.New("model: nil variant")

	// ErrUnknownKind is returned for a discriminator that names no case
	ErrUnknownKind = errors.New("model: unknown variant kind")
)

// Kind is the discriminator of a Variant case
type Kind uint8

const (
	KindUnknown   Kind = iota // never written to the wire
	KindChocolate             // 1
	KindPeanut                // 2
	KindGreen                 // 3
)

func (k Kind) String() string {
	switch k {
	case KindChocolate:
		return "Chocolate"
	case KindPeanut:
		return "Peanut"
	case KindGreen:
		return "Green"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Valid reports whether k names one of the three cases
func (k Kind) Valid() bool {
	return k >= KindChocolate && k <= KindGreen
}

// Kinds returns all cases in discriminator order
func Kinds() []Kind {
	return []Kind{KindChocolate, KindPeanut, KindGreen}
}

// KindOf returns the discriminator of v. It fails for a nil interface and
// for a nil pointer case.
func KindOf(v Variant) (Kind, error) {
	switch Normalize(v).(type) {
	case Chocolate:
		return KindChocolate, nil
	case Peanut:
		return KindPeanut, nil
	case Green:
		return KindGreen, nil
	case nil:
		return KindUnknown, ErrNilVariant
	default:
		// unreachable while Variant stays sealed
		return KindUnknown, fmt.Errorf("%w: %T", ErrUnknownKind, v)
	}
}

// NewVariant returns the zero value of the case named by k
func NewVariant(k Kind) (Variant, error) {
	switch k {
	case KindChocolate:
		return Chocolate{}, nil
	case KindPeanut:
		return Peanut{}, nil
	case KindGreen:
		return Green{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
}

// KindFromInt converts a decoded integer discriminator into a Kind
func KindFromInt(v int64) (Kind, error) {
	if v < int64(KindChocolate) || v > int64(KindGreen) {
		return KindUnknown, fmt.Errorf("%w: %d", ErrUnknownKind, v)
	}
	return Kind(v), nil
}
