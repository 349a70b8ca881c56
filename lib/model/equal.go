package model

// --------------------------------------------------------------------------
// Equality Contract
// --------------------------------------------------------------------------

// Equal reports whether both containers hold the same name and the same
// groups in the same order. Absent groups only equal absent groups.
func (c *Container) Equal(other *Container) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if c.Name != other.Name {
		return false
	}
	if (c.Groups == nil) != (other.Groups == nil) {
		return false
	}
	if len(c.Groups) != len(other.Groups) {
		return false
	}
	for i := range c.Groups {
		if !c.Groups[i].Equal(&other.Groups[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether both groups hold equal variants in the same order.
// Absent items only equal absent items.
func (g *Group) Equal(other *Group) bool {
	if g == other {
		return true
	}
	if g == nil || other == nil {
		return false
	}
	if (g.Items == nil) != (other.Items == nil) {
		return false
	}
	if len(g.Items) != len(other.Items) {
		return false
	}
	for i := range g.Items {
		if !EqualVariants(g.Items[i], other.Items[i]) {
			return false
		}
	}
	return true
}

// EqualVariants reports whether a and b are the same case with equal fields.
// Two nil variants are equal, a nil and a non-nil variant are not.
func EqualVariants(a, b Variant) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Chocolate:
		bv, ok := b.(Chocolate)
		return ok && av.Origin == bv.Origin
	case Peanut:
		bv, ok := b.(Peanut)
		return ok && av.Fat == bv.Fat
	case Green:
		bv, ok := b.(Green)
		return ok && av.IsSafe == bv.IsSafe
	default:
		return false
	}
}

// EqualFlatRecords compares two record slices element by element.
// A nil slice only equals another nil slice.
func EqualFlatRecords(a, b []FlatRecord) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// EqualContainers compares two container slices element by element.
// A nil slice only equals another nil slice.
func EqualContainers(a, b []Container) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

// Normalize turns pointer cases into value cases so both spellings encode and
// compare alike. A nil pointer case becomes a nil Variant.
func Normalize(v Variant) Variant {
	switch p := v.(type) {
	case *Chocolate:
		if p == nil {
			return nil
		}
		return *p
	case *Peanut:
		if p == nil {
			return nil
		}
		return *p
	case *Green:
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}
