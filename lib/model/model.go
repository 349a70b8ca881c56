package model

// --------------------------------------------------------------------------
// Flat Record
// --------------------------------------------------------------------------

// FlatRecord is the simple benchmark object
type FlatRecord struct {
	ID   int32
	Name string
}

// Equal reports whether both records hold the same field values
func (r FlatRecord) Equal(other FlatRecord) bool {
	return r.ID == other.ID && r.Name == other.Name
}

// --------------------------------------------------------------------------
// Nested Object Graph
// --------------------------------------------------------------------------

// Container is the root of the nested benchmark object.
// A nil Groups slice is absent, which is not the same as an empty slice.
type Container struct {
	Name   string
	Groups []Group
}

// Group holds an ordered list of variants.
// A nil Items slice is absent, which is not the same as an empty slice.
type Group struct {
	Items []Variant
}

// --------------------------------------------------------------------------
// Variant (closed sum type)
// --------------------------------------------------------------------------

// Variant is one case of the closed sum type. The unexported marker method
// keeps the set of cases fixed to Chocolate, Peanut and Green.
type Variant interface {
	// Kind returns the discriminator of the case
	Kind() Kind
	isVariant()
}

// Chocolate is the variant with discriminator KindChocolate
type Chocolate struct {
	Origin string
}

// Peanut is the variant with discriminator KindPeanut
type Peanut struct {
	Fat int32
}

// Green is the variant with discriminator KindGreen
type Green struct {
	IsSafe bool
}

func (Chocolate) Kind() Kind { return KindChocolate }
func (Peanut) Kind() Kind    { return KindPeanut }
func (Green) Kind() Kind     { return KindGreen }

func (Chocolate) isVariant() {}
func (Peanut) isVariant()    {}
func (Green) isVariant()     {}

// --------------------------------------------------------------------------
// Copy Helpers
// --------------------------------------------------------------------------

// Clone returns a deep copy of the container. Absent and empty collections
// keep their state in the copy.
func (c *Container) Clone() *Container {
	if c == nil {
		return nil
	}
	out := &Container{Name: c.Name}
	if c.Groups != nil {
		out.Groups = make([]Group, len(c.Groups))
		for i, g := range c.Groups {
			out.Groups[i] = g.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the group
func (g Group) Clone() Group {
	if g.Items == nil {
		return Group{}
	}
	items := make([]Variant, len(g.Items))
	copy(items, g.Items) // variants are plain values
	return Group{Items: items}
}

// Collapsed returns a deep copy in which every empty collection is absent.
// This is the form formats without a distinct empty collection decode to.
func (c *Container) Collapsed() *Container {
	out := c.Clone()
	if out == nil {
		return nil
	}
	if len(out.Groups) == 0 {
		out.Groups = nil
	}
	for i := range out.Groups {
		if len(out.Groups[i].Items) == 0 {
			out.Groups[i].Items = nil
		}
	}
	return out
}
