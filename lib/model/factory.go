package model

import (
	"github.com/segmentio/ksuid"
	"math"
	"math/rand"
)

// --------------------------------------------------------------------------
// Sample Objects
// --------------------------------------------------------------------------

// NewSampleFlatRecord returns the canonical simple object
func NewSampleFlatRecord() FlatRecord {
	return FlatRecord{ID: 1, Name: "Gordon"}
}

// NewSampleContainer returns the canonical nested object: one group holding
// one variant of every case
func NewSampleContainer() *Container {
	return &Container{
		Name: "Gordon's Jar",
		Groups: []Group{
			{
				Items: []Variant{
					Chocolate{Origin: "Xen"},
					Peanut{Fat: 100},
					Green{IsSafe: false},
				},
			},
		},
	}
}

// --------------------------------------------------------------------------
// Random Objects
// --------------------------------------------------------------------------

// RandomFlatRecords returns n records with random IDs over the full int32 range
func RandomFlatRecords(r *rand.Rand, n int) []FlatRecord {
	records := make([]FlatRecord, n)
	for i := range records {
		records[i] = FlatRecord{
			ID:   int32(r.Int63n(math.MaxUint32+1) + math.MinInt32),
			Name: "Glados",
		}
	}
	return records
}

// RandomContainer returns a container with the given number of groups, each
// holding the given number of randomly chosen variants. Names and origins are
// fresh ksuids.
func RandomContainer(r *rand.Rand, groups, items int) Container {
	c := Container{
		Name:   ksuid.New().String(),
		Groups: make([]Group, groups),
	}
	for i := range c.Groups {
		variants := make([]Variant, items)
		for j := range variants {
			variants[j] = randomVariant(r)
		}
		c.Groups[i] = Group{Items: variants}
	}
	return c
}

// RandomContainers returns n containers built by RandomContainer
func RandomContainers(r *rand.Rand, n, groups, items int) []Container {
	containers := make([]Container, n)
	for i := range containers {
		containers[i] = RandomContainer(r, groups, items)
	}
	return containers
}

func randomVariant(r *rand.Rand) Variant {
	switch r.Intn(3) {
	case 0:
		return Chocolate{Origin: ksuid.New().String()}
	case 1:
		return Peanut{Fat: int32(r.Intn(101))}
	default:
		return Green{IsSafe: r.Intn(2) == 0}
	}
}
