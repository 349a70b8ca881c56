package corpus

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer"
	"math"
)

// ErrMismatch is reported for stored payloads that decode to a different value
var ErrMismatch = errors.New("corpus: decoded value differs from the sample")

// shapes lists the shapes of Samples in recording order
var shapes = []serializer.Shape{
	serializer.ShapeFlatRecord, serializer.ShapeFlatRecords,
	serializer.ShapeContainer, serializer.ShapeContainers,
}

// Samples holds the canonical value of every registered shape
type Samples struct {
	FlatRecord  model.FlatRecord
	FlatRecords []model.FlatRecord
	Container   model.Container
	Containers  []model.Container
}

// DefaultSamples returns the samples recorded by serbench: the canonical
// objects plus edge cases for ranges and absent or empty collections
func DefaultSamples() Samples {
	return Samples{
		FlatRecord: model.NewSampleFlatRecord(),
		FlatRecords: []model.FlatRecord{
			model.NewSampleFlatRecord(),
			{ID: math.MinInt32, Name: "Glados"},
			{ID: math.MaxInt32},
		},
		Container: *model.NewSampleContainer(),
		Containers: []model.Container{
			*model.NewSampleContainer(),
			{Name: "absent"},
			{Name: "empty", Groups: []model.Group{}},
			{Name: "Black Mesa", Groups: []model.Group{{}, {Items: []model.Variant{}}, {Items: []model.Variant{model.Green{IsSafe: true}}}}},
		},
	}
}

// Value returns the sample of the shape
func (s Samples) Value(shape serializer.Shape) (any, bool) {
	switch shape {
	case serializer.ShapeFlatRecord:
		return s.FlatRecord, true
	case serializer.ShapeFlatRecords:
		return s.FlatRecords, true
	case serializer.ShapeContainer:
		return s.Container, true
	case serializer.ShapeContainers:
		return s.Containers, true
	default:
		return nil, false
	}
}

// collapsed returns the samples as a behavior without absent collections decodes them
func (s Samples) collapsed() Samples {
	out := s
	out.Container = *s.Container.Collapsed()
	out.Containers = make([]model.Container, len(s.Containers))
	for i := range s.Containers {
		out.Containers[i] = *s.Containers[i].Collapsed()
	}
	if len(out.FlatRecords) == 0 {
		out.FlatRecords = nil
	}
	return out
}

// Record encodes every sample with the serializer and stores the payloads
func (c *Corpus) Record(s *serializer.Serializer, samples Samples) ([]Payload, error) {
	payloads := make([]Payload, 0, len(shapes))
	for _, shape := range shapes {
		value, _ := samples.Value(shape)
		data, err := s.Serialize(value)
		if err != nil {
			return nil, err
		}
		p, err := c.Save(s.Name(), shape, data)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

// Failure describes a stored payload that didn't decode to its sample
type Failure struct {
	Key string
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Key, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// CheckResult summarizes a Check run
type CheckResult struct {
	Checked  int
	Failures []Failure
}

// OK reports whether every stored payload matched
func (r CheckResult) OK() bool {
	return len(r.Failures) == 0
}

// Err joins all failures into one error, nil if every payload matched
func (r CheckResult) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Check decodes every payload stored for the serializer's behavior and
// compares it with the sample of its shape under the equality contract.
// Decode errors and mismatches are collected in the result, only storage
// errors abort the check.
func (c *Corpus) Check(s *serializer.Serializer, expected Samples) (CheckResult, error) {
	if !s.Behavior().SupportsFeature(serializer.FeatureAbsentCollections) {
		expected = expected.collapsed()
	}

	var result CheckResult
	err := c.Each(s.Name(), func(p Payload) error {
		result.Checked++
		if err := checkPayload(s, p, expected); err != nil {
			Logger.Warningf("(%s) %s failed: %v", s.Name(), p.Key(), err)
			result.Failures = append(result.Failures, Failure{Key: p.Key(), Err: err})
		}
		return nil
	})
	if err != nil {
		return CheckResult{}, err
	}
	return result, nil
}

func checkPayload(s *serializer.Serializer, p Payload, expected Samples) error {
	var equal bool
	switch p.Shape {
	case serializer.ShapeFlatRecord:
		got, err := serializer.Deserialize[model.FlatRecord](s, p.Data)
		if err != nil {
			return err
		}
		equal = expected.FlatRecord.Equal(got)
	case serializer.ShapeFlatRecords:
		got, err := serializer.Deserialize[[]model.FlatRecord](s, p.Data)
		if err != nil {
			return err
		}
		equal = model.EqualFlatRecords(expected.FlatRecords, got)
	case serializer.ShapeContainer:
		got, err := serializer.Deserialize[model.Container](s, p.Data)
		if err != nil {
			return err
		}
		equal = expected.Container.Equal(&got)
	case serializer.ShapeContainers:
		got, err := serializer.Deserialize[[]model.Container](s, p.Data)
		if err != nil {
			return err
		}
		equal = model.EqualContainers(expected.Containers, got)
	default:
		return fmt.Errorf("unexpected shape %s", p.Shape)
	}

	if !equal {
		return ErrMismatch
	}
	return nil
}

// Verify round trips every sample through the serializer in memory and
// compares the result like Check does
func Verify(s *serializer.Serializer, samples Samples) (CheckResult, error) {
	expected := samples
	if !s.Behavior().SupportsFeature(serializer.FeatureAbsentCollections) {
		expected = samples.collapsed()
	}

	var result CheckResult
	for _, shape := range shapes {
		value, _ := samples.Value(shape)
		data, err := s.Serialize(value)
		if err != nil {
			return CheckResult{}, err
		}
		p := Payload{Behavior: s.Name(), Shape: shape, Data: data}
		result.Checked++
		if err := checkPayload(s, p, expected); err != nil {
			result.Failures = append(result.Failures, Failure{Key: s.Name() + keySeparator + shape.String(), Err: err})
		}
	}
	return result, nil
}
