package bsp

import (
	"github.com/bspgraph/engine/pkg/errors"
	"github.com/bspgraph/engine/pkg/model"
)

// arraySlot is an array-valued property's per-vertex payload. A nil slot
// is logically "unset" and reads back as the descriptor's default.
type arraySlot struct {
	longArr []int64
	dblArr  []float64
}

// NodeValueStore is the schema-driven property container: one paged
// array per scalar key, one sparse paged slice-of-slots per array key.
// Every key declared by the schema is present before superstep 0 and
// every vertex's initial value is the descriptor's default.
type NodeValueStore struct {
	schema *model.Schema
	size   int64

	longs   map[string]*PagedLongArray
	doubles map[string]*PagedDoubleArray
	arrays  map[string][]arraySlot
}

// NewNodeValueStore allocates one paged array (or sparse slot slice) per
// property declared in schema, sized to hold size vertices.
func NewNodeValueStore(schema *model.Schema, size int64) *NodeValueStore {
	s := &NodeValueStore{
		schema:  schema,
		size:    size,
		longs:   make(map[string]*PagedLongArray),
		doubles: make(map[string]*PagedDoubleArray),
		arrays:  make(map[string][]arraySlot),
	}
	for _, d := range schema.Descriptors() {
		switch d.Kind {
		case model.ValueKindLong:
			s.longs[d.Key] = NewPagedLongArray(size, d.DefaultLong)
		case model.ValueKindDouble:
			s.doubles[d.Key] = NewPagedDoubleArray(size, d.DefaultDouble)
		case model.ValueKindLongArray, model.ValueKindDoubleArray:
			s.arrays[d.Key] = make([]arraySlot, size)
		}
	}
	return s
}

func (s *NodeValueStore) checkBounds(v int64) error {
	if v < 0 || v >= s.size {
		return errors.Wrap(errors.CodeBoundsError, "vertex id out of range", errIndexOutOfRange(v, s.size))
	}
	return nil
}

func (s *NodeValueStore) descriptor(key string, want model.ValueKind) (model.PropertyDescriptor, error) {
	d, ok := s.schema.Lookup(key)
	if !ok {
		return model.PropertyDescriptor{}, errors.Wrap(errors.CodeSchemaError, "unknown property key "+key, nil)
	}
	if d.Kind != want {
		return model.PropertyDescriptor{}, errors.Wrap(errors.CodeTypeMismatch, "property "+key+" is not of kind "+want.String(), nil)
	}
	return d, nil
}

// LongValue returns the scalar long value of key for vertex v.
func (s *NodeValueStore) LongValue(key string, v int64) (int64, error) {
	if _, err := s.descriptor(key, model.ValueKindLong); err != nil {
		return 0, err
	}
	if err := s.checkBounds(v); err != nil {
		return 0, err
	}
	arr, ok := s.longs[key]
	if !ok {
		return 0, errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	return arr.Get(v), nil
}

// SetLong writes the scalar long value of key for vertex v.
func (s *NodeValueStore) SetLong(key string, v int64, value int64) error {
	if _, err := s.descriptor(key, model.ValueKindLong); err != nil {
		return err
	}
	if err := s.checkBounds(v); err != nil {
		return err
	}
	arr, ok := s.longs[key]
	if !ok {
		return errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	arr.Set(v, value)
	return nil
}

// DoubleValue returns the scalar double value of key for vertex v.
func (s *NodeValueStore) DoubleValue(key string, v int64) (float64, error) {
	if _, err := s.descriptor(key, model.ValueKindDouble); err != nil {
		return 0, err
	}
	if err := s.checkBounds(v); err != nil {
		return 0, err
	}
	arr, ok := s.doubles[key]
	if !ok {
		return 0, errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	return arr.Get(v), nil
}

// SetDouble writes the scalar double value of key for vertex v.
func (s *NodeValueStore) SetDouble(key string, v int64, value float64) error {
	if _, err := s.descriptor(key, model.ValueKindDouble); err != nil {
		return err
	}
	if err := s.checkBounds(v); err != nil {
		return err
	}
	arr, ok := s.doubles[key]
	if !ok {
		return errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	arr.Set(v, value)
	return nil
}

// LongArrayValue returns the long-array value of key for vertex v, or the
// descriptor's default long-array if the slot was never written.
func (s *NodeValueStore) LongArrayValue(key string, v int64) ([]int64, error) {
	d, err := s.descriptor(key, model.ValueKindLongArray)
	if err != nil {
		return nil, err
	}
	if err := s.checkBounds(v); err != nil {
		return nil, err
	}
	slots, ok := s.arrays[key]
	if !ok {
		return nil, errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	slot := slots[v]
	if slot.longArr == nil {
		return d.DefaultLongArr, nil
	}
	return slot.longArr, nil
}

// SetLongArray writes a borrowed slice as the long-array value of key for
// vertex v. The store keeps the slice as given; callers must not mutate it
// afterwards through another alias.
func (s *NodeValueStore) SetLongArray(key string, v int64, value []int64) error {
	if _, err := s.descriptor(key, model.ValueKindLongArray); err != nil {
		return err
	}
	if err := s.checkBounds(v); err != nil {
		return err
	}
	slots, ok := s.arrays[key]
	if !ok {
		return errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	slots[v] = arraySlot{longArr: value}
	return nil
}

// DoubleArrayValue returns the double-array value of key for vertex v, or
// the descriptor's default if the slot was never written.
func (s *NodeValueStore) DoubleArrayValue(key string, v int64) ([]float64, error) {
	d, err := s.descriptor(key, model.ValueKindDoubleArray)
	if err != nil {
		return nil, err
	}
	if err := s.checkBounds(v); err != nil {
		return nil, err
	}
	slots, ok := s.arrays[key]
	if !ok {
		return nil, errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	slot := slots[v]
	if slot.dblArr == nil {
		return d.DefaultDblArr, nil
	}
	return slot.dblArr, nil
}

// SetDoubleArray writes a borrowed slice as the double-array value of key
// for vertex v.
func (s *NodeValueStore) SetDoubleArray(key string, v int64, value []float64) error {
	if _, err := s.descriptor(key, model.ValueKindDoubleArray); err != nil {
		return err
	}
	if err := s.checkBounds(v); err != nil {
		return err
	}
	slots, ok := s.arrays[key]
	if !ok {
		return errors.Wrap(errors.CodeSchemaError, "property "+key+" was dropped (private, run already finalized)", nil)
	}
	slots[v] = arraySlot{dblArr: value}
	return nil
}

// PublicProperties materializes a PublicPropertyMap: dense
// []int64/[]float64 slices over [0, N) for every public key, dropping
// private properties from the returned result.
func (s *NodeValueStore) PublicProperties() model.PublicPropertyMap {
	out := model.NewPublicPropertyMap()
	for _, d := range s.schema.Descriptors() {
		if d.Visibility != model.VisibilityPublic {
			continue
		}
		switch d.Kind {
		case model.ValueKindLong:
			vals := make([]int64, s.size)
			for i := int64(0); i < s.size; i++ {
				vals[i] = s.longs[d.Key].Get(i)
			}
			out.LongValues[d.Key] = vals
		case model.ValueKindDouble:
			vals := make([]float64, s.size)
			for i := int64(0); i < s.size; i++ {
				vals[i] = s.doubles[d.Key].Get(i)
			}
			out.DoubleValues[d.Key] = vals
		case model.ValueKindLongArray:
			vals := make([][]int64, s.size)
			for i, slot := range s.arrays[d.Key] {
				if slot.longArr != nil {
					vals[i] = slot.longArr
				} else {
					vals[i] = d.DefaultLongArr
				}
			}
			out.LongArrayValues[d.Key] = vals
		case model.ValueKindDoubleArray:
			vals := make([][]float64, s.size)
			for i, slot := range s.arrays[d.Key] {
				if slot.dblArr != nil {
					vals[i] = slot.dblArr
				} else {
					vals[i] = d.DefaultDblArr
				}
			}
			out.DoubleArrayValues[d.Key] = vals
		}
	}
	return out
}

// DropPrivate releases the backing storage of every private property.
// Called once by the driver at run finalization, before the remaining
// public properties are materialized into a Result.
func (s *NodeValueStore) DropPrivate() {
	for _, d := range s.schema.Descriptors() {
		if d.Visibility != model.VisibilityPrivate {
			continue
		}
		switch d.Kind {
		case model.ValueKindLong:
			s.longs[d.Key].Release()
			delete(s.longs, d.Key)
		case model.ValueKindDouble:
			s.doubles[d.Key].Release()
			delete(s.doubles, d.Key)
		case model.ValueKindLongArray, model.ValueKindDoubleArray:
			delete(s.arrays, d.Key)
		}
	}
}

// ReleasePublic returns the backing pages of every remaining (public)
// scalar property to the shared page pool. Called once by the driver
// after PublicProperties has copied their values into a Result; the
// store must not be used afterward.
func (s *NodeValueStore) ReleasePublic() {
	for key, a := range s.longs {
		a.Release()
		delete(s.longs, key)
	}
	for key, a := range s.doubles {
		a.Release()
		delete(s.doubles, key)
	}
}
