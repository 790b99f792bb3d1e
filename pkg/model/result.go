package model

// PublicPropertyMap holds one named array of values per public property in
// the schema, each sized to the graph's node count. Array-valued
// properties keep one (possibly nil, meaning never-written) slice per
// vertex.
type PublicPropertyMap struct {
	LongValues        map[string][]int64
	DoubleValues      map[string][]float64
	LongArrayValues   map[string][][]int64
	DoubleArrayValues map[string][][]float64
}

// NewPublicPropertyMap builds an empty map ready to be populated.
func NewPublicPropertyMap() PublicPropertyMap {
	return PublicPropertyMap{
		LongValues:        make(map[string][]int64),
		DoubleValues:      make(map[string][]float64),
		LongArrayValues:   make(map[string][][]int64),
		DoubleArrayValues: make(map[string][][]float64),
	}
}

// Result is what the BSP driver returns from a completed run.
type Result struct {
	NodeValues    PublicPropertyMap
	RanIterations int
	DidConverge   bool
}
