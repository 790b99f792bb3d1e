package repository

// RunRow is the GORM row model for a persisted run's summary, separate
// from the pure domain model.Result the rest of the engine works with.
type RunRow struct {
	RunID         string `gorm:"column:run_id;type:varchar(64);primaryKey"`
	RanIterations int    `gorm:"column:ran_iterations"`
	DidConverge   bool   `gorm:"column:did_converge"`
}

// TableName overrides GORM's pluralized default.
func (RunRow) TableName() string {
	return "bsp_run"
}

// VertexPropertyRow is the GORM row model for a single public property
// value on a single vertex. Scalar kinds populate the long or double
// column; array kinds pack their elements into the blob column as
// little-endian 64-bit values. Only the column matching the row's Kind is
// populated; this keeps the table a single flat schema instead of a
// kind-specific table per value kind.
type VertexPropertyRow struct {
	RunID       string   `gorm:"column:run_id;type:varchar(64);primaryKey"`
	VertexID    int64    `gorm:"column:vertex_id;primaryKey"`
	PropertyKey string   `gorm:"column:property_key;type:varchar(128);primaryKey"`
	Kind        string   `gorm:"column:kind;type:varchar(16)"`
	LongValue   *int64   `gorm:"column:long_value"`
	DoubleValue *float64 `gorm:"column:double_value"`
	ArrayValue  []byte   `gorm:"column:array_value"`
}

// TableName overrides GORM's pluralized default.
func (VertexPropertyRow) TableName() string {
	return "bsp_vertex_property"
}
