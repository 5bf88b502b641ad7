package domain

// FeatureColumn is one named lookback statistic evaluated for every row of
// an event sequence. Values align index-for-index with the sequence; rows
// whose window had insufficient history hold NaN.
type FeatureColumn struct {
	Name   string    // e.g. "VolumeAll_0.1_0.2"
	Values []float64 // one value per event row
}

// FeatureTable is the feature output of one (symbol, day) pipeline run,
// joined back onto the event sequence by row index.
type FeatureTable struct {
	Symbol     string
	Date       string
	Timestamps []int64 // row timestamps, copied from the event sequence
	Columns    []FeatureColumn
}

// Column returns the named column, or nil if absent.
func (t *FeatureTable) Column(name string) *FeatureColumn {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
