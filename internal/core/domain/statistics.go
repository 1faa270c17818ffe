package domain

// Statistics describes observed data volumes for a database: per-collection
// document counts plus optional per-field annotations. Statistics are
// external input and never modified by the estimator.
type Statistics struct {
	Database    DatabaseInfo               `json:"database"`
	Collections map[string]CollectionStats `json:"collections"`
}

// DatabaseInfo carries display metadata for the database-wide size report.
type DatabaseInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CollectionStats holds the statistics of a single collection.
type CollectionStats struct {
	DocumentCount  int64                 `json:"document_count"`
	FieldSpecifics map[string]FieldStats `json:"field_specifics,omitempty"`
}

// FieldStats refines a generic size estimate for one field. Zero values mean
// "not observed": AvgLength falls back to the string unit size, AvgItems to
// one element, DistinctValues never tightens a group-count estimate. An
// explicit zero in the statistics file is indistinguishable from an absent
// key, so arrays observed to be empty still size as one element.
type FieldStats struct {
	AvgLength      float64               `json:"avg_length,omitempty"`
	AvgItems       float64               `json:"avg_items,omitempty"`
	NullPercentage float64               `json:"null_percentage,omitempty"`
	DistinctValues int64                 `json:"distinct_values,omitempty"`
	NestedFields   map[string]FieldStats `json:"nested_fields,omitempty"`
}

// Collection returns the statistics entry for name. The boolean reports
// whether the collection is known at all; operators treat a missing entry as
// a hard failure rather than assuming zero documents.
func (s *Statistics) Collection(name string) (CollectionStats, bool) {
	if s == nil {
		return CollectionStats{}, false
	}
	cs, ok := s.Collections[name]
	return cs, ok
}
