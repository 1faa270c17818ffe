package domain

// CollectionSize summarizes the storage footprint of one collection.
type CollectionSize struct {
	DocumentCount        int64 `json:"document_count"`
	AvgDocumentSizeBytes int64 `json:"avg_document_size_bytes"`
	TotalSizeBytes       int64 `json:"total_size_bytes"`
}

// DatabaseSize aggregates collection footprints into a database-wide
// summary.
type DatabaseSize struct {
	Name             string                    `json:"database_name"`
	Description      string                    `json:"database_description,omitempty"`
	TotalCollections int                       `json:"total_collections"`
	TotalDocuments   int64                     `json:"total_documents"`
	TotalSizeBytes   int64                     `json:"total_size_bytes"`
	Collections      map[string]CollectionSize `json:"collections"`
}

// DatabaseSize estimates the footprint of every collection that has both a
// schema definition and a statistics entry. Collections without statistics
// are skipped: a summary mixes many collections, so unlike a single-operator
// estimate a missing entry only narrows the report.
func (e *Estimator) DatabaseSize() (*DatabaseSize, error) {
	summary := &DatabaseSize{
		Name:        e.stats.Database.Name,
		Description: e.stats.Database.Description,
		Collections: make(map[string]CollectionSize),
	}
	if summary.Name == "" {
		summary.Name = "unknown"
	}

	for _, name := range e.resolver.CollectionNames() {
		cs, ok := e.stats.Collection(name)
		if !ok {
			continue
		}

		record, err := e.resolver.Resolve(name)
		if err != nil {
			return nil, err
		}

		avg := RecordSize(record, cs.FieldSpecifics, e.units)
		size := CollectionSize{
			DocumentCount:        cs.DocumentCount,
			AvgDocumentSizeBytes: avg,
			TotalSizeBytes:       cs.DocumentCount * avg,
		}

		summary.Collections[name] = size
		summary.TotalDocuments += size.DocumentCount
		summary.TotalSizeBytes += size.TotalSizeBytes
	}

	summary.TotalCollections = len(summary.Collections)
	return summary, nil
}
