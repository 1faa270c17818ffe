package domain

// FilterRequest describes a filter over one collection, keeping only the
// projected output keys; an empty key list projects every declared field.
// A zero Selectivity means the default. A nil Sharding estimates single-node
// execution.
type FilterRequest struct {
	Collection  string    `json:"collection"`
	OutputKeys  []string  `json:"output_keys"`
	FilterKey   string    `json:"filter_key,omitempty"`
	Selectivity float64   `json:"selectivity,omitempty"`
	Sharding    *Sharding `json:"sharding,omitempty"`
}

// EstimateFilter predicts the output cardinality, byte volume and cost of a
// filter. A full scan is charged regardless of selectivity: every input
// document is read and processed, selectivity only shrinks the output. The
// sharded variant additionally reports per-shard shares and charges the
// network cost of shipping one shard's results to a coordinator.
func (e *Estimator) EstimateFilter(req FilterRequest) (*Estimate, error) {
	cs, err := e.collectionStats(req.Collection)
	if err != nil {
		return nil, err
	}

	nIn := cs.DocumentCount
	selectivity := orDefault(req.Selectivity, DefaultFilterSelectivity)
	nOut := int64(float64(nIn) * selectivity)

	record, err := e.resolver.Resolve(req.Collection)
	if err != nil {
		return nil, err
	}

	avgProjected := e.projectedSize(record, req.OutputKeys, cs.FieldSpecifics)
	totalSize := nOut * avgProjected

	pages := e.cost.PagesRead(nIn, float64(avgProjected))
	io := e.cost.IOCost(pages)
	cpu := e.cost.CPUCostPerTuple(nIn)

	est := &Estimate{
		Operator:        "Filter (no sharding)",
		Collection:      req.Collection,
		InputDocCount:   nIn,
		OutputDocCount:  nOut,
		AvgDocSizeBytes: avgProjected,
		OutputSizeBytes: totalSize,
	}

	var network float64
	if req.Sharding != nil {
		shards := req.Sharding.shardCount()
		est.Operator = "Filter (with sharding)"
		est.Shards = int(shards)
		est.InputDocsPerShard = nIn / shards
		est.OutputDocsPerShard = nOut / shards
		// Each shard ships its share of the result to the coordinator.
		network = e.cost.NetworkCost(float64(totalSize) / float64(shards))
	}

	est.Costs = &Costs{
		IOCost:      io,
		CPUCost:     cpu,
		NetworkCost: network,
		TotalCost:   e.cost.TotalCost(io, cpu, network),
	}
	return est, nil
}
