package domain

import "math"

// CostParams configures the cost model. Zero values are replaced by
// defaults when building a CostModel through NewCostModel.
type CostParams struct {
	PageSize       float64 `json:"page_size" yaml:"page_size"`
	PageCost       float64 `json:"page_cost" yaml:"page_cost"`
	CPUPerTuple    float64 `json:"cpu_per_tuple" yaml:"cpu_per_tuple"`
	CPUPerComp     float64 `json:"cpu_per_comp" yaml:"cpu_per_comp"`
	NetCostPerByte float64 `json:"net_cost_per_byte" yaml:"net_cost_per_byte"`
}

// DefaultCostParams returns the built-in cost constants.
func DefaultCostParams() CostParams {
	return CostParams{
		PageSize:       4096,
		PageCost:       0.01,
		CPUPerTuple:    0.001,
		CPUPerComp:     0.001,
		NetCostPerByte: 0.00001,
	}
}

// CostModel converts cardinalities and byte volumes into cost components.
// All methods are pure; negative inputs clamp to a zero cost rather than
// failing.
type CostModel struct {
	params CostParams
}

// NewCostModel merges params with the defaults: any zero field keeps its
// default value. The model is immutable once built.
func NewCostModel(params CostParams) *CostModel {
	d := DefaultCostParams()
	if params.PageSize == 0 {
		params.PageSize = d.PageSize
	}
	if params.PageCost == 0 {
		params.PageCost = d.PageCost
	}
	if params.CPUPerTuple == 0 {
		params.CPUPerTuple = d.CPUPerTuple
	}
	if params.CPUPerComp == 0 {
		params.CPUPerComp = d.CPUPerComp
	}
	if params.NetCostPerByte == 0 {
		params.NetCostPerByte = d.NetCostPerByte
	}
	return &CostModel{params: params}
}

// PagesRead estimates how many pages a scan over inputCount records of
// avgRecordBytes each touches. At least one page whenever there is anything
// to read, zero when either input is non-positive.
func (m *CostModel) PagesRead(inputCount int64, avgRecordBytes float64) int64 {
	if inputCount <= 0 || avgRecordBytes <= 0 {
		return 0
	}
	pages := int64(math.Ceil(float64(inputCount) * avgRecordBytes / m.params.PageSize))
	if pages < 1 {
		return 1
	}
	return pages
}

// IOCost charges the per-page read cost.
func (m *CostModel) IOCost(pages int64) float64 {
	return clampCost(float64(pages) * m.params.PageCost)
}

// CPUCostPerTuple charges the per-document processing cost of a scan.
func (m *CostModel) CPUCostPerTuple(inputCount int64) float64 {
	return clampCost(float64(inputCount) * m.params.CPUPerTuple)
}

// CPUCostComparisons charges the pairwise comparison cost, e.g. of a join.
func (m *CostModel) CPUCostComparisons(comparisons int64) float64 {
	return clampCost(float64(comparisons) * m.params.CPUPerComp)
}

// NetworkCost charges the per-byte transfer cost between nodes or shards.
func (m *CostModel) NetworkCost(bytesTransferred float64) float64 {
	return clampCost(bytesTransferred * m.params.NetCostPerByte)
}

// TotalCost sums the three components.
func (m *CostModel) TotalCost(io, cpu, network float64) float64 {
	return clampCost(io + cpu + network)
}

func clampCost(c float64) float64 {
	if c < 0 {
		return 0
	}
	return c
}
