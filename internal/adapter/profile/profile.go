// Package profile loads an operator-controlled YAML file that overrides the
// built-in unit sizes, cost parameters, and default sharding descriptor.
package profile

import (
	"fmt"

	"github.com/avelarde/sizecast/internal/core/domain"
)

// Profile holds estimation tuning loaded from a YAML file. Every section is
// optional; omitted values keep their built-in defaults.
//
//	unit_sizes:
//	  string: 64
//	  key_value_pair: 16
//	cost:
//	  page_size: 8192
//	  page_cost: 0.02
//	sharding:
//	  nb_shards: 4
//	  shard_key: id
//	  distribution: uniform
type Profile struct {
	UnitSizes *domain.UnitSizes  `yaml:"unit_sizes"`
	Cost      *domain.CostParams `yaml:"cost"`
	Sharding  *domain.Sharding   `yaml:"sharding"`
}

// ApplyUnitSizes merges the profile's unit-size overrides onto base.
func (p *Profile) ApplyUnitSizes(base domain.UnitSizes) domain.UnitSizes {
	if p == nil || p.UnitSizes == nil {
		return base
	}
	o := p.UnitSizes
	if o.KeyValuePair > 0 {
		base.KeyValuePair = o.KeyValuePair
	}
	if o.Number > 0 {
		base.Number = o.Number
	}
	if o.String > 0 {
		base.String = o.String
	}
	if o.Date > 0 {
		base.Date = o.Date
	}
	if o.LongString > 0 {
		base.LongString = o.LongString
	}
	return base
}

// ApplyCost merges the profile's cost overrides onto base.
func (p *Profile) ApplyCost(base domain.CostParams) domain.CostParams {
	if p == nil || p.Cost == nil {
		return base
	}
	o := p.Cost
	if o.PageSize > 0 {
		base.PageSize = o.PageSize
	}
	if o.PageCost > 0 {
		base.PageCost = o.PageCost
	}
	if o.CPUPerTuple > 0 {
		base.CPUPerTuple = o.CPUPerTuple
	}
	if o.CPUPerComp > 0 {
		base.CPUPerComp = o.CPUPerComp
	}
	if o.NetCostPerByte > 0 {
		base.NetCostPerByte = o.NetCostPerByte
	}
	return base
}

// DefaultSharding returns the profile's sharding descriptor, or nil when
// none is configured.
func (p *Profile) DefaultSharding() *domain.Sharding {
	if p == nil {
		return nil
	}
	return p.Sharding
}

func validate(p *Profile) error {
	if u := p.UnitSizes; u != nil {
		for name, v := range map[string]int64{
			"key_value_pair": u.KeyValuePair,
			"number":         u.Number,
			"string":         u.String,
			"date":           u.Date,
			"long_string":    u.LongString,
		} {
			if v < 0 {
				return fmt.Errorf("unit_sizes.%s: must not be negative", name)
			}
		}
	}
	if c := p.Cost; c != nil {
		for name, v := range map[string]float64{
			"page_size":         c.PageSize,
			"page_cost":         c.PageCost,
			"cpu_per_tuple":     c.CPUPerTuple,
			"cpu_per_comp":      c.CPUPerComp,
			"net_cost_per_byte": c.NetCostPerByte,
		} {
			if v < 0 {
				return fmt.Errorf("cost.%s: must not be negative", name)
			}
		}
	}
	if s := p.Sharding; s != nil {
		if s.Shards < 1 {
			return fmt.Errorf("sharding.nb_shards: must be a positive integer")
		}
		if s.Distribution != "" && s.Distribution != "uniform" {
			return fmt.Errorf("sharding.distribution: invalid value %q (only \"uniform\" is supported)", s.Distribution)
		}
	}
	return nil
}
