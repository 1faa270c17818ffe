package domain

// UnitSizes is the table of base byte costs per field category. A zero value
// is never used directly; callers start from DefaultUnitSizes and override
// the keys they care about.
type UnitSizes struct {
	KeyValuePair int64 `json:"key_value_pair" yaml:"key_value_pair"`
	Number       int64 `json:"number" yaml:"number"`
	String       int64 `json:"string" yaml:"string"`
	Date         int64 `json:"date" yaml:"date"`
	LongString   int64 `json:"long_string" yaml:"long_string"`
}

// DefaultUnitSizes returns the built-in byte costs.
func DefaultUnitSizes() UnitSizes {
	return UnitSizes{
		KeyValuePair: 12,
		Number:       8,
		String:       80,
		Date:         20,
		LongString:   200,
	}
}

// FieldSize estimates the expected serialized size of one field in bytes.
//
// The base size depends on the resolved kind: numbers and booleans use the
// number unit, strings use the observed average length when present, arrays
// multiply the element size by the observed average item count, nested
// records recurse over their declared fields, and anything opaque falls back
// to the string unit. Every field then pays the key-value-pair overhead, and
// the total is scaled down by the observed null percentage before truncating
// to whole bytes. The result is an expectation, not a worst case.
func FieldSize(ft *FieldType, specifics FieldStats, units UnitSizes) int64 {
	base := baseSize(ft, specifics, units)

	total := (base + float64(units.KeyValuePair)) * (1 - specifics.NullPercentage/100)
	if total < 0 {
		return 0
	}
	return int64(total)
}

func baseSize(ft *FieldType, specifics FieldStats, units UnitSizes) float64 {
	if ft == nil {
		return float64(units.String)
	}

	switch ft.Kind {
	case KindArray:
		// Elements carry no statistics of their own.
		itemSize := FieldSize(ft.Elem, FieldStats{}, units)
		avgItems := specifics.AvgItems
		if avgItems == 0 {
			avgItems = 1
		}
		return float64(itemSize) * avgItems

	case KindInteger, KindNumber, KindBoolean:
		return float64(units.Number)

	case KindString:
		if specifics.AvgLength > 0 {
			return specifics.AvgLength
		}
		return float64(units.String)

	case KindFreeForm:
		return float64(units.LongString)

	case KindRecord:
		return float64(RecordSize(ft, specifics.NestedFields, units))

	case KindReference:
		return float64(RecordSize(ft.Target, specifics.NestedFields, units))

	case KindUnion:
		// Size by the first non-null alternative, keeping the same statistics.
		for _, alt := range ft.Alts {
			if alt.Kind != KindNull {
				return baseSize(alt, specifics, units)
			}
		}
		return float64(units.String)

	default:
		// KindEnum, KindNull, KindAny: no better information than a string.
		return float64(units.String)
	}
}

// RecordSize estimates the expected size of one record in bytes: the sum of
// FieldSize over exactly the declared fields. Statistics entries without a
// matching schema field are ignored.
func RecordSize(record *FieldType, specs map[string]FieldStats, units UnitSizes) int64 {
	if record == nil || record.Kind != KindRecord {
		return 0
	}
	var total int64
	for _, f := range record.Fields {
		total += FieldSize(f.Type, specs[f.Name], units)
	}
	return total
}
