package domain

// Kind tags the variants of a resolved field type.
type Kind int

const (
	KindAny Kind = iota
	KindInteger
	KindNumber
	KindString
	KindBoolean
	KindNull
	KindEnum
	KindArray
	KindRecord
	KindFreeForm // object declared without properties; no further breakdown
	KindReference
	KindUnion
)

var kindNames = map[Kind]string{
	KindAny:       "any",
	KindInteger:   "integer",
	KindNumber:    "number",
	KindString:    "string",
	KindBoolean:   "boolean",
	KindNull:      "null",
	KindEnum:      "enum",
	KindArray:     "array",
	KindRecord:    "record",
	KindFreeForm:  "free-form",
	KindReference: "reference",
	KindUnion:     "union",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// FieldType is the resolved, navigable form of a FieldDef. Exactly the
// variant fields for its Kind are populated; everything else stays zero.
// Optional marks a may-be-absent field without changing its kind.
type FieldType struct {
	Kind     Kind
	Name     string // synthesized name for records and enums, e.g. "AddressObject"
	Optional bool
	Format   string // the format hint that specialized this field to a string

	Values []string     // KindEnum: the allowed literal values
	Elem   *FieldType   // KindArray: element type
	Fields []Field      // KindRecord: declared fields in declaration order
	Ref    string       // KindReference: referenced collection name
	Target *FieldType   // KindReference: the resolved record of that collection
	Alts   []*FieldType // KindUnion: alternatives in declaration order
}

// Field pairs a record field's name with its resolved type.
type Field struct {
	Name string
	Type *FieldType
}

// FieldByName returns the declared field with the given name, or nil.
// Record operators use this to silently skip projection keys that do not
// exist in the resolved type.
func (t *FieldType) FieldByName(name string) *FieldType {
	if t == nil || t.Kind != KindRecord {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}
