package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Schema is the parsed JSON-Schema-like description of a database: a set of
// named collections, each with its own record definition. The schema is
// treated as already-valid JSON data; no meta-schema validation happens here.
type Schema struct {
	Title       string                `json:"title"`
	Collections map[string]*RecordDef `json:"properties"`
}

// RecordDef declares the fields of a record and which of them are required.
type RecordDef struct {
	Properties Properties `json:"properties"`
	Required   []string   `json:"required"`
}

// FieldDef is a single field declaration: a primitive type, an enum, an
// array, a nested object, a type union, or a $ref to another collection.
type FieldDef struct {
	Type       TypeList   `json:"type,omitempty"`
	Format     string     `json:"format,omitempty"`
	Enum       []string   `json:"enum,omitempty"`
	Items      *FieldDef  `json:"items,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Required   []string   `json:"required,omitempty"`
	Ref        string     `json:"$ref,omitempty"`
}

// Property pairs a field name with its definition.
type Property struct {
	Name string
	Def  *FieldDef
}

// Properties preserves the declaration order of a JSON object's keys, which
// encoding/json maps would lose. Order matters for deterministic resolution
// and reporting.
type Properties []Property

func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("properties: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("properties: expected field name, got %v", tok)
		}

		var def FieldDef
		if err := dec.Decode(&def); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		*p = append(*p, Property{Name: name, Def: &def})
	}

	_, err = dec.Token() // consume closing brace
	return err
}

func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		def, err := json.Marshal(prop.Def)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(def)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the definition for name, or nil when absent.
func (p Properties) Get(name string) *FieldDef {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Def
		}
	}
	return nil
}

// TypeList holds the declared JSON Schema "type", which may be a single
// string or a list of alternatives (e.g. ["string", "null"]).
type TypeList []string

func (t *TypeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeList{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("type: expected string or list of strings")
	}
	*t = TypeList(list)
	return nil
}

func (t TypeList) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}
