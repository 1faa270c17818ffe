package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	// ErrUnknownCollection reports a collection name absent from the schema.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrRecursiveReference reports a $ref cycle between collections.
	// Resolution is aborted instead of recursing without bound.
	ErrRecursiveReference = errors.New("recursive schema reference")
)

// formats that specialize a field to a plain string regardless of its
// declared base type.
var stringFormats = map[string]bool{
	"date":      true,
	"date-time": true,
	"email":     true,
	"uri":       true,
	"uuid":      true,
}

// Resolver turns schema record definitions into FieldType trees. Resolved
// collections are memoized for the resolver's lifetime. A Resolver is not
// safe for concurrent use; create one per estimation session.
type Resolver struct {
	schema    *Schema
	cache     map[string]*FieldType
	resolving map[string]bool
}

func NewResolver(schema *Schema) *Resolver {
	return &Resolver{
		schema:    schema,
		cache:     make(map[string]*FieldType),
		resolving: make(map[string]bool),
	}
}

// Resolve builds the record type for one collection. It fails with
// ErrUnknownCollection for names the schema does not declare and with
// ErrRecursiveReference when the collection participates in a $ref cycle.
func (r *Resolver) Resolve(collection string) (*FieldType, error) {
	if ft, ok := r.cache[collection]; ok {
		return ft, nil
	}
	if r.resolving[collection] {
		return nil, fmt.Errorf("collection %q: %w", collection, ErrRecursiveReference)
	}

	def, ok := r.schema.Collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, ErrUnknownCollection)
	}

	r.resolving[collection] = true
	defer delete(r.resolving, collection)

	ft, err := r.resolveRecord(collection, def.Properties, def.Required)
	if err != nil {
		return nil, err
	}

	r.cache[collection] = ft
	return ft, nil
}

// ResolveAll resolves every collection the schema declares, keyed by name.
func (r *Resolver) ResolveAll() (map[string]*FieldType, error) {
	all := make(map[string]*FieldType, len(r.schema.Collections))
	for _, name := range r.CollectionNames() {
		ft, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		all[name] = ft
	}
	return all, nil
}

// CollectionNames returns the declared collection names in sorted order.
func (r *Resolver) CollectionNames() []string {
	names := make([]string, 0, len(r.schema.Collections))
	for name := range r.schema.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) resolveRecord(name string, props Properties, required []string) (*FieldType, error) {
	req := make(map[string]bool, len(required))
	for _, f := range required {
		req[f] = true
	}

	record := &FieldType{Kind: KindRecord, Name: name}
	for _, prop := range props {
		ft, err := r.resolveField(prop.Def, prop.Name)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", prop.Name, err)
		}
		if !req[prop.Name] {
			ft.Optional = true
		}
		record.Fields = append(record.Fields, Field{Name: prop.Name, Type: ft})
	}
	return record, nil
}

func (r *Resolver) resolveField(def *FieldDef, fieldName string) (*FieldType, error) {
	if def == nil {
		return &FieldType{Kind: KindAny}, nil
	}

	// A format hint wins over the declared base type.
	if stringFormats[def.Format] {
		return &FieldType{Kind: KindString, Format: def.Format}, nil
	}

	// Type union: resolve each alternative independently.
	if len(def.Type) > 1 {
		union := &FieldType{Kind: KindUnion}
		for _, alt := range def.Type {
			ft, err := r.resolveField(&FieldDef{Type: TypeList{alt}}, fieldName)
			if err != nil {
				return nil, err
			}
			union.Alts = append(union.Alts, ft)
		}
		return union, nil
	}

	if len(def.Type) == 1 {
		switch def.Type[0] {
		case "integer":
			return &FieldType{Kind: KindInteger}, nil
		case "number":
			return &FieldType{Kind: KindNumber}, nil
		case "boolean":
			return &FieldType{Kind: KindBoolean}, nil
		case "null":
			return &FieldType{Kind: KindNull}, nil
		case "string":
			if len(def.Enum) > 0 {
				return &FieldType{
					Kind:   KindEnum,
					Name:   synthesizedName(fieldName, "Enum", "ValueEnum"),
					Values: def.Enum,
				}, nil
			}
			return &FieldType{Kind: KindString}, nil
		case "array":
			elem, err := r.resolveField(def.Items, "")
			if err != nil {
				return nil, err
			}
			return &FieldType{Kind: KindArray, Elem: elem}, nil
		case "object":
			if len(def.Properties) == 0 {
				return &FieldType{Kind: KindFreeForm}, nil
			}
			name := synthesizedName(fieldName, "Object", "NestedObject")
			return r.resolveRecord(name, def.Properties, def.Required)
		}
	}

	if def.Ref != "" {
		if !strings.HasPrefix(def.Ref, "#/") {
			// External references cannot be followed; treat as opaque.
			return &FieldType{Kind: KindAny}, nil
		}
		parts := strings.Split(def.Ref, "/")
		target := parts[len(parts)-1]
		resolved, err := r.Resolve(target)
		if err != nil {
			return nil, err
		}
		return &FieldType{Kind: KindReference, Ref: target, Target: resolved}, nil
	}

	return &FieldType{Kind: KindAny}, nil
}

// synthesizedName derives a deterministic type name from the owning field,
// e.g. "address" -> "AddressObject". fallback covers anonymous positions
// such as array elements.
func synthesizedName(fieldName, suffix, fallback string) string {
	if fieldName == "" {
		return fallback
	}
	runes := []rune(fieldName)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes) + suffix
}
