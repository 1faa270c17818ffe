package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSchema(t *testing.T, raw string) *Schema {
	t.Helper()
	var schema Schema
	require.NoError(t, json.Unmarshal([]byte(raw), &schema))
	return &schema
}

func TestResolver_PrimitivesAndFormats(t *testing.T) {
	schema := parseSchema(t, productSchemaJSON)
	record, err := NewResolver(schema).Resolve("Product")
	require.NoError(t, err)

	require.Equal(t, KindRecord, record.Kind)
	assert.Equal(t, "Product", record.Name)

	byName := make(map[string]*FieldType)
	for _, f := range record.Fields {
		byName[f.Name] = f.Type
	}

	assert.Equal(t, KindString, byName["name"].Kind)
	assert.Equal(t, KindNumber, byName["price"].Kind)
	assert.Equal(t, KindBoolean, byName["in_stock"].Kind)

	// Format hint wins regardless of base type.
	assert.Equal(t, KindString, byName["released"].Kind)
	assert.Equal(t, "date", byName["released"].Format)

	// Object without properties resolves as free-form.
	assert.Equal(t, KindFreeForm, byName["extras"].Kind)

	// Type list resolves as a union in declaration order.
	require.Equal(t, KindUnion, byName["maybe"].Kind)
	require.Len(t, byName["maybe"].Alts, 2)
	assert.Equal(t, KindString, byName["maybe"].Alts[0].Kind)
	assert.Equal(t, KindNull, byName["maybe"].Alts[1].Kind)

	// Array carries its element type.
	require.Equal(t, KindArray, byName["tags"].Kind)
	assert.Equal(t, KindString, byName["tags"].Elem.Kind)
}

func TestResolver_EnumNaming(t *testing.T) {
	schema := parseSchema(t, productSchemaJSON)
	record, err := NewResolver(schema).Resolve("Product")
	require.NoError(t, err)

	status := record.FieldByName("status")
	require.NotNil(t, status)
	assert.Equal(t, KindEnum, status.Kind)
	assert.Equal(t, "StatusEnum", status.Name)
	assert.Equal(t, []string{"active", "inactive"}, status.Values)
}

func TestResolver_RequiredMarksOptional(t *testing.T) {
	schema := parseSchema(t, productSchemaJSON)
	record, err := NewResolver(schema).Resolve("Product")
	require.NoError(t, err)

	assert.False(t, record.FieldByName("name").Optional)
	assert.False(t, record.FieldByName("price").Optional)
	assert.True(t, record.FieldByName("brand").Optional)
}

func TestResolver_NestedObjectNaming(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"Customer": {
				"properties": {
					"address": {
						"type": "object",
						"properties": {
							"street": {"type": "string"},
							"zip":    {"type": "string"}
						},
						"required": ["street"]
					}
				},
				"required": ["address"]
			}
		}
	}`)

	record, err := NewResolver(schema).Resolve("Customer")
	require.NoError(t, err)

	address := record.FieldByName("address")
	require.NotNil(t, address)
	assert.Equal(t, KindRecord, address.Kind)
	assert.Equal(t, "AddressObject", address.Name)
	require.Len(t, address.Fields, 2)
	assert.False(t, address.FieldByName("street").Optional)
	assert.True(t, address.FieldByName("zip").Optional)
}

func TestResolver_Reference(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"Order": {
				"properties": {
					"product": {"$ref": "#/properties/Product"}
				}
			},
			"Product": {
				"properties": {
					"name": {"type": "string"}
				}
			}
		}
	}`)

	record, err := NewResolver(schema).Resolve("Order")
	require.NoError(t, err)

	product := record.FieldByName("product")
	require.NotNil(t, product)
	assert.Equal(t, KindReference, product.Kind)
	assert.Equal(t, "Product", product.Ref)
	require.NotNil(t, product.Target)
	assert.Equal(t, KindRecord, product.Target.Kind)
	assert.NotNil(t, product.Target.FieldByName("name"))
}

func TestResolver_ExternalReferenceIsOpaque(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"Doc": {
				"properties": {
					"ext": {"$ref": "https://example.com/other.json#/Thing"}
				}
			}
		}
	}`)

	record, err := NewResolver(schema).Resolve("Doc")
	require.NoError(t, err)
	assert.Equal(t, KindAny, record.FieldByName("ext").Kind)
}

func TestResolver_RecursiveReference(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"Node": {
				"properties": {
					"next": {"$ref": "#/properties/Node"}
				}
			}
		}
	}`)

	_, err := NewResolver(schema).Resolve("Node")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecursiveReference)
}

func TestResolver_MutualRecursion(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"A": {"properties": {"b": {"$ref": "#/properties/B"}}},
			"B": {"properties": {"a": {"$ref": "#/properties/A"}}}
		}
	}`)

	_, err := NewResolver(schema).Resolve("A")
	assert.ErrorIs(t, err, ErrRecursiveReference)
}

func TestResolver_UnknownCollection(t *testing.T) {
	schema := parseSchema(t, productSchemaJSON)
	_, err := NewResolver(schema).Resolve("Nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestResolver_CachesResolvedRecords(t *testing.T) {
	schema := parseSchema(t, productSchemaJSON)
	r := NewResolver(schema)

	first, err := r.Resolve("Product")
	require.NoError(t, err)
	second, err := r.Resolve("Product")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestResolver_CollectionNamesSorted(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"Zeta":  {"properties": {}},
			"Alpha": {"properties": {}},
			"Mid":   {"properties": {}}
		}
	}`)

	names := NewResolver(schema).CollectionNames()
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, names)
}

func TestResolver_ResolveAll(t *testing.T) {
	schema := parseSchema(t, `{
		"properties": {
			"A": {"properties": {"x": {"type": "string"}}},
			"B": {"properties": {"y": {"type": "number"}}}
		}
	}`)

	all, err := NewResolver(schema).ResolveAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, KindRecord, all["A"].Kind)
	assert.Equal(t, KindRecord, all["B"].Kind)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "record", KindRecord.String())
	assert.Equal(t, "free-form", KindFreeForm.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
