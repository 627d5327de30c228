// Package adapter maps per-contract raw table rows onto canonical pool fields.
package adapter

import (
	"pool_monitor/internal/entity"
)

// builtinSchemas maps well-known WAX swap contracts to their row shape.
var builtinSchemas = map[string]entity.SchemaKind{
	"swap.taco":    entity.SchemaCommaPrecision,
	"swap.alcor":   entity.SchemaNestedQuantity,
	"alcordexmain": entity.SchemaNestedQuantity,
	"swap.box":     entity.SchemaBareAmount,
}

// SchemaFor returns the configured schema of a source, then the built-in schema for its id
// or contract, and finally the generic fallback.
func SchemaFor(source entity.Source) entity.SchemaKind {
	switch source.Schema {
	case entity.SchemaCommaPrecision, entity.SchemaNestedQuantity, entity.SchemaBareAmount, entity.SchemaGeneric:
		return source.Schema
	}
	if kind, ok := builtinSchemas[source.ID]; ok {
		return kind
	}
	if kind, ok := builtinSchemas[source.Contract]; ok {
		return kind
	}
	return entity.SchemaGeneric
}

// Adapt maps one raw row of source onto canonical pool fields. It never fails.
func Adapt(source entity.Source, raw entity.RawRecord) entity.PoolFields {
	return Decode(SchemaFor(source), raw).Fields()
}

// RowID returns the row's "id" field as text, if it has a usable one.
func RowID(raw entity.RawRecord) (string, bool) {
	return rowID(raw)
}

// Volume24h is a passthrough of whatever 24h volume the row carries, 0 when absent.
func Volume24h(raw entity.RawRecord) float64 {
	for _, key := range []string{"volume24h", "volume_24h"} {
		if v, ok := numberField(raw, key); ok {
			return v
		}
	}
	return 0
}
