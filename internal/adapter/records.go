package adapter

import (
	"pool_monitor/internal/entity"
	"pool_monitor/internal/pkg/utils"
)

// UnknownContract is reported for tokens whose issuing contract is missing.
const UnknownContract = "unknown"

// TokenRef is a decoded token side: symbol code plus issuing contract.
type TokenRef struct {
	Symbol   string
	Contract string
}

func (t TokenRef) contract() string {
	return contractOrUnknown(t.Contract)
}

// Record is one raw table row resolved to a known shape.
type Record interface {
	Schema() entity.SchemaKind
	Fields() entity.PoolFields
}

// CommaPrecisionRecord holds tokens as "precision,SYMBOL" and reserves as "amount SYMBOL".
type CommaPrecisionRecord struct {
	TokenA   TokenRef
	TokenB   TokenRef
	ReserveA float64
	ReserveB float64
}

func (r CommaPrecisionRecord) Schema() entity.SchemaKind { return entity.SchemaCommaPrecision }

func (r CommaPrecisionRecord) Fields() entity.PoolFields {
	return entity.PoolFields{
		Token0Symbol:   r.TokenA.Symbol,
		Token1Symbol:   r.TokenB.Symbol,
		Token0Contract: r.TokenA.contract(),
		Token1Contract: r.TokenB.contract(),
		Reserve0Amount: r.ReserveA,
		Reserve1Amount: r.ReserveB,
	}
}

// NestedQuantityRecord holds token objects with symbol/contract and reserve objects with a quantity string.
type NestedQuantityRecord struct {
	Token0   TokenRef
	Token1   TokenRef
	Reserve0 float64
	Reserve1 float64
}

func (r NestedQuantityRecord) Schema() entity.SchemaKind { return entity.SchemaNestedQuantity }

func (r NestedQuantityRecord) Fields() entity.PoolFields {
	return entity.PoolFields{
		Token0Symbol:   r.Token0.Symbol,
		Token1Symbol:   r.Token1.Symbol,
		Token0Contract: r.Token0.contract(),
		Token1Contract: r.Token1.contract(),
		Reserve0Amount: r.Reserve0,
		Reserve1Amount: r.Reserve1,
	}
}

// BareAmountRecord holds token objects with ticker/contract and bare numeric reserves.
type BareAmountRecord struct {
	Token0   TokenRef
	Token1   TokenRef
	Reserve0 float64
	Reserve1 float64
}

func (r BareAmountRecord) Schema() entity.SchemaKind { return entity.SchemaBareAmount }

func (r BareAmountRecord) Fields() entity.PoolFields {
	return entity.PoolFields{
		Token0Symbol:   r.Token0.Symbol,
		Token1Symbol:   r.Token1.Symbol,
		Token0Contract: r.Token0.contract(),
		Token1Contract: r.Token1.contract(),
		Reserve0Amount: r.Reserve0,
		Reserve1Amount: r.Reserve1,
	}
}

// GenericRecord is the fallback for unrecognized sources. It reads the comma-precision
// keys first and the token0/token1 keys when those are absent.
type GenericRecord struct {
	Inner Record
}

func (r GenericRecord) Schema() entity.SchemaKind { return entity.SchemaGeneric }

func (r GenericRecord) Fields() entity.PoolFields {
	if r.Inner == nil {
		return entity.PoolFields{Token0Contract: UnknownContract, Token1Contract: UnknownContract}
	}
	return r.Inner.Fields()
}

// Decode resolves a raw row into the record variant for kind.
func Decode(kind entity.SchemaKind, raw entity.RawRecord) Record {
	switch kind {
	case entity.SchemaCommaPrecision:
		return decodeCommaPrecision(raw)
	case entity.SchemaNestedQuantity:
		return decodeNestedQuantity(raw)
	case entity.SchemaBareAmount:
		return decodeBareAmount(raw)
	default:
		return decodeGeneric(raw)
	}
}

func decodeCommaPrecision(raw entity.RawRecord) CommaPrecisionRecord {
	return CommaPrecisionRecord{
		TokenA:   commaToken(raw, "token_a"),
		TokenB:   commaToken(raw, "token_b"),
		ReserveA: assetAmount(raw, "reserve_a"),
		ReserveB: assetAmount(raw, "reserve_b"),
	}
}

// commaToken reads "8,WAX" or an extended symbol object {sym, contract}.
// A sibling "<key>_contract" string supplies the contract for the plain string form.
func commaToken(raw entity.RawRecord, key string) TokenRef {
	var ref TokenRef
	if s, ok := stringField(raw, key); ok {
		_, ref.Symbol = utils.ParseSymbol(s)
	} else if obj, ok := objectField(raw, key); ok {
		if s, ok := stringField(obj, "sym"); ok {
			_, ref.Symbol = utils.ParseSymbol(s)
		} else if s, ok := stringField(obj, "symbol"); ok {
			_, ref.Symbol = utils.ParseSymbol(s)
		}
		ref.Contract, _ = stringField(obj, "contract")
	}
	if ref.Contract == "" {
		ref.Contract, _ = stringField(raw, key+"_contract")
	}
	return ref
}

func assetAmount(raw entity.RawRecord, key string) float64 {
	if s, ok := stringField(raw, key); ok {
		amount, _ := utils.ParseAsset(s)
		return amount
	}
	amount, _ := numberField(raw, key)
	return amount
}

func decodeNestedQuantity(raw entity.RawRecord) NestedQuantityRecord {
	return NestedQuantityRecord{
		Token0:   objectToken(raw, "token0", "symbol"),
		Token1:   objectToken(raw, "token1", "symbol"),
		Reserve0: quantityAmount(raw, "reserve0"),
		Reserve1: quantityAmount(raw, "reserve1"),
	}
}

func objectToken(raw entity.RawRecord, key, symbolKey string) TokenRef {
	obj, ok := objectField(raw, key)
	if !ok {
		return TokenRef{}
	}
	var ref TokenRef
	if s, ok := stringField(obj, symbolKey); ok {
		ref.Symbol = symbolCode(s)
	}
	ref.Contract, _ = stringField(obj, "contract")
	return ref
}

// quantityAmount reads {quantity: "amount SYMBOL"}; a plain asset string is accepted as well.
func quantityAmount(raw entity.RawRecord, key string) float64 {
	if obj, ok := objectField(raw, key); ok {
		return assetAmount(obj, "quantity")
	}
	return assetAmount(raw, key)
}

func decodeBareAmount(raw entity.RawRecord) BareAmountRecord {
	r0, _ := numberField(raw, "reserve0")
	r1, _ := numberField(raw, "reserve1")
	return BareAmountRecord{
		Token0:   objectToken(raw, "token0", "ticker"),
		Token1:   objectToken(raw, "token1", "ticker"),
		Reserve0: r0,
		Reserve1: r1,
	}
}

func decodeGeneric(raw entity.RawRecord) GenericRecord {
	if _, ok := raw["token_a"]; ok {
		return GenericRecord{Inner: decodeCommaPrecision(raw)}
	}
	if _, ok := raw["token0"]; ok {
		return GenericRecord{Inner: decodeNestedQuantity(raw)}
	}
	return GenericRecord{Inner: decodeCommaPrecision(raw)}
}
