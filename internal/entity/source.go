package entity

// SchemaKind names the on-chain record layout a source stores its pools in.
type SchemaKind string

const (
	// SchemaCommaPrecision stores tokens as "precision,SYMBOL" and reserves as "amount SYMBOL" strings.
	SchemaCommaPrecision SchemaKind = "comma_precision"
	// SchemaNestedQuantity stores tokens as {symbol, contract} and reserves as {quantity: "amount SYMBOL"}.
	SchemaNestedQuantity SchemaKind = "nested_quantity"
	// SchemaBareAmount stores tokens as {ticker, contract} and reserves as bare numbers.
	SchemaBareAmount SchemaKind = "bare_amount"
	// SchemaGeneric is the fallback for unrecognized sources.
	SchemaGeneric SchemaKind = "generic"
)

// Source is the static identity of one monitored exchange contract.
type Source struct {
	ID          string     `json:"id" yaml:"id"`
	DisplayName string     `json:"displayName" yaml:"displayName"`
	Contract    string     `json:"contract" yaml:"contract"`
	Scope       string     `json:"scope" yaml:"scope"` // Usually equal to Contract, but not guaranteed by the chain.
	Table       string     `json:"table" yaml:"table"`
	Schema      SchemaKind `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// EffectiveScope returns the table scope to query, falling back to the contract account.
func (s Source) EffectiveScope() string {
	if s.Scope != "" {
		return s.Scope
	}
	return s.Contract
}
