/*
schema.go - Explicit schema registry

PURPOSE:
  Maps schema names to their document kind and number-series prefix.
  The registry is plain data passed into the Service by reference;
  nothing in this module resolves schemas through global state.
*/
package books

import "github.com/warp/ledger-engine/ledger"

// SchemaDef describes one registered document type.
type SchemaDef struct {
	Kind         DocKind
	SeriesPrefix string
}

// SchemaRegistry is the closed map of known document schemas.
type SchemaRegistry struct {
	defs map[ledger.SchemaName]SchemaDef
}

// NewSchemaRegistry builds a registry from explicit definitions.
func NewSchemaRegistry(defs map[ledger.SchemaName]SchemaDef) *SchemaRegistry {
	copied := make(map[ledger.SchemaName]SchemaDef, len(defs))
	for k, v := range defs {
		copied[k] = v
	}
	return &SchemaRegistry{defs: copied}
}

// DefaultRegistry returns the standard document types.
func DefaultRegistry() *SchemaRegistry {
	return NewSchemaRegistry(map[ledger.SchemaName]SchemaDef{
		"SalesInvoice":    {Kind: KindSales, SeriesPrefix: "SINV-"},
		"PurchaseInvoice": {Kind: KindPurchase, SeriesPrefix: "PINV-"},
		"JournalEntry":    {Kind: KindJournal, SeriesPrefix: "JV-"},
		"Payment":         {Kind: KindPayment, SeriesPrefix: "PAY-"},
	})
}

// Lookup returns the definition for a schema, if registered.
func (r *SchemaRegistry) Lookup(schema ledger.SchemaName) (SchemaDef, bool) {
	def, ok := r.defs[schema]
	return def, ok
}

// Schemas lists the registered schema names.
func (r *SchemaRegistry) Schemas() []ledger.SchemaName {
	names := make([]ledger.SchemaName, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	return names
}
