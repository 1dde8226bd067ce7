/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model
  from the external contract. Amounts travel as decimal strings, never
  JSON numbers, so clients cannot lose precision to float parsing.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// DOCUMENTS
// =============================================================================

// LineItemDTO is one invoice line.
type LineItemDTO struct {
	Account     string `json:"account"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
}

// TaxLineDTO is one already-determined tax amount.
type TaxLineDTO struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// JournalRowDTO is one explicit journal row. At most one side set;
// both empty means "balance this row automatically".
type JournalRowDTO struct {
	Account string `json:"account"`
	Party   string `json:"party,omitempty"`
	Debit   string `json:"debit,omitempty"`
	Credit  string `json:"credit,omitempty"`
}

// DocumentDTO represents a document in API responses.
type DocumentDTO struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Date   string `json:"date"`
	Status string `json:"status"`
	Party  string `json:"party,omitempty"`

	SettlementAccount string        `json:"settlementAccount,omitempty"`
	Items             []LineItemDTO `json:"items,omitempty"`
	Taxes             []TaxLineDTO  `json:"taxes,omitempty"`
	GrandTotal        string        `json:"grandTotal,omitempty"`

	Rows []JournalRowDTO `json:"rows,omitempty"`

	FromAccount string `json:"fromAccount,omitempty"`
	ToAccount   string `json:"toAccount,omitempty"`
	Amount      string `json:"amount,omitempty"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CreateDocumentRequest creates a draft document. The name is issued
// by the schema's number series, not supplied by the client.
type CreateDocumentRequest struct {
	Schema string `json:"schema"`
	Date   string `json:"date,omitempty"` // YYYY-MM-DD
	Party  string `json:"party,omitempty"`

	SettlementAccount string        `json:"settlementAccount,omitempty"`
	Items             []LineItemDTO `json:"items,omitempty"`
	Taxes             []TaxLineDTO  `json:"taxes,omitempty"`

	Rows []JournalRowDTO `json:"rows,omitempty"`

	FromAccount string `json:"fromAccount,omitempty"`
	ToAccount   string `json:"toAccount,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// CancelDocumentRequest carries the cancellation reason.
type CancelDocumentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SubmitResponse returns the submitted document with its ledger rows.
type SubmitResponse struct {
	Document DocumentDTO `json:"document"`
	Entries  []EntryDTO  `json:"entries"`
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// EntryDTO represents one ledger row in API responses.
type EntryDTO struct {
	Name          int64  `json:"name"`
	Date          string `json:"date"`
	Account       string `json:"account"`
	Party         string `json:"party,omitempty"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	ReferenceType string `json:"referenceType"`
	ReferenceName string `json:"referenceName"`
	Reverted      bool   `json:"reverted"`
	Reverts       int64  `json:"reverts,omitempty"`
}

// =============================================================================
// ACCOUNTS & SERIES
// =============================================================================

// AccountDTO represents a chart-of-accounts node.
type AccountDTO struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Parent string `json:"parent,omitempty"`
}

// SeriesDTO represents a number-series counter.
type SeriesDTO struct {
	Name          string `json:"name"`
	Current       *int64 `json:"current"`
	Start         int64  `json:"start"`
	PadZeros      int    `json:"padZeros"`
	ReferenceType string `json:"referenceType"`
}

// CreateSeriesRequest registers a new counter.
type CreateSeriesRequest struct {
	Name          string `json:"name"`
	Start         int64  `json:"start"`
	PadZeros      int    `json:"padZeros,omitempty"`
	ReferenceType string `json:"referenceType"`
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditDTO represents one lifecycle audit record.
type AuditDTO struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor,omitempty"`
	Action    string `json:"action"`
	Schema    string `json:"schema"`
	Name      string `json:"name"`
	Detail    string `json:"detail,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
