/*
handlers.go - HTTP API handlers for the accounting core

PURPOSE:
  Exposes the document lifecycle and the ledger via REST. Handles
  HTTP request/response and JSON; all accounting decisions live in
  the books and ledger packages.

ENDPOINTS:
  Documents:
    POST   /api/documents                          Create draft (name from series)
    GET    /api/documents/{schema}                 List documents of a schema
    GET    /api/documents/{schema}/{name}          Get one document
    POST   /api/documents/{schema}/{name}/submit   Post to the ledger
    POST   /api/documents/{schema}/{name}/cancel   Revert and cancel

  Ledger:
    GET    /api/entries?referenceType=&referenceName=
    GET    /api/entries?account=

  Setup:
    GET/POST /api/accounts
    GET/POST /api/series
    GET      /api/audit

ERROR HANDLING:
  - 400: validation errors (unbalanced, bad amount, bad transition)
  - 404: missing document/account/series
  - 500: everything else

SECURITY NOTE:
  No authentication. The actor recorded in the audit trail comes from
  the X-Actor header and defaults to "api".

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/ledger-engine/books"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *books.Service
}

// NewHandler creates a handler over the given store with the default
// schema registry.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store: store,
		Service: &books.Service{
			Entries:         store,
			Series:          store,
			Checker:         store,
			Documents:       store,
			Audit:           store,
			Registry:        books.DefaultRegistry(),
			RoundOffAccount: books.RoundOffAccount,
		},
	}
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// CreateDocument creates a draft document.
// POST /api/documents
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Schema == "" {
		writeError(w, http.StatusBadRequest, "schema is required", nil)
		return
	}

	doc, err := docFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document", err)
		return
	}

	if err := h.Service.Create(r.Context(), doc, actor(r)); err != nil {
		writeDomainError(w, "Failed to create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

// ListDocuments returns all documents of one schema.
// GET /api/documents/{schema}
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	schema := ledger.SchemaName(chi.URLParam(r, "schema"))
	docs, err := h.Store.ListDocuments(r.Context(), schema)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	dtos := make([]DocumentDTO, len(docs))
	for i := range docs {
		dtos[i] = toDocumentDTO(&docs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDocument returns one document.
// GET /api/documents/{schema}/{name}
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	schema := ledger.SchemaName(chi.URLParam(r, "schema"))
	name := chi.URLParam(r, "name")

	doc, err := h.Service.Get(r.Context(), schema, name)
	if err != nil {
		writeDomainError(w, "Failed to load document", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// SubmitDocument posts a draft document's ledger entries.
// POST /api/documents/{schema}/{name}/submit
func (h *Handler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	schema := ledger.SchemaName(chi.URLParam(r, "schema"))
	name := chi.URLParam(r, "name")

	doc, err := h.Service.Submit(r.Context(), schema, name, actor(r))
	if err != nil {
		writeDomainError(w, "Submission rejected", err)
		return
	}

	entries, err := h.Store.EntriesByReference(r.Context(), schema, name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{
		Document: toDocumentDTO(doc),
		Entries:  toEntryDTOs(entries),
	})
}

// CancelDocument reverts a submitted document.
// POST /api/documents/{schema}/{name}/cancel
func (h *Handler) CancelDocument(w http.ResponseWriter, r *http.Request) {
	schema := ledger.SchemaName(chi.URLParam(r, "schema"))
	name := chi.URLParam(r, "name")

	var req CancelDocumentRequest
	if r.Body != nil {
		// Body is optional for cancellation.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	doc, err := h.Service.Cancel(r.Context(), schema, name, actor(r), req.Reason)
	if err != nil {
		writeDomainError(w, "Cancellation rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListEntries returns ledger rows by reference or account.
// GET /api/entries
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	refType := q.Get("referenceType")
	refName := q.Get("referenceName")
	account := q.Get("account")

	var (
		entries []ledger.Entry
		err     error
	)
	switch {
	case refType != "" && refName != "":
		entries, err = h.Store.EntriesByReference(r.Context(), ledger.SchemaName(refType), refName)
	case account != "":
		entries, err = h.Store.EntriesByAccount(r.Context(), ledger.AccountName(account))
	default:
		limit := 100
		if l, convErr := strconv.Atoi(q.Get("limit")); convErr == nil && l > 0 {
			limit = l
		}
		entries, err = h.Store.AllEntries(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the chart of accounts.
// GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = AccountDTO{Name: string(a.Name), Type: string(a.Type), Parent: string(a.Parent)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount adds a chart-of-accounts node.
// POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "name and type are required", nil)
		return
	}

	account := books.Account{
		Name:   ledger.AccountName(req.Name),
		Type:   books.AccountType(req.Type),
		Parent: ledger.AccountName(req.Parent),
	}
	if err := h.Store.SaveAccount(r.Context(), account); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save account", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// SERIES HANDLERS
// =============================================================================

// ListSeries returns all number-series counters.
// GET /api/series
func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.Store.ListSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list series", err)
		return
	}

	dtos := make([]SeriesDTO, len(series))
	for i, s := range series {
		dtos[i] = SeriesDTO{
			Name:          s.Name,
			Current:       s.Current,
			Start:         s.Start,
			PadZeros:      s.PadZeros,
			ReferenceType: string(s.ReferenceType),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSeries registers a number-series counter.
// POST /api/series
func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req CreateSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.ReferenceType == "" {
		writeError(w, http.StatusBadRequest, "name and referenceType are required", nil)
		return
	}

	series := ledger.Series{
		Name:          req.Name,
		Start:         req.Start,
		PadZeros:      req.PadZeros,
		ReferenceType: ledger.SchemaName(req.ReferenceType),
	}
	if err := h.Store.PutSeries(r.Context(), series); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save series", err)
		return
	}
	writeJSON(w, http.StatusCreated, SeriesDTO{
		Name:          series.Name,
		Start:         series.Start,
		PadZeros:      series.PadZeros,
		ReferenceType: string(series.ReferenceType),
	})
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// ListAudit returns lifecycle audit records.
// GET /api/audit?schema=&name=
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Store.QueryAudit(r.Context(), ledger.SchemaName(q.Get("schema")), q.Get("name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit log", err)
		return
	}

	dtos := make([]AuditDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditDTO{
			ID:        e.ID,
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Actor:     e.Actor,
			Action:    string(e.Action),
			Schema:    string(e.Schema),
			Name:      e.Name,
			Detail:    e.Detail,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func docFromRequest(req *CreateDocumentRequest) (*books.Document, error) {
	doc := &books.Document{
		Schema:            ledger.SchemaName(req.Schema),
		Party:             ledger.PartyName(req.Party),
		SettlementAccount: ledger.AccountName(req.SettlementAccount),
		FromAccount:       ledger.AccountName(req.FromAccount),
		ToAccount:         ledger.AccountName(req.ToAccount),
	}

	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, err
		}
		doc.Date = date
	}

	for _, item := range req.Items {
		amount, err := ledger.FromString(item.Amount)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, books.LineItem{
			Account:     ledger.AccountName(item.Account),
			Description: item.Description,
			Amount:      amount,
		})
	}
	for _, tax := range req.Taxes {
		amount, err := ledger.FromString(tax.Amount)
		if err != nil {
			return nil, err
		}
		doc.Taxes = append(doc.Taxes, books.TaxLine{
			Account: ledger.AccountName(tax.Account),
			Amount:  amount,
		})
	}
	for _, row := range req.Rows {
		jr := books.JournalRow{
			Account: ledger.AccountName(row.Account),
			Party:   ledger.PartyName(row.Party),
		}
		var err error
		if row.Debit != "" {
			if jr.Debit, err = ledger.FromString(row.Debit); err != nil {
				return nil, err
			}
		}
		if row.Credit != "" {
			if jr.Credit, err = ledger.FromString(row.Credit); err != nil {
				return nil, err
			}
		}
		doc.Rows = append(doc.Rows, jr)
	}
	if req.Amount != "" {
		amount, err := ledger.FromString(req.Amount)
		if err != nil {
			return nil, err
		}
		doc.Amount = amount
	}
	return doc, nil
}

func toDocumentDTO(doc *books.Document) DocumentDTO {
	dto := DocumentDTO{
		Schema:            string(doc.Schema),
		Name:              doc.Name,
		Kind:              string(doc.Kind),
		Date:              doc.Date.Format("2006-01-02"),
		Status:            string(doc.Status),
		Party:             string(doc.Party),
		SettlementAccount: string(doc.SettlementAccount),
		FromAccount:       string(doc.FromAccount),
		ToAccount:         string(doc.ToAccount),
		CreatedAt:         doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         doc.UpdatedAt.Format(time.RFC3339),
	}
	for _, item := range doc.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			Account:     string(item.Account),
			Description: item.Description,
			Amount:      item.Amount.String(),
		})
	}
	for _, tax := range doc.Taxes {
		dto.Taxes = append(dto.Taxes, TaxLineDTO{
			Account: string(tax.Account),
			Amount:  tax.Amount.String(),
		})
	}
	for _, row := range doc.Rows {
		r := JournalRowDTO{Account: string(row.Account), Party: string(row.Party)}
		if !row.Debit.IsZero() {
			r.Debit = row.Debit.String()
		}
		if !row.Credit.IsZero() {
			r.Credit = row.Credit.String()
		}
		dto.Rows = append(dto.Rows, r)
	}
	if len(doc.Items) > 0 || len(doc.Taxes) > 0 {
		dto.GrandTotal = doc.GrandTotal().String()
	}
	if !doc.Amount.IsZero() {
		dto.Amount = doc.Amount.String()
	}
	return dto
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EntryDTO{
			Name:          int64(e.Name),
			Date:          e.Date.Format("2006-01-02"),
			Account:       string(e.Account),
			Party:         string(e.Party),
			Debit:         e.Debit.String(),
			Credit:        e.Credit.String(),
			ReferenceType: string(e.ReferenceType),
			ReferenceName: e.ReferenceName,
			Reverted:      e.Reverted,
			Reverts:       int64(e.Reverts),
		}
	}
	return dtos
}

// =============================================================================
// HELPERS
// =============================================================================

func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "api"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
