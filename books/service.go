/*
service.go - Document lifecycle engine

PURPOSE:
  Orchestrates the Draft → Submitted → Cancelled state machine:

  Create:  issue a name from the schema's number series, persist Draft
  Submit:  strategy → MakeRoundOffEntry → Post; flip to Submitted
  Cancel:  revert the posted entries; flip to Cancelled (terminal)

FAILURE BEHAVIOR:
  If posting fails, Submit returns the error and the document remains
  Draft with zero ledger rows - the posting engine validates before
  writing and writes atomically. The persisted status is only flipped
  after the ledger write succeeds, so the displayed state always
  matches the last successfully persisted state.
*/
package books

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// DocumentStore persists documents.
type DocumentStore interface {
	// SaveDocument inserts a document or updates its status fields.
	SaveDocument(ctx context.Context, doc *Document) error

	// GetDocument returns a document, or nil if absent.
	GetDocument(ctx context.Context, schema ledger.SchemaName, name string) (*Document, error)

	// ListDocuments returns documents of one schema, newest first.
	ListDocuments(ctx context.Context, schema ledger.SchemaName) ([]Document, error)
}

// Service drives the document lifecycle. All dependencies are
// explicit; the schema registry is passed in by reference.
type Service struct {
	Entries   ledger.TxStore
	Series    ledger.SeriesStore
	Checker   ledger.DocumentChecker
	Documents DocumentStore
	Audit     ledger.AuditLog // optional

	Registry *SchemaRegistry

	// RoundOff configures the balancing entry for every posting.
	RoundOffAccount  ledger.AccountName
	DisplayPrecision int32
}

// SetupSeries creates the number-series rows for every registered
// schema that does not have one yet. Run once at startup.
func (s *Service) SetupSeries(ctx context.Context) error {
	for _, schema := range s.Registry.Schemas() {
		def, _ := s.Registry.Lookup(schema)
		existing, err := s.Series.GetSeries(ctx, def.SeriesPrefix)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		err = s.Series.PutSeries(ctx, ledger.Series{
			Name:          def.SeriesPrefix,
			Start:         1001,
			PadZeros:      ledger.DefaultPadZeros,
			ReferenceType: schema,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Create issues the document's name from its schema's series and
// persists it as a Draft.
func (s *Service) Create(ctx context.Context, doc *Document, actor string) error {
	def, ok := s.Registry.Lookup(doc.Schema)
	if !ok {
		return &ledger.ValidationError{
			Code:    "unknown_schema",
			Message: fmt.Sprintf("schema %q is not registered", doc.Schema),
		}
	}
	doc.Kind = def.Kind

	ns := &ledger.NumberSeries{Store: s.Series, Checker: s.Checker}
	name, err := ns.Next(ctx, def.SeriesPrefix, doc.Schema)
	if err != nil {
		return err
	}
	doc.Name = name

	now := time.Now().UTC()
	doc.Status = StatusDraft
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Date.IsZero() {
		doc.Date = now
	}

	if err := s.Documents.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", doc.Schema, doc.Name, err)
	}
	s.audit(ctx, actor, ledger.AuditDocCreated, doc, "")
	return nil
}

// Submit posts a Draft document's ledger entries and flips it to
// Submitted. On any posting error the document stays Draft.
func (s *Service) Submit(ctx context.Context, schema ledger.SchemaName, name, actor string) (*Document, error) {
	doc, err := s.load(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusDraft {
		return nil, &ledger.ValidationError{
			Code:    "invalid_transition",
			Message: fmt.Sprintf("cannot submit a %s document", doc.Status),
		}
	}

	strategy, ok := StrategyFor(doc.Kind)
	if !ok {
		return nil, &ledger.ValidationError{
			Code:    "unknown_kind",
			Message: fmt.Sprintf("no posting strategy for kind %q", doc.Kind),
		}
	}

	posting := ledger.NewPosting(s.Entries, s.Checker, ledger.PostingConfig{
		Date:             doc.Date,
		ReferenceType:    doc.Schema,
		ReferenceName:    doc.Name,
		Party:            doc.Party,
		RoundOffAccount:  s.RoundOffAccount,
		DisplayPrecision: s.DisplayPrecision,
	})
	if err := strategy(doc, posting); err != nil {
		return nil, err
	}
	if err := posting.MakeRoundOffEntry(); err != nil {
		return nil, err
	}
	if _, err := posting.Post(ctx); err != nil {
		return nil, err
	}

	doc.Status = StatusSubmitted
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Documents.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save %s %s: %w", doc.Schema, doc.Name, err)
	}
	s.audit(ctx, actor, ledger.AuditDocSubmitted, doc, "")
	return doc, nil
}

// Cancel reverts a Submitted document's entries and flips it to
// Cancelled. Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, schema ledger.SchemaName, name, actor, reason string) (*Document, error) {
	doc, err := s.load(ctx, schema, name)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusSubmitted {
		return nil, &ledger.ValidationError{
			Code:    "invalid_transition",
			Message: fmt.Sprintf("cannot cancel a %s document", doc.Status),
		}
	}

	if _, err := ledger.Revert(ctx, s.Entries, doc.Schema, doc.Name); err != nil {
		return nil, err
	}

	doc.Status = StatusCancelled
	doc.UpdatedAt = time.Now().UTC()
	if err := s.Documents.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save %s %s: %w", doc.Schema, doc.Name, err)
	}
	s.audit(ctx, actor, ledger.AuditDocCancelled, doc, reason)
	return doc, nil
}

// Get returns a document by schema and name.
func (s *Service) Get(ctx context.Context, schema ledger.SchemaName, name string) (*Document, error) {
	return s.load(ctx, schema, name)
}

func (s *Service) load(ctx context.Context, schema ledger.SchemaName, name string) (*Document, error) {
	doc, err := s.Documents.GetDocument(ctx, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", schema, name, err)
	}
	if doc == nil {
		return nil, &ledger.NotFoundError{Schema: schema, Name: name}
	}
	return doc, nil
}

func (s *Service) audit(ctx context.Context, actor string, action ledger.AuditAction, doc *Document, detail string) {
	if s.Audit == nil {
		return
	}
	entry := ledger.NewAuditEntry(actor, action, doc.Schema, doc.Name, detail)
	// Audit failures must not fail the business operation.
	_ = s.Audit.AppendAudit(ctx, entry)
}
