package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/internal/documents"
	"github.com/caseforge/dossier/internal/events"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

type service struct {
	repo      Repository
	docs      DocumentSource
	oracle    authorization.Oracle
	publisher events.Publisher
	logger    *slog.Logger
}

// New creates the snapshot ledger service.
func New(repo Repository, docs DocumentSource, oracle authorization.Oracle, publisher events.Publisher, logger *slog.Logger) System {
	return &service{
		repo:      repo,
		docs:      docs,
		oracle:    oracle,
		publisher: publisher,
		logger:    logger.With("system", "snapshots"),
	}
}

func (s *service) Capture(ctx context.Context, principal string, documentID uuid.UUID) (*Snapshot, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.DocumentResource(documentID.String())); err != nil {
		return nil, err
	}

	doc, err := s.lookup(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, principal, doc, doc.Content, time.Now().UTC())
}

// Record uses the committed content and timestamp handed to it; the document
// read serves only the existence check and the immutable header fields. No
// authorization check runs here, the triggering mutation was already
// authorized.
func (s *service) Record(ctx context.Context, author string, documentID uuid.UUID, content json.RawMessage, at time.Time) (*Snapshot, error) {
	doc, err := s.lookup(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, author, doc, content, at)
}

func (s *service) lookup(ctx context.Context, documentID uuid.UUID) (*documents.Document, error) {
	doc, err := s.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return nil, err
	}
	return doc, nil
}

func (s *service) store(ctx context.Context, author string, doc *documents.Document, content json.RawMessage, at time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		ID:                uuid.New(),
		DocumentID:        doc.ID,
		DefinitionName:    doc.DefinitionName,
		DefinitionVersion: doc.DefinitionVersion,
		Sequence:          doc.Sequence,
		Content:           append(json.RawMessage(nil), content...),
		CreatedBy:         author,
		CreatedOn:         at,
	}

	if err := s.repo.Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("store snapshot of %s: %w", doc.ID, err)
	}

	s.logger.Info("snapshot captured", "id", snap.ID, "document_id", doc.ID)
	s.publisher.Publish(events.Event{
		Kind:              events.SnapshotCaptured,
		OccurredOn:        snap.CreatedOn,
		Author:            author,
		DocumentID:        &snap.DocumentID,
		DefinitionName:    snap.DefinitionName,
		DefinitionVersion: snap.DefinitionVersion,
		SnapshotID:        &snap.ID,
	})

	return snap, nil
}

func (s *service) FindByID(ctx context.Context, principal string, id uuid.UUID) (*Snapshot, error) {
	snap, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.DocumentResource(snap.DocumentID.String())); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *service) Query(ctx context.Context, principal string, filter QueryFilter, page pagination.PageRequest) (*pagination.PageResult[Snapshot], error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.DocumentResource("")); err != nil {
		return nil, err
	}
	return s.repo.Query(ctx, filter, page)
}
