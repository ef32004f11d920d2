package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/internal/definitions"
	"github.com/caseforge/dossier/internal/diff"
	"github.com/caseforge/dossier/internal/events"
	"github.com/caseforge/dossier/internal/sequence"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

type service struct {
	repo      Repository
	defs      definitions.System
	seq       sequence.Generator
	oracle    authorization.Oracle
	publisher events.Publisher
	capturer  Capturer
	validator *validator
	logger    *slog.Logger
}

// New creates the document store service.
func New(
	repo Repository,
	defs definitions.System,
	seq sequence.Generator,
	oracle authorization.Oracle,
	publisher events.Publisher,
	capturer Capturer,
	logger *slog.Logger,
) System {
	return &service{
		repo:      repo,
		defs:      defs,
		seq:       seq,
		oracle:    oracle,
		publisher: publisher,
		capturer:  capturer,
		validator: newValidator(),
		logger:    logger.With("system", "documents"),
	}
}

func (s *service) Create(ctx context.Context, principal string, cmd CreateCommand) (*Document, error) {
	def, err := s.resolveDefinition(ctx, cmd.Definition)
	if err != nil {
		return nil, err
	}

	if err := s.oracle.Check(ctx, principal, authorization.ActionCreate, authorization.DefinitionResource(def.Name)); err != nil {
		return nil, err
	}

	if err := s.validator.validate(def, cmd.Content); err != nil {
		return nil, err
	}

	seq, err := s.seq.Next(ctx, def.Name)
	if err != nil {
		return nil, fmt.Errorf("next sequence for %s: %w", def.Name, err)
	}

	now := time.Now().UTC()
	doc := &Document{
		ID:                uuid.New(),
		DefinitionName:    def.Name,
		DefinitionVersion: def.Version,
		Sequence:          seq,
		Content:           cmd.Content,
		RelatedFileIDs:    []uuid.UUID{},
		CreatedBy:         principal,
		CreatedOn:         now,
		ModifiedOn:        now,
	}

	if err := s.repo.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document %s-%d: %w", def.Name, seq, err)
	}

	s.logger.Info("document created",
		"id", doc.ID, "definition", def.Name, "version", def.Version, "sequence", seq)
	s.capture(ctx, doc, principal)
	s.publisher.Publish(events.Event{
		Kind:              events.DocumentCreated,
		OccurredOn:        now,
		Author:            principal,
		DocumentID:        &doc.ID,
		DefinitionName:    def.Name,
		DefinitionVersion: def.Version,
		Sequence:          seq,
	})

	return doc, nil
}

func (s *service) Modify(ctx context.Context, principal string, id uuid.UUID, content json.RawMessage) (*Document, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionModify, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}

	var patch diff.Patch

	doc, err := s.repo.Modify(ctx, id, func(doc *Document) (*AuditEntry, error) {
		def, err := s.defs.FindByNameAndVersion(ctx, doc.DefinitionName, doc.DefinitionVersion)
		if err != nil {
			if errors.Is(err, definitions.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s v%d", ErrDefinitionNotFound, doc.DefinitionName, doc.DefinitionVersion)
			}
			return nil, err
		}

		if err := s.validator.validate(def, content); err != nil {
			return nil, err
		}

		p, err := diff.Diff(doc.Content, content)
		if err != nil {
			return nil, fmt.Errorf("diff content: %w", err)
		}
		if len(p) == 0 {
			return nil, errUnchanged
		}

		now := time.Now().UTC()
		doc.Content = content
		doc.ModifiedOn = now
		patch = p

		return &AuditEntry{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Author:     principal,
			OccurredOn: now,
			Patch:      p,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if len(patch) > 0 {
		s.logger.Info("document modified", "id", id, "operations", len(patch))
		s.capture(ctx, doc, principal)
		s.publisher.Publish(events.Event{
			Kind:              events.DocumentModified,
			OccurredOn:        doc.ModifiedOn,
			Author:            principal,
			DocumentID:        &doc.ID,
			DefinitionName:    doc.DefinitionName,
			DefinitionVersion: doc.DefinitionVersion,
			Patch:             patch,
		})
	}

	return doc, nil
}

func (s *service) FindByID(ctx context.Context, principal string, id uuid.UUID) (*Document, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, principal string, filter ListFilter, page pagination.PageRequest) (*pagination.PageResult[Document], error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.DocumentResource("")); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter, page)
}

func (s *service) SetAssignee(ctx context.Context, principal string, id uuid.UUID, cmd AssignCommand) (*Document, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionAssign, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}

	changed := false
	doc, err := s.repo.Modify(ctx, id, func(doc *Document) (*AuditEntry, error) {
		if doc.AssigneeID != nil && *doc.AssigneeID == cmd.AssigneeID {
			return nil, errUnchanged
		}

		doc.AssigneeID = &cmd.AssigneeID
		doc.AssigneeName = &cmd.AssigneeName
		doc.ModifiedOn = time.Now().UTC()
		changed = true
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("document assigned", "id", id, "assignee", cmd.AssigneeID)
		s.capture(ctx, doc, principal)
		s.publisher.Publish(events.Event{
			Kind:       events.DocumentAssigned,
			OccurredOn: doc.ModifiedOn,
			Author:     principal,
			DocumentID: &doc.ID,
			Assignee:   &cmd.AssigneeID,
		})
	}

	return doc, nil
}

func (s *service) Unassign(ctx context.Context, principal string, id uuid.UUID) (*Document, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionAssign, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}

	changed := false
	doc, err := s.repo.Modify(ctx, id, func(doc *Document) (*AuditEntry, error) {
		if doc.AssigneeID == nil {
			return nil, errUnchanged
		}

		doc.AssigneeID = nil
		doc.AssigneeName = nil
		doc.ModifiedOn = time.Now().UTC()
		changed = true
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("document unassigned", "id", id)
		s.capture(ctx, doc, principal)
		s.publisher.Publish(events.Event{
			Kind:       events.DocumentUnassigned,
			OccurredOn: doc.ModifiedOn,
			Author:     principal,
			DocumentID: &doc.ID,
		})
	}

	return doc, nil
}

func (s *service) AddRelatedFile(ctx context.Context, principal string, id, fileID uuid.UUID) (*Document, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionModify, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}

	changed := false
	doc, err := s.repo.Modify(ctx, id, func(doc *Document) (*AuditEntry, error) {
		if doc.HasRelatedFile(fileID) {
			return nil, errUnchanged
		}

		doc.RelatedFileIDs = append(doc.RelatedFileIDs, fileID)
		doc.ModifiedOn = time.Now().UTC()
		changed = true
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("related file added", "id", id, "file_id", fileID)
		s.publisher.Publish(events.Event{
			Kind:       events.RelatedFileAdded,
			OccurredOn: doc.ModifiedOn,
			Author:     principal,
			DocumentID: &doc.ID,
			FileID:     &fileID,
		})
	}

	return doc, nil
}

func (s *service) RemoveRelatedFile(ctx context.Context, principal string, id, fileID uuid.UUID) (*Document, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionModify, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}

	changed := false
	doc, err := s.repo.Modify(ctx, id, func(doc *Document) (*AuditEntry, error) {
		if !doc.HasRelatedFile(fileID) {
			return nil, errUnchanged
		}

		remaining := make([]uuid.UUID, 0, len(doc.RelatedFileIDs)-1)
		for _, existing := range doc.RelatedFileIDs {
			if existing != fileID {
				remaining = append(remaining, existing)
			}
		}
		doc.RelatedFileIDs = remaining
		doc.ModifiedOn = time.Now().UTC()
		changed = true
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("related file removed", "id", id, "file_id", fileID)
		s.publisher.Publish(events.Event{
			Kind:       events.RelatedFileRemoved,
			OccurredOn: doc.ModifiedOn,
			Author:     principal,
			DocumentID: &doc.ID,
			FileID:     &fileID,
		})
	}

	return doc, nil
}

func (s *service) AuditLog(ctx context.Context, principal string, id uuid.UUID) ([]AuditEntry, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.DocumentResource(id.String())); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.AuditLog(ctx, id)
}

func (s *service) resolveDefinition(ctx context.Context, ref DefinitionRef) (*definitions.Definition, error) {
	var (
		def *definitions.Definition
		err error
	)
	if ref.Version == 0 {
		def, err = s.defs.FindLatest(ctx, ref.Name)
	} else {
		def, err = s.defs.FindByNameAndVersion(ctx, ref.Name, ref.Version)
	}

	if err != nil {
		if errors.Is(err, definitions.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s v%d", ErrDefinitionNotFound, ref.Name, ref.Version)
		}
		return nil, err
	}
	return def, nil
}

// capture hands the mutation's committed state to the snapshot ledger.
// Failures are logged and swallowed; snapshots never block document
// operations.
func (s *service) capture(ctx context.Context, doc *Document, author string) {
	if err := s.capturer.Capture(ctx, doc.ID, doc.Content, author, doc.ModifiedOn); err != nil {
		s.logger.Warn("snapshot capture failed", "document_id", doc.ID, "error", err)
	}
}
