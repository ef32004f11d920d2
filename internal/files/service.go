package files

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const pdfContentType = "application/pdf"

type service struct {
	repo          Repository
	blobs         BlobStore
	refs          ReferenceCounter
	oracle        authorization.Oracle
	logger        *slog.Logger
	maxUploadSize int64
}

// New creates the file store service. maxUploadSize limits upload content
// in bytes; zero disables the limit.
func New(
	repo Repository,
	blobs BlobStore,
	refs ReferenceCounter,
	oracle authorization.Oracle,
	logger *slog.Logger,
	maxUploadSize int64,
) System {
	return &service{
		repo:          repo,
		blobs:         blobs,
		refs:          refs,
		oracle:        oracle,
		logger:        logger.With("system", "files"),
		maxUploadSize: maxUploadSize,
	}
}

func (s *service) Upload(ctx context.Context, principal string, cmd UploadCommand) (*File, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionCreate, authorization.Resource{Kind: "file"}); err != nil {
		return nil, err
	}

	if len(cmd.Data) == 0 {
		return nil, ErrEmpty
	}
	if s.maxUploadSize > 0 && int64(len(cmd.Data)) > s.maxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(cmd.Data), s.maxUploadSize)
	}

	file := &File{
		ID:          uuid.New(),
		Name:        cmd.Name,
		ContentType: cmd.ContentType,
		Size:        int64(len(cmd.Data)),
		UploadedBy:  principal,
		CreatedOn:   time.Now().UTC(),
	}

	if cmd.ContentType == pdfContentType {
		if pages, err := api.PageCount(bytes.NewReader(cmd.Data), nil); err != nil {
			s.logger.Warn("pdf page count failed", "name", cmd.Name, "error", err)
		} else {
			file.PageCount = &pages
		}
	}

	if err := s.blobs.Store(ctx, blobKey(file.ID), cmd.Data); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	if err := s.repo.Insert(ctx, file); err != nil {
		// Roll back the orphaned blob; metadata is the source of truth.
		if cleanup := s.blobs.Delete(ctx, blobKey(file.ID)); cleanup != nil {
			s.logger.Warn("orphaned blob cleanup failed", "id", file.ID, "error", cleanup)
		}
		return nil, fmt.Errorf("store file metadata: %w", err)
	}

	s.logger.Info("file uploaded", "id", file.ID, "name", file.Name, "size", file.Size)
	return file, nil
}

func (s *service) FindByID(ctx context.Context, principal string, id uuid.UUID) (*File, error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.Resource{Kind: "file", ID: id.String()}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Download(ctx context.Context, principal string, id uuid.UUID) (*File, []byte, error) {
	file, err := s.FindByID(ctx, principal, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Retrieve(ctx, blobKey(id))
	if err != nil {
		return nil, nil, fmt.Errorf("retrieve blob %s: %w", id, err)
	}
	return file, data, nil
}

func (s *service) List(ctx context.Context, principal string, page pagination.PageRequest) (*pagination.PageResult[File], error) {
	if err := s.oracle.Check(ctx, principal, authorization.ActionView, authorization.Resource{Kind: "file"}); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, page)
}

func (s *service) Delete(ctx context.Context, principal string, id uuid.UUID) error {
	if err := s.oracle.Check(ctx, principal, authorization.ActionRemove, authorization.Resource{Kind: "file", ID: id.String()}); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.refs.CountByRelatedFile(ctx, id)
	if err != nil {
		return fmt.Errorf("count referencing documents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d documents", ErrInUse, count)
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, blobKey(id)); err != nil {
		s.logger.Warn("blob removal failed", "id", id, "error", err)
	}

	s.logger.Info("file deleted", "id", id)
	return nil
}

// blobKey shards blobs into two-character prefix directories.
func blobKey(id uuid.UUID) string {
	key := id.String()
	return key[:2] + "/" + key
}
