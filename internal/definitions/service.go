package definitions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/internal/diff"
	"github.com/caseforge/dossier/internal/events"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

type service struct {
	repo      Repository
	refs      ReferenceCounter
	oracle    authorization.Oracle
	publisher events.Publisher
	logger    *slog.Logger
	locks     sync.Map // definition name -> *sync.Mutex
}

// New creates the schema registry service.
func New(repo Repository, refs ReferenceCounter, oracle authorization.Oracle, publisher events.Publisher, logger *slog.Logger) System {
	return &service{
		repo:      repo,
		refs:      refs,
		oracle:    oracle,
		publisher: publisher,
		logger:    logger.With("system", "definitions"),
	}
}

func (s *service) Deploy(ctx context.Context, principal string, cmd DeployCommand) (*DeployResult, error) {
	if _, err := CompileSchema(cmd.Schema); err != nil {
		return nil, err
	}

	name, err := schemaName(cmd)
	if err != nil {
		return nil, err
	}

	if err := s.oracle.Check(ctx, principal, authorization.ActionDeploy, authorization.DefinitionResource(name)); err != nil {
		return nil, err
	}

	// Version assignment for a name must serialize; the unique (name, version)
	// index is the cross-process backstop.
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load existing versions of %s: %w", name, err)
	}

	if !cmd.Force {
		for i := range existing {
			if diff.Equal(existing[i].Schema, cmd.Schema) {
				return &DeployResult{Definition: &existing[i], Status: StatusExisting}, nil
			}
		}
	}

	var version int64 = 1
	if len(existing) > 0 {
		latest := existing[len(existing)-1]
		version = latest.Version + 1

		if !cmd.Force {
			if latest.ReadOnly {
				return nil, fmt.Errorf("%w: %s is deployed read-only", ErrImmutable, name)
			}
			if cmd.ReadOnly {
				return nil, fmt.Errorf("%w: %s has a mutable deployment", ErrImmutable, name)
			}
		}
	}

	def := &Definition{
		ID:        uuid.New(),
		Name:      name,
		Version:   version,
		Schema:    cmd.Schema,
		ReadOnly:  cmd.ReadOnly,
		CreatedOn: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, def); err != nil {
		return nil, fmt.Errorf("store definition %s v%d: %w", name, version, err)
	}

	s.logger.Info("definition deployed", "name", name, "version", version, "read_only", def.ReadOnly)
	s.publisher.Publish(events.Event{
		Kind:              events.DefinitionDeployed,
		OccurredOn:        def.CreatedOn,
		Author:            principal,
		DefinitionName:    name,
		DefinitionVersion: version,
	})

	return &DeployResult{Definition: def, Status: StatusCreated}, nil
}

func (s *service) DeployAll(ctx context.Context, principal, dir string, readOnly, force bool) (*DeployReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read definition directory: %w", err)
	}

	report := &DeployReport{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		schema, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("definition file unreadable", "file", entry.Name(), "error", err)
			report.Failed = append(report.Failed, DeployFailure{File: entry.Name(), Error: err.Error()})
			continue
		}

		result, err := s.Deploy(ctx, principal, DeployCommand{
			Schema:   schema,
			ReadOnly: readOnly,
			Force:    force,
		})
		if err != nil {
			s.logger.Warn("definition deployment failed", "file", entry.Name(), "error", err)
			report.Failed = append(report.Failed, DeployFailure{File: entry.Name(), Error: err.Error()})
			continue
		}

		report.Deployed = append(report.Deployed, *result)
	}

	s.logger.Info("batch deployment finished", "dir", dir, "deployed", len(report.Deployed), "failed", len(report.Failed))
	return report, nil
}

func (s *service) FindLatest(ctx context.Context, name string) (*Definition, error) {
	return s.repo.FindLatest(ctx, name)
}

func (s *service) FindByNameAndVersion(ctx context.Context, name string, version int64) (*Definition, error) {
	return s.repo.FindByNameAndVersion(ctx, name, version)
}

func (s *service) ListVersions(ctx context.Context, name string) ([]int64, error) {
	all, err := s.repo.FindAllByName(ctx, name)
	if err != nil {
		return nil, err
	}

	versions := make([]int64, len(all))
	for i, def := range all {
		versions[i] = def.Version
	}
	return versions, nil
}

func (s *service) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[Definition], error) {
	return s.repo.List(ctx, page)
}

func (s *service) Remove(ctx context.Context, principal, name string) error {
	if err := s.oracle.Check(ctx, principal, authorization.ActionRemove, authorization.DefinitionResource(name)); err != nil {
		return err
	}

	count, err := s.refs.CountByDefinitionName(ctx, name)
	if err != nil {
		return fmt.Errorf("count documents for %s: %w", name, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s has %d documents", ErrInUse, name, count)
	}

	if err := s.repo.RemoveByName(ctx, name); err != nil {
		return err
	}

	s.logger.Info("definition removed", "name", name)
	return nil
}

func (s *service) lockFor(name string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
