package definitions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/internal/events"
)

const personSchema = `{"type":"object","properties":{"firstName":{"type":"string"}},"required":["firstName"]}`

type staticRefs struct {
	count int64
}

func (s staticRefs) CountByDefinitionName(ctx context.Context, name string) (int64, error) {
	return s.count, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(e events.Event) {}

func newService(t *testing.T, refs ReferenceCounter) System {
	t.Helper()
	if refs == nil {
		refs = staticRefs{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(NewMemoryRepository(), refs, authorization.AllowAll{}, nopPublisher{}, logger)
}

func deploy(t *testing.T, sys System, cmd DeployCommand) *DeployResult {
	t.Helper()
	result, err := sys.Deploy(context.Background(), "tester", cmd)
	if err != nil {
		t.Fatalf("Deploy error: %v", err)
	}
	return result
}

func TestDeploy_FirstVersionIsOne(t *testing.T) {
	sys := newService(t, nil)

	result := deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(personSchema)})

	if result.Status != StatusCreated {
		t.Errorf("status = %s, want created", result.Status)
	}
	if result.Definition.Version != 1 {
		t.Errorf("version = %d, want 1", result.Definition.Version)
	}
}

func TestDeploy_DistinctSchemasBumpVersion(t *testing.T) {
	sys := newService(t, nil)
	ctx := context.Background()

	schemas := []string{
		`{"type":"object"}`,
		`{"type":"object","required":["a"]}`,
		`{"type":"object","required":["a","b"]}`,
	}

	for i, schema := range schemas {
		result := deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(schema)})
		if result.Definition.Version != int64(i+1) {
			t.Errorf("deployment %d version = %d, want %d", i, result.Definition.Version, i+1)
		}
	}

	versions, err := sys.ListVersions(ctx, "person")
	if err != nil {
		t.Fatalf("ListVersions error: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(versions) != len(want) {
		t.Fatalf("versions = %v, want %v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("versions[%d] = %d, want %d", i, versions[i], want[i])
		}
	}
}

func TestDeploy_IdenticalContentIsIdempotent(t *testing.T) {
	sys := newService(t, nil)

	first := deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(personSchema)})

	// Key order differs; content is the same JSON value.
	reordered := `{"required":["firstName"],"type":"object","properties":{"firstName":{"type":"string"}}}`
	second := deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(reordered)})

	if second.Status != StatusExisting {
		t.Errorf("status = %s, want existing", second.Status)
	}
	if second.Definition.Version != first.Definition.Version {
		t.Errorf("version = %d, want %d", second.Definition.Version, first.Definition.Version)
	}
}

func TestDeploy_ForceAlwaysCreatesNewVersion(t *testing.T) {
	sys := newService(t, nil)

	deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(personSchema)})
	second := deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(personSchema), Force: true})

	if second.Status != StatusCreated {
		t.Errorf("status = %s, want created", second.Status)
	}
	if second.Definition.Version != 2 {
		t.Errorf("version = %d, want 2", second.Definition.Version)
	}
}

func TestDeploy_InvalidSchemaRejected(t *testing.T) {
	sys := newService(t, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		schema string
	}{
		{"malformed json", `{"type":`},
		{"invalid type keyword", `{"type":"everything"}`},
		{"invalid required", `{"type":"object","required":"firstName"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sys.Deploy(ctx, "tester", DeployCommand{Name: "person", Schema: json.RawMessage(tc.schema)})
			if !errors.Is(err, ErrSchemaInvalid) {
				t.Errorf("Deploy error = %v, want ErrSchemaInvalid", err)
			}
		})
	}
}

func TestDeploy_NameFromSchemaID(t *testing.T) {
	sys := newService(t, nil)

	schema := `{"$id":"https://example.com/person.schema.json","type":"object"}`
	result := deploy(t, sys, DeployCommand{Schema: json.RawMessage(schema)})

	if result.Definition.Name != "person" {
		t.Errorf("name = %s, want person", result.Definition.Name)
	}
}

func TestDeploy_InvalidNameRejected(t *testing.T) {
	sys := newService(t, nil)
	ctx := context.Background()

	for _, name := range []string{"", "Person", "my case", "person!"} {
		_, err := sys.Deploy(ctx, "tester", DeployCommand{Name: name, Schema: json.RawMessage(`{"type":"object"}`)})
		if !errors.Is(err, ErrInvalidName) {
			t.Errorf("Deploy(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDeploy_ReadOnlyConflicts(t *testing.T) {
	t.Run("read-only over mutable without force", func(t *testing.T) {
		sys := newService(t, nil)
		deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(`{"type":"object"}`)})

		_, err := sys.Deploy(context.Background(), "tester", DeployCommand{
			Name:     "person",
			Schema:   json.RawMessage(`{"type":"object","required":["a"]}`),
			ReadOnly: true,
		})
		if !errors.Is(err, ErrImmutable) {
			t.Errorf("Deploy error = %v, want ErrImmutable", err)
		}
	})

	t.Run("redeploy over read-only without force", func(t *testing.T) {
		sys := newService(t, nil)
		deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(`{"type":"object"}`), ReadOnly: true})

		_, err := sys.Deploy(context.Background(), "tester", DeployCommand{
			Name:   "person",
			Schema: json.RawMessage(`{"type":"object","required":["a"]}`),
		})
		if !errors.Is(err, ErrImmutable) {
			t.Errorf("Deploy error = %v, want ErrImmutable", err)
		}
	})

	t.Run("force overrides read-only", func(t *testing.T) {
		sys := newService(t, nil)
		deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(`{"type":"object"}`), ReadOnly: true})

		result := deploy(t, sys, DeployCommand{
			Name:   "person",
			Schema: json.RawMessage(`{"type":"object","required":["a"]}`),
			Force:  true,
		})
		if result.Definition.Version != 2 {
			t.Errorf("version = %d, want 2", result.Definition.Version)
		}
	})
}

func TestRemove_BlockedWhileReferenced(t *testing.T) {
	sys := newService(t, staticRefs{count: 1})
	ctx := context.Background()

	deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(personSchema)})

	if err := sys.Remove(ctx, "tester", "person"); !errors.Is(err, ErrInUse) {
		t.Fatalf("Remove error = %v, want ErrInUse", err)
	}

	// The definition must remain untouched.
	def, err := sys.FindLatest(ctx, "person")
	if err != nil {
		t.Fatalf("FindLatest after blocked removal: %v", err)
	}
	if def.Version != 1 {
		t.Errorf("version = %d, want 1", def.Version)
	}
}

func TestRemove_DeletesAllVersions(t *testing.T) {
	sys := newService(t, nil)
	ctx := context.Background()

	deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(`{"type":"object"}`)})
	deploy(t, sys, DeployCommand{Name: "person", Schema: json.RawMessage(`{"type":"object","required":["a"]}`)})

	if err := sys.Remove(ctx, "tester", "person"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}

	if _, err := sys.FindLatest(ctx, "person"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindLatest after removal = %v, want ErrNotFound", err)
	}
}

func TestRemove_DeniedByOracle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := New(NewMemoryRepository(), staticRefs{}, authorization.DenyAll{}, nopPublisher{}, logger)

	err := sys.Remove(context.Background(), "tester", "person")
	if !errors.Is(err, authorization.ErrDenied) {
		t.Errorf("Remove error = %v, want ErrDenied", err)
	}
}

func TestDeployAll_PartialFailure(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"person.schema.json":  `{"$id":"person.schema.json","type":"object"}`,
		"invoice.schema.json": `{"$id":"invoice.schema.json","type":"object"}`,
		"broken.schema.json":  `{"type":`,
		"notes.txt":           "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	sys := newService(t, nil)
	report, err := sys.DeployAll(context.Background(), "tester", dir, false, false)
	if err != nil {
		t.Fatalf("DeployAll error: %v", err)
	}

	if len(report.Deployed) != 2 {
		t.Errorf("deployed = %d, want 2", len(report.Deployed))
	}
	if len(report.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(report.Failed))
	}
	if report.Failed[0].File != "broken.schema.json" {
		t.Errorf("failed file = %s, want broken.schema.json", report.Failed[0].File)
	}

	// The failure must not have aborted the batch.
	if _, err := sys.FindLatest(context.Background(), "invoice"); err != nil {
		t.Errorf("FindLatest(invoice) after batch error: %v", err)
	}
}
