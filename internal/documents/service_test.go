package documents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/internal/definitions"
	"github.com/caseforge/dossier/internal/diff"
	"github.com/caseforge/dossier/internal/events"
	"github.com/caseforge/dossier/internal/sequence"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/google/uuid"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"firstName": {"type": "string"},
		"lastName": {"type": "string"},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["firstName"]
}`

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *capturePublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()

	kinds := make([]events.Kind, len(p.events))
	for i, e := range p.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type fixture struct {
	sys  System
	repo *MemoryRepository
	pub  *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewMemoryRepository()
	pub := &capturePublisher{}

	defs := definitions.New(definitions.NewMemoryRepository(), repo, authorization.AllowAll{}, pub, logger)
	if _, err := defs.Deploy(context.Background(), "tester", definitions.DeployCommand{
		Name:   "person",
		Schema: json.RawMessage(personSchema),
	}); err != nil {
		t.Fatalf("deploy fixture definition: %v", err)
	}

	sys := New(repo, defs, sequence.NewMemory(), authorization.AllowAll{}, pub, NopCapturer{}, logger)
	return &fixture{sys: sys, repo: repo, pub: pub}
}

func (f *fixture) create(t *testing.T, content string) *Document {
	t.Helper()

	doc, err := f.sys.Create(context.Background(), "tester", CreateCommand{
		Definition: DefinitionRef{Name: "person"},
		Content:    json.RawMessage(content),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return doc
}

func TestCreate_FirstSequenceIsOne(t *testing.T) {
	f := newFixture(t)

	doc := f.create(t, `{"firstName":"John"}`)

	if doc.Sequence != 1 {
		t.Errorf("sequence = %d, want 1", doc.Sequence)
	}
	if doc.DefinitionName != "person" {
		t.Errorf("definition name = %s, want person", doc.DefinitionName)
	}
	if doc.DefinitionVersion != 1 {
		t.Errorf("definition version = %d, want 1", doc.DefinitionVersion)
	}
	if !diff.Equal(doc.Content, json.RawMessage(`{"firstName":"John"}`)) {
		t.Errorf("content = %s", doc.Content)
	}
}

func TestCreate_SequencesIncrementPerDefinition(t *testing.T) {
	f := newFixture(t)

	for want := int64(1); want <= 3; want++ {
		doc := f.create(t, `{"firstName":"John"}`)
		if doc.Sequence != want {
			t.Errorf("sequence = %d, want %d", doc.Sequence, want)
		}
	}
}

func TestCreate_InvalidContentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
	}{
		{"missing required", `{"lastName":"Doe"}`},
		{"wrong type", `{"firstName":42}`},
		{"constraint violated", `{"firstName":"John","age":-1}`},
		{"malformed json", `{"firstName":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.sys.Create(ctx, "tester", CreateCommand{
				Definition: DefinitionRef{Name: "person"},
				Content:    json.RawMessage(tc.content),
			})

			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Fatalf("Create error = %v, want ValidationError", err)
			}
			if len(validation.Violations) == 0 {
				t.Error("expected at least one violation")
			}
		})
	}
}

func TestCreate_UnknownDefinitionRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.sys.Create(context.Background(), "tester", CreateCommand{
		Definition: DefinitionRef{Name: "invoice"},
		Content:    json.RawMessage(`{}`),
	})
	if !errors.Is(err, ErrDefinitionNotFound) {
		t.Errorf("Create error = %v, want ErrDefinitionNotFound", err)
	}
}

func TestModify_RecordsReplaceWithOriginalValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, `{"firstName":"John"}`)

	modified, err := f.sys.Modify(ctx, "editor", doc.ID, json.RawMessage(`{"firstName":"Jane"}`))
	if err != nil {
		t.Fatalf("Modify error: %v", err)
	}
	if !diff.Equal(modified.Content, json.RawMessage(`{"firstName":"Jane"}`)) {
		t.Errorf("content = %s", modified.Content)
	}

	entries, err := f.sys.AuditLog(ctx, "tester", doc.ID)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.Author != "editor" {
		t.Errorf("author = %s, want editor", entry.Author)
	}
	if len(entry.Patch) != 1 {
		t.Fatalf("patch operations = %d, want 1", len(entry.Patch))
	}

	op := entry.Patch[0]
	if op.Op != diff.OpReplace {
		t.Errorf("op = %s, want replace", op.Op)
	}
	if op.Path != "/firstName" {
		t.Errorf("path = %s, want /firstName", op.Path)
	}
	if op.Value != "Jane" {
		t.Errorf("value = %v, want Jane", op.Value)
	}
	if op.OriginalValue != "John" {
		t.Errorf("originalValue = %v, want John", op.OriginalValue)
	}
}

func TestModify_IdenticalContentRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, `{"firstName":"John"}`)

	modified, err := f.sys.Modify(ctx, "editor", doc.ID, json.RawMessage(`{"firstName":"John"}`))
	if err != nil {
		t.Fatalf("Modify error: %v", err)
	}
	if !modified.ModifiedOn.Equal(doc.ModifiedOn) {
		t.Error("no-op modify must not touch modified_on")
	}

	entries, err := f.sys.AuditLog(ctx, "tester", doc.ID)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(entries))
	}
}

func TestModify_InvalidContentLeavesDocumentUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, `{"firstName":"John"}`)

	_, err := f.sys.Modify(ctx, "editor", doc.ID, json.RawMessage(`{"lastName":"Doe"}`))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Modify error = %v, want ValidationError", err)
	}

	current, err := f.sys.FindByID(ctx, "tester", doc.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if !diff.Equal(current.Content, json.RawMessage(`{"firstName":"John"}`)) {
		t.Errorf("content changed after rejected modify: %s", current.Content)
	}

	entries, _ := f.sys.AuditLog(ctx, "tester", doc.ID)
	if len(entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(entries))
	}
}

func TestModify_AuditChainReplaysToCurrentContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initial := `{"firstName":"John"}`
	doc := f.create(t, initial)

	updates := []string{
		`{"firstName":"John","lastName":"Doe"}`,
		`{"firstName":"Jane","lastName":"Doe","age":30}`,
		`{"firstName":"Jane","age":31}`,
	}
	for _, update := range updates {
		if _, err := f.sys.Modify(ctx, "editor", doc.ID, json.RawMessage(update)); err != nil {
			t.Fatalf("Modify(%s) error: %v", update, err)
		}
	}

	entries, err := f.sys.AuditLog(ctx, "tester", doc.ID)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}
	if len(entries) != len(updates) {
		t.Fatalf("audit entries = %d, want %d", len(entries), len(updates))
	}

	replayed := json.RawMessage(initial)
	for i, entry := range entries {
		replayed, err = diff.Apply(replayed, entry.Patch)
		if err != nil {
			t.Fatalf("apply audit patch %d: %v", i, err)
		}
	}

	current, _ := f.sys.FindByID(ctx, "tester", doc.ID)
	if !diff.Equal(replayed, current.Content) {
		t.Errorf("replayed = %s, current = %s", replayed, current.Content)
	}
}

func TestModify_ConcurrentWritersNeverLoseUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	initial := `{"firstName":"John"}`
	doc := f.create(t, initial)

	contents := []string{
		`{"firstName":"John","lastName":"One"}`,
		`{"firstName":"John","lastName":"Two"}`,
		`{"firstName":"John","lastName":"Three"}`,
		`{"firstName":"John","lastName":"Four"}`,
	}

	var wg sync.WaitGroup
	for _, content := range contents {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			if _, err := f.sys.Modify(ctx, "editor", doc.ID, json.RawMessage(content)); err != nil {
				t.Errorf("Modify error: %v", err)
			}
		}(content)
	}
	wg.Wait()

	// Every writer's change is either recorded in the audit chain or was a
	// no-op against the state it observed; replaying the chain from the
	// initial content must reproduce the current content exactly.
	entries, err := f.sys.AuditLog(ctx, "tester", doc.ID)
	if err != nil {
		t.Fatalf("AuditLog error: %v", err)
	}

	replayed := json.RawMessage(initial)
	for i, entry := range entries {
		replayed, err = diff.Apply(replayed, entry.Patch)
		if err != nil {
			t.Fatalf("apply audit patch %d: %v", i, err)
		}
	}

	current, _ := f.sys.FindByID(ctx, "tester", doc.ID)
	if !diff.Equal(replayed, current.Content) {
		t.Errorf("replayed = %s, current = %s", replayed, current.Content)
	}
}

type recordingCapturer struct {
	mu    sync.Mutex
	calls []capturedState
}

type capturedState struct {
	documentID uuid.UUID
	content    json.RawMessage
	author     string
	at         time.Time
}

func (c *recordingCapturer) Capture(ctx context.Context, documentID uuid.UUID, content json.RawMessage, author string, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, capturedState{
		documentID: documentID,
		content:    append(json.RawMessage(nil), content...),
		author:     author,
		at:         at,
	})
	return nil
}

func (c *recordingCapturer) snapshot() []capturedState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capturedState(nil), c.calls...)
}

func TestMutationsHandCommittedStateToCapturer(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewMemoryRepository()
	capturer := &recordingCapturer{}

	defs := definitions.New(definitions.NewMemoryRepository(), repo, authorization.AllowAll{}, &capturePublisher{}, logger)
	if _, err := defs.Deploy(ctx, "tester", definitions.DeployCommand{
		Name:   "person",
		Schema: json.RawMessage(personSchema),
	}); err != nil {
		t.Fatalf("deploy fixture definition: %v", err)
	}
	sys := New(repo, defs, sequence.NewMemory(), authorization.AllowAll{}, &capturePublisher{}, capturer, logger)

	doc, err := sys.Create(ctx, "tester", CreateCommand{
		Definition: DefinitionRef{Name: "person"},
		Content:    json.RawMessage(`{"firstName":"John"}`),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	first, err := sys.Modify(ctx, "editor", doc.ID, json.RawMessage(`{"firstName":"Jane"}`))
	if err != nil {
		t.Fatalf("Modify error: %v", err)
	}
	if _, err := sys.Modify(ctx, "editor", doc.ID, json.RawMessage(`{"firstName":"Jim"}`)); err != nil {
		t.Fatalf("second Modify error: %v", err)
	}

	calls := capturer.snapshot()
	if len(calls) != 3 {
		t.Fatalf("captures = %d, want 3", len(calls))
	}

	// The capture for the first modify must hold exactly the state that
	// modify committed, untouched by the later write.
	got := calls[1]
	if got.documentID != doc.ID {
		t.Errorf("document_id = %s, want %s", got.documentID, doc.ID)
	}
	if !diff.Equal(got.content, json.RawMessage(`{"firstName":"Jane"}`)) {
		t.Errorf("captured content = %s, want first modification", got.content)
	}
	if got.author != "editor" {
		t.Errorf("author = %s, want editor", got.author)
	}
	if !got.at.Equal(first.ModifiedOn) {
		t.Errorf("timestamp = %s, want %s", got.at, first.ModifiedOn)
	}
}

func TestAssignmentChangesTriggerCapture(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewMemoryRepository()
	capturer := &recordingCapturer{}

	defs := definitions.New(definitions.NewMemoryRepository(), repo, authorization.AllowAll{}, &capturePublisher{}, logger)
	if _, err := defs.Deploy(ctx, "tester", definitions.DeployCommand{
		Name:   "person",
		Schema: json.RawMessage(personSchema),
	}); err != nil {
		t.Fatalf("deploy fixture definition: %v", err)
	}
	sys := New(repo, defs, sequence.NewMemory(), authorization.AllowAll{}, &capturePublisher{}, capturer, logger)

	doc, err := sys.Create(ctx, "tester", CreateCommand{
		Definition: DefinitionRef{Name: "person"},
		Content:    json.RawMessage(`{"firstName":"John"}`),
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if _, err := sys.SetAssignee(ctx, "tester", doc.ID, AssignCommand{AssigneeID: "u-1", AssigneeName: "Alex"}); err != nil {
		t.Fatalf("SetAssignee error: %v", err)
	}
	if _, err := sys.Unassign(ctx, "tester", doc.ID); err != nil {
		t.Fatalf("Unassign error: %v", err)
	}
	// A no-op assignment change must not capture.
	if _, err := sys.Unassign(ctx, "tester", doc.ID); err != nil {
		t.Fatalf("repeated Unassign error: %v", err)
	}

	if calls := capturer.snapshot(); len(calls) != 3 {
		t.Errorf("captures = %d, want 3", len(calls))
	}
}

func TestSetAssignee_AndUnassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, `{"firstName":"John"}`)

	assigned, err := f.sys.SetAssignee(ctx, "tester", doc.ID, AssignCommand{AssigneeID: "u-1", AssigneeName: "Alex"})
	if err != nil {
		t.Fatalf("SetAssignee error: %v", err)
	}
	if assigned.AssigneeID == nil || *assigned.AssigneeID != "u-1" {
		t.Errorf("assignee_id = %v, want u-1", assigned.AssigneeID)
	}
	if assigned.AssigneeName == nil || *assigned.AssigneeName != "Alex" {
		t.Errorf("assignee_name = %v, want Alex", assigned.AssigneeName)
	}

	unassigned, err := f.sys.Unassign(ctx, "tester", doc.ID)
	if err != nil {
		t.Fatalf("Unassign error: %v", err)
	}
	if unassigned.AssigneeID != nil {
		t.Errorf("assignee_id = %v, want nil", unassigned.AssigneeID)
	}

	// Unassigning an unassigned document is a no-op.
	if _, err := f.sys.Unassign(ctx, "tester", doc.ID); err != nil {
		t.Fatalf("repeated Unassign error: %v", err)
	}
}

func TestRelatedFiles_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, `{"firstName":"John"}`)
	fileID := uuid.New()

	for i := 0; i < 2; i++ {
		current, err := f.sys.AddRelatedFile(ctx, "tester", doc.ID, fileID)
		if err != nil {
			t.Fatalf("AddRelatedFile error: %v", err)
		}
		if len(current.RelatedFileIDs) != 1 {
			t.Fatalf("related files = %d, want 1", len(current.RelatedFileIDs))
		}
	}

	count, err := f.repo.CountByRelatedFile(ctx, fileID)
	if err != nil {
		t.Fatalf("CountByRelatedFile error: %v", err)
	}
	if count != 1 {
		t.Errorf("referencing documents = %d, want 1", count)
	}

	for i := 0; i < 2; i++ {
		current, err := f.sys.RemoveRelatedFile(ctx, "tester", doc.ID, fileID)
		if err != nil {
			t.Fatalf("RemoveRelatedFile error: %v", err)
		}
		if len(current.RelatedFileIDs) != 0 {
			t.Fatalf("related files = %d, want 0", len(current.RelatedFileIDs))
		}
	}
}

func TestList_FiltersByDefinitionAndAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, `{"firstName":"John"}`)
	f.create(t, `{"firstName":"Jane"}`)

	if _, err := f.sys.SetAssignee(ctx, "tester", first.ID, AssignCommand{AssigneeID: "u-1", AssigneeName: "Alex"}); err != nil {
		t.Fatal(err)
	}

	assignee := "u-1"
	result, err := f.sys.List(ctx, "tester", ListFilter{DefinitionName: "person", AssigneeID: &assignee}, pagination.PageRequest{})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("total = %d, want 1", result.Total)
	}
	if result.Data[0].ID != first.ID {
		t.Errorf("listed id = %s, want %s", result.Data[0].ID, first.ID)
	}
}

func TestDeniedOperationsSurfaceErrDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	doc := f.create(t, `{"firstName":"John"}`)

	defs := definitions.New(definitions.NewMemoryRepository(), f.repo, authorization.AllowAll{}, f.pub, logger)
	denied := New(f.repo, defs, sequence.NewMemory(), authorization.DenyAll{}, f.pub, NopCapturer{}, logger)

	if _, err := denied.FindByID(ctx, "tester", doc.ID); !errors.Is(err, authorization.ErrDenied) {
		t.Errorf("FindByID error = %v, want ErrDenied", err)
	}
	if _, err := denied.Modify(ctx, "tester", doc.ID, json.RawMessage(`{"firstName":"Jane"}`)); !errors.Is(err, authorization.ErrDenied) {
		t.Errorf("Modify error = %v, want ErrDenied", err)
	}
}

func TestLifecycleEventsPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.create(t, `{"firstName":"John"}`)
	if _, err := f.sys.Modify(ctx, "editor", doc.ID, json.RawMessage(`{"firstName":"Jane"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sys.SetAssignee(ctx, "tester", doc.ID, AssignCommand{AssigneeID: "u-1"}); err != nil {
		t.Fatal(err)
	}

	want := map[events.Kind]bool{
		events.DocumentCreated:  true,
		events.DocumentModified: true,
		events.DocumentAssigned: true,
	}
	for _, kind := range f.pub.kinds() {
		delete(want, kind)
	}
	for kind := range want {
		t.Errorf("event %s was not published", kind)
	}
}
