package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"docparse-desktop/internal/batch"
	"docparse-desktop/internal/domain"
)

// fakeStore returns deterministic settings for App tests.
type fakeStore struct {
	settings domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save is a no-op for tests.
func (s *fakeStore) Save(domain.Settings) error {
	return nil
}

// fakeClient scripts per-file submission results.
type fakeClient struct {
	mu     sync.Mutex
	calls  []string
	submit func(filePath string) (string, error)
}

// Submit records the call and delegates to the scripted function.
func (c *fakeClient) Submit(_ context.Context, filePath string, _ domain.ProcessingConfig) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, filePath)
	c.mu.Unlock()
	if c.submit == nil {
		return "t-0", nil
	}
	return c.submit(filePath)
}

// Task returns an empty detail.
func (c *fakeClient) Task(context.Context, string) (domain.TaskDetail, error) {
	return domain.TaskDetail{}, nil
}

// Cancel is a no-op.
func (c *fakeClient) Cancel(context.Context, string) error {
	return nil
}

// Engines returns no live engines.
func (c *fakeClient) Engines(context.Context) ([]domain.EngineOption, error) {
	return nil, errors.New("offline")
}

// Health is always healthy.
func (c *fakeClient) Health(context.Context) error {
	return nil
}

// callCount returns the number of submissions seen.
func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// fakeHistory records batch outcomes in memory.
type fakeHistory struct {
	mu      sync.Mutex
	batches map[string][]domain.SubmissionOutcome
}

// Record stores the outcomes for later assertions.
func (h *fakeHistory) Record(_ context.Context, batchID string, _ domain.Backend, outcomes []domain.SubmissionOutcome) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.batches == nil {
		h.batches = map[string][]domain.SubmissionOutcome{}
	}
	h.batches[batchID] = append([]domain.SubmissionOutcome(nil), outcomes...)
	return nil
}

// Recent returns nothing.
func (h *fakeHistory) Recent(context.Context, int) ([]domain.SubmissionRecord, error) {
	return nil, nil
}

// newTestApp builds an App with fakes and the given selection.
func newTestApp(client *fakeClient, files ...string) *App {
	app := &App{
		Store: &fakeStore{settings: domain.Settings{
			ServerURL: "http://127.0.0.1:8100",
			Config:    domain.ProcessingConfig{Backend: domain.BackendAuto, Language: domain.LanguageAuto},
		}},
		Client:  client,
		Batches: batch.NewManager(),
		History: &fakeHistory{},
		logger:  zerolog.Nop(),
		events:  batch.NewEventBus(100),
	}
	app.selectedFiles = files
	return app
}

// waitForBatchStatus polls until the batch reaches the desired status.
func waitForBatchStatus(t *testing.T, app *App, want domain.BatchStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentBatch().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", app.CurrentBatch().Status, want)
}

// findEvent returns the first event of the given type, if any.
func findEvent(events []batch.Event, want batch.EventType) (batch.Event, bool) {
	for _, event := range events {
		if event.Type == want {
			return event, true
		}
	}
	return batch.Event{}, false
}

// TestStartSubmissionEnforcesSingleActiveBatch checks the re-entrancy guard.
func TestStartSubmissionEnforcesSingleActiveBatch(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{submit: func(string) (string, error) {
		<-release
		return "t-1", nil
	}}
	app := newTestApp(client, "/in/a.pdf")

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start first batch: %v", err)
	}
	if _, err := app.StartSubmission(); !errors.Is(err, batch.ErrBatchAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, batch.ErrBatchAlreadyRunning)
	}

	close(release)
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start after completion: %v", err)
	}
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)
}

// TestStartSubmissionNoFilesFailsWithoutNetwork checks the empty-selection path.
func TestStartSubmissionNoFilesFailsWithoutNetwork(t *testing.T) {
	client := &fakeClient{}
	app := newTestApp(client)

	if _, err := app.StartSubmission(); !errors.Is(err, batch.ErrNoFilesSelected) {
		t.Fatalf("error = %v, want %v", err, batch.ErrNoFilesSelected)
	}
	if client.callCount() != 0 {
		t.Fatalf("submit calls = %d, want 0", client.callCount())
	}
	if app.LastError() == "" {
		t.Fatal("expected form-level error message")
	}

	app.DismissError()
	if app.LastError() != "" {
		t.Fatal("expected error cleared after dismiss")
	}
}

// TestSubmissionPartialFailureKeepsIndependentOutcomes runs the mixed batch
// scenario: first file rejected, second accepted, no navigation.
func TestSubmissionPartialFailureKeepsIndependentOutcomes(t *testing.T) {
	client := &fakeClient{submit: func(filePath string) (string, error) {
		if filePath == "/in/A.pdf" {
			return "", errors.New("connection reset")
		}
		return "t-42", nil
	}}
	app := newTestApp(client, "/in/A.pdf", "/in/B.pdf")

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)

	outcomes := app.SubmissionOutcomes()
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].FileName != "A.pdf" || !outcomes[0].Failed || outcomes[0].Succeeded {
		t.Fatalf("outcome[0] = %+v, want failed A.pdf", outcomes[0])
	}
	if outcomes[1].FileName != "B.pdf" || !outcomes[1].Succeeded || outcomes[1].TaskID != "t-42" {
		t.Fatalf("outcome[1] = %+v, want success t-42", outcomes[1])
	}

	events := app.BatchEvents(0)
	if _, ok := findEvent(events, batch.EventTypeNavigate); ok {
		t.Fatal("multi-file batch must not navigate")
	}
	if _, ok := findEvent(events, batch.EventTypeOutcome); !ok {
		t.Fatal("expected per-file outcome events")
	}

	history := app.History.(*fakeHistory)
	history.mu.Lock()
	defer history.mu.Unlock()
	if len(history.batches) != 1 {
		t.Fatalf("recorded batches = %d, want 1", len(history.batches))
	}
}

// TestSingleSuccessNavigatesToTaskDetail checks the navigation decision.
func TestSingleSuccessNavigatesToTaskDetail(t *testing.T) {
	client := &fakeClient{submit: func(string) (string, error) {
		return "t-9", nil
	}}
	app := newTestApp(client, "/in/only.pdf")

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)

	event, ok := findEvent(app.BatchEvents(0), batch.EventTypeNavigate)
	if !ok {
		t.Fatal("expected navigate event")
	}
	if event.Path != "/tasks/t-9" {
		t.Fatalf("navigate path = %q, want /tasks/t-9", event.Path)
	}
}

// TestSingleFailureDoesNotNavigate checks the stay-put branch.
func TestSingleFailureDoesNotNavigate(t *testing.T) {
	client := &fakeClient{submit: func(string) (string, error) {
		return "", errors.New("rejected")
	}}
	app := newTestApp(client, "/in/only.pdf")

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)

	if _, ok := findEvent(app.BatchEvents(0), batch.EventTypeNavigate); ok {
		t.Fatal("failed single submission must not navigate")
	}
	outcomes := app.SubmissionOutcomes()
	if len(outcomes) != 1 || !outcomes[0].Failed {
		t.Fatalf("outcomes = %+v, want one failure", outcomes)
	}
}

// TestResetFormRestoresInitialState checks the reset contract.
func TestResetFormRestoresInitialState(t *testing.T) {
	client := &fakeClient{}
	app := newTestApp(client, "/in/a.pdf")

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)

	app.setLastError("stale message")
	if err := app.ResetForm(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if files := app.SelectedFiles(); len(files) != 0 {
		t.Fatalf("selected files = %v, want empty", files)
	}
	if outcomes := app.SubmissionOutcomes(); len(outcomes) != 0 {
		t.Fatalf("outcomes = %v, want empty", outcomes)
	}
	if app.LastError() != "" {
		t.Fatal("expected empty error after reset")
	}
	if got := app.CurrentBatch(); got.Status != domain.BatchStatusIdle {
		t.Fatalf("batch = %+v, want idle", got)
	}
}

// TestResetFormRefusedWhileSubmitting checks reset respects the guard.
func TestResetFormRefusedWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{submit: func(string) (string, error) {
		<-release
		return "t-1", nil
	}}
	app := newTestApp(client, "/in/a.pdf")

	if _, err := app.StartSubmission(); err != nil {
		t.Fatalf("start batch: %v", err)
	}
	if err := app.ResetForm(); !errors.Is(err, batch.ErrBatchAlreadyRunning) {
		t.Fatalf("reset while running = %v, want %v", err, batch.ErrBatchAlreadyRunning)
	}

	close(release)
	waitForBatchStatus(t, app, domain.BatchStatusCompleted)
}

// TestSelectionOperations checks remove and clear behavior.
func TestSelectionOperations(t *testing.T) {
	app := newTestApp(&fakeClient{}, "/in/a.pdf", "/in/b.pdf", "/in/c.pdf")

	files := app.RemoveSelectedFile("/in/b.pdf")
	if len(files) != 2 || files[0] != "/in/a.pdf" || files[1] != "/in/c.pdf" {
		t.Fatalf("files = %v, want a and c", files)
	}

	app.ClearSelectedFiles()
	if files := app.SelectedFiles(); len(files) != 0 {
		t.Fatalf("files = %v, want empty", files)
	}
}
