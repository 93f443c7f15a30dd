package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"docparse-desktop/internal/batch"
	"docparse-desktop/internal/config"
	"docparse-desktop/internal/diagnostics"
	"docparse-desktop/internal/domain"
	"docparse-desktop/internal/history"
	"docparse-desktop/internal/submit"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const noFilesSelectedMessage = "No files selected. Add at least one file before submitting."

// serviceClient isolates the parsing service API behind an interface.
type serviceClient interface {
	Submit(ctx context.Context, filePath string, cfg domain.ProcessingConfig) (string, error)
	Task(ctx context.Context, taskID string) (domain.TaskDetail, error)
	Cancel(ctx context.Context, taskID string) error
	Engines(ctx context.Context) ([]domain.EngineOption, error)
	Health(ctx context.Context) error
}

// historyStore isolates local submission history behind an interface.
type historyStore interface {
	Record(ctx context.Context, batchID string, backend domain.Backend, outcomes []domain.SubmissionOutcome) error
	Recent(ctx context.Context, limit int) ([]domain.SubmissionRecord, error)
}

// App wires configuration, batch submission, history, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Client      serviceClient
	Batches     *batch.Manager
	History     historyStore
	Diagnostics domain.DiagnosticReport

	assets  fs.FS
	dataDir string
	checker *diagnostics.Checker
	logger  zerolog.Logger
	events  *batch.EventBus

	mu            sync.Mutex
	runtimeCtx    context.Context
	selectedFiles []string
	outcomes      []domain.SubmissionOutcome
	lastError     string
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	dataDir := filepath.Join(homeDir, ".docparse-desktop")

	store := config.NewJSONStore(filepath.Join(dataDir, "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).With().Timestamp().Logger()

	client, err := buildClient(settings, logger)
	if err != nil {
		return nil, err
	}

	store2, err := history.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("open submission history: %w", err)
	}

	checker := diagnostics.NewChecker(client)
	report := checker.Run(settings, dataDir)

	return &App{
		Settings:    settings,
		Store:       store,
		Client:      client,
		Batches:     batch.NewManager(),
		History:     store2,
		Diagnostics: report,
		assets:      assets,
		dataDir:     dataDir,
		checker:     checker,
		logger:      logger,
		events:      batch.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "DocParse Desktop",
		Width:       1180,
		Height:      820,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events and dialogs.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings, a.dataDir)
	}
	report := a.Diagnostics
	a.mu.Unlock()

	return report, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, rebuilds the service
// client, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	client, err := buildClient(normalized, a.logger)
	if err != nil {
		return domain.Settings{}, err
	}

	a.mu.Lock()
	a.Settings = normalized
	a.Client = client
	a.checker = diagnostics.NewChecker(client)
	a.Diagnostics = a.checker.Run(normalized, a.dataDir)
	a.mu.Unlock()

	return normalized, nil
}

// SelectBackend switches the processing backend, recomputing the derived
// language field, and persists the result. The rule runs on every call,
// including re-selection of the current backend.
func (a *App) SelectBackend(backend string) (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)
	settings.Config.SetBackend(domain.Backend(strings.TrimSpace(backend)))

	return a.SaveSettings(settings)
}

// PickFiles opens the native multi-file dialog and appends the selection.
func (a *App) PickFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select files to submit",
		Filters: submitDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" || containsString(a.selectedFiles, trimmed) {
			continue
		}
		a.selectedFiles = append(a.selectedFiles, trimmed)
	}
	return append([]string(nil), a.selectedFiles...), nil
}

// SelectedFiles returns the current ordered selection.
func (a *App) SelectedFiles() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.selectedFiles...)
}

// RemoveSelectedFile drops one file from the selection.
func (a *App) RemoveSelectedFile(path string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.selectedFiles[:0]
	for _, file := range a.selectedFiles {
		if file != path {
			kept = append(kept, file)
		}
	}
	a.selectedFiles = kept
	return append([]string(nil), a.selectedFiles...)
}

// ClearSelectedFiles empties the selection.
func (a *App) ClearSelectedFiles() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.selectedFiles = nil
}

// StartSubmission begins a batch over the current selection and runs it
// asynchronously. At most one batch is active at a time.
func (a *App) StartSubmission() (domain.Batch, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Batch{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	files := append([]string(nil), a.selectedFiles...)
	client := a.Client
	a.mu.Unlock()

	if len(files) == 0 {
		a.setLastError(noFilesSelectedMessage)
		return domain.Batch{}, batch.ErrNoFilesSelected
	}
	if client == nil {
		return domain.Batch{}, fmt.Errorf("no parsing service configured")
	}

	batchID := "batch-" + uuid.NewString()
	if err := a.Batches.Begin(batchID); err != nil {
		return domain.Batch{}, err
	}

	outcomes := make([]domain.SubmissionOutcome, len(files))
	for i, file := range files {
		outcomes[i] = domain.SubmissionOutcome{FileName: filepath.Base(file)}
	}

	a.mu.Lock()
	a.Settings = settings
	a.outcomes = outcomes
	a.lastError = ""
	a.mu.Unlock()

	a.publishEvent(batch.Event{
		BatchID: batchID,
		Type:    batch.EventTypeStatus,
		Status:  domain.BatchStatusSubmitting,
		Message: fmt.Sprintf("Submitting %d file(s)", len(files)),
	})

	go a.runBatch(batchID, files, settings.Config, client)
	return a.Batches.Current(), nil
}

// runBatch executes the sequential submission loop and maps results to
// events, history, and the navigation decision.
func (a *App) runBatch(batchID string, files []string, cfg domain.ProcessingConfig, client serviceClient) {
	runner := batch.NewRunner(client, a.logger)

	outcomes, err := runner.Run(context.Background(), files, cfg, func(index int, outcome domain.SubmissionOutcome) {
		a.mu.Lock()
		if index < len(a.outcomes) {
			a.outcomes[index] = outcome
		}
		a.mu.Unlock()

		a.publishEvent(batch.Event{
			BatchID: batchID,
			Type:    batch.EventTypeOutcome,
			Index:   index,
			Outcome: &outcome,
		})
	})
	if err != nil {
		// Run only fails on an empty file list, which StartSubmission rules out.
		a.logger.Error().Err(err).Str("batch_id", batchID).Msg("batch run failed")
		a.publishEvent(batch.Event{
			BatchID: batchID,
			Type:    batch.EventTypeError,
			Message: err.Error(),
		})
		a.Batches.Complete(batchID)
		return
	}

	if a.History != nil {
		if histErr := a.History.Record(context.Background(), batchID, cfg.Backend, outcomes); histErr != nil {
			a.logger.Warn().Err(histErr).Str("batch_id", batchID).Msg("record submission history")
		}
	}

	if path, ok := batch.NavigationTarget(outcomes); ok {
		a.publishEvent(batch.Event{
			BatchID: batchID,
			Type:    batch.EventTypeNavigate,
			Path:    path,
		})
	}

	a.Batches.Complete(batchID)
	a.publishEvent(batch.Event{
		BatchID: batchID,
		Type:    batch.EventTypeStatus,
		Status:  domain.BatchStatusCompleted,
		Message: "All files processed",
	})
}

// CurrentBatch returns current batch metadata and status.
func (a *App) CurrentBatch() domain.Batch {
	return a.Batches.Current()
}

// SubmissionOutcomes returns a snapshot of the active outcome list.
func (a *App) SubmissionOutcomes() []domain.SubmissionOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.SubmissionOutcome(nil), a.outcomes...)
}

// BatchEvents returns all events with sequence greater than sinceSeq.
func (a *App) BatchEvents(sinceSeq int64) []batch.Event {
	return a.events.Since(sinceSeq)
}

// LastError returns the current form-level error message, if any.
func (a *App) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError
}

// DismissError clears the form-level error message.
func (a *App) DismissError() {
	a.setLastError("")
}

// ResetForm returns the form to its initial state: no selection, no
// outcomes, no error. It refuses while a batch is submitting.
func (a *App) ResetForm() error {
	if err := a.Batches.Reset(); err != nil {
		return err
	}

	a.mu.Lock()
	a.selectedFiles = nil
	a.outcomes = nil
	a.lastError = ""
	a.mu.Unlock()
	return nil
}

// GetTaskDetail fetches the server-side status of one task.
func (a *App) GetTaskDetail(taskID string) (domain.TaskDetail, error) {
	client := a.currentClient()
	if client == nil {
		return domain.TaskDetail{}, fmt.Errorf("no parsing service configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return client.Task(ctx, taskID)
}

// CancelPendingTask cancels a still-queued task on the server.
func (a *App) CancelPendingTask(taskID string) error {
	client := a.currentClient()
	if client == nil {
		return fmt.Errorf("no parsing service configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return client.Cancel(ctx, taskID)
}

// RecentSubmissions returns the newest local history records.
func (a *App) RecentSubmissions(limit int) ([]domain.SubmissionRecord, error) {
	if a.History == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.History.Recent(ctx, limit)
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event batch.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "batch:event", published)
	}
}

// setLastError replaces the single form-level error slot.
func (a *App) setLastError(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = message
}

// currentClient returns the service client under lock.
func (a *App) currentClient() serviceClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Client
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// buildClient constructs the service client for the configured server, or
// nil when no server is configured yet.
func buildClient(settings domain.Settings, logger zerolog.Logger) (serviceClient, error) {
	if strings.TrimSpace(settings.ServerURL) == "" {
		return nil, nil
	}

	client, err := submit.New(settings.ServerURL,
		submit.WithToken(settings.APIToken),
		submit.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build service client: %w", err)
	}
	return client, nil
}

// normalizeSettings trims user inputs and applies defaults for empty or
// out-of-range fields.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.ServerURL = strings.TrimRight(strings.TrimSpace(settings.ServerURL), "/")
	settings.APIToken = strings.TrimSpace(settings.APIToken)

	cfg := &settings.Config
	if cfg.Backend == "" {
		cfg.SetBackend(config.BackendDefault)
	}
	if cfg.Language == "" {
		cfg.Language = domain.LanguageFor(cfg.Backend)
	}
	if cfg.Method == "" {
		cfg.Method = domain.MethodAuto
	}
	if cfg.LayoutShapeMode == "" {
		cfg.LayoutShapeMode = domain.LayoutShapeAuto
	}
	if cfg.KeyframeOCRBackend == "" {
		cfg.KeyframeOCRBackend = string(domain.BackendPaddleOCRVL)
	}
	if cfg.Priority < 0 {
		cfg.Priority = 0
	}
	if cfg.Priority > 100 {
		cfg.Priority = 100
	}
	// Watermark tuning has no UI surface; zero values mean "unset".
	if cfg.WatermarkConfThreshold <= 0 {
		cfg.WatermarkConfThreshold = 0.35
	}
	if cfg.WatermarkDilation <= 0 {
		cfg.WatermarkDilation = 10
	}
	return settings
}

// containsString reports whether list already holds value.
func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
