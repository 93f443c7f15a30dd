package diagnostics

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"docparse-desktop/internal/domain"
)

// HealthProber checks that the parsing service answers its health endpoint.
type HealthProber interface {
	Health(ctx context.Context) error
}

// Checker validates the configured server and required local paths.
type Checker struct {
	prober     HealthProber
	timeout    time.Duration
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(prober HealthProber) *Checker {
	return &Checker{
		prober:     prober,
		timeout:    5 * time.Second,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings, dataDir string) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkServerURL(settings.ServerURL),
		c.checkServerHealth(settings.ServerURL),
		c.checkDataDir(dataDir),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkServerURL validates the configured base URL shape.
func (c *Checker) checkServerURL(serverURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "server_url",
		Name: "Server URL",
	}

	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Server URL is empty."
		item.Hint = "Set the parsing service base URL in settings before submitting files."
		return item
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Server URL is not a valid http(s) address: %s", trimmed)
		item.Hint = "Use a full URL such as http://127.0.0.1:8100."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Configured: %s", trimmed)
	return item
}

// checkServerHealth probes the service health endpoint. An unreachable
// server is a warning, not a failure: the form stays usable offline.
func (c *Checker) checkServerHealth(serverURL string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "server_health",
		Name: "Service reachability",
	}

	if strings.TrimSpace(serverURL) == "" || c.prober == nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "Health check skipped: no server configured."
		return item
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.prober.Health(ctx); err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Service is not reachable: %v", err)
		item.Hint = "Check that the parsing service is running and the URL and token are correct."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = "Service is healthy."
	return item
}

// checkDataDir validates local data directory existence and write access.
func (c *Checker) checkDataDir(dataDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "data_dir",
		Name: "Data directory",
	}

	if strings.TrimSpace(dataDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Data directory is empty."
		item.Hint = "Set a directory where settings and submission history can be written."
		return item
	}

	if err := c.mkdirAll(dataDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create data directory: %s", dataDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dataDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Data directory is not writable: %s", dataDir)
		item.Hint = "Choose a writable directory for local state."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dataDir)
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	prober HealthProber,
	timeout time.Duration,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		prober:     prober,
		timeout:    timeout,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
