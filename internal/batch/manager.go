package batch

import (
	"errors"
	"sync"

	"docparse-desktop/internal/domain"
)

// ErrBatchAlreadyRunning is returned when starting a second active batch.
var ErrBatchAlreadyRunning = errors.New("batch already running")

// ErrNoFilesSelected is returned when submission is attempted with no files.
var ErrNoFilesSelected = errors.New("no files selected")

// Manager is the re-entrancy guard for batch submission: at most one batch
// is active at any time.
type Manager struct {
	mu      sync.RWMutex
	current domain.Batch
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Batch{Status: domain.BatchStatusIdle},
	}
}

// Begin claims the active slot for a new batch.
func (m *Manager) Begin(batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.BatchStatusSubmitting {
		return ErrBatchAlreadyRunning
	}

	m.current = domain.Batch{
		ID:     batchID,
		Status: domain.BatchStatusSubmitting,
	}
	return nil
}

// Complete releases the active slot once every outcome is terminal.
func (m *Manager) Complete(batchID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == batchID {
		m.current.Status = domain.BatchStatusCompleted
	}
}

// Current returns a snapshot of the active batch.
func (m *Manager) Current() domain.Batch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsRunning reports whether a batch is currently submitting.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Status == domain.BatchStatusSubmitting
}

// Reset clears batch metadata and returns the manager to idle. It refuses
// to reset while a batch is submitting.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.BatchStatusSubmitting {
		return ErrBatchAlreadyRunning
	}
	m.current = domain.Batch{Status: domain.BatchStatusIdle}
	return nil
}
