package domain

import "time"

// BatchStatus tracks the lifecycle of one batch submission run.
type BatchStatus string

const (
	BatchStatusIdle       BatchStatus = "idle"
	BatchStatusSubmitting BatchStatus = "submitting"
	BatchStatusCompleted  BatchStatus = "completed"
)

// Settings contains user-editable application configuration.
type Settings struct {
	ServerURL string           `json:"serverUrl"`
	APIToken  string           `json:"apiToken"`
	Config    ProcessingConfig `json:"config"`
}

// Batch stores the identity and lifecycle status of the active batch run.
type Batch struct {
	ID     string      `json:"id"`
	Status BatchStatus `json:"status"`
}

// SubmissionOutcome is the terminal result for one file in a batch. While a
// batch runs an outcome is pending (both flags false); on return every
// outcome is either succeeded with a task id or failed.
type SubmissionOutcome struct {
	FileName  string `json:"fileName"`
	Succeeded bool   `json:"succeeded"`
	Failed    bool   `json:"failed"`
	TaskID    string `json:"taskId,omitempty"`
}

// Pending reports whether the outcome has not yet resolved.
func (o SubmissionOutcome) Pending() bool {
	return !o.Succeeded && !o.Failed
}

// TaskDetail mirrors the task status record returned by the parsing service.
type TaskDetail struct {
	TaskID       string  `json:"taskId"`
	Status       string  `json:"status"`
	FileName     string  `json:"fileName"`
	Backend      Backend `json:"backend"`
	Priority     int     `json:"priority"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	StartedAt    string  `json:"startedAt,omitempty"`
	CompletedAt  string  `json:"completedAt,omitempty"`
	RetryCount   int     `json:"retryCount"`
}

// EngineOption describes one processing engine shown in the backend selector.
type EngineOption struct {
	Name             Backend  `json:"name"`
	DisplayName      string   `json:"displayName"`
	Description      string   `json:"description,omitempty"`
	SupportedFormats []string `json:"supportedFormats,omitempty"`
	Available        bool     `json:"available"`
}

// SubmissionRecord is one persisted row of local submission history.
type SubmissionRecord struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	FileName  string    `json:"fileName"`
	Backend   Backend   `json:"backend"`
	TaskID    string    `json:"taskId,omitempty"`
	Failed    bool      `json:"failed"`
	CreatedAt time.Time `json:"createdAt"`
}
