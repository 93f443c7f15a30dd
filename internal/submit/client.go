package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docparse-desktop/internal/domain"
)

// Client talks to the parsing service's task API.
type Client struct {
	client *http.Client
	url    string
	token  string
	logger zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service at url.
func New(url string, options ...Option) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("server url is required")
	}

	c := &Client{
		client: &http.Client{Timeout: 10 * time.Minute},
		url:    strings.TrimRight(url, "/"),
		logger: zerolog.Nop(),
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

// submitResponse is the task-creation reply.
type submitResponse struct {
	Success  bool   `json:"success"`
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	FileName string `json:"file_name"`
}

// Submit uploads one file with the full processing config and returns the
// created task id. Every config field is transmitted; the service ignores
// fields that do not apply to the chosen backend.
func (c *Client) Submit(ctx context.Context, filePath string, cfg domain.ProcessingConfig) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	var data bytes.Buffer
	w := multipart.NewWriter(&data)

	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read input file: %w", err)
	}

	for key, value := range formValues(cfg) {
		if err := w.WriteField(key, value); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/v1/tasks/submit", &data)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	var result submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if strings.TrimSpace(result.TaskID) == "" {
		return "", errors.New("service returned empty task id")
	}

	c.logger.Info().
		Str("task_id", result.TaskID).
		Str("file", filepath.Base(filePath)).
		Str("backend", string(cfg.Backend)).
		Msg("task submitted")

	return result.TaskID, nil
}

// taskResponse is the task status reply.
type taskResponse struct {
	Success      bool   `json:"success"`
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	FileName     string `json:"file_name"`
	Backend      string `json:"backend"`
	Priority     int    `json:"priority"`
	ErrorMessage string `json:"error_message"`
	CreatedAt    string `json:"created_at"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at"`
	RetryCount   int    `json:"retry_count"`
}

// Task fetches the current status of one task.
func (c *Client) Task(ctx context.Context, taskID string) (domain.TaskDetail, error) {
	if strings.TrimSpace(taskID) == "" {
		return domain.TaskDetail{}, errors.New("task id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/api/v1/tasks/"+taskID, nil)
	if err != nil {
		return domain.TaskDetail{}, err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.TaskDetail{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.TaskDetail{}, responseError(resp)
	}

	var result taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.TaskDetail{}, fmt.Errorf("decode task response: %w", err)
	}

	return domain.TaskDetail{
		TaskID:       result.TaskID,
		Status:       result.Status,
		FileName:     result.FileName,
		Backend:      domain.Backend(result.Backend),
		Priority:     result.Priority,
		ErrorMessage: result.ErrorMessage,
		CreatedAt:    result.CreatedAt,
		StartedAt:    result.StartedAt,
		CompletedAt:  result.CompletedAt,
		RetryCount:   result.RetryCount,
	}, nil
}

// Cancel cancels one still-pending task on the server.
func (c *Client) Cancel(ctx context.Context, taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return errors.New("task id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url+"/api/v1/tasks/"+taskID, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// enginesResponse is the engine listing reply, keyed by engine category.
type enginesResponse struct {
	Success bool `json:"success"`
	Engines map[string][]struct {
		Name             string   `json:"name"`
		DisplayName      string   `json:"display_name"`
		Description      string   `json:"description"`
		SupportedFormats []string `json:"supported_formats"`
	} `json:"engines"`
}

// Engines lists the processing engines currently available on the server.
func (c *Client) Engines(ctx context.Context) ([]domain.EngineOption, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/api/v1/engines", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var result enginesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode engines response: %w", err)
	}

	var options []domain.EngineOption
	for _, category := range result.Engines {
		for _, engine := range category {
			options = append(options, domain.EngineOption{
				Name:             domain.Backend(engine.Name),
				DisplayName:      engine.DisplayName,
				Description:      engine.Description,
				SupportedFormats: engine.SupportedFormats,
				Available:        true,
			})
		}
	}
	return options, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/api/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// authorize attaches the bearer token when configured.
func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// formValues flattens the processing config into submit form fields.
func formValues(cfg domain.ProcessingConfig) map[string]string {
	return map[string]string{
		"backend":                      string(cfg.Backend),
		"lang":                         string(cfg.Language),
		"method":                       string(cfg.Method),
		"priority":                     strconv.Itoa(cfg.Priority),
		"formula_enable":               strconv.FormatBool(cfg.FormulaEnable),
		"table_enable":                 strconv.FormatBool(cfg.TableEnable),
		"keep_audio":                   strconv.FormatBool(cfg.KeepAudio),
		"enable_keyframe_ocr":          strconv.FormatBool(cfg.EnableKeyframeOCR),
		"ocr_backend":                  cfg.KeyframeOCRBackend,
		"keep_keyframes":               strconv.FormatBool(cfg.KeepKeyframes),
		"enable_speaker_diarization":   strconv.FormatBool(cfg.EnableSpeakerDiarization),
		"remove_watermark":             strconv.FormatBool(cfg.RemoveWatermark),
		"watermark_conf_threshold":     strconv.FormatFloat(cfg.WatermarkConfThreshold, 'f', -1, 64),
		"watermark_dilation":           strconv.Itoa(cfg.WatermarkDilation),
		"use_doc_orientation_classify": strconv.FormatBool(cfg.UseDocOrientationClassify),
		"use_doc_unwarping":            strconv.FormatBool(cfg.UseDocUnwarping),
		"use_seal_recognition":         strconv.FormatBool(cfg.UseSealRecognition),
		"use_chart_recognition":        strconv.FormatBool(cfg.UseChartRecognition),
		"use_ocr_for_image_block":      strconv.FormatBool(cfg.UseOCRForImageBlock),
		"merge_tables":                 strconv.FormatBool(cfg.MergeTables),
		"relevel_titles":               strconv.FormatBool(cfg.RelevelTitles),
		"layout_shape_mode":            string(cfg.LayoutShapeMode),
	}
}

// responseError converts a non-OK HTTP response into an error.
func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	body := strings.TrimSpace(string(data))
	if body == "" {
		return errors.New(http.StatusText(resp.StatusCode))
	}
	return fmt.Errorf("%s: %s", resp.Status, body)
}
