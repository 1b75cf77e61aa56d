// Package libraryapi is the console's client for the external library API:
// students, categories and notifications.
package libraryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/library-console/internal/models"
	appErrors "github.com/noah-isme/library-console/pkg/errors"
)

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(operation string, status int, duration time.Duration)
}

// ClientConfig contains configuration for the library API client.
type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the library API over JSON/HTTP.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
	observer   Observer
}

// NewClient creates a library API client. httpClient may be nil.
func NewClient(config ClientConfig, httpClient *http.Client, logger *zap.Logger, observer Observer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{config: config, httpClient: httpClient, logger: logger, observer: observer}
}

// ListStudents fetches the full roster.
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := c.do(ctx, "list_students", http.MethodGet, "/students", nil, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// CreateStudent submits a new student, as multipart when an image is attached.
func (c *Client) CreateStudent(ctx context.Context, draft models.StudentDraft) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, "create_student", http.MethodPost, "/students", studentBody(draft), &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateStudent replaces the editable fields of a student.
func (c *Client) UpdateStudent(ctx context.Context, id string, draft models.StudentDraft) (*models.Student, error) {
	var student models.Student
	path := "/students/" + url.PathEscape(id)
	if err := c.do(ctx, "update_student", http.MethodPut, path, studentBody(draft), &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// BanStudent bans a student until the given instant.
func (c *Client) BanStudent(ctx context.Context, id string, until time.Time) (*models.Student, error) {
	var student models.Student
	path := "/students/" + url.PathEscape(id) + "/ban"
	body := map[string]string{"bannedUntil": until.UTC().Format(time.RFC3339)}
	if err := c.do(ctx, "ban_student", http.MethodPost, path, body, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// UnbanStudent lifts a student's ban.
func (c *Client) UnbanStudent(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	path := "/students/" + url.PathEscape(id) + "/unban"
	if err := c.do(ctx, "unban_student", http.MethodPost, path, nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetCategory fetches one category. A body without a default ban duration is
// reported as malformed.
func (c *Client) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	path := "/categories/" + url.PathEscape(id)
	if err := c.do(ctx, "get_category", http.MethodGet, path, nil, &category); err != nil {
		return nil, err
	}
	if category.DefaultBanDuration == nil || *category.DefaultBanDuration < 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "category response has no valid defaultBanDuration")
	}
	if category.ID == "" {
		category.ID = id
	}
	return &category, nil
}

// CreateNotification records a notification for a student.
func (c *Client) CreateNotification(ctx context.Context, draft models.NotificationDraft) (*models.Notification, error) {
	var notification models.Notification
	if err := c.do(ctx, "create_notification", http.MethodPost, "/notifications", draft, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

type multipartBody struct {
	fields map[string]string
	image  *models.ImageUpload
}

func studentBody(draft models.StudentDraft) interface{} {
	if draft.Image == nil {
		return draft
	}
	return multipartBody{
		fields: map[string]string{
			"name":        draft.Name,
			"studentId":   draft.StudentCode,
			"email":       draft.Email,
			"phone":       draft.Phone,
			"dateOfBirth": draft.DateOfBirth,
			"category":    draft.Category,
		},
		image: draft.Image,
	}
}

func (c *Client) do(ctx context.Context, operation, method, path string, body interface{}, result interface{}) error {
	start := time.Now()
	status, err := c.doSingleRequest(ctx, method, path, body, result)
	if c.observer != nil {
		c.observer.ObserveUpstream(operation, status, time.Since(start))
	}
	if err != nil {
		c.logger.Debug("library api call failed",
			zap.String("operation", operation),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) (int, error) {
	bodyReader, contentType, err := encodeBody(body)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, appErrors.Unavailable(err, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, appErrors.Unavailable(err, "failed to read library api response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, statusError(resp.StatusCode, respBody)
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil
	}
	if err := decodeEnvelope(respBody, result); err != nil {
		return resp.StatusCode, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed library api response")
	}
	return resp.StatusCode, nil
}

func encodeBody(body interface{}) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case multipartBody:
		buf := &bytes.Buffer{}
		writer := multipart.NewWriter(buf)
		for key, value := range b.fields {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", key, err)
			}
		}
		part, err := writer.CreateFormFile("image", b.image.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(b.image.Content); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart: %w", err)
		}
		return buf, writer.FormDataContentType(), nil
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// decodeEnvelope accepts both bare documents and {"data": ...} envelopes.
func decodeEnvelope(raw []byte, result interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
			return json.Unmarshal(envelope.Data, result)
		}
	}
	return json.Unmarshal(trimmed, result)
}

// statusError keeps the server's message verbatim and maps the status onto
// the console error codes.
func statusError(status int, body []byte) *appErrors.Error {
	message := errorMessage(body)
	if message == "" {
		message = http.StatusText(status)
	}
	var base *appErrors.Error
	switch {
	case status == http.StatusNotFound:
		base = appErrors.ErrNotFound
	case status == http.StatusConflict:
		base = appErrors.ErrConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		base = appErrors.ErrValidation
	case status >= 500:
		base = appErrors.ErrUpstreamUnavailable
	default:
		base = appErrors.ErrUpstream
	}
	return appErrors.Clone(base, message)
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
