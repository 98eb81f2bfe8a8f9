package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ploomesterm/internal/models"
)

const maxResponseBytes = 10 << 20

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// collection is the envelope every list endpoint answers with.
type collection struct {
	Value json.RawMessage `json:"value"`
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	baseURL, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", config.BaseURL, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.Named("crm"),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListContacts reads one page of the Contacts collection.
func (c *Client) ListContacts(ctx context.Context, key string, opts ListOptions) ([]models.Contact, error) {
	body, err := c.do(ctx, key, http.MethodGet, "/Contacts", ListQuery(opts), nil)
	if err != nil {
		return nil, err
	}

	var contacts []models.Contact
	if err := decodeCollection(body, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListUsers reads every user, used to resolve owner names client side.
func (c *Client) ListUsers(ctx context.Context, key string) ([]models.User, error) {
	body, err := c.do(ctx, key, http.MethodGet, "/Users", "", nil)
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := decodeCollection(body, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateContact sends a partial update carrying only the fields present in patch.
func (c *Client) UpdateContact(ctx context.Context, key string, id int64, patch models.ContactPatch) error {
	_, err := c.do(ctx, key, http.MethodPatch, entityPath(id), "", patch)
	return err
}

func (c *Client) DeleteContact(ctx context.Context, key string, id int64) error {
	_, err := c.do(ctx, key, http.MethodDelete, entityPath(id), "", nil)
	return err
}

// CreateContact posts a new contact. The created record is returned when the API echoes it.
func (c *Client) CreateContact(ctx context.Context, key string, contact models.NewContact) (*models.Contact, error) {
	body, err := c.do(ctx, key, http.MethodPost, "/Contacts", "", contact)
	if err != nil {
		return nil, err
	}

	var created []models.Contact
	if err := decodeCollection(body, &created); err != nil || len(created) == 0 {
		return nil, nil
	}
	return &created[0], nil
}

func entityPath(id int64) string {
	return fmt.Sprintf("/Contacts(%d)", id)
}

func (c *Client) do(ctx context.Context, key, method, path, rawQuery string, payload any) ([]byte, error) {
	if key == "" {
		return nil, NewAuthMissingError()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := *c.baseURL
	target.Path = c.baseURL.Path + path
	target.RawPath = target.Path
	target.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(KeyHeader, key)
	req.Header.Set("Content-Type", "application/json")

	requestID := uuid.NewString()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := ClassifyError(err)
		c.logger.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("type", string(classified.Type)),
			zap.Error(err))
		return nil, classified
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewTransportError("failed to read response", err)
	}

	c.logger.Debug("request completed",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("query", rawQuery),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewAPIError(resp.StatusCode, summarize(body))
	}

	return body, nil
}

func decodeCollection(body []byte, target any) error {
	var envelope collection
	if err := json.Unmarshal(body, &envelope); err != nil {
		return NewMalformedResponseError(err.Error())
	}

	trimmed := bytes.TrimSpace(envelope.Value)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return NewMalformedResponseError("value is not an array")
	}

	if err := json.Unmarshal(trimmed, target); err != nil {
		return NewMalformedResponseError(err.Error())
	}
	return nil
}

// summarize keeps error bodies short enough for a log line.
func summarize(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
