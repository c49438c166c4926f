// Package validation calls the remote validator that checks a previously
// generated invoice artifact, and parses its machine-readable report.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Result is the validator's summary verdict.
type Result struct {
	ReturnCode  int    `json:"return_code"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// Valid reports whether the artifact passed validation.
func (r Result) Valid() bool {
	return r.ReturnCode == 0
}

// DescribeReturnCode maps the validator's exit codes to a human-readable
// description, mirroring the KoSIT validation tool conventions.
func DescribeReturnCode(code int) string {
	switch {
	case code == 0:
		return "Invoice artifact is valid."
	case code > 0:
		return "Invoice artifact is invalid."
	case code == -1:
		return "Parsing error: incorrect validator arguments."
	case code == -2:
		return "Configuration error: validation targets could not be loaded."
	default:
		return "Unknown validator error."
	}
}

// Client talks to the validation service. The service keeps the most
// recently generated artifact per session, addressed via the session header.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a validation service client.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Validate runs validation for the session's current artifact.
func (c *Client) Validate(ctx context.Context, sessionID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	c.logger.Info("Requesting artifact validation", zap.String("session_id", sessionID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Validation service returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return nil, fmt.Errorf("validation service returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode validation result: %w", err)
	}
	if result.Description == "" {
		result.Description = DescribeReturnCode(result.ReturnCode)
	}

	c.logger.Info("Validation completed",
		zap.String("session_id", sessionID),
		zap.Int("return_code", result.ReturnCode),
		zap.Bool("valid", result.Valid()))
	return &result, nil
}

// Report fetches the validator's XML report for the session and parses the
// contained messages.
func (c *Client) Report(ctx context.Context, sessionID string) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/report", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validation service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	messages, err := ParseReport(data)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Validation report fetched",
		zap.String("session_id", sessionID),
		zap.Int("messages", len(messages)))
	return messages, nil
}
