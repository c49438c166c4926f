package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"xrechnung-gateway/internal/invoice"
)

// Artifact is a generated invoice document.
type Artifact struct {
	Content     []byte
	ContentType string
	Format      OutputFormat
}

// Client calls the remote conversion service. Conversion is not guaranteed
// to be idempotent against the service's session state, so the client never
// retries on its own.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a conversion service client.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// conversionRequest is the wire payload: the document with the output
// selectors filled in, as the service expects them inline.
type conversionRequest struct {
	invoice.Document
	SessionID string `json:"session_id,omitempty"`
}

// Convert submits the document and returns the generated artifact.
func (c *Client) Convert(ctx context.Context, sessionID string, doc invoice.Document, format OutputFormat, lang Language) (*Artifact, error) {
	payload := conversionRequest{Document: doc, SessionID: sessionID}
	payload.OutputFormat = string(format)
	payload.OutputLangCode = string(lang)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", sessionID)

	c.logger.Info("Requesting invoice conversion",
		zap.String("session_id", sessionID),
		zap.String("format", string(format)),
		zap.String("language", string(lang)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("conversion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Conversion service returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return nil, fmt.Errorf("conversion service returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		if format.IsHybrid() {
			contentType = "application/pdf"
		} else {
			contentType = "application/xml"
		}
	}

	c.logger.Info("Invoice artifact generated",
		zap.String("session_id", sessionID),
		zap.Int("size", len(content)))

	return &Artifact{
		Content:     content,
		ContentType: contentType,
		Format:      format,
	}, nil
}
