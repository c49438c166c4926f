package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"xrechnung-gateway/internal/invoice"
)

// Client calls the remote extraction service: it uploads the PDF as a
// multipart form and decodes the returned invoice document.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an extraction service client.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Extract uploads the PDF and returns the extracted invoice document.
func (c *Client) Extract(ctx context.Context, filename string, pdf []byte) (invoice.Document, error) {
	var doc invoice.Document

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return doc, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return doc, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return doc, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return doc, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Info("Uploading PDF to extraction service",
		zap.String("filename", filename),
		zap.Int("size", len(pdf)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return doc, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Extraction service returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return doc, fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return doc, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	c.logger.Info("Invoice data extracted",
		zap.String("invoice_id", doc.Header.ID),
		zap.Int("items", len(doc.Trade.Items)))
	return doc, nil
}
