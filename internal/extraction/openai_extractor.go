package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"xrechnung-gateway/internal/invoice"
)

// OpenAIExtractor is the embedded extraction mode: PDF page text is pulled
// with mupdf and handed to an LLM that answers with the invoice document as
// a JSON object. Used when no remote extraction service is configured.
type OpenAIExtractor struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewOpenAIExtractor creates the embedded extractor.
func NewOpenAIExtractor(apiKey, model string, prompts *PromptConfig, logger *zap.Logger) *OpenAIExtractor {
	return &OpenAIExtractor{
		client:  openai.NewClient(apiKey),
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

// Extract reads the PDF text and asks the model for the structured document.
func (e *OpenAIExtractor) Extract(ctx context.Context, filename string, pdf []byte) (invoice.Document, error) {
	var doc invoice.Document

	text, err := pdfText(pdf)
	if err != nil {
		return doc, err
	}
	if strings.TrimSpace(text) == "" {
		return doc, fmt.Errorf("no extractable text in %s", filename)
	}

	e.logger.Info("Extracting invoice data from PDF text",
		zap.String("filename", filename),
		zap.Int("text_length", len(text)))

	userPrompt, err := e.prompts.BuildUserPrompt(text)
	if err != nil {
		return doc, err
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.prompts.InvoiceExtraction.Temperature,
		MaxTokens:   e.prompts.InvoiceExtraction.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: e.prompts.InvoiceExtraction.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Failed to call OpenAI API", zap.Error(err))
		return doc, fmt.Errorf("failed to extract invoice data: %w", err)
	}
	if len(resp.Choices) == 0 {
		return doc, fmt.Errorf("no response from model")
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		e.logger.Error("Failed to parse extraction result",
			zap.Error(err),
			zap.String("content", content))
		return doc, fmt.Errorf("failed to parse extraction result: %w", err)
	}

	e.logger.Info("Invoice data extracted",
		zap.String("invoice_id", doc.Header.ID),
		zap.Int("items", len(doc.Trade.Items)))
	return doc, nil
}

// pdfText concatenates the text of all pages.
func pdfText(pdf []byte) (string, error) {
	reader, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer reader.Close()

	var sb strings.Builder
	for page := 0; page < reader.NumPage(); page++ {
		text, err := reader.Text(page)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", page, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
