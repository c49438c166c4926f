package extraction

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompt and model parameters for the embedded
// extractor.
type PromptConfig struct {
	InvoiceExtraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"invoice_extraction"`
}

// LoadPrompts loads prompt configuration from a YAML file. An empty path
// returns the built-in defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	prompts := defaultPrompts()
	if promptsPath == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	return prompts, nil
}

// BuildUserPrompt renders the user prompt for the given PDF text.
func (p *PromptConfig) BuildUserPrompt(pdfText string) (string, error) {
	tmpl, err := template.New("user").Parse(p.InvoiceExtraction.UserTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse user template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{"Text": pdfText}); err != nil {
		return "", fmt.Errorf("failed to render user template: %w", err)
	}
	return buf.String(), nil
}

func defaultPrompts() *PromptConfig {
	p := &PromptConfig{}
	p.InvoiceExtraction.Temperature = 0.1
	p.InvoiceExtraction.MaxTokens = 4000
	p.InvoiceExtraction.System = "You are an expert in reading German invoices. " +
		"Extract structured invoice data from the provided text and answer with a single JSON object " +
		"matching the requested schema. Use null for values that are not present. " +
		"Dates are formatted as YYYY-MM-DD, monetary values as plain numbers."
	p.InvoiceExtraction.UserTemplate = "Extract the invoice fields (header with id, type_code, issue_date_time; " +
		"trade.agreement with seller and buyer including addresses and tax ids; " +
		"trade.settlement with currency_code and payment_means; " +
		"trade.items with line_id, product_name, quantity, agreement_net_price and settlement_tax " +
		"with category and rate) from this invoice text:\n\n{{.Text}}"
	return p
}
